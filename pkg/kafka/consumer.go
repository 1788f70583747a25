package kafka

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"

	"CommodSim/pkg/logger"
)

// MessageHandler consumes the payloads of one topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

type ConsumerOption func(*ConsumerConfig)

// ConsumerConfig controls the readers, the worker pool and failure handling.
// A message that still fails after RetryMax retries goes to DLQTopic when set.
type ConsumerConfig struct {
	Brokers     []string
	GroupID     string
	WorkerCount int
	BufferSize  int
	RetryMax    int
	BackoffMin  time.Duration
	BackoffMax  time.Duration
	DLQTopic    string
	MinBytes    int
	MaxBytes    int
	ReadTimeout time.Duration
	Logger      *logger.Logger
}

func WithConsumerBrokers(brokers []string) ConsumerOption {
	return func(c *ConsumerConfig) { c.Brokers = brokers }
}

func WithConsumerGroupID(groupID string) ConsumerOption {
	return func(c *ConsumerConfig) {
		if groupID != "" {
			c.GroupID = groupID
		}
	}
}

// WithConsumerWorkers sets the handler goroutine count. Values below 1 are ignored.
func WithConsumerWorkers(n int) ConsumerOption {
	return func(c *ConsumerConfig) {
		if n > 0 {
			c.WorkerCount = n
		}
	}
}

// WithConsumerRetry sets how often a failed message is retried and the
// exponential backoff range between attempts.
func WithConsumerRetry(retries int, lo, hi time.Duration) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.RetryMax = retries
		if lo > 0 {
			c.BackoffMin = lo
		}
		if hi >= c.BackoffMin {
			c.BackoffMax = hi
		}
	}
}

// WithConsumerDLQ routes exhausted messages to topic. Empty disables the DLQ.
func WithConsumerDLQ(topic string) ConsumerOption {
	return func(c *ConsumerConfig) { c.DLQTopic = topic }
}

func WithConsumerFetch(minBytes, maxBytes int) ConsumerOption {
	return func(c *ConsumerConfig) {
		if minBytes > 0 {
			c.MinBytes = minBytes
		}
		if maxBytes >= c.MinBytes {
			c.MaxBytes = maxBytes
		}
	}
}

func WithConsumerLogger(l *logger.Logger) ConsumerOption {
	return func(c *ConsumerConfig) { c.Logger = l }
}

// WithConsumerBufferSize sets the queue between readers and workers.
func WithConsumerBufferSize(n int) ConsumerOption {
	return func(c *ConsumerConfig) {
		if n > 0 {
			c.BufferSize = n
		}
	}
}

// Consumer reads the registered topics and fans messages out to a worker
// pool. Messages of one partition are handled one at a time.
type Consumer struct {
	cfg      ConsumerConfig
	log      *logger.Logger
	hook     ConsumerHook
	handlers map[string]MessageHandler
	readers  map[string]*kafka.Reader
	dlq      *kafka.Writer

	msgChan  chan *message
	stopChan chan struct{}
	stopOnce sync.Once
	readWG   sync.WaitGroup
	workWG   sync.WaitGroup

	partMu    sync.Mutex
	partLocks map[partitionKey]*sync.Mutex
}

type message struct {
	topic string
	data  []byte
	km    kafka.Message
}

type partitionKey struct {
	topic     string
	partition int
}

func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	cfg := ConsumerConfig{
		GroupID:     "commodsim",
		WorkerCount: 1,
		BufferSize:  16,
		RetryMax:    3,
		BackoffMin:  50 * time.Millisecond,
		BackoffMax:  2 * time.Second,
		MinBytes:    1,
		MaxBytes:    10e6,
		ReadTimeout: 3 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka consumer: brokers are required")
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	c := &Consumer{
		cfg:       cfg,
		log:       log.Named("kafka-consumer"),
		hook:      NoopHook{},
		handlers:  make(map[string]MessageHandler),
		readers:   make(map[string]*kafka.Reader),
		msgChan:   make(chan *message, cfg.BufferSize),
		stopChan:  make(chan struct{}),
		partLocks: make(map[partitionKey]*sync.Mutex),
	}
	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Topic: cfg.DLQTopic, Balancer: &kafka.LeastBytes{}}
	}
	registerConsumerMetrics()
	return c, nil
}

// WithConsumerHook installs h for handler lifecycle events. nil keeps the current hook.
func (c *Consumer) WithConsumerHook(h ConsumerHook) {
	if h != nil {
		c.hook = h
	}
}

// RegisterHandler binds h to its topic. The first handler for a topic wins.
func (c *Consumer) RegisterHandler(h MessageHandler) {
	topic := h.Topic()
	if _, dup := c.handlers[topic]; dup {
		c.log.Warn("handler already registered", logger.String("topic", topic))
		return
	}
	c.handlers[topic] = h
}

// Start opens one group reader per registered topic and launches the workers.
func (c *Consumer) Start() error {
	if len(c.handlers) == 0 {
		return fmt.Errorf("kafka consumer: no handlers registered")
	}
	for topic := range c.handlers {
		c.readers[topic] = kafka.NewReader(kafka.ReaderConfig{
			Brokers:  c.cfg.Brokers,
			Topic:    topic,
			GroupID:  c.cfg.GroupID,
			MinBytes: c.cfg.MinBytes,
			MaxBytes: c.cfg.MaxBytes,
		})
	}
	c.startWorkers()
	for topic, r := range c.readers {
		c.readWG.Add(1)
		go c.read(topic, r)
	}
	c.log.Info("consumer started",
		logger.Int("workers", c.cfg.WorkerCount),
		logger.Int("topics", len(c.readers)),
		logger.String("group", c.cfg.GroupID),
	)
	return nil
}

func (c *Consumer) startWorkers() {
	for i := 0; i < c.cfg.WorkerCount; i++ {
		c.workWG.Add(1)
		go func() {
			defer c.workWG.Done()
			for msg := range c.msgChan {
				c.handle(msg)
			}
		}()
	}
}

// Stop halts the readers, lets the workers drain the queue and closes the
// readers and the DLQ writer. ctx bounds the whole wait.
func (c *Consumer) Stop(ctx context.Context) error {
	var err error
	c.stopOnce.Do(func() {
		close(c.stopChan)
		if err = waitGroup(ctx, &c.readWG); err == nil {
			close(c.msgChan)
			err = waitGroup(ctx, &c.workWG)
		}
		for topic, r := range c.readers {
			if cerr := r.Close(); cerr != nil {
				c.log.Warn("close reader failed", logger.String("topic", topic), logger.Error(cerr))
			}
		}
		if c.dlq != nil {
			if cerr := c.dlq.Close(); cerr != nil {
				c.log.Warn("close dlq writer failed", logger.Error(cerr))
			}
		}
		if err == nil {
			c.log.Info("consumer stopped")
		}
	})
	return err
}

func waitGroup(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("kafka consumer stop: %w", ctx.Err())
	}
}

func (c *Consumer) read(topic string, r *kafka.Reader) {
	defer c.readWG.Done()
	for {
		select {
		case <-c.stopChan:
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.ReadTimeout)
		km, err := r.FetchMessage(ctx)
		cancel()
		if err != nil {
			if !errors.Is(err, context.DeadlineExceeded) {
				c.log.Warn("fetch message failed", logger.String("topic", topic), logger.Error(err))
			}
			continue
		}

		// blocks when workers fall behind so nothing is dropped
		select {
		case c.msgChan <- &message{topic: topic, data: km.Value, km: km}:
			consumerMetrics.depth.WithLabelValues(topic).Set(float64(len(c.msgChan)))
		case <-c.stopChan:
			return
		}
	}
}

func (c *Consumer) handle(msg *message) {
	h, ok := c.handlers[msg.topic]
	if !ok {
		return
	}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			consumerMetrics.failed.WithLabelValues(msg.topic, "panic").Inc()
			c.log.Error("message handler panic", logger.String("topic", msg.topic), logger.Any("panic", r))
		}
		consumerMetrics.latency.WithLabelValues(msg.topic).Observe(time.Since(start).Seconds())
	}()

	lock := c.partitionLock(msg.topic, msg.km.Partition)
	lock.Lock()
	defer lock.Unlock()

	attempts, aborted, err := c.deliver(h, msg)
	if aborted {
		return
	}
	if err != nil {
		consumerMetrics.failed.WithLabelValues(msg.topic, "handler").Inc()
		c.hook.OnError(context.Background(), msg.topic, msg.km, msg.data, err)
		c.log.Error("message handling failed",
			logger.String("topic", msg.topic),
			logger.Int("attempts", attempts),
			logger.Error(err),
		)
		if !c.deadLetter(msg, err) {
			return
		}
	}
	c.commit(msg)
}

// deliver runs the handler with retries. aborted reports that Stop interrupted a backoff.
func (c *Consumer) deliver(h MessageHandler, msg *message) (attempts int, aborted bool, err error) {
	for {
		attempts++
		ctx, km, data, berr := c.hook.BeforeHandle(context.Background(), msg.topic, msg.km, msg.data)
		if berr != nil {
			return attempts, false, berr
		}
		err = h.Handle(ctx, data)
		c.hook.AfterHandle(ctx, msg.topic, km, data, err)
		if err == nil || attempts > c.cfg.RetryMax {
			return attempts, false, err
		}
		c.hook.OnError(ctx, msg.topic, km, data, err)
		select {
		case <-time.After(backoffWithJitter(c.cfg.BackoffMin, c.cfg.BackoffMax, attempts)):
		case <-c.stopChan:
			return attempts, true, err
		}
	}
}

func (c *Consumer) deadLetter(msg *message, cause error) bool {
	if c.dlq == nil {
		return false
	}
	err := c.dlq.WriteMessages(context.Background(), kafka.Message{
		Key:   msg.km.Key,
		Value: msg.data,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "source_topic", Value: []byte(msg.topic)},
			{Key: "error", Value: []byte(cause.Error())},
		},
	})
	if err != nil {
		c.log.Error("dlq write failed", logger.String("topic", c.cfg.DLQTopic), logger.Error(err))
		return false
	}
	consumerMetrics.failed.WithLabelValues(msg.topic, "dlq").Inc()
	return true
}

func (c *Consumer) commit(msg *message) {
	r := c.readers[msg.topic]
	if r == nil {
		return
	}
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = r.CommitMessages(ctx, msg.km)
		cancel()
		if err == nil {
			return
		}
		time.Sleep(backoffWithJitter(50*time.Millisecond, 500*time.Millisecond, attempt))
	}
	c.log.Error("commit failed", logger.String("topic", msg.topic), logger.Int64("offset", msg.km.Offset), logger.Error(err))
}

func (c *Consumer) partitionLock(topic string, partition int) *sync.Mutex {
	c.partMu.Lock()
	defer c.partMu.Unlock()
	k := partitionKey{topic: topic, partition: partition}
	l, ok := c.partLocks[k]
	if !ok {
		l = &sync.Mutex{}
		c.partLocks[k] = l
	}
	return l
}

// backoffWithJitter doubles lo per attempt up to hi and subtracts up to half
// of it as jitter.
func backoffWithJitter(lo, hi time.Duration, attempt int) time.Duration {
	if lo <= 0 {
		lo = 50 * time.Millisecond
	}
	if hi < lo {
		hi = lo
	}
	d := hi
	if attempt < 32 {
		if exp := lo << uint(attempt-1); exp > 0 && exp < hi {
			d = exp
		}
	}
	if half := int64(d) / 2; half > 0 {
		d -= time.Duration(rand.Int63n(half))
	}
	return d
}

var (
	consumerMetrics struct {
		depth   *prometheus.GaugeVec
		latency *prometheus.HistogramVec
		failed  *prometheus.CounterVec
	}
	consumerMetricsOnce sync.Once
	consumerRegisterer  prometheus.Registerer = prometheus.DefaultRegisterer
)

// SetConsumerMetricsRegisterer must be called before the first NewConsumer.
func SetConsumerMetricsRegisterer(reg prometheus.Registerer) { consumerRegisterer = reg }

func registerConsumerMetrics() {
	consumerMetricsOnce.Do(func() {
		f := promauto.With(consumerRegisterer)
		consumerMetrics.depth = f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "commodsim_kafka_consumer_queue_depth",
			Help: "Messages waiting for a consumer worker",
		}, []string{"topic"})
		consumerMetrics.latency = f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "commodsim_kafka_consumer_handle_seconds",
			Help:    "Time spent handling one message including retries",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"topic"})
		consumerMetrics.failed = f.NewCounterVec(prometheus.CounterOpts{
			Name: "commodsim_kafka_consumer_failures_total",
			Help: "Messages that failed handling, by outcome",
		}, []string{"topic", "outcome"})
	})
}
