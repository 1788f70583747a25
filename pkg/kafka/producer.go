package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// Writer is the subset of *kafka.Writer the producer needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer encodes values as JSON (bytes and strings pass through) and hands
// them to a Writer. Snapshots and aggregated logs both go out through it.
type Producer struct {
	writer Writer
	comp   string
}

// NewProducer creates a new Kafka producer.
func NewProducer(opts ...ProducerOption) (*Producer, error) {
	cfg := &ProducerConfig{
		RequiredAcks: -1,
		Compression:  "snappy",
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
		BatchSize:    100,
		BatchBytes:   1048576,
		BatchTimeout: 10 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka producer: brokers are required")
	}

	bal := kafka.Balancer(&kafka.LeastBytes{})
	if cfg.HashByKey {
		bal = &kafka.Hash{}
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     bal,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:  parseCompression(cfg.Compression),
		MaxAttempts:  cfg.MaxAttempts,
		WriteTimeout: cfg.WriteTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		BatchSize:    cfg.BatchSize,
		BatchBytes:   int64(cfg.BatchBytes),
		BatchTimeout: cfg.BatchTimeout,
		Async:        cfg.Async,
	}

	return NewProducerWithWriter(writer, cfg.Compression), nil
}

// NewProducerWithWriter wraps an existing writer. Tests pass an in-memory one.
func NewProducerWithWriter(w Writer, compression string) *Producer {
	registerProducerMetrics()
	if compression == "" {
		compression = "snappy"
	}
	return &Producer{writer: w, comp: compression}
}

// Message is an unencoded record. Headers become Kafka record headers.
type Message struct {
	Key     []byte
	Value   interface{}
	Headers map[string]string
}

func encodeValue(value interface{}) ([]byte, error) {
	switch val := value.(type) {
	case []byte:
		return val, nil
	case string:
		return []byte(val), nil
	default:
		b, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("marshal value: %w", err)
		}
		return b, nil
	}
}

func toKafka(topic string, m Message) (kafka.Message, error) {
	v, err := encodeValue(m.Value)
	if err != nil {
		return kafka.Message{}, err
	}
	km := kafka.Message{Topic: topic, Key: m.Key, Value: v, Time: time.Now()}
	for k, hv := range m.Headers {
		km.Headers = append(km.Headers, kafka.Header{Key: k, Value: []byte(hv)})
	}
	return km, nil
}

func (p *Producer) Publish(ctx context.Context, topic string, key []byte, value interface{}) error {
	return p.PublishBatch(ctx, topic, []Message{{Key: key, Value: value}})
}

// PublishMessage sends a keyless JSON payload. It lets the producer act as a
// log collector sink.
func (p *Producer) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.Publish(ctx, topic, nil, payload)
}

// PublishBatch encodes all messages first and writes them in one call, so an
// encoding failure publishes nothing.
func (p *Producer) PublishBatch(ctx context.Context, topic string, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}

	start := time.Now()
	msgs := make([]kafka.Message, 0, len(messages))
	var size int64
	for i, m := range messages {
		km, err := toKafka(topic, m)
		if err != nil {
			return fmt.Errorf("encode %s message %d: %w", topic, i, err)
		}
		msgs = append(msgs, km)
		size += int64(len(km.Key) + len(km.Value))
	}

	err := p.writer.WriteMessages(ctx, msgs...)
	p.observe(topic, size, len(msgs), time.Since(start), err)
	if err != nil {
		return fmt.Errorf("write %s: %w", topic, err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

func parseCompression(s string) kafka.Compression {
	switch s {
	case "gzip":
		return kafka.Gzip
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return kafka.Snappy
	}
}

var (
	producerMetrics struct {
		messages *prometheus.CounterVec
		bytes    *prometheus.CounterVec
		latency  *prometheus.HistogramVec
	}
	producerMetricsOnce sync.Once
)

// registerProducerMetrics shares the registerer chosen for the consumer.
func registerProducerMetrics() {
	producerMetricsOnce.Do(func() {
		f := promauto.With(consumerRegisterer)
		producerMetrics.messages = f.NewCounterVec(prometheus.CounterOpts{
			Name: "commodsim_kafka_producer_messages_total",
			Help: "Messages handed to the Kafka writer, by result",
		}, []string{"topic", "compression", "result"})
		producerMetrics.bytes = f.NewCounterVec(prometheus.CounterOpts{
			Name: "commodsim_kafka_producer_bytes_total",
			Help: "Encoded payload bytes published",
		}, []string{"topic"})
		producerMetrics.latency = f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "commodsim_kafka_producer_publish_seconds",
			Help:    "WriteMessages latency per batch",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"topic"})
	})
}

func (p *Producer) observe(topic string, size int64, count int, took time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	producerMetrics.messages.WithLabelValues(topic, p.comp, result).Add(float64(count))
	if err == nil {
		producerMetrics.bytes.WithLabelValues(topic).Add(float64(size))
	}
	producerMetrics.latency.WithLabelValues(topic).Observe(took.Seconds())
}
