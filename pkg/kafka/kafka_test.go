package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestEncodeValue(t *testing.T) {
	b, err := encodeValue([]byte("raw"))
	if err != nil || string(b) != "raw" {
		t.Fatalf("bytes passthrough: %q %v", b, err)
	}
	b, err = encodeValue("text")
	if err != nil || string(b) != "text" {
		t.Fatalf("string passthrough: %q %v", b, err)
	}
	b, err = encodeValue(map[string]float64{"HH": 0.01})
	if err != nil || string(b) != `{"HH":0.01}` {
		t.Fatalf("json: %q %v", b, err)
	}
	if _, err := encodeValue(make(chan int)); err == nil {
		t.Fatalf("expected marshal error")
	}
}

func TestParseCompression(t *testing.T) {
	cases := map[string]kafka.Compression{
		"gzip":   kafka.Gzip,
		"lz4":    kafka.Lz4,
		"zstd":   kafka.Zstd,
		"snappy": kafka.Snappy,
		"":       kafka.Snappy,
	}
	for in, want := range cases {
		if got := parseCompression(in); got != want {
			t.Fatalf("%q: got %v want %v", in, got, want)
		}
	}
}

func TestProducerPublishBatch(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, "snappy")

	err := p.PublishBatch(context.Background(), "commodsim.snapshots", []Message{
		{Key: []byte("a"), Value: map[string]int{"seq": 1}, Headers: map[string]string{"trace_id": "t1"}},
		{Key: []byte("b"), Value: "plain"},
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(w.msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(w.msgs))
	}
	if w.msgs[0].Topic != "commodsim.snapshots" || string(w.msgs[0].Value) != `{"seq":1}` {
		t.Fatalf("unexpected first message %+v", w.msgs[0])
	}
	if ExtractTraceID(w.msgs[0]) != "t1" {
		t.Fatalf("trace header lost")
	}
	if err := p.PublishBatch(context.Background(), "x", nil); err != nil {
		t.Fatalf("empty batch should be a no-op: %v", err)
	}
	if err := p.Close(); err != nil || !w.closed {
		t.Fatalf("close not forwarded")
	}
}

func TestProducerWrapsWriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewProducerWithWriter(&fakeWriter{err: boom}, "gzip")
	err := p.PublishMessage(context.Background(), "commodsim.logs", map[string]string{"msg": "x"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	if _, err := NewProducer(); err == nil {
		t.Fatalf("expected error without brokers")
	}
}

func TestHookChainOrder(t *testing.T) {
	var order []string
	mk := func(name string) ConsumerHook {
		return HookFuncs{
			Before: func(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
				order = append(order, "before:"+name)
				return ctx, km, append(data, name...), nil
			},
			After: func(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
				order = append(order, "after:"+name)
			},
		}
	}
	chain := NewHookChain(mk("a"), nil, mk("b"))

	_, _, data, err := chain.BeforeHandle(context.Background(), "t", kafka.Message{}, []byte(">"))
	if err != nil {
		t.Fatalf("before: %v", err)
	}
	if string(data) != ">ab" {
		t.Fatalf("payload not threaded: %q", data)
	}
	chain.AfterHandle(context.Background(), "t", kafka.Message{}, data, nil)

	want := []string{"before:a", "before:b", "after:b", "after:a"}
	if len(order) != len(want) {
		t.Fatalf("order %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order %v want %v", order, want)
		}
	}
}

func TestHookChainRecoversPanic(t *testing.T) {
	var errs int
	chain := NewHookChain(
		HookFuncs{Err: func(context.Context, string, kafka.Message, []byte, error) { errs++ }},
		HookFuncs{Before: func(context.Context, string, kafka.Message, []byte) (context.Context, kafka.Message, []byte, error) {
			panic("bad hook")
		}},
	)
	_, _, _, err := chain.BeforeHandle(context.Background(), "t", kafka.Message{}, nil)
	var he *HookError
	if !errors.As(err, &he) || he.Code != "ERR_PANIC" {
		t.Fatalf("expected ERR_PANIC, got %v", err)
	}
	if errs != 1 {
		t.Fatalf("expected OnError once, got %d", errs)
	}
}

func TestLoggingHookStampsContext(t *testing.T) {
	km := kafka.Message{Headers: []kafka.Header{{Key: "trace_id", Value: []byte("abc")}}}
	ctx, _, _, err := LoggingHook{}.BeforeHandle(context.Background(), "t", km, nil)
	if err != nil {
		t.Fatalf("before: %v", err)
	}
	if TraceID(ctx) != "abc" {
		t.Fatalf("trace id not stored")
	}
	if _, ok := ctx.Value(CtxStartTime).(time.Time); !ok {
		t.Fatalf("start time not stored")
	}
}

type flakyHandler struct {
	fails int
	calls int
	done  chan struct{}
}

func (h *flakyHandler) Topic() string { return "commodsim.weather-bias" }

func (h *flakyHandler) Handle(ctx context.Context, b []byte) error {
	h.calls++
	if h.calls <= h.fails {
		return errors.New("transient")
	}
	close(h.done)
	return nil
}

func TestConsumerWorkerRetries(t *testing.T) {
	c, err := NewConsumer(
		WithConsumerBrokers([]string{"localhost:9092"}),
		WithConsumerRetry(3, time.Millisecond, 2*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("new consumer: %v", err)
	}
	h := &flakyHandler{fails: 2, done: make(chan struct{})}
	c.RegisterHandler(h)
	c.startWorkers()

	c.msgChan <- &message{topic: h.Topic(), data: []byte(`{}`)}

	select {
	case <-h.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("handler never succeeded, calls=%d", h.calls)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if h.calls != 3 {
		t.Fatalf("expected 3 calls, got %d", h.calls)
	}
}

func TestBackoffWithJitterBounds(t *testing.T) {
	for attempt := 1; attempt <= 6; attempt++ {
		d := backoffWithJitter(10*time.Millisecond, 80*time.Millisecond, attempt)
		if d <= 0 || d > 80*time.Millisecond {
			t.Fatalf("attempt %d: %v out of range", attempt, d)
		}
	}
}

func TestConsumerStartRequiresHandlers(t *testing.T) {
	c, err := NewConsumer(WithConsumerBrokers([]string{"localhost:9092"}))
	if err != nil {
		t.Fatalf("new consumer: %v", err)
	}
	if err := c.Start(); err == nil {
		t.Fatalf("expected error without handlers")
	}
}

func TestConsumerOptionsIgnoreInvalid(t *testing.T) {
	c, err := NewConsumer(
		WithConsumerBrokers([]string{"localhost:9092"}),
		WithConsumerWorkers(0),
		WithConsumerGroupID(""),
		WithConsumerRetry(1, 0, 0),
	)
	if err != nil {
		t.Fatalf("new consumer: %v", err)
	}
	if c.cfg.WorkerCount != 1 || c.cfg.GroupID != "commodsim" {
		t.Fatalf("defaults overwritten: %+v", c.cfg)
	}
	if c.cfg.BackoffMin != 50*time.Millisecond || c.cfg.BackoffMax != 2*time.Second {
		t.Fatalf("backoff overwritten: %v %v", c.cfg.BackoffMin, c.cfg.BackoffMax)
	}
}
