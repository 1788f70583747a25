package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

type chanPublisher struct {
	ch chan []AggregatedLogEntry
}

func (p *chanPublisher) PublishMessage(_ context.Context, _ string, payload interface{}) error {
	p.ch <- payload.([]AggregatedLogEntry)
	return nil
}

func TestNamedLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf).Named("engine")
	l.Info("tick", Int("hubs", 74), Float64("price", 2.75), Duration("took", 3*time.Millisecond))

	var out map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v (%s)", err, buf.String())
	}
	if out["component"] != "engine" || out["message"] != "tick" {
		t.Fatalf("unexpected entry %v", out)
	}
	if out["hubs"].(float64) != 74 || out["price"].(float64) != 2.75 || out["took"].(float64) != 3 {
		t.Fatalf("unexpected fields %v", out)
	}
}

func TestCollectorAggregatesErrors(t *testing.T) {
	pub := &chanPublisher{ch: make(chan []AggregatedLogEntry, 1)}
	l := NewWriter(&bytes.Buffer{})
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 1, Topic: "logs", Publisher: pub})
	defer l.RemoveCollector()

	l.Info("ignored")
	l.Error("publish failed", Error(errors.New("broker down")))

	select {
	case logs := <-pub.ch:
		if len(logs) != 1 || logs[0].Message != "publish failed" || logs[0].Level != "error" {
			t.Fatalf("unexpected aggregate %+v", logs)
		}
		if !strings.Contains(logs[0].Caller, "logger_test.go") {
			t.Fatalf("unexpected caller %q", logs[0].Caller)
		}
		if logs[0].Fields["error"] != "broker down" {
			t.Fatalf("unexpected fields %v", logs[0].Fields)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected aggregated logs to be published")
	}
}

func TestCollectorLevels(t *testing.T) {
	c := NewLogCollector(&CollectionConfig{Publisher: &chanPublisher{ch: make(chan []AggregatedLogEntry, 1)}, Levels: []string{"warn", "error"}})
	defer c.Close()
	if !c.Accepts("warn") || c.Accepts("info") {
		t.Fatalf("unexpected level filter")
	}
}

func TestCollectorFoldsRepeatsAndFlushesOnClose(t *testing.T) {
	pub := &chanPublisher{ch: make(chan []AggregatedLogEntry, 1)}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, Topic: "logs", Publisher: pub})

	fields := map[string]interface{}{"hub": "Henry Hub", "seq": 3}
	c.AddLog("error", "sink failed", fields, "usecase/simulator.go:10")
	c.AddLog("error", "sink failed", map[string]interface{}{"seq": 3, "hub": "Henry Hub"}, "usecase/simulator.go:10")
	c.AddLog("error", "sink failed", fields, "usecase/simulator.go:99")
	c.Close()

	select {
	case logs := <-pub.ch:
		if len(logs) != 2 {
			t.Fatalf("expected 2 distinct entries, got %+v", logs)
		}
		if logs[0].Count != 2 || logs[1].Count != 1 {
			t.Fatalf("unexpected counts %d %d", logs[0].Count, logs[1].Count)
		}
	default:
		t.Fatalf("close did not flush pending entries")
	}
}
