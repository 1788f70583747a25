package middleware

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"CommodSim/internal/domain/models"
)

type countingMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func newCountingMetrics() *countingMetrics { return &countingMetrics{errors: map[string]int{}} }

func (m *countingMetrics) RecordTick(float64)                 {}
func (m *countingMetrics) RecordSpot(string, string, float64) {}
func (m *countingMetrics) RecordSnapshotPublished(string)     {}
func (m *countingMetrics) RecordLatency(string, float64)      {}
func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}

func (m *countingMetrics) count(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

type flakyProc struct {
	mu    sync.Mutex
	fails int
	got   []uint64
	done  chan struct{}
}

func (p *flakyProc) Process(ctx context.Context, s *models.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fails > 0 {
		p.fails--
		return errors.New("downstream unavailable")
	}
	p.got = append(p.got, s.Seq)
	if p.done != nil {
		close(p.done)
		p.done = nil
	}
	return nil
}

func snap(seq uint64) *models.Snapshot {
	return &models.Snapshot{
		Seq:       seq,
		Timestamp: time.Now(),
		Quotes:    []models.Quote{{Hub: "Henry Hub", Price: 2.5}},
	}
}

func TestPipelineRejectsInvalidSnapshots(t *testing.T) {
	m := newCountingMetrics()
	p := NewSnapshotPipeline(&flakyProc{}, m, WithMaxRPS(0))
	ctx := context.Background()

	bad := []*models.Snapshot{
		nil,
		{Seq: 1, Quotes: []models.Quote{{Hub: "Henry Hub", Price: 1}}},
		{Seq: 2, Timestamp: time.Now()},
		{Seq: 3, Timestamp: time.Now(), Quotes: []models.Quote{{Hub: "Henry Hub", Price: math.NaN()}}},
		{Seq: 4, Timestamp: time.Now(), Quotes: []models.Quote{{Price: 1}}},
	}
	for _, s := range bad {
		if err := p.Process(ctx, s); err == nil {
			t.Fatalf("expected validation error for %+v", s)
		}
	}
	if m.count("pipeline_validate") != len(bad) {
		t.Fatalf("validate errors %d", m.count("pipeline_validate"))
	}
}

func TestPipelineThrottles(t *testing.T) {
	m := newCountingMetrics()
	proc := &flakyProc{}
	p := NewSnapshotPipeline(proc, m, WithMaxRPS(1))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := base
	p.now = func() time.Time { return clock }

	ctx := context.Background()
	_ = p.Process(ctx, snap(1))
	clock = base.Add(100 * time.Millisecond)
	_ = p.Process(ctx, snap(2))
	clock = base.Add(1100 * time.Millisecond)
	_ = p.Process(ctx, snap(3))

	if len(proc.got) != 2 || proc.got[0] != 1 || proc.got[1] != 3 {
		t.Fatalf("unexpected forwarded seqs %v", proc.got)
	}
	if m.count("pipeline_throttle") != 1 {
		t.Fatalf("throttle count %d", m.count("pipeline_throttle"))
	}
}

func TestPipelineBuffersAndRetries(t *testing.T) {
	m := newCountingMetrics()
	done := make(chan struct{})
	proc := &flakyProc{fails: 2, done: done}
	p := NewSnapshotPipeline(proc, m, WithMaxRPS(0), WithBufferSize(4), WithBackoff(time.Millisecond, 4*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	if err := p.Process(ctx, snap(9)); err == nil {
		t.Fatalf("expected downstream error")
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("buffered snapshot was never delivered")
	}
	proc.mu.Lock()
	got := append([]uint64(nil), proc.got...)
	proc.mu.Unlock()
	if len(got) != 1 || got[0] != 9 {
		t.Fatalf("unexpected delivered seqs %v", got)
	}
	if m.count("pipeline_process") != 1 || m.count("pipeline_flush") != 1 {
		t.Fatalf("unexpected error counts process=%d flush=%d", m.count("pipeline_process"), m.count("pipeline_flush"))
	}
}

func TestPipelineStopIsIdempotent(t *testing.T) {
	p := NewSnapshotPipeline(&flakyProc{}, newCountingMetrics())
	p.Start(context.Background())
	p.Stop()
	p.Stop()
}
