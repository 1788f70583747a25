package middleware

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"CommodSim/internal/domain/models"
	domrepo "CommodSim/internal/domain/repository"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, s *models.Snapshot) error
}

// SnapshotPipeline sits between the simulator and the snapshot sinks.
// It validates, throttles and buffers when downstream is unavailable.
type SnapshotPipeline struct {
	proc     Proc
	metrics  domrepo.Metrics
	maxRPS   int
	bufSize  int
	bufCh    chan *models.Snapshot
	stopCh   chan struct{}
	stopOnce sync.Once
	started  bool
	mu       sync.Mutex
	lastSent time.Time
	now      func() time.Time

	minBackoff time.Duration
	maxBackoff time.Duration
}

type PipelineOption func(*SnapshotPipeline)

// WithMaxRPS caps forwarded snapshots per second. 0 disables the throttle.
func WithMaxRPS(n int) PipelineOption {
	return func(p *SnapshotPipeline) {
		if n >= 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the retry buffer used while downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *SnapshotPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithBackoff sets the retry backoff bounds.
func WithBackoff(lo, hi time.Duration) PipelineOption {
	return func(p *SnapshotPipeline) {
		if lo > 0 && hi >= lo {
			p.minBackoff, p.maxBackoff = lo, hi
		}
	}
}

func NewSnapshotPipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *SnapshotPipeline {
	p := &SnapshotPipeline{
		proc:       proc,
		metrics:    metrics,
		maxRPS:     10,
		bufSize:    256,
		stopCh:     make(chan struct{}),
		now:        time.Now,
		minBackoff: 50 * time.Millisecond,
		maxBackoff: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.Snapshot, p.bufSize)
	return p
}

// Start launches background flushing of buffered snapshots.
func (p *SnapshotPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go p.flush(ctx)
}

func (p *SnapshotPipeline) flush(ctx context.Context) {
	backoff := p.minBackoff
	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case s := <-p.bufCh:
			if err := p.proc.Process(ctx, s); err == nil {
				backoff = p.minBackoff
				continue
			}
			p.metrics.RecordError("pipeline_flush")
			select {
			case <-time.After(backoff):
			case <-p.stopCh:
				return
			}
			if backoff < p.maxBackoff {
				backoff = min(backoff*2, p.maxBackoff)
			}
			// requeue if space, drop otherwise
			select {
			case p.bufCh <- s:
			default:
				p.metrics.RecordError("pipeline_buffer_drop")
			}
		}
	}
}

// Stop stops the background flushing. Buffered snapshots are discarded.
func (p *SnapshotPipeline) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
}

// Buffered reports snapshots waiting for retry.
func (p *SnapshotPipeline) Buffered() int { return len(p.bufCh) }

// Process validates, throttles and forwards s, buffering it on downstream errors.
func (p *SnapshotPipeline) Process(ctx context.Context, s *models.Snapshot) error {
	start := p.now()
	if err := validateSnapshot(s); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.allow(start) {
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.proc.Process(ctx, s); err != nil {
		p.metrics.RecordError("pipeline_process")
		select {
		case p.bufCh <- s:
			p.metrics.RecordLatency("pipeline_buffer_depth", float64(len(p.bufCh)))
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validateSnapshot(s *models.Snapshot) error {
	if s == nil {
		return fmt.Errorf("snapshot nil")
	}
	if s.Timestamp.IsZero() {
		return fmt.Errorf("snapshot %d: timestamp missing", s.Seq)
	}
	if len(s.Quotes) == 0 {
		return fmt.Errorf("snapshot %d: no quotes", s.Seq)
	}
	for _, q := range s.Quotes {
		if q.Hub == "" {
			return fmt.Errorf("snapshot %d: quote without hub", s.Seq)
		}
		if math.IsNaN(q.Price) || math.IsInf(q.Price, 0) {
			return fmt.Errorf("snapshot %d: invalid price for %s", s.Seq, q.Hub)
		}
	}
	return nil
}

func (p *SnapshotPipeline) allow(now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.lastSent.IsZero() && now.Sub(p.lastSent) < time.Second/time.Duration(p.maxRPS) {
		return false
	}
	p.lastSent = now
	return true
}
