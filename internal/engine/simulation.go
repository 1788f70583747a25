package engine

import (
	"time"

	"CommodSim/internal/domain/models"
)

const (
	SeedLength = 180
	HistoryCap = 200
)

// Registry resolves hubs and enumerates sectors. It is read-only for the engine.
type Registry interface {
	Sectors() []models.Sector
	Lookup(name string) (models.Hub, models.Sector, bool)
}

// BiasSource supplies the exogenous weather bias per hub.
type BiasSource interface {
	Bias(hub string) (float64, bool)
}

// VisibilitySet receives every seeded hub once.
type VisibilitySet interface {
	Show(hub string)
}

// TickInfo describes a completed tick.
type TickInfo struct {
	Seq           uint64
	Hubs          int
	Curves        int
	SkippedCurves int
	Duration      time.Duration
}

type Option func(*Simulation)

func WithRand(r Rand) Option {
	return func(s *Simulation) {
		if r != nil {
			s.rnd = r
		}
	}
}

func WithBias(b BiasSource) Option {
	return func(s *Simulation) { s.bias = b }
}

func WithVisibility(v VisibilitySet) Option {
	return func(s *Simulation) { s.visible = v }
}

// WithOnChange registers the "state changed" signal raised after every tick.
func WithOnChange(fn func(TickInfo)) Option {
	return func(s *Simulation) { s.onChange = fn }
}

// WithSeedLength overrides the number of points generated per hub by Seed.
func WithSeedLength(n int) Option {
	return func(s *Simulation) {
		if n > 0 {
			s.seedLength = n
		}
	}
}

// WithHistoryCap overrides the FIFO history bound.
func WithHistoryCap(n int) Option {
	return func(s *Simulation) {
		if n > 0 {
			s.historyCap = n
		}
	}
}

// Simulation owns all price histories and forward curves. It is not safe for
// concurrent use; callers serialize Seed, Tick and queries.
type Simulation struct {
	registry Registry
	rnd      Rand
	bias     BiasSource
	visible  VisibilitySet
	onChange func(TickInfo)

	seedLength int
	historyCap int

	history map[string][]float64
	curves  map[string]*models.ForwardCurve
	// curveOrder keeps curve ticks in seed order so runs are reproducible.
	curveOrder []string
	seq        uint64
	now        func() time.Time
}

func New(registry Registry, opts ...Option) *Simulation {
	s := &Simulation{
		registry:   registry,
		rnd:        NewRand(time.Now().UnixNano()),
		seedLength: SeedLength,
		historyCap: HistoryCap,
		history:    make(map[string][]float64),
		curves:     make(map[string]*models.ForwardCurve),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.seedLength > s.historyCap {
		s.seedLength = s.historyCap
	}
	return s
}

// Seed creates every history and curve from scratch.
func (s *Simulation) Seed() {
	s.history = make(map[string][]float64)
	s.curves = make(map[string]*models.ForwardCurve)
	s.curveOrder = s.curveOrder[:0]
	s.seq = 0

	for _, sector := range s.registry.Sectors() {
		for _, hub := range sector.Hubs {
			s.history[hub.Name] = s.seedHistory(hub)
			if s.visible != nil {
				s.visible.Show(hub.Name)
			}
		}
	}
	s.seedCurves()
}

// Tick advances spot prices, then curves, then raises the change signal.
func (s *Simulation) Tick() TickInfo {
	start := s.now()
	hubs := s.tickSpot()
	curves, skipped := s.tickCurves()
	s.seq++

	info := TickInfo{
		Seq:           s.seq,
		Hubs:          hubs,
		Curves:        curves,
		SkippedCurves: skipped,
		Duration:      s.now().Sub(start),
	}
	if s.onChange != nil {
		s.onChange(info)
	}
	return info
}

// Seq returns the number of ticks since the last Seed.
func (s *Simulation) Seq() uint64 { return s.seq }

// Seeded reports whether Seed produced any state.
func (s *Simulation) Seeded() bool { return len(s.history) > 0 }
