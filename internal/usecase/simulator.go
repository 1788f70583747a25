package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"CommodSim/internal/domain/models"
	domrepo "CommodSim/internal/domain/repository"
	domsvc "CommodSim/internal/domain/service"
	"CommodSim/internal/engine"
	"CommodSim/internal/registry"
	"CommodSim/pkg/logger"
)

// ErrUnknownHub is returned by read operations for hubs the registry cannot resolve.
var ErrUnknownHub = errors.New("unknown hub")

// SnapshotSink receives the snapshot built after every tick.
type SnapshotSink interface {
	Process(ctx context.Context, s *models.Snapshot) error
}

type SimulatorConfig struct {
	TickInterval   time.Duration
	Seed           int64
	SeedLength     int
	HistoryCap     int
	WeatherRefresh time.Duration
}

// MarketSimulator hosts the engine. One RWMutex serializes it: a tick holds
// the write lock for its whole run and reads share the read lock, so readers
// only observe state between ticks.
type MarketSimulator struct {
	cfg     SimulatorConfig
	reg     *registry.Registry
	vis     *VisibilityStore
	weather domsvc.WeatherBias
	metrics domrepo.Metrics
	log     *logger.Logger

	mu      sync.RWMutex
	sim     *engine.Simulation
	pending *models.Snapshot
	latest  *models.Snapshot
	now     func() time.Time

	sinkMu    sync.RWMutex
	sink      SnapshotSink
	listeners []func(*models.Snapshot)

	cron *cron.Cron
}

// NewMarketSimulator wires the engine to the registry, visibility set and
// weather bias. weather may be nil.
func NewMarketSimulator(
	cfg SimulatorConfig,
	reg *registry.Registry,
	vis *VisibilityStore,
	weather domsvc.WeatherBias,
	metrics domrepo.Metrics,
	log *logger.Logger,
	extra ...engine.Option,
) *MarketSimulator {
	m := &MarketSimulator{
		cfg:     cfg,
		reg:     reg,
		vis:     vis,
		weather: weather,
		metrics: metrics,
		log:     log.Named("simulator"),
		now:     time.Now,
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	opts := []engine.Option{
		engine.WithRand(engine.NewRand(seed)),
		engine.WithVisibility(vis),
		engine.WithSeedLength(cfg.SeedLength),
		engine.WithHistoryCap(cfg.HistoryCap),
		engine.WithOnChange(m.onChange),
	}
	if weather != nil {
		opts = append(opts, engine.WithBias(weather))
	}
	m.sim = engine.New(reg, append(opts, extra...)...)
	return m
}

// SetSink routes post-tick snapshots downstream.
func (m *MarketSimulator) SetSink(s SnapshotSink) {
	m.sinkMu.Lock()
	m.sink = s
	m.sinkMu.Unlock()
}

// Subscribe registers fn for every post-tick snapshot. fn must not block.
func (m *MarketSimulator) Subscribe(fn func(*models.Snapshot)) {
	m.sinkMu.Lock()
	m.listeners = append(m.listeners, fn)
	m.sinkMu.Unlock()
}

// Seed (re)creates all state. The first snapshot is built immediately so
// readers never see an empty board.
func (m *MarketSimulator) Seed() {
	m.mu.Lock()
	m.sim.Seed()
	m.latest = m.buildSnapshot(0)
	m.mu.Unlock()
	m.log.Info("seeded", logger.Int("hubs", len(m.reg.HubNames())))
}

// Tick runs one spot and curve advance and dispatches the resulting snapshot.
func (m *MarketSimulator) Tick(ctx context.Context) engine.TickInfo {
	m.mu.Lock()
	info := m.sim.Tick()
	snap := m.pending
	m.pending = nil
	if snap != nil {
		m.latest = snap
	}
	m.mu.Unlock()

	m.metrics.RecordTick(info.Duration.Seconds())
	if info.SkippedCurves > 0 {
		m.log.Warn("curves skipped", logger.Int("skipped", info.SkippedCurves), logger.Uint64("seq", info.Seq))
	}
	if snap != nil {
		m.dispatch(ctx, snap)
	}
	return info
}

// onChange runs inside sim.Tick, with the write lock already held.
func (m *MarketSimulator) onChange(info engine.TickInfo) {
	m.pending = m.buildSnapshot(info.Seq)
}

func (m *MarketSimulator) buildSnapshot(seq uint64) *models.Snapshot {
	snap := &models.Snapshot{
		Seq:       seq,
		Timestamp: m.now().UTC(),
		Fronts:    make(map[string]float64),
	}
	for _, sector := range m.reg.Sectors() {
		for _, hub := range sector.Hubs {
			snap.Quotes = append(snap.Quotes, m.quote(sector, hub.Name))
			if c, ok := m.sim.Curve(hub.Name); ok {
				snap.Fronts[hub.Name] = c[0].Price
			}
		}
	}
	return snap
}

func (m *MarketSimulator) quote(sector models.Sector, hub string) models.Quote {
	return models.Quote{
		Hub:           hub,
		Sector:        sector.ID,
		Price:         m.sim.CurrentPrice(hub),
		Change:        m.sim.AbsoluteChange(hub),
		ChangePercent: m.sim.PercentChange(hub),
		Visible:       m.vis.Visible(hub),
	}
}

func (m *MarketSimulator) dispatch(ctx context.Context, snap *models.Snapshot) {
	for _, q := range snap.Quotes {
		m.metrics.RecordSpot(string(q.Sector), q.Hub, q.Price)
	}

	m.sinkMu.RLock()
	sink := m.sink
	listeners := m.listeners
	m.sinkMu.RUnlock()

	for _, fn := range listeners {
		fn(snap)
	}
	if sink != nil {
		if err := sink.Process(ctx, snap); err != nil {
			m.log.Warn("snapshot sink failed", logger.Uint64("seq", snap.Seq), logger.Error(err))
		}
	}
}

// Start seeds if needed, refreshes the weather once and schedules the tick
// and weather jobs.
func (m *MarketSimulator) Start(ctx context.Context) error {
	m.mu.RLock()
	seeded := m.sim.Seeded()
	m.mu.RUnlock()
	if !seeded {
		m.Seed()
	}

	if m.weather != nil {
		m.refreshWeather(ctx)
	}

	interval := m.cfg.TickInterval
	if interval <= 0 {
		interval = 8 * time.Second
	}
	m.cron = cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := m.cron.AddFunc(fmt.Sprintf("@every %s", interval), func() { m.Tick(ctx) }); err != nil {
		return fmt.Errorf("schedule tick: %w", err)
	}
	if m.weather != nil && m.cfg.WeatherRefresh > 0 {
		spec := fmt.Sprintf("@every %s", m.cfg.WeatherRefresh)
		if _, err := m.cron.AddFunc(spec, func() { m.refreshWeather(ctx) }); err != nil {
			return fmt.Errorf("schedule weather refresh: %w", err)
		}
	}
	m.cron.Start()
	m.log.Info("started", logger.Duration("tick_ms", interval))
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (m *MarketSimulator) Stop(ctx context.Context) error {
	if m.cron == nil {
		return nil
	}
	done := m.cron.Stop()
	select {
	case <-done.Done():
		m.log.Info("stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for running tick: %w", ctx.Err())
	}
}

func (m *MarketSimulator) refreshWeather(ctx context.Context) {
	rctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	start := time.Now()
	if err := m.weather.Refresh(rctx); err != nil {
		m.metrics.RecordError("weather_refresh")
		m.log.Warn("weather refresh failed", logger.Error(err))
		return
	}
	m.metrics.RecordLatency("weather_refresh", time.Since(start).Seconds())
}

// read runs fn under the read lock.
func (m *MarketSimulator) read(fn func(sim *engine.Simulation)) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fn(m.sim)
}

// Latest returns the snapshot of the most recent tick, or the seed snapshot.
func (m *MarketSimulator) Latest() (*models.Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest, m.latest != nil
}

func (m *MarketSimulator) Seq() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sim.Seq()
}

// Registry returns the hub registry backing the simulation.
func (m *MarketSimulator) Registry() *registry.Registry { return m.reg }
