package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"CommodSim/internal/domain/models"
	"CommodSim/internal/engine"
	mid "CommodSim/internal/middleware"
	"CommodSim/internal/registry"
	"CommodSim/internal/repository"
	"CommodSim/internal/services/options"
	pkgcache "CommodSim/pkg/cache"
	"CommodSim/pkg/logger"
)

type fakeMetrics struct {
	mu        sync.Mutex
	ticks     int
	spots     map[string]float64
	published map[string]int
	errors    map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{spots: map[string]float64{}, published: map[string]int{}, errors: map[string]int{}}
}

func (m *fakeMetrics) RecordTick(float64) {
	m.mu.Lock()
	m.ticks++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordSpot(sector, hub string, price float64) {
	m.mu.Lock()
	m.spots[hub] = price
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordSnapshotPublished(sink string) {
	m.mu.Lock()
	m.published[sink]++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordLatency(string, float64) {}

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r, err := registry.New([]models.Sector{
		{ID: models.SectorNG, Name: "Natural Gas", BiasEligible: true, Hubs: []models.Hub{
			{Name: "Henry Hub", Base: 3, Vol: 10},
		}},
		{ID: models.SectorPower, Name: "Power", AllowsNegativePrices: true, BiasEligible: true, Hubs: []models.Hub{
			{Name: "ERCOT Hub", Base: 40, Vol: 50},
		}},
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return r
}

func newTestSimulator(t *testing.T) (*MarketSimulator, *fakeMetrics) {
	t.Helper()
	m := newFakeMetrics()
	sim := NewMarketSimulator(
		SimulatorConfig{Seed: 7, SeedLength: 10, HistoryCap: 20},
		testRegistry(t),
		NewVisibilityStore(),
		nil,
		m,
		logger.Nop(),
	)
	sim.now = func() time.Time { return time.Date(2024, 11, 20, 12, 0, 0, 0, time.UTC) }
	sim.Seed()
	return sim, m
}

type recordingSink struct {
	mu    sync.Mutex
	snaps []*models.Snapshot
	err   error
}

func (s *recordingSink) Process(ctx context.Context, snap *models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps = append(s.snaps, snap)
	return s.err
}

func TestSeedMarksHubsVisible(t *testing.T) {
	sim, _ := newTestSimulator(t)
	if sim.vis.Count() != 2 {
		t.Fatalf("expected 2 visible hubs, got %d", sim.vis.Count())
	}
	snap, ok := sim.Latest()
	if !ok || snap.Seq != 0 || len(snap.Quotes) != 2 || len(snap.Fronts) != 2 {
		t.Fatalf("unexpected seed snapshot %+v", snap)
	}
}

func TestTickDispatchesSnapshot(t *testing.T) {
	sim, m := newTestSimulator(t)
	sink := &recordingSink{err: errors.New("downstream down")}
	sim.SetSink(sink)
	var heard *models.Snapshot
	sim.Subscribe(func(s *models.Snapshot) { heard = s })

	info := sim.Tick(context.Background())
	if info.Seq != 1 || info.Hubs != 2 || info.Curves != 2 {
		t.Fatalf("unexpected tick info %+v", info)
	}
	if len(sink.snaps) != 1 || sink.snaps[0].Seq != 1 {
		t.Fatalf("sink did not receive tick 1")
	}
	if heard != sink.snaps[0] {
		t.Fatalf("listener and sink saw different snapshots")
	}
	latest, _ := sim.Latest()
	if latest != heard {
		t.Fatalf("latest not updated")
	}
	if m.ticks != 1 || len(m.spots) != 2 {
		t.Fatalf("metrics not recorded: ticks=%d spots=%d", m.ticks, len(m.spots))
	}
	if m.spots["Henry Hub"] != latest.Quotes[0].Price {
		t.Fatalf("spot gauge does not match snapshot")
	}
}

func TestQuotesAndUnknownHub(t *testing.T) {
	sim, _ := newTestSimulator(t)
	if q := sim.Quotes(models.SectorPower); len(q) != 1 || q[0].Hub != "ERCOT Hub" {
		t.Fatalf("sector filter: %+v", q)
	}
	if q := sim.Quotes(""); len(q) != 2 {
		t.Fatalf("all quotes: %d", len(q))
	}
	if _, err := sim.Quote("Nowhere"); !errors.Is(err, ErrUnknownHub) {
		t.Fatalf("expected ErrUnknownHub, got %v", err)
	}
	q, err := sim.Quote("Henry Hub")
	if err != nil || q.Price <= 0 || !q.Visible {
		t.Fatalf("quote: %+v %v", q, err)
	}
}

func TestHistoryAndStats(t *testing.T) {
	sim, _ := newTestSimulator(t)
	h, err := sim.History("Henry Hub", 5)
	if err != nil || len(h) != 5 {
		t.Fatalf("history: %d %v", len(h), err)
	}
	all, _ := sim.History("Henry Hub", 0)
	if len(all) != 10 {
		t.Fatalf("expected seed length 10, got %d", len(all))
	}

	st, err := sim.Stats("Henry Hub", 5)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	// 5 snaps to the 7-point chart range
	if st.Window != 7 || st.Points != 7 {
		t.Fatalf("unexpected window %+v", st)
	}
	if st.Last != all[len(all)-1] {
		t.Fatalf("last mismatch")
	}
}

func TestCurveLabels(t *testing.T) {
	sim, _ := newTestSimulator(t)
	cv, err := sim.Curve("ERCOT Hub")
	if err != nil {
		t.Fatalf("curve: %v", err)
	}
	if len(cv.Points) != models.CurveMonths {
		t.Fatalf("expected %d points, got %d", models.CurveMonths, len(cv.Points))
	}
	if cv.Points[0].Month != "Dec 24" || cv.Points[11].Month != "Nov 25" {
		t.Fatalf("unexpected months %q..%q", cv.Points[0].Month, cv.Points[11].Month)
	}
	q, _ := sim.Quote("ERCOT Hub")
	if cv.Spot != q.Price {
		t.Fatalf("spot mismatch")
	}
}

func TestSetVisible(t *testing.T) {
	sim, _ := newTestSimulator(t)
	if err := sim.SetVisible("Henry Hub", false); err != nil {
		t.Fatalf("set visible: %v", err)
	}
	for _, s := range sim.Sectors() {
		for _, h := range s.Hubs {
			if h.Name == "Henry Hub" && h.Visible {
				t.Fatalf("hub still visible")
			}
		}
	}
	if err := sim.SetVisible("Nowhere", true); !errors.Is(err, ErrUnknownHub) {
		t.Fatalf("expected ErrUnknownHub, got %v", err)
	}
}

func TestOptionsChainUsesCurve(t *testing.T) {
	sim, _ := newTestSimulator(t)
	oc := NewOptionsChains(sim, options.NewGenerator(engine.NewRand(1)))

	chain, err := oc.Chain("Henry Hub", 2, 5)
	if err != nil {
		t.Fatalf("chain: %v", err)
	}
	cv, _ := sim.Curve("Henry Hub")
	if chain.Underlying != cv.Points[2].Price {
		t.Fatalf("underlying %v want %v", chain.Underlying, cv.Points[2].Price)
	}
	if chain.Month != "Feb 25" || len(chain.Rows) == 0 || len(chain.Rows) > 5 {
		t.Fatalf("unexpected chain month=%q rows=%d", chain.Month, len(chain.Rows))
	}
	if _, err := oc.Chain("Nowhere", 0, 5); !errors.Is(err, ErrUnknownHub) {
		t.Fatalf("expected ErrUnknownHub")
	}
}

func TestReadsDuringTicks(t *testing.T) {
	sim, _ := newTestSimulator(t)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			sim.Tick(context.Background())
		}
	}()
	for i := 0; i < 50; i++ {
		for _, q := range sim.Quotes("") {
			if q.Price == 0 {
				t.Errorf("zero price for seeded hub %s", q.Hub)
			}
		}
		_, _ = sim.Curve("Henry Hub")
	}
	wg.Wait()
	if sim.Seq() != 50 {
		t.Fatalf("seq %d", sim.Seq())
	}
}

func TestStartStop(t *testing.T) {
	m := newFakeMetrics()
	sim := NewMarketSimulator(SimulatorConfig{TickInterval: time.Hour, Seed: 1}, testRegistry(t), NewVisibilityStore(), nil, m, logger.Nop())
	if err := sim.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, ok := sim.Latest(); !ok {
		t.Fatalf("start should seed")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := sim.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

type fakeStore struct {
	saved *models.Snapshot
	err   error
}

func (s *fakeStore) Save(ctx context.Context, snap *models.Snapshot) error {
	if s.err != nil {
		return s.err
	}
	s.saved = snap
	return nil
}

func (s *fakeStore) Latest(ctx context.Context) (*models.Snapshot, error) { return s.saved, nil }

type fakePublisher struct {
	sent   []*models.Snapshot
	err    error
	closed bool
}

func (p *fakePublisher) Publish(ctx context.Context, s *models.Snapshot) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, s)
	return nil
}

func (p *fakePublisher) PublishBatch(ctx context.Context, snaps []*models.Snapshot) error {
	for _, s := range snaps {
		if err := p.Publish(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}

func TestSnapshotProcessor(t *testing.T) {
	m := newFakeMetrics()
	store := &fakeStore{}
	pub := &fakePublisher{err: errors.New("broker down")}
	p := NewSnapshotProcessor(pub, store, m)

	snap := &models.Snapshot{Seq: 3}
	err := p.Process(context.Background(), snap)
	if err == nil {
		t.Fatalf("expected publish error")
	}
	if store.saved != snap {
		t.Fatalf("store should be written even when publish fails")
	}
	if m.published["store"] != 1 || m.errors["snapshot_publish"] != 1 {
		t.Fatalf("metrics: %+v %+v", m.published, m.errors)
	}

	pub.err = nil
	if err := p.Process(context.Background(), snap); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(pub.sent) != 1 || m.published["kafka"] != 1 {
		t.Fatalf("publish not recorded")
	}
	if err := NewSnapshotProcessor(nil, nil, m).Process(context.Background(), nil); err == nil {
		t.Fatalf("nil snapshot should fail")
	}
	_ = p.Close()
	if !pub.closed {
		t.Fatalf("close not forwarded")
	}
}

type overrideRecorder struct {
	got map[string]float64
}

func (o *overrideRecorder) Override(b map[string]float64) { o.got = b }

func TestBiasHandler(t *testing.T) {
	target := &overrideRecorder{}
	m := newFakeMetrics()
	h := NewBiasHandler("commodsim.weather-bias", target, testRegistry(t), m, logger.Nop())

	if h.Topic() != "commodsim.weather-bias" {
		t.Fatalf("topic %q", h.Topic())
	}
	err := h.Handle(context.Background(), []byte(`{"bias":{"Henry Hub":0.02,"Nowhere":0.1,"ERCOT Hub":0.9}}`))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(target.got) != 1 || target.got["Henry Hub"] != 0.02 {
		t.Fatalf("unexpected override %v", target.got)
	}

	if err := h.Handle(context.Background(), []byte(`{"bias":{"Nowhere":0.1}}`)); err == nil {
		t.Fatalf("expected error when nothing usable")
	}
	if err := h.Handle(context.Background(), []byte(`{"bias":{}}`)); err == nil {
		t.Fatalf("expected validation error")
	}
	if err := h.Handle(context.Background(), []byte(`not json`)); err == nil {
		t.Fatalf("expected decode error")
	}
	if m.errors["bias_unmarshal"] != 1 || m.errors["bias_validate"] != 1 || m.errors["bias_empty"] != 1 {
		t.Fatalf("error metrics %v", m.errors)
	}
}

// failOncePublisher rejects the first publish of one seq.
type failOncePublisher struct {
	mu     sync.Mutex
	failOn uint64
	failed bool
	sent   []uint64
	done   chan struct{}
	want   int
}

func (p *failOncePublisher) Publish(ctx context.Context, s *models.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s.Seq == p.failOn && !p.failed {
		p.failed = true
		return errors.New("broker down")
	}
	p.sent = append(p.sent, s.Seq)
	if len(p.sent) == p.want {
		close(p.done)
	}
	return nil
}

func (p *failOncePublisher) PublishBatch(ctx context.Context, snaps []*models.Snapshot) error {
	for _, s := range snaps {
		if err := p.Publish(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (p *failOncePublisher) Close() error { return nil }

func TestRetriedSnapshotDoesNotReplaceNewer(t *testing.T) {
	mc := pkgcache.NewMemoryCache()
	defer mc.Close()
	store := repository.NewCacheSnapshotStore(mc, time.Minute)
	pub := &failOncePublisher{failOn: 1, done: make(chan struct{}), want: 2}
	m := newFakeMetrics()
	proc := NewSnapshotProcessor(pub, store, m)
	pipe := mid.NewSnapshotPipeline(proc, m, mid.WithMaxRPS(0), mid.WithBackoff(time.Millisecond, 4*time.Millisecond))
	defer pipe.Stop()

	ts := time.Date(2024, 11, 20, 12, 0, 0, 0, time.UTC)
	snapshot := func(seq uint64) *models.Snapshot {
		return &models.Snapshot{
			Seq:       seq,
			Timestamp: ts.Add(time.Duration(seq) * time.Second),
			Quotes:    []models.Quote{{Hub: "Henry Hub", Sector: models.SectorNG, Price: 3}},
		}
	}

	ctx := context.Background()
	if err := pipe.Process(ctx, snapshot(1)); err == nil {
		t.Fatalf("expected publish failure for seq 1")
	}
	if err := pipe.Process(ctx, snapshot(2)); err != nil {
		t.Fatalf("process seq 2: %v", err)
	}
	pipe.Start(ctx)

	select {
	case <-pub.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("retry of seq 1 never published")
	}

	latest, err := store.Latest(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.Seq != 2 {
		t.Fatalf("latest seq = %d, want 2", latest.Seq)
	}
	m.mu.Lock()
	stale := m.errors["snapshot_store_stale"]
	m.mu.Unlock()
	if stale != 1 {
		t.Fatalf("stale saves = %d, want 1", stale)
	}
}
