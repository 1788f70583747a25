package server

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	mid "CommodSim/internal/middleware"
	"CommodSim/internal/registry"
	"CommodSim/internal/repository"
	"CommodSim/internal/usecase"
	pkgcache "CommodSim/pkg/cache"
	"CommodSim/pkg/config"
	xhttp "CommodSim/pkg/http"
	"CommodSim/pkg/logger"
	"CommodSim/pkg/metrics"
)

func TestAppStartTickShutdown(t *testing.T) {
	cfg, err := config.Parse([]byte("weather:\n  enabled: false\n"))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	rec := metrics.NewWithRegisterer(prometheus.NewRegistry())
	sim := usecase.NewMarketSimulator(usecase.SimulatorConfig{TickInterval: time.Hour, Seed: 11}, registry.Default(), usecase.NewVisibilityStore(), nil, rec, logger.Nop())

	mc := pkgcache.NewMemoryCache()
	store := repository.NewCacheSnapshotStore(mc, time.Minute)
	proc := usecase.NewSnapshotProcessor(nil, store, rec)
	pipe := mid.NewSnapshotPipeline(proc, rec, mid.WithMaxRPS(0))
	srv := xhttp.NewServer(nil, xhttp.WithHost("127.0.0.1"), xhttp.WithPort(0))

	app := New(cfg, logger.Nop(), sim, pipe, srv)
	closed := false
	app.AddCloser("cache", func() error {
		closed = true
		return mc.Close()
	})

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	sim.Tick(ctx)

	snap, err := store.Latest(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if snap.Seq != 1 || len(snap.Quotes) != len(registry.Default().HubNames()) {
		t.Fatalf("unexpected snapshot seq=%d quotes=%d", snap.Seq, len(snap.Quotes))
	}

	sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := app.Shutdown(sctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if !closed {
		t.Fatalf("closers not run")
	}
}
