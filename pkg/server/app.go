package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mid "CommodSim/internal/middleware"
	"CommodSim/internal/usecase"
	"CommodSim/pkg/config"
	xhttp "CommodSim/pkg/http"
	pkgkafka "CommodSim/pkg/kafka"
	applogger "CommodSim/pkg/logger"
)

type closer struct {
	name string
	fn   func() error
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	sim        *usecase.MarketSimulator
	pipeline   *mid.SnapshotPipeline
	httpServer *xhttp.Server
	consumer   *pkgkafka.Consumer
	handler    pkgkafka.MessageHandler
	closers    []closer
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	sim *usecase.MarketSimulator,
	pipeline *mid.SnapshotPipeline,
	httpServer *xhttp.Server,
) *App {
	return &App{
		cfg:        cfg,
		log:        log.Named("app"),
		sim:        sim,
		pipeline:   pipeline,
		httpServer: httpServer,
	}
}

// SetConsumer attaches a Kafka consumer and the handler it feeds.
func (a *App) SetConsumer(c *pkgkafka.Consumer, h pkgkafka.MessageHandler) {
	a.consumer = c
	a.handler = h
}

// AddCloser registers a resource closed on shutdown, in registration order.
func (a *App) AddCloser(name string, fn func() error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

// Start brings every component up without blocking.
func (a *App) Start(ctx context.Context) error {
	a.sim.SetSink(a.pipeline)
	a.pipeline.Start(ctx)

	if a.consumer != nil && a.handler != nil {
		a.consumer.RegisterHandler(a.handler)
		if err := a.consumer.Start(); err != nil {
			return fmt.Errorf("kafka consumer: %w", err)
		}
		a.log.Info("kafka consumer started", applogger.String("topic", a.handler.Topic()))
	}

	if err := a.sim.Start(ctx); err != nil {
		return fmt.Errorf("simulator: %w", err)
	}

	if err := a.httpServer.Start(); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	a.log.Info("application started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.Bool("kafka", a.cfg.Kafka.Enabled),
		applogger.Bool("redis", a.cfg.Redis.Enabled),
		applogger.Bool("weather", a.cfg.Weather.Enabled),
	)
	return nil
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.Start(ctx); err != nil {
		a.log.Error("startup failed", applogger.Error(err))
		_ = a.Shutdown(context.Background())
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh

	a.log.Info("shutdown signal received", applogger.String("signal", sig.String()))
	shutdownCtx, stop := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer stop()
	return a.Shutdown(shutdownCtx)
}

// Shutdown stops producers of work first, then sinks, then shared clients.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error

	if err := a.sim.Stop(ctx); err != nil {
		a.log.Warn("simulator stop error", applogger.Error(err))
		errs = append(errs, err)
	}
	a.pipeline.Stop()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		errs = append(errs, err)
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}

	for _, c := range a.closers {
		if err := c.fn(); err != nil {
			a.log.Warn("close error", applogger.String("resource", c.name), applogger.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
		}
	}

	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}
