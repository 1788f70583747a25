package di

import (
	"fmt"
	"math/rand"
	"time"

	domrepo "CommodSim/internal/domain/repository"
	domsvc "CommodSim/internal/domain/service"
	"CommodSim/internal/engine"
	"CommodSim/internal/handler/api"
	mid "CommodSim/internal/middleware"
	"CommodSim/internal/registry"
	internalrepo "CommodSim/internal/repository"
	icache "CommodSim/internal/service/cache"
	"CommodSim/internal/services/options"
	"CommodSim/internal/usecase"
	"CommodSim/internal/weather"
	pkgcache "CommodSim/pkg/cache"
	"CommodSim/pkg/config"
	xhttp "CommodSim/pkg/http"
	pkgkafka "CommodSim/pkg/kafka"
	"CommodSim/pkg/logger"
	"CommodSim/pkg/metrics"
	"CommodSim/pkg/server"
)

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideLogger builds the root logger. Error logs are aggregated and shipped
// to the log topic when collection is on.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if cfg.Log.Collect && producer != nil {
		l.AddCollector(&logger.CollectionConfig{
			TimeInterval:   cfg.Log.FlushInterval,
			CountThreshold: cfg.Log.FlushCount,
			Topic:          cfg.Kafka.Topics.Logs,
			Publisher:      producer,
		})
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideRegistry loads the hub registry file, or the built-in sectors.
func ProvideRegistry(cfg *config.Config) (*registry.Registry, error) {
	if cfg.Simulation.RegistryFile == "" {
		return registry.Default(), nil
	}
	r, err := registry.Load(cfg.Simulation.RegistryFile)
	if err != nil {
		return nil, fmt.Errorf("hub registry: %w", err)
	}
	return r, nil
}

// ProvideRedisCache connects to Redis, or returns nil when it is disabled.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(cfg.Redis.Host),
		pkgcache.WithRedisPort(cfg.Redis.Port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideSnapshotCache layers memory over Redis when Redis is available.
func ProvideSnapshotCache(cfg *config.Config, rc *pkgcache.RedisCache) pkgcache.Service {
	if rc == nil {
		return pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(64))
	}
	return pkgcache.NewLayeredCache(rc,
		pkgcache.WithLayeredMemorySize(64),
		pkgcache.WithLayeredMemoryTTL(cfg.Snapshot.CacheTTL),
	)
}

// ProvideBytesCache backs forecasts and option chains.
func ProvideBytesCache(rc *pkgcache.RedisCache) icache.BytesCache {
	if rc == nil {
		return icache.NewTTLCache()
	}
	return icache.NewRedisCache(rc.Client(), rc.Prefix()+":bytes")
}

func ProvideSnapshotStore(c pkgcache.Service, cfg *config.Config) domrepo.SnapshotStore {
	return internalrepo.NewCacheSnapshotStore(c, cfg.Snapshot.CacheTTL)
}

// ProvideSnapshotPublisher returns nil when Kafka is disabled.
func ProvideSnapshotPublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.SnapshotPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaSnapshotPublisher(producer, cfg.Kafka.Topics.Snapshots)
}

func seedOf(cfg *config.Config) int64 {
	if cfg.Simulation.Seed != 0 {
		return cfg.Simulation.Seed
	}
	return time.Now().UnixNano()
}

// ProvideWeather builds the weather bias service, or nil when disabled.
func ProvideWeather(cfg *config.Config, bc icache.BytesCache, l *logger.Logger) domsvc.WeatherBias {
	if !cfg.Weather.Enabled {
		return nil
	}
	cities := weather.DefaultCities()
	// offset so forecasts do not share the engine's draw sequence
	synthetic := weather.NewSynthetic(cities, rand.New(rand.NewSource(seedOf(cfg)+7)))

	var live weather.LiveSource
	if cfg.Weather.Source == weather.SourceOpenMeteo {
		live = weather.NewOpenMeteo(cfg.Weather.OpenMeteoURL, cities, cfg.Weather.Timeout, cfg.Weather.Attempts)
	}
	return weather.NewService(weather.Options{Enabled: true, CacheTTL: cfg.Weather.CacheTTL}, live, synthetic, bc, l)
}

func ProvideSimulator(cfg *config.Config, reg *registry.Registry, w domsvc.WeatherBias, m domrepo.Metrics, l *logger.Logger) *usecase.MarketSimulator {
	return usecase.NewMarketSimulator(usecase.SimulatorConfig{
		TickInterval:   cfg.Simulation.TickInterval,
		Seed:           cfg.Simulation.Seed,
		SeedLength:     cfg.Simulation.HistorySeedLength,
		HistoryCap:     cfg.Simulation.HistoryCap,
		WeatherRefresh: cfg.Weather.RefreshInterval,
	}, reg, usecase.NewVisibilityStore(), w, m, l)
}

func ProvideOptionsChains(cfg *config.Config, sim *usecase.MarketSimulator) *usecase.OptionsChains {
	return usecase.NewOptionsChains(sim, options.NewGenerator(engine.NewRand(seedOf(cfg)+13)))
}

func ProvideSnapshotProcessor(pub domrepo.SnapshotPublisher, store domrepo.SnapshotStore, m domrepo.Metrics) *usecase.SnapshotProcessor {
	return usecase.NewSnapshotProcessor(pub, store, m)
}

// ProvideSnapshotPipeline puts validation, throttling and retry buffering in
// front of the snapshot sinks.
func ProvideSnapshotPipeline(proc *usecase.SnapshotProcessor, m domrepo.Metrics, cfg *config.Config) *mid.SnapshotPipeline {
	return mid.NewSnapshotPipeline(proc, m,
		mid.WithMaxRPS(cfg.Snapshot.ThrottleRPS),
		mid.WithBufferSize(cfg.Snapshot.BufferSize),
	)
}

// ProvideKafkaConsumer creates the bias consumer, or nil when Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *logger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.LoggingHook{Log: l.Named("kafka-hook")})
	return consumer, nil
}

// ProvideBiasHandler returns nil unless both Kafka and weather are on.
func ProvideBiasHandler(cfg *config.Config, w domsvc.WeatherBias, reg *registry.Registry, m domrepo.Metrics, l *logger.Logger) *usecase.BiasHandler {
	if !cfg.Kafka.Enabled || w == nil {
		return nil
	}
	return usecase.NewBiasHandler(cfg.Kafka.Topics.Bias, w, reg, m, l)
}

// ProvideHandlers lists every HTTP route group.
func ProvideHandlers(
	l *logger.Logger,
	sim *usecase.MarketSimulator,
	chains *usecase.OptionsChains,
	store domrepo.SnapshotStore,
	bc icache.BytesCache,
	w domsvc.WeatherBias,
) []xhttp.Handler {
	market := api.NewMarketHandler(l, sim, chains, store)
	market.SetCache(bc)
	return []xhttp.Handler{
		market,
		api.NewWeatherHandler(l, w),
		api.NewStreamHandler(sim, l),
	}
}

func ProvideHTTPServer(cfg *config.Config, handlers []xhttp.Handler, l *logger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(l),
	}
	if len(cfg.Server.AllowOrigins) > 0 {
		opts = append(opts, xhttp.WithAllowOrigins(cfg.Server.AllowOrigins))
	}
	return xhttp.NewServer(handlers, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	sim *usecase.MarketSimulator,
	pipe *mid.SnapshotPipeline,
	proc *usecase.SnapshotProcessor,
	consumer *pkgkafka.Consumer,
	bias *usecase.BiasHandler,
	httpServer *xhttp.Server,
	snapCache pkgcache.Service,
	producer *pkgkafka.Producer,
) *server.App {
	app := server.New(cfg, l, sim, pipe, httpServer)
	if consumer != nil && bias != nil {
		app.SetConsumer(consumer, bias)
	}
	if producer != nil && cfg.Log.Collect {
		// the collector publishes through the producer, so it goes first
		app.AddCloser("log collector", func() error {
			l.RemoveCollector()
			return nil
		})
	}
	app.AddCloser("snapshot processor", proc.Close)
	app.AddCloser("snapshot cache", snapCache.Close)
	return app
}
