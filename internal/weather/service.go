package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"sync"
	"time"

	"CommodSim/internal/domain/models"
	svccache "CommodSim/internal/service/cache"
	"CommodSim/pkg/logger"
)

const forecastCacheKey = "weather:forecast"

// LiveSource fetches real forecasts.
type LiveSource interface {
	Source() string
	Fetch(ctx context.Context) ([]models.CityForecast, error)
}

type Options struct {
	Enabled  bool
	CacheTTL time.Duration
}

// Service owns the current weather bias. Forecasts are cached for CacheTTL;
// a failing live source falls back to synthetic data.
type Service struct {
	opts      Options
	live      LiveSource
	synthetic *Synthetic
	cache     svccache.BytesCache
	log       *logger.Logger
	now       func() time.Time

	mu        sync.RWMutex
	computed  map[string]float64
	overrides map[string]float64
	source    string
	updatedAt time.Time
}

// NewService builds a weather service. live may be nil.
func NewService(opts Options, live LiveSource, synthetic *Synthetic, cache svccache.BytesCache, log *logger.Logger) *Service {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 6 * time.Hour
	}
	if cache == nil {
		cache = svccache.NewTTLCache()
	}
	return &Service{
		opts:      opts,
		live:      live,
		synthetic: synthetic,
		cache:     cache,
		log:       log.Named("weather"),
		now:       time.Now,
		computed:  map[string]float64{},
		overrides: map[string]float64{},
		source:    "none",
	}
}

// Forecast returns the cached forecast or produces a fresh one.
func (s *Service) Forecast(ctx context.Context) (models.Forecast, error) {
	if b, ok, err := s.cache.GetBytes(forecastCacheKey); err != nil {
		s.log.Warn("forecast cache read failed", logger.Error(err))
	} else if ok {
		var f models.Forecast
		if err := json.Unmarshal(b, &f); err == nil {
			return f, nil
		}
	}

	f := s.fetch(ctx)
	b, err := json.Marshal(f)
	if err != nil {
		return f, fmt.Errorf("encode forecast: %w", err)
	}
	if err := s.cache.SetBytes(forecastCacheKey, b, s.opts.CacheTTL); err != nil {
		s.log.Warn("forecast cache write failed", logger.Error(err))
	}
	return f, nil
}

func (s *Service) fetch(ctx context.Context) models.Forecast {
	now := s.now().UTC()
	if s.live != nil {
		cities, err := s.live.Fetch(ctx)
		if err == nil {
			return models.Forecast{Source: s.live.Source(), CachedAt: now, Cities: cities}
		}
		s.log.Warn("live forecast failed, using synthetic", logger.String("source", s.live.Source()), logger.Error(err))
	}
	return models.Forecast{Source: SourceSynthetic, CachedAt: now, Cities: s.synthetic.Generate()}
}

// Refresh recomputes the bias from the current forecast.
func (s *Service) Refresh(ctx context.Context) error {
	if !s.opts.Enabled {
		return nil
	}
	f, err := s.Forecast(ctx)
	if err != nil {
		return err
	}
	bias := ComputeBias(f.Cities, s.now().Month())

	s.mu.Lock()
	s.computed = bias
	s.source = f.Source
	s.updatedAt = s.now()
	s.mu.Unlock()

	s.log.Info("weather bias refreshed", logger.String("source", f.Source), logger.Int("hubs", len(bias)))
	return nil
}

// Override merges externally supplied bias values over the computed ones.
func (s *Service) Override(bias map[string]float64) {
	s.mu.Lock()
	maps.Copy(s.overrides, bias)
	s.updatedAt = s.now()
	s.mu.Unlock()
}

// Bias implements the engine's bias source.
func (s *Service) Bias(hub string) (float64, bool) {
	if !s.opts.Enabled {
		return 0, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.overrides[hub]; ok {
		return v, true
	}
	v, ok := s.computed[hub]
	return v, ok
}

func (s *Service) Report() models.BiasReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bias := make(map[string]float64, len(s.computed)+len(s.overrides))
	maps.Copy(bias, s.computed)
	maps.Copy(bias, s.overrides)
	return models.BiasReport{
		IsHeatingSeason: IsHeatingSeason(s.now().Month()),
		Source:          s.source,
		Bias:            bias,
		UpdatedAt:       s.updatedAt,
	}
}
