package service

import (
	"context"

	"CommodSim/internal/domain/models"
)

// WeatherBias exposes the current per-hub bias and the forecast behind it.
type WeatherBias interface {
	Forecast(ctx context.Context) (models.Forecast, error)
	Refresh(ctx context.Context) error
	Override(bias map[string]float64)
	Bias(hub string) (float64, bool)
	Report() models.BiasReport
}
