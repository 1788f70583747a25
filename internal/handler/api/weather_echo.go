package api

import (
	"github.com/labstack/echo/v4"

	domsvc "CommodSim/internal/domain/service"
	xhttp "CommodSim/pkg/http"
	applogger "CommodSim/pkg/logger"
)

// WeatherHandler exposes the bias report and the forecast behind it.
// weather may be nil when the service is disabled.
type WeatherHandler struct {
	log     *applogger.Logger
	weather domsvc.WeatherBias
}

func NewWeatherHandler(log *applogger.Logger, weather domsvc.WeatherBias) *WeatherHandler {
	return &WeatherHandler{log: log.Named("weather-api"), weather: weather}
}

func (h *WeatherHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/weather")
	g.GET("/bias", h.Bias)
	g.GET("/forecast", h.Forecast)
}

func (h *WeatherHandler) Bias(c echo.Context) error {
	if h.weather == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("weather disabled"))
	}
	return xhttp.SuccessResponse(c, h.weather.Report())
}

func (h *WeatherHandler) Forecast(c echo.Context) error {
	if h.weather == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("weather disabled"))
	}
	fc, err := h.weather.Forecast(c.Request().Context())
	if err != nil {
		h.log.Error("forecast failed", applogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("forecast unavailable").WithError(err))
	}
	return xhttp.SuccessResponse(c, fc)
}
