package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	applogger "CommodSim/pkg/logger"
)

// APIStatusKey holds the status written into the JSON envelope. Responses
// travel as 200, so middleware reads the outcome from here when present.
const APIStatusKey = "api_status"

var (
	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "commodsim_http_requests_total",
		Help: "HTTP requests by route template and outcome",
	}, []string{"route", "method", "status"})

	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "commodsim_http_request_duration_seconds",
		Help:    "HTTP request duration",
		Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"route", "method", "class"})

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "commodsim_http_in_flight_requests",
		Help: "Requests currently being served, open streams included",
	})

	httpResponseSize = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "commodsim_http_response_size_bytes",
		Help:    "Response body size",
		Buckets: prometheus.ExponentialBuckets(256, 4, 8),
	}, []string{"route"})

	regOnce sync.Once
)

// Metrics records request counts, latency and size per route template
// ("/api/hubs/:hub/curve"), so hub names and unknown paths never become
// label values. Server errors and requests slower than slow are logged.
func Metrics(l *applogger.Logger, slow time.Duration) echo.MiddlewareFunc {
	regOnce.Do(func() {
		prometheus.MustRegister(httpRequestsTotal, httpRequestDuration, httpInFlight, httpResponseSize)
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			httpInFlight.Inc()
			defer httpInFlight.Dec()
			start := time.Now()

			err := next(c)
			if err != nil {
				// let echo write the error so the recorded status is final
				c.Error(err)
			}

			took := time.Since(start)
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			code := Status(c)

			httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
			httpRequestDuration.WithLabelValues(route, method, statusClass(code)).Observe(took.Seconds())
			httpResponseSize.WithLabelValues(route).Observe(float64(c.Response().Size))

			switch {
			case code >= http.StatusInternalServerError:
				l.Error("http request failed",
					applogger.String("route", route),
					applogger.String("method", method),
					applogger.Int("status", code),
					applogger.Duration("duration_ms", took),
				)
			case slow > 0 && took >= slow && code != http.StatusSwitchingProtocols:
				l.Warn("http request slow",
					applogger.String("route", route),
					applogger.String("method", method),
					applogger.Duration("duration_ms", took),
				)
			}
			return nil
		}
	}
}

// Status is the envelope status when the handler set one and the transport
// status otherwise.
func Status(c echo.Context) int {
	if s, ok := c.Get(APIStatusKey).(int); ok {
		return s
	}
	return c.Response().Status
}

func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "5xx"
	}
	return strconv.Itoa(code/100) + "xx"
}
