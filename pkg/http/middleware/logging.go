package middleware

import (
	"time"

	"CommodSim/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs every request at debug level and rejected ones (4xx,
// by envelope status) at info. Server errors are logged by Metrics.
func RequestLogging(l *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			start := time.Now()

			err := next(c)

			status := Status(c)
			fields := []logger.Field{
				logger.String("method", req.Method),
				logger.String("uri", req.RequestURI),
				logger.String("remote", c.RealIP()),
				logger.Int("status", status),
				logger.Duration("latency_ms", time.Since(start)),
			}
			if status >= 400 && status < 500 {
				l.Info("request rejected", fields...)
			} else {
				l.Debug("request", fields...)
			}

			return err
		}
	}
}
