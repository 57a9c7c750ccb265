package middleware

import (
	"time"

	xlogger "Boardroom/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs method, path, status and duration of each request.
func RequestLogging(logger *xlogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			logger.Info("request",
				xlogger.String("method", c.Request().Method),
				xlogger.String("path", c.Request().URL.Path),
				xlogger.Int("status", c.Response().Status),
				xlogger.Duration("duration", time.Since(start)))
			return err
		}
	}
}
