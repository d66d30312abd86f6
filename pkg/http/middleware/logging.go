package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	applogger "FinSignal/pkg/logger"
)

// RequestLogging logs HTTP requests at debug, 5xx at error.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			err := next(c)

			fields := []applogger.Field{
				applogger.String("method", req.Method),
				applogger.String("uri", req.RequestURI),
				applogger.String("remote", req.RemoteAddr),
				applogger.Int("status", res.Status),
				applogger.Duration("latency", time.Since(start)),
			}
			if err != nil {
				fields = append(fields, applogger.Error(err))
			}
			if res.Status >= 500 {
				l.Error("http request", fields...)
			} else {
				l.Debug("http request", fields...)
			}
			return err
		}
	}
}
