package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// CORSConfig holds CORS configuration. An empty AllowOrigins allows any origin.
type CORSConfig struct {
	AllowOrigins []string
	AllowMethods []string
	AllowHeaders []string
	MaxAge       time.Duration
}

// CORS answers preflight requests and tags responses for allowed origins.
// Requests from other origins pass through untagged.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	anyOrigin := len(cfg.AllowOrigins) == 0 || slices.Contains(cfg.AllowOrigins, "*")
	methods := strings.Join(cfg.AllowMethods, ", ")
	headers := strings.Join(cfg.AllowHeaders, ", ")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			origin := c.Request().Header.Get(echo.HeaderOrigin)
			h := c.Response().Header()
			h.Add(echo.HeaderVary, echo.HeaderOrigin)

			if origin == "" || !(anyOrigin || slices.Contains(cfg.AllowOrigins, origin)) {
				return next(c)
			}

			h.Set(echo.HeaderAccessControlAllowOrigin, origin)
			if c.Request().Method != http.MethodOptions {
				return next(c)
			}

			if methods != "" {
				h.Set(echo.HeaderAccessControlAllowMethods, methods)
			}
			if headers != "" {
				h.Set(echo.HeaderAccessControlAllowHeaders, headers)
			}
			if cfg.MaxAge > 0 {
				h.Set(echo.HeaderAccessControlMaxAge, strconv.Itoa(int(cfg.MaxAge.Seconds())))
			}
			return c.NoContent(http.StatusNoContent)
		}
	}
}
