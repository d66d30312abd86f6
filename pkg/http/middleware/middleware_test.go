package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	applogger "FinSignal/pkg/logger"
)

func TestRecoverReturns500(t *testing.T) {
	e := echo.New()
	e.Use(Recover(applogger.Nop()))
	e.GET("/boom", func(c echo.Context) error { panic("boom") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	e := echo.New()
	e.Use(CORS(CORSConfig{AllowOrigins: []string{"*"}, AllowMethods: []string{http.MethodGet}}))
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://example.com" {
		t.Fatalf("missing allow-origin header")
	}
}

func TestStatusClass(t *testing.T) {
	if statusClass(204) != "2xx" || statusClass(404) != "4xx" || statusClass(503) != "5xx" {
		t.Fatalf("statusClass mapping wrong")
	}
}
