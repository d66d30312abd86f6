package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

type point struct {
	Close float64 `json:"close" validate:"gt=0"`
}

type sampleRequest struct {
	Symbol string  `json:"symbol" validate:"required"`
	Points []point `json:"points" validate:"required,dive"`
	Limit  int     `json:"limit" default:"10" validate:"lte=100"`
}

func bindSample(t *testing.T, body string) (*sampleRequest, any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := echo.New().NewContext(req, httptest.NewRecorder())
	var r sampleRequest
	return &r, ReadAndValidateRequest(c, &r)
}

func TestValidateUsesJSONPaths(t *testing.T) {
	_, errs := bindSample(t, `{"symbol":"AAPL","points":[{"close":1},{"close":-2}]}`)
	ves, ok := errs.([]ValidationError)
	if !ok || len(ves) != 1 {
		t.Fatalf("errors = %#v", errs)
	}
	if ves[0].Field != "points[1].close" || ves[0].Code != "ERR_GT" {
		t.Fatalf("unexpected error: %+v", ves[0])
	}
}

func TestValidateMissingSlice(t *testing.T) {
	_, errs := bindSample(t, `{"symbol":"AAPL"}`)
	ves, ok := errs.([]ValidationError)
	if !ok || len(ves) != 1 {
		t.Fatalf("errors = %#v", errs)
	}
	if ves[0].Field != "points" || ves[0].Message != "points must not be empty" {
		t.Fatalf("unexpected error: %+v", ves[0])
	}
}

func TestValidateAppliesDefaults(t *testing.T) {
	r, errs := bindSample(t, `{"symbol":"AAPL","points":[{"close":1}]}`)
	if errs != nil {
		t.Fatalf("unexpected errors: %#v", errs)
	}
	if r.Limit != 10 {
		t.Fatalf("limit = %d", r.Limit)
	}
}
