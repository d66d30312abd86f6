package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	"FinSignal/internal/repository"
	"FinSignal/internal/usecase"
	xhttp "FinSignal/pkg/http"
	xlogger "FinSignal/pkg/logger"
	"FinSignal/pkg/util"
)

// ScanEnqueuer queues a batch scan for background workers.
type ScanEnqueuer interface {
	Enqueue(ctx context.Context, msgType string, payload any) (string, error)
}

// HealthChecker reports whether a dependency is reachable.
type HealthChecker func(ctx context.Context) error

// SignalsEchoHandler serves analysis, live signals and scans over HTTP.
type SignalsEchoHandler struct {
	logger  *xlogger.Logger
	engine  *usecase.Engine
	scanner *usecase.Scanner
	cache   domrepo.SignalCache
	store   domrepo.SignalStore // optional, history endpoint
	queue   ScanEnqueuer        // optional, async scans
	health  map[string]HealthChecker
}

func NewSignalsEchoHandler(
	logger *xlogger.Logger,
	engine *usecase.Engine,
	scanner *usecase.Scanner,
	cache domrepo.SignalCache,
	store domrepo.SignalStore,
	queue ScanEnqueuer,
	health map[string]HealthChecker,
) *SignalsEchoHandler {
	return &SignalsEchoHandler{
		logger:  logger,
		engine:  engine,
		scanner: scanner,
		cache:   cache,
		store:   store,
		queue:   queue,
		health:  health,
	}
}

func (h *SignalsEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	g := e.Group("/api")
	g.POST("/analyze", h.Analyze)
	g.GET("/signals/:symbol", h.Latest)
	g.GET("/signals/:symbol/history", h.History)
	g.POST("/scan", h.Scan)
	g.GET("/config", h.Config)
}

// Analyze runs the engine on inline candles.
func (h *SignalsEchoHandler) Analyze(c echo.Context) error {
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	out := h.engine.Evaluate(req.Symbol, req.Candles, req.CurrentPrice, req.HigherCandles)
	resp := models.AnalyzeResponse{Signal: out.Signal}
	if req.Explain {
		resp.Rejection = out.Rejection
	}
	return xhttp.SuccessResponse(c, resp)
}

// Latest returns the cached live signal for a symbol.
func (h *SignalsEchoHandler) Latest(c echo.Context) error {
	req := &models.SignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	sig, err := h.cache.Latest(c.Request().Context(), req.Symbol)
	if errors.Is(err, repository.ErrNoSignal) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no live signal for %s", req.Symbol))
	}
	if err != nil {
		h.logger.Error("signal cache read error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, sig)
}

// History lists stored signals. Query: from, to (RFC3339 or unix), limit.
func (h *SignalsEchoHandler) History(c echo.Context) error {
	if h.store == nil {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableErrorf("signal history is not stored"))
	}
	req := &models.SignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	now := time.Now().UTC()
	from := xhttp.ParseTimeDefault(c.QueryParam("from"), now.AddDate(0, 0, -30))
	to := xhttp.ParseTimeDefault(c.QueryParam("to"), now)
	if !from.Before(to) {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("from must be before to"))
	}
	limit := min(max(xhttp.ParseIntDefault(c.QueryParam("limit"), 100), 1), 1000)

	rows, err := h.store.Query(c.Request().Context(), req.Symbol, from, to, limit)
	if err != nil {
		h.logger.Error("signal history query error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalErrorf("history query failed").WithError(err))
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// Scan runs a batch scan inline, or queues it when async is set and a queue
// is configured.
func (h *SignalsEchoHandler) Scan(c echo.Context) error {
	req := &models.ScanRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	symbols := util.NormalizeSymbols(req.Symbols)

	if req.Async {
		if h.queue == nil {
			return xhttp.AppErrorResponse(c, xhttp.UnavailableErrorf("async scans need the redis queue"))
		}
		id, err := h.queue.Enqueue(c.Request().Context(), usecase.ScanJobType, usecase.ScanJobPayload{Symbols: symbols, Workers: req.Workers})
		if err != nil {
			h.logger.Error("scan enqueue error", xlogger.Error(err))
			return xhttp.AppErrorResponse(c, xhttp.InternalErrorf("enqueue failed").WithError(err))
		}
		return xhttp.AcceptedResponse(c, map[string]any{"job_id": id, "symbols": len(symbols)})
	}

	report := h.scanner.Scan(c.Request().Context(), symbols, req.Workers)
	return xhttp.SuccessResponse(c, scanReportDTO(report))
}

// Config returns the resolved analysis configuration.
func (h *SignalsEchoHandler) Config(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.engine.Config())
}

// Health pings every registered dependency.
func (h *SignalsEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	status := make(map[string]string, len(h.health))
	healthy := true
	for name, check := range h.health {
		if err := check(ctx); err != nil {
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}
	if !healthy {
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, status)
	}
	return xhttp.SuccessResponse(c, status)
}

type scanReportResponse struct {
	StartedAt  time.Time                    `json:"started_at"`
	DurationMS int64                        `json:"duration_ms"`
	Signals    []*models.Signal             `json:"signals"`
	Rejections map[string]*models.Rejection `json:"rejections"`
	Errors     map[string]string            `json:"errors"`
}

// scanReportDTO keeps transport concerns out of the domain report.
func scanReportDTO(r *models.ScanReport) scanReportResponse {
	signals := r.Signals
	if signals == nil {
		signals = []*models.Signal{}
	}
	return scanReportResponse{
		StartedAt:  r.StartedAt,
		DurationMS: r.Duration.Milliseconds(),
		Signals:    signals,
		Rejections: r.Rejections,
		Errors:     r.Errors,
	}
}
