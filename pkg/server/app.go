package server

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"FinSignal/internal/handler/ws"
	mid "FinSignal/internal/middleware"
	"FinSignal/internal/usecase"
	"FinSignal/pkg/config"
	xhttp "FinSignal/pkg/http"
	pkgkafka "FinSignal/pkg/kafka"
	applogger "FinSignal/pkg/logger"
	"FinSignal/pkg/queue"
	"FinSignal/pkg/util"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	scanner    *usecase.Scanner
	buffer     *mid.DispatchBuffer
	dispatcher *usecase.SignalDispatcher
	hub        *ws.Hub
	consumer   *pkgkafka.Consumer // nil without a triggers topic
	jobs       *queue.RedisQueue  // nil unless redis.queue.enabled

	closers []namedCloser
	wg      sync.WaitGroup
}

type namedCloser struct {
	name  string
	close func() error
}

// New creates a new App instance. consumer and jobs may be nil.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	scanner *usecase.Scanner,
	buffer *mid.DispatchBuffer,
	dispatcher *usecase.SignalDispatcher,
	hub *ws.Hub,
	consumer *pkgkafka.Consumer,
	jobs *queue.RedisQueue,
) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{
		cfg:        cfg,
		log:        l,
		httpServer: httpServer,
		scanner:    scanner,
		buffer:     buffer,
		dispatcher: dispatcher,
		hub:        hub,
		consumer:   consumer,
		jobs:       jobs,
	}
}

// OnClose registers an infrastructure client to close after everything else
// has stopped. Closers run in reverse registration order.
func (a *App) OnClose(name string, fn func() error) {
	a.closers = append(a.closers, namedCloser{name: name, close: fn})
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.buffer.Start(ctx)

	if a.jobs != nil {
		if err := a.jobs.Start(); err != nil {
			a.shutdown()
			return err
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Start(); err != nil {
			a.shutdown()
			return err
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		a.shutdown()
		return err
	}

	symbols := util.NormalizeSymbols(a.cfg.Scanner.Symbols)
	if a.cfg.Scanner.Enabled && a.cfg.Scanner.Interval > 0 && len(symbols) > 0 {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.scanLoop(ctx, symbols)
		}()
	}

	a.log.Info("finsignal started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("timeframe", string(a.scanner.Timeframe())),
		applogger.Strings("symbols", symbols),
		applogger.Strings("backends", a.dispatcher.Backends()),
	)

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case runErr = <-a.httpServer.Errors():
		a.log.Error("http server failed", applogger.Error(runErr))
		stop()
	}

	a.shutdown()
	return runErr
}

// scanLoop scans the watchlist once on start and then on every tick.
func (a *App) scanLoop(ctx context.Context, symbols []string) {
	ticker := time.NewTicker(a.cfg.Scanner.Interval)
	defer ticker.Stop()

	for {
		report := a.scanner.Scan(ctx, symbols, a.cfg.Scanner.Workers)
		a.log.Info("scan completed",
			applogger.Int("symbols", len(symbols)),
			applogger.Int("emitted", report.Emitted()),
			applogger.Int("errors", len(report.Errors)),
			applogger.Duration("took", report.Duration),
		)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// shutdown stops intake first, then drains delivery, then closes clients.
func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	if a.jobs != nil {
		if err := a.jobs.Stop(ctx); err != nil {
			a.log.Warn("queue stop error", applogger.Error(err))
		}
	}

	a.wg.Wait()
	a.buffer.Stop()
	a.hub.Close()
	a.dispatcher.Close()

	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.close(); err != nil {
			a.log.Warn("close error", applogger.String("component", c.name), applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
}
