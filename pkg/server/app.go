package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	domrepo "TradeWolf/internal/domain/repository"
	"TradeWolf/internal/usecase"
	"TradeWolf/pkg/cache"
	"TradeWolf/pkg/config"
	xhttp "TradeWolf/pkg/http"
	applogger "TradeWolf/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	supervisor *usecase.Supervisor
	handler    xhttp.Handler
	httpServer *xhttp.Server
	audit      domrepo.AuditSink
	cacheSvc   cache.Service
	stream     domrepo.VenueStream
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	supervisor *usecase.Supervisor,
	handler xhttp.Handler,
	audit domrepo.AuditSink,
	cacheSvc cache.Service,
	stream domrepo.VenueStream,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		supervisor: supervisor,
		handler:    handler,
		audit:      audit,
		cacheSvc:   cacheSvc,
		stream:     stream,
	}
}

// Run starts the control loop and HTTP server and blocks until the process
// is interrupted or the loop terminates on its own.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler, a.log,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	loopErr := make(chan error, 1)
	go func() {
		loopErr <- a.supervisor.Run(ctx)
	}()
	a.log.Info("control loop started",
		applogger.String("strategy", a.cfg.Strategy.Mode),
		applogger.String("default_symbol", a.cfg.Universe.DefaultSymbol),
	)

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case <-sigCh:
		a.log.Info("shutdown signal received")
		a.supervisor.Stop()
		runErr = <-loopErr
	case runErr = <-loopErr:
		if runErr != nil {
			a.log.Error("control loop terminated", applogger.Error(runErr))
		} else {
			a.log.Info("control loop stopped")
		}
	}

	a.shutdown(ctx)
	return runErr
}

// shutdown releases all resources in reverse dependency order.
func (a *App) shutdown(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.stream != nil {
		if err := a.stream.Close(); err != nil {
			a.log.Warn("stream close error", applogger.Error(err))
		}
	}
	if a.audit != nil {
		if err := a.audit.Close(); err != nil {
			a.log.Warn("audit close error", applogger.Error(err))
		}
	}
	if a.cacheSvc != nil {
		if err := a.cacheSvc.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
}
