package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"Boardroom/internal/domain/repository"
	"Boardroom/internal/handler/api"
	"Boardroom/internal/orchestrator"
	"Boardroom/internal/service/quotes"
	pkgch "Boardroom/pkg/clickhouse"
	"Boardroom/pkg/config"
	xhttp "Boardroom/pkg/http"
	xlogger "Boardroom/pkg/logger"
)

// App encapsulates the application lifecycle: the trading loop, the hourly
// heartbeat, the optional realtime quote stream and the ops HTTP server.
type App struct {
	cfg        *config.Config
	logger     *xlogger.Logger
	orch       *orchestrator.Orchestrator
	ops        *api.OpsHandler
	stream     *quotes.Stream
	events     repository.EventPublisher
	chClient   *pkgch.Client
	httpServer *xhttp.Server
}

func New(
	cfg *config.Config,
	logger *xlogger.Logger,
	orch *orchestrator.Orchestrator,
	ops *api.OpsHandler,
	stream *quotes.Stream,
	events repository.EventPublisher,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:      cfg,
		logger:   logger.With("app"),
		orch:     orch,
		ops:      ops,
		stream:   stream,
		events:   events,
		chClient: chClient,
	}
}

// ScanOnce runs one screening pass and exits. Diagnostic mode.
func (a *App) ScanOnce(ctx context.Context) error {
	defer a.shutdown()
	return a.orch.ScanOnce(ctx)
}

// MonitorOnce runs one position-exit sweep and exits. Diagnostic mode.
func (a *App) MonitorOnce(ctx context.Context) error {
	defer a.shutdown()
	closed, err := a.orch.SweepOnce(ctx)
	if err != nil {
		return err
	}
	a.logger.Info("sweep finished", xlogger.Int("closed", closed))
	return nil
}

// Run starts every component and blocks until an interrupt, then shuts down.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.ops, a.logger,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		return err
	}
	a.logger.Info("ops server started", xlogger.Int("port", a.cfg.Server.Port))

	if a.stream != nil {
		go a.stream.Run(ctx)
	}
	go a.orch.Heartbeat(ctx)
	go a.orch.Run(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.logger.Warn("http shutdown failed", xlogger.Error(err))
		}
	}
	if a.stream != nil {
		_ = a.stream.Close()
	}
	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.logger.Warn("event publisher close failed", xlogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close failed", xlogger.Error(err))
		}
	}
	a.logger.Info("shutdown complete")
	return nil
}
