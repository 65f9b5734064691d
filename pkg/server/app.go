package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/FrankPreci/capitol-shill/internal/usecase"
	pkgch "github.com/FrankPreci/capitol-shill/pkg/clickhouse"
	"github.com/FrankPreci/capitol-shill/pkg/config"
	xhttp "github.com/FrankPreci/capitol-shill/pkg/http"
	"github.com/FrankPreci/capitol-shill/pkg/logger"
	"github.com/FrankPreci/capitol-shill/pkg/queue"
)

// App encapsulates the service lifecycle: HTTP API, async study workers
// and backend clients.
type App struct {
	cfg        *config.Config
	log        *logger.Logger
	handler    xhttp.Handler
	processor  *usecase.ResultProcessor
	studyQueue *queue.RedisQueue
	chClient   *pkgch.Client
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *logger.Logger,
	handler xhttp.Handler,
	processor *usecase.ResultProcessor,
	studyQueue *queue.RedisQueue,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		handler:    handler,
		processor:  processor,
		studyQueue: studyQueue,
		chClient:   chClient,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.studyQueue != nil {
		if err := a.studyQueue.Start(); err != nil {
			return err
		}
		a.studyQueue.StartRetryProcessor()
		a.log.Info("study queue workers started",
			logger.Int("workers", a.cfg.Queue.Workers))
	}

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithRequestMetrics(a.log, time.Second),
	)
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start", logger.Error(err))
		return err
	}
	a.log.Info("serving",
		logger.Int("port", a.cfg.Server.Port),
		logger.String("backend", a.cfg.Backend.Type),
		logger.String("benchmark", a.cfg.Study.Benchmark))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown", logger.Error(err))
	}

	if a.studyQueue != nil {
		if err := a.studyQueue.Stop(shutdownCtx); err != nil {
			a.log.Warn("study queue stop", logger.Error(err))
		}
	}

	if a.processor != nil {
		a.processor.Close()
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close", logger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
