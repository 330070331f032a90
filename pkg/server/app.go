package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	domrepo "NewsAlpha/internal/domain/repository"
	"NewsAlpha/internal/usecase"
	pkgch "NewsAlpha/pkg/clickhouse"
	"NewsAlpha/pkg/config"
	xhttp "NewsAlpha/pkg/http"
	applogger "NewsAlpha/pkg/logger"
)

// App encapsulates the entire application lifecycle: the HTTP server plus
// the scheduled labeling and training jobs.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	handler    xhttp.Handler
	labeler    *usecase.Labeler
	trainer    *usecase.Trainer
	chClient   *pkgch.Client
	publisher  domrepo.SignalPublisher
	httpServer *xhttp.Server
	cron       *cron.Cron
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	labeler *usecase.Labeler,
	trainer *usecase.Trainer,
	chClient *pkgch.Client,
	publisher domrepo.SignalPublisher,
) *App {
	return &App{
		cfg:       cfg,
		l:         l,
		handler:   handler,
		labeler:   labeler,
		trainer:   trainer,
		chClient:  chClient,
		publisher: publisher,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if err := a.startSchedules(ctx); err != nil {
		return err
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// startSchedules registers the nightly labeling and training jobs. A job
// that is still running when its next slot arrives is skipped, never
// overlapped; both jobs assume they are the only writer of their kind.
func (a *App) startSchedules(ctx context.Context) error {
	a.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
		cron.Recover(cron.DiscardLogger),
	))

	if _, err := a.cron.AddFunc(a.cfg.Research.LabelSchedule, func() {
		labeled, skipped, err := a.labeler.Run(ctx)
		if err != nil {
			a.l.Warn("scheduled labeling finished with errors",
				applogger.Int("labeled", labeled),
				applogger.Int("skipped", skipped),
				applogger.Error(err),
			)
			return
		}
		a.l.Info("scheduled labeling finished",
			applogger.Int("labeled", labeled),
			applogger.Int("skipped", skipped),
		)
	}); err != nil {
		return err
	}

	if _, err := a.cron.AddFunc(a.cfg.Research.TrainSchedule, func() {
		run, err := a.trainer.Train(ctx, a.cfg.Research.MinTrainSamples)
		if err != nil {
			a.l.Error("scheduled training failed", applogger.Error(err))
			return
		}
		if run == nil {
			a.l.Info("scheduled training skipped: not enough labeled signals")
			return
		}
		a.l.Info("scheduled training finished",
			applogger.String("version", run.Version),
			applogger.Int("n_rows", run.Metrics.NRows),
		)
	}); err != nil {
		return err
	}

	a.cron.Start()
	a.l.Info("schedules started",
		applogger.String("label", a.cfg.Research.LabelSchedule),
		applogger.String("train", a.cfg.Research.TrainSchedule),
	)
	return nil
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if a.cron != nil {
		<-a.cron.Stop().Done()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.l.Warn("publisher close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
