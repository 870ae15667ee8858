// Command server runs the lifecycle engine HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/Raoof128/ILAE/internal/app"
	"github.com/Raoof128/ILAE/internal/domain"
	"github.com/Raoof128/ILAE/internal/jobs"
	"github.com/Raoof128/ILAE/internal/platform/config"
	"github.com/Raoof128/ILAE/internal/platform/httpserver"
	"github.com/Raoof128/ILAE/internal/platform/logger"
	httptransport "github.com/Raoof128/ILAE/internal/transport/http"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("json", "info").Error("load configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogFormat, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	var enqueuer httptransport.Enqueuer
	if cfg.QueueEvents {
		client := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer client.Close()
		enqueuer = enqueueAdapter{client: client}
	}

	handler := httptransport.NewHandler(
		application.Service, enqueuer, application.State,
		application.Trail, application.Ingestion, log)
	router := httptransport.NewRouter(handler, application.Registry)
	srv := httpserver.New(cfg.Addr, router, cfg.ReadTimeout, cfg.WriteTimeout)

	log.Info("starting lifecycle engine",
		"addr", cfg.Addr,
		"state_backend", cfg.StateBackend,
		"audit_backend", cfg.AuditBackend,
		"queued_events", cfg.QueueEvents)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if application.AuditDrain != nil {
		group.Go(func() error {
			if err := application.AuditDrain.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

// enqueueAdapter narrows the jobs client to the transport interface.
type enqueueAdapter struct {
	client *jobs.Client
}

func (a enqueueAdapter) EnqueueEvent(ctx context.Context, event domain.HREvent) error {
	_, err := a.client.EnqueueEvent(ctx, event)
	return err
}
