// Command worker drains the lifecycle event queue.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/Raoof128/ILAE/internal/app"
	"github.com/Raoof128/ILAE/internal/jobs"
	"github.com/Raoof128/ILAE/internal/platform/config"
	"github.com/Raoof128/ILAE/internal/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("json", "info").Error("load configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogFormat, cfg.LogLevel)

	if cfg.RedisAddr == "" {
		log.Error("worker requires JML_REDIS_ADDR")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	if application.AuditDrain != nil {
		go func() {
			if err := application.AuditDrain.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("audit drain stopped", "error", err)
			}
		}()
	}

	w := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Service:     application.Service,
		Logger:      log,
		Concurrency: cfg.WorkerConcurrency,
	})

	log.Info("starting lifecycle worker",
		"redis_addr", cfg.RedisAddr, "concurrency", cfg.WorkerConcurrency)

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("worker stopped", "error", err)
		os.Exit(1)
	}
}
