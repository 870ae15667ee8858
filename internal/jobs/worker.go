package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/Raoof128/ILAE/internal/domain"
	"github.com/Raoof128/ILAE/internal/service"
	"github.com/Raoof128/ILAE/pkg/jmlerrors"
)

// Worker drains the lifecycle queue through the event service.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *slog.Logger
}

// WorkerConfig collects what the worker needs to start.
type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Service     *service.Service
	Logger      *slog.Logger
	Concurrency int
}

func NewWorker(cfg WorkerConfig) *Worker {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues: map[string]int{
			QueueLifecycle: 1,
		},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskProcessEvent, handleProcessEvent(cfg.Service, cfg.Logger))
	return &Worker{server: srv, mux: mux, logger: cfg.Logger}
}

// Run processes tasks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	select {
	case <-ctx.Done():
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// handleProcessEvent runs one queued event through the service. Invalid
// payloads and invalid events skip retry; a failed workflow still completes
// the task because its failures are recorded in the result and audit trail.
func handleProcessEvent(svc *service.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ProcessEventPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			logger.Error("malformed event task payload", "error", err)
			return asynq.SkipRetry
		}

		result, err := svc.ProcessEvent(ctx, payload.Event)
		if err != nil {
			if jmlerrors.HasCode(err, jmlerrors.CodeInvalidInput) ||
				jmlerrors.HasCode(err, jmlerrors.CodeInvalidEvent) {
				logger.Warn("dropping unprocessable event task",
					"employee_id", payload.Event.EmployeeID, "error", err)
				return asynq.SkipRetry
			}
			return err
		}

		logResult(logger, payload.Event, result)
		return nil
	}
}

func logResult(logger *slog.Logger, event domain.HREvent, result domain.WorkflowResult) {
	logger.Info("processed queued event",
		"workflow_id", result.WorkflowID,
		"employee_id", event.EmployeeID,
		"kind", event.Kind,
		"success", result.Success,
		"steps", len(result.Steps),
		"errors", len(result.Errors))
}
