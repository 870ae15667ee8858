// Package worker drains audit records from a channel onto a store, keeping
// audit persistence off the workflow hot path.
package worker

import (
	"context"
	"log/slog"

	"github.com/Raoof128/ILAE/internal/audit"
	"github.com/Raoof128/ILAE/internal/domain"
)

// Worker consumes audit records from an inbox channel and persists them.
// A failed append is logged and dropped rather than stopping the drain:
// one bad record must not stall the audit pipeline.
type Worker struct {
	store  audit.Store
	inbox  <-chan domain.AuditRecord
	logger *slog.Logger
}

func New(store audit.Store, inbox <-chan domain.AuditRecord, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run blocks until the context is cancelled or the inbox is closed.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case record, ok := <-w.inbox:
			if !ok {
				return nil
			}
			if err := w.store.Append(ctx, record); err != nil {
				w.logger.Error("persist audit record", "record_id", record.ID, "error", err)
			}
		}
	}
}
