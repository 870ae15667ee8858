package worker

import (
	"context"
	"log/slog"

	"github.com/Raoof128/ILAE/internal/audit"
	"github.com/Raoof128/ILAE/internal/domain"
	"github.com/Raoof128/ILAE/pkg/jmlerrors"
)

// ChannelStore decouples audit writes from the workflow hot path. Append
// hands the record to the drain worker through a buffered channel; reads go
// straight to the backing store, so a just-written record may not be visible
// until the worker has drained it.
type ChannelStore struct {
	backing audit.Store
	inbox   chan domain.AuditRecord
}

// Buffered wraps a store with an asynchronous write path. Run the returned
// Worker in its own goroutine; Close the store when no more writes come.
func Buffered(backing audit.Store, size int, logger *slog.Logger) (*ChannelStore, *Worker) {
	if size <= 0 {
		size = 256
	}
	inbox := make(chan domain.AuditRecord, size)
	return &ChannelStore{backing: backing, inbox: inbox}, New(backing, inbox, logger)
}

// Append queues the record for the drain worker. A full inbox fails fast
// instead of blocking a workflow on audit persistence.
func (s *ChannelStore) Append(_ context.Context, record domain.AuditRecord) error {
	select {
	case s.inbox <- record:
		return nil
	default:
		return jmlerrors.New(jmlerrors.CodeUnavailable, "audit inbox full")
	}
}

func (s *ChannelStore) List(ctx context.Context, filter audit.Filter) ([]domain.AuditRecord, error) {
	return s.backing.List(ctx, filter)
}

// Close stops accepting writes and lets the worker drain what remains.
func (s *ChannelStore) Close() { close(s.inbox) }
