// Package audit records every attempted IAM action as an immutable,
// append-only fact and aggregates those facts into compliance reports.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Raoof128/ILAE/internal/domain"
)

// Store persists audit records. Append-only by contract: nothing in this
// package updates or deletes a written record.
type Store interface {
	Append(ctx context.Context, record domain.AuditRecord) error
	List(ctx context.Context, filter Filter) ([]domain.AuditRecord, error)
}

// Filter narrows a query. Zero values mean "no constraint".
type Filter struct {
	EmployeeID string
	Start      time.Time
	End        time.Time
	Limit      int
}

// Matches reports whether a record satisfies the filter, ignoring Limit.
func (f Filter) Matches(record domain.AuditRecord) bool {
	if f.EmployeeID != "" && record.EmployeeID != f.EmployeeID {
		return false
	}
	if !f.Start.IsZero() && record.Timestamp.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && record.Timestamp.After(f.End) {
		return false
	}
	return true
}

// Trail is the audit log facade used by workflows and the transport layer.
type Trail struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// Option configures optional trail behavior.
type Option func(*Trail)

// WithClock injects a time source for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(t *Trail) { t.now = now }
}

func NewTrail(store Store, logger *slog.Logger, opts ...Option) *Trail {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Trail{store: store, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// LogEvent appends one record, assigning an id and timestamp when missing,
// and returns the record id. Failures are logged and surfaced; the caller
// decides whether a lost audit write fails the surrounding operation.
func (t *Trail) LogEvent(ctx context.Context, record domain.AuditRecord) (string, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = t.now().UTC()
	}
	if err := t.store.Append(ctx, record); err != nil {
		t.logger.Error("append audit record", "record_id", record.ID, "error", err)
		return record.ID, err
	}
	return record.ID, nil
}

// GetEvents returns matching records, most recent first.
func (t *Trail) GetEvents(ctx context.Context, filter Filter) ([]domain.AuditRecord, error) {
	return t.store.List(ctx, filter)
}
