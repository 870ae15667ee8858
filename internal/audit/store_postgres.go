package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Raoof128/ILAE/internal/domain"
)

// PostgresStore appends audit records to a table with no update path.
// List queries are served straight from SQL with the filter pushed down.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore ensures the audit table exists.
func NewPostgresStore(ctx context.Context, db *sql.DB) (*PostgresStore, error) {
	const schema = `
		CREATE TABLE IF NOT EXISTS audit_records (
			id          uuid PRIMARY KEY,
			ts          timestamptz NOT NULL,
			employee_id text NOT NULL,
			user_email  text NOT NULL,
			event_type  text NOT NULL,
			system      text NOT NULL,
			action      text NOT NULL,
			resource    text NOT NULL,
			success     boolean NOT NULL,
			error       text,
			workflow_id text
		)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create audit_records table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Append(ctx context.Context, record domain.AuditRecord) error {
	const insert = `
		INSERT INTO audit_records
			(id, ts, employee_id, user_email, event_type, system, action, resource, success, error, workflow_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := s.db.ExecContext(ctx, insert,
		record.ID, record.Timestamp.UTC(), record.EmployeeID, record.UserEmail,
		string(record.EventType), string(record.System), string(record.Action),
		record.Resource, record.Success, nullable(record.Error), nullable(record.WorkflowID))
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]domain.AuditRecord, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.EmployeeID != "" {
		conds = append(conds, "employee_id = "+arg(filter.EmployeeID))
	}
	if !filter.Start.IsZero() {
		conds = append(conds, "ts >= "+arg(filter.Start.UTC()))
	}
	if !filter.End.IsZero() {
		conds = append(conds, "ts <= "+arg(filter.End.UTC()))
	}

	query := `SELECT id, ts, employee_id, user_email, event_type, system, action, resource, success,
		COALESCE(error, ''), COALESCE(workflow_id, '') FROM audit_records`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY ts DESC"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()

	var out []domain.AuditRecord
	for rows.Next() {
		var (
			record    domain.AuditRecord
			ts        time.Time
			eventType string
			system    string
			action    string
		)
		if err := rows.Scan(&record.ID, &ts, &record.EmployeeID, &record.UserEmail,
			&eventType, &system, &action, &record.Resource, &record.Success,
			&record.Error, &record.WorkflowID); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		record.Timestamp = ts
		record.EventType = domain.AuditEventType(eventType)
		record.System = domain.System(system)
		record.Action = domain.Operation(action)
		out = append(out, record)
	}
	return out, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
