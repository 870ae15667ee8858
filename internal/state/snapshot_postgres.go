package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PostgresSnapshotter stores the identity document as a single JSONB row.
// The write-through model rewrites the document wholesale on every mutation,
// matching the file backend's semantics.
type PostgresSnapshotter struct {
	db *sql.DB
}

// NewPostgresSnapshotter ensures the snapshot table exists.
func NewPostgresSnapshotter(ctx context.Context, db *sql.DB) (*PostgresSnapshotter, error) {
	const schema = `
		CREATE TABLE IF NOT EXISTS identity_snapshot (
			id           int PRIMARY KEY DEFAULT 1 CHECK (id = 1),
			document     jsonb NOT NULL,
			last_updated timestamptz NOT NULL
		)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create identity_snapshot table: %w", err)
	}
	return &PostgresSnapshotter{db: db}, nil
}

func (p *PostgresSnapshotter) Save(ctx context.Context, snap Snapshot) error {
	doc, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal identity snapshot: %w", err)
	}
	const upsert = `
		INSERT INTO identity_snapshot (id, document, last_updated)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET document = $1, last_updated = $2`
	if _, err := p.db.ExecContext(ctx, upsert, doc, snap.LastUpdated.UTC()); err != nil {
		return fmt.Errorf("write identity snapshot: %w", err)
	}
	return nil
}

func (p *PostgresSnapshotter) Load(ctx context.Context) (Snapshot, error) {
	var (
		doc     []byte
		updated time.Time
	)
	const query = `SELECT document, last_updated FROM identity_snapshot WHERE id = 1`
	err := p.db.QueryRowContext(ctx, query).Scan(&doc, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("read identity snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(doc, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode identity snapshot: %w", err)
	}
	snap.LastUpdated = updated
	return snap, nil
}
