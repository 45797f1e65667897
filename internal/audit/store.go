// Package audit keeps a durable trail of reconciliation outcomes. A payment
// captured with no corresponding booking is an operational incident; this log
// is what the operator reconciles against.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"mannabook/internal/events"
)

const schema = `
CREATE TABLE IF NOT EXISTS reconcile_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	order_id      TEXT NOT NULL,
	state         TEXT NOT NULL,
	block_start   TEXT,
	block_end     TEXT,
	commitment_id TEXT,
	customer      TEXT,
	package       TEXT,
	created_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reconcile_log_order ON reconcile_log(order_id);
CREATE INDEX IF NOT EXISTS idx_reconcile_log_state ON reconcile_log(state);
`

// Entry is one recorded reconciliation outcome.
type Entry struct {
	ID           int64
	OrderID      string
	State        string
	BlockStart   string
	BlockEnd     string
	CommitmentID string
	Customer     string
	Package      string
	CreatedAt    string
}

// Store is the sqlite-backed decision log.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the audit database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init audit schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends one outcome. It implements events.Handler via HandleOutcome.
func (s *Store) Record(ctx context.Context, o events.ReconcileOutcome) error {
	blockStart, blockEnd := "", ""
	if o.Window.Valid() {
		blockStart = o.Window.BlockStart.UTC().Format(time.RFC3339)
		blockEnd = o.Window.BlockEnd.UTC().Format(time.RFC3339)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reconcile_log (order_id, state, block_start, block_end, commitment_id, customer, package, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.OrderID, o.State, blockStart, blockEnd, o.CommitmentID, o.CustomerName, o.Package,
		o.OccurredAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("record outcome for %s: %w", o.OrderID, err)
	}
	return nil
}

// List returns the most recent entries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, state, block_start, block_end, commitment_id, customer, package, created_at
		FROM reconcile_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.OrderID, &e.State, &e.BlockStart, &e.BlockEnd,
			&e.CommitmentID, &e.Customer, &e.Package, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
