// Package journal provides the SQLite-backed switch journal.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"routerswitcher/internal/port"
	"routerswitcher/internal/types"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	defaultBusyTimeout = 5 * time.Second

	// maxEvents bounds the table; older rows are pruned on insert.
	maxEvents = 1000

	// timeLayout is fixed width so text ordering matches time ordering.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS switch_events (
		id          TEXT PRIMARY KEY,
		occurred_at TEXT NOT NULL,
		ssid        TEXT NOT NULL DEFAULT '',
		adapter     TEXT NOT NULL DEFAULT '',
		mode        TEXT NOT NULL,
		outcome     TEXT NOT NULL,
		error       TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_switch_events_occurred_at ON switch_events (occurred_at)`,
}

// Store is a Journal backed by a SQLite database file.
type Store struct {
	db *sql.DB
}

// Ensure Store implements the Journal port
var _ port.Journal = (*Store)(nil)

// Open opens (creating if needed) the journal database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("journal: create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	if err := applySchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts event, assigning an ID and timestamp when missing.
func (s *Store) Record(ctx context.Context, event types.SwitchEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("journal: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO switch_events (id, occurred_at, ssid, adapter, mode, outcome, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, event.ID, event.OccurredAt.UTC().Format(timeLayout), event.SSID, event.Adapter,
		string(event.Mode), event.Outcome, event.Error); err != nil {
		return fmt.Errorf("journal: insert event: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM switch_events
		WHERE id NOT IN (
			SELECT id FROM switch_events ORDER BY occurred_at DESC LIMIT ?
		)
	`, maxEvents); err != nil {
		return fmt.Errorf("journal: prune events: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("journal: commit: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]types.SwitchEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, occurred_at, ssid, adapter, mode, outcome, error
		FROM switch_events
		ORDER BY occurred_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: query events: %w", err)
	}
	defer rows.Close()

	var events []types.SwitchEvent
	for rows.Next() {
		var (
			ev         types.SwitchEvent
			occurredAt string
			mode       string
		)
		if err := rows.Scan(&ev.ID, &occurredAt, &ev.SSID, &ev.Adapter, &mode, &ev.Outcome, &ev.Error); err != nil {
			return nil, fmt.Errorf("journal: scan event: %w", err)
		}
		ev.Mode = types.Mode(mode)
		ev.OccurredAt, err = time.Parse(timeLayout, occurredAt)
		if err != nil {
			return nil, fmt.Errorf("journal: parse timestamp %q: %w", occurredAt, err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: iterate events: %w", err)
	}
	return events, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", defaultBusyTimeout.Milliseconds()),
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("journal: apply %q: %w", p, err)
		}
	}
	return nil
}

func applySchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("journal: begin schema transaction: %w", err)
	}

	for _, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("journal: apply schema: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("journal: commit schema transaction: %w", err)
	}
	return nil
}
