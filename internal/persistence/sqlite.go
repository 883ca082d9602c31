package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gearstra/vtt-potion-toxicity-5e/internal/engine"

	_ "modernc.org/sqlite"
)

var _ engine.AtomicLedgerStore = (*SQLiteLedger)(nil)

const upsertSQLite = `
INSERT INTO entity_flags (entity_id, key, value) VALUES (?, ?, ?)
ON CONFLICT (entity_id, key) DO UPDATE SET value = excluded.value, updated = datetime('now')`

// SQLiteLedger keeps ledger values in an entity flag table.
type SQLiteLedger struct {
	db *sql.DB
}

// NewSQLiteLedger opens the database and ensures the flags table exists.
func NewSQLiteLedger(ctx context.Context, dsn string) (*SQLiteLedger, error) {
	driverDSN, err := parseSQLiteDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing sqlite DSN: %w", err)
	}

	db, err := sql.Open("sqlite", withBusyTimeout(driverDSN))
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite: %w", err)
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS entity_flags (
			entity_id TEXT NOT NULL,
			key       TEXT NOT NULL,
			value     INTEGER NOT NULL,
			updated   TEXT DEFAULT (datetime('now')),
			PRIMARY KEY (entity_id, key)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("preparing sqlite ledger: %w", err)
		}
	}

	return &SQLiteLedger{db: db}, nil
}

// ReadLedgerValue returns 0 for entities without a row.
func (s *SQLiteLedger) ReadLedgerValue(ctx context.Context, entityID string) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM entity_flags WHERE entity_id = ? AND key = ?`,
		entityID, engine.LedgerKey,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading ledger value for %s: %w", entityID, err)
	}
	return v, nil
}

func (s *SQLiteLedger) PersistLedgerValue(ctx context.Context, entityID string, value int) error {
	_, err := s.db.ExecContext(ctx, upsertSQLite, entityID, engine.LedgerKey, value)
	if err != nil {
		return fmt.Errorf("persisting ledger value for %s: %w", entityID, err)
	}
	return nil
}

// UpdateLedgerValue runs fn inside a BEGIN IMMEDIATE transaction. The write
// lock is taken up front so two processes on the same file queue on
// busy_timeout instead of both reading the old value.
func (s *SQLiteLedger) UpdateLedgerValue(ctx context.Context, entityID string, fn func(current int) (int, error)) (next int, err error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquiring sqlite connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return 0, fmt.Errorf("beginning ledger transaction for %s: %w", entityID, err)
	}
	defer func() {
		if err != nil {
			_, _ = conn.ExecContext(context.WithoutCancel(ctx), "ROLLBACK")
		}
	}()

	var current int
	err = conn.QueryRowContext(ctx,
		`SELECT value FROM entity_flags WHERE entity_id = ? AND key = ?`,
		entityID, engine.LedgerKey,
	).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		current, err = 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading ledger value for %s: %w", entityID, err)
	}

	next, err = fn(current)
	if err != nil {
		return current, err
	}

	if _, err = conn.ExecContext(ctx, upsertSQLite, entityID, engine.LedgerKey, next); err != nil {
		return current, fmt.Errorf("persisting ledger value for %s: %w", entityID, err)
	}
	if _, err = conn.ExecContext(ctx, "COMMIT"); err != nil {
		return current, fmt.Errorf("committing ledger value for %s: %w", entityID, err)
	}
	return next, nil
}

// withBusyTimeout sets busy_timeout on every pooled connection unless the DSN
// already configures it.
func withBusyTimeout(dsn string) string {
	if strings.Contains(dsn, "busy_timeout") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(30000)"
}

func (s *SQLiteLedger) Close() error {
	return s.db.Close()
}
