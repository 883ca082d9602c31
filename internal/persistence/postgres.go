package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/gearstra/vtt-potion-toxicity-5e/internal/engine"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ engine.AtomicLedgerStore = (*PostgresLedger)(nil)

const upsertPostgres = `
INSERT INTO entity_flags (entity_id, key, value) VALUES ($1, $2, $3)
ON CONFLICT (entity_id, key) DO UPDATE SET value = EXCLUDED.value, updated = now()`

// PostgresLedger is the shared-table ledger store for multi-host setups.
type PostgresLedger struct {
	pool *pgxpool.Pool
}

// NewPostgresLedger connects and ensures the flags table exists.
func NewPostgresLedger(ctx context.Context, dsn string) (*PostgresLedger, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	ddl := `
CREATE TABLE IF NOT EXISTS entity_flags (
    entity_id TEXT NOT NULL,
    key       TEXT NOT NULL,
    value     BIGINT NOT NULL,
    updated   TIMESTAMPTZ DEFAULT now(),
    PRIMARY KEY (entity_id, key)
);
ALTER TABLE entity_flags ALTER COLUMN value TYPE BIGINT;`
	if _, err := pool.Exec(ctx, ddl); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensuring postgres ledger schema: %w", err)
	}

	return &PostgresLedger{pool: pool}, nil
}

// ReadLedgerValue returns 0 for entities without a row.
func (p *PostgresLedger) ReadLedgerValue(ctx context.Context, entityID string) (int, error) {
	var v int64
	err := p.pool.QueryRow(ctx,
		`SELECT value FROM entity_flags WHERE entity_id = $1 AND key = $2`,
		entityID, engine.LedgerKey,
	).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading ledger value for %s: %w", entityID, err)
	}
	return int(v), nil
}

func (p *PostgresLedger) PersistLedgerValue(ctx context.Context, entityID string, value int) error {
	_, err := p.pool.Exec(ctx, upsertPostgres, entityID, engine.LedgerKey, int64(value))
	if err != nil {
		return fmt.Errorf("persisting ledger value for %s: %w", entityID, err)
	}
	return nil
}

// UpdateLedgerValue runs fn in a transaction holding an advisory lock on the
// entity, so hosts sharing the table apply their changes one after another.
// The lock covers entities that have no row yet, which FOR UPDATE cannot.
func (p *PostgresLedger) UpdateLedgerValue(ctx context.Context, entityID string, fn func(current int) (int, error)) (int, error) {
	var current, next int
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, entityID); err != nil {
			return fmt.Errorf("locking ledger value for %s: %w", entityID, err)
		}

		var v int64
		err := tx.QueryRow(ctx,
			`SELECT value FROM entity_flags WHERE entity_id = $1 AND key = $2 FOR UPDATE`,
			entityID, engine.LedgerKey,
		).Scan(&v)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("reading ledger value for %s: %w", entityID, err)
		}
		current = int(v)

		next, err = fn(current)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, upsertPostgres, entityID, engine.LedgerKey, int64(next)); err != nil {
			return fmt.Errorf("persisting ledger value for %s: %w", entityID, err)
		}
		return nil
	})
	if err != nil {
		return current, err
	}
	return next, nil
}

func (p *PostgresLedger) Close() error {
	p.pool.Close()
	return nil
}
