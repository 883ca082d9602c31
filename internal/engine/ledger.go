package engine

import (
	"context"
	"fmt"
	"sync"
)

// LedgerKey is the fixed flag name the ledger value is stored under, per entity.
const LedgerKey = "currentToxicity"

// LedgerStore is the host-provided key/value port the ledger persists through.
// Implementations return 0 for entities that were never written.
type LedgerStore interface {
	ReadLedgerValue(ctx context.Context, entityID string) (int, error)
	PersistLedgerValue(ctx context.Context, entityID string, value int) error
}

// AtomicLedgerStore is a LedgerStore that can read, resolve and write one
// entity's value as a single transaction. While fn runs no other writer, in
// this process or another, may change that entity. Errors returned by fn are
// passed through and nothing is written.
type AtomicLedgerStore interface {
	LedgerStore
	UpdateLedgerValue(ctx context.Context, entityID string, fn func(current int) (int, error)) (int, error)
}

// Ledger tracks accumulated toxicity per entity. It holds no durable state of
// its own; every value lives in the LedgerStore. Operations on the same entity
// are serialized so concurrent increments never lose updates.
type Ledger struct {
	store LedgerStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLedger wraps a host store.
func NewLedger(store LedgerStore) (*Ledger, error) {
	if store == nil {
		return nil, fmt.Errorf("ledger store: %w", ErrMissingCollaborator)
	}
	return &Ledger{store: store, locks: make(map[string]*sync.Mutex)}, nil
}

func (l *Ledger) lock(entityID string) func() {
	l.mu.Lock()
	m, ok := l.locks[entityID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[entityID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// Get returns the stored toxicity, or 0 if the entity was never written.
func (l *Ledger) Get(ctx context.Context, entityID string) (int, error) {
	unlock := l.lock(entityID)
	defer unlock()
	return l.read(ctx, entityID)
}

func (l *Ledger) read(ctx context.Context, entityID string) (int, error) {
	v, err := l.store.ReadLedgerValue(ctx, entityID)
	if err != nil {
		return 0, fmt.Errorf("failed to read toxicity of %s: %w", entityID, err)
	}
	return v, nil
}

// Update runs fn on the current value while holding the entity's lock and
// persists what it returns. Nothing is written when fn fails, so callers can
// resolve every consequence of a change before committing it. Stores that
// implement AtomicLedgerStore run the whole exchange in one transaction, which
// also serializes it against other processes sharing the store. fn must not
// call back into the ledger.
func (l *Ledger) Update(ctx context.Context, entityID string, fn func(current int) (int, error)) (int, error) {
	unlock := l.lock(entityID)
	defer unlock()

	var current int
	var resolveErr error
	resolve := func(v int) (int, error) {
		current = v
		next, err := fn(v)
		if err == nil && next < 0 {
			err = fmt.Errorf("toxicity of %s cannot become %d: %w", entityID, next, ErrInvalidAmount)
		}
		resolveErr = err
		return next, err
	}

	if atomic, ok := l.store.(AtomicLedgerStore); ok {
		next, err := atomic.UpdateLedgerValue(ctx, entityID, resolve)
		if resolveErr != nil {
			return current, resolveErr
		}
		if err != nil {
			return current, fmt.Errorf("failed to update toxicity of %s: %w", entityID, err)
		}
		return next, nil
	}

	v, err := l.read(ctx, entityID)
	if err != nil {
		return 0, err
	}
	next, err := resolve(v)
	if err != nil {
		return current, err
	}
	if err := l.store.PersistLedgerValue(ctx, entityID, next); err != nil {
		return current, fmt.Errorf("failed to persist toxicity of %s: %w", entityID, err)
	}
	return next, nil
}

// Increment adds a non-negative amount and returns the new total.
func (l *Ledger) Increment(ctx context.Context, entityID string, amount int) (int, error) {
	if amount < 0 {
		return 0, fmt.Errorf("increment of %d: %w", amount, ErrInvalidAmount)
	}
	return l.Update(ctx, entityID, func(current int) (int, error) {
		return current + amount, nil
	})
}

// Set overwrites the stored value.
func (l *Ledger) Set(ctx context.Context, entityID string, value int) error {
	if value < 0 {
		return fmt.Errorf("set to %d: %w", value, ErrInvalidAmount)
	}
	_, err := l.Update(ctx, entityID, func(int) (int, error) { return value, nil })
	return err
}

// Reset sets the entity's toxicity back to zero.
func (l *Ledger) Reset(ctx context.Context, entityID string) error {
	return l.Set(ctx, entityID, 0)
}

// MemoryStore is an in-process LedgerStore, safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]int
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]int)}
}

// ReadLedgerValue implements LedgerStore.
func (m *MemoryStore) ReadLedgerValue(_ context.Context, entityID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[entityID], nil
}

// PersistLedgerValue implements LedgerStore.
func (m *MemoryStore) PersistLedgerValue(_ context.Context, entityID string, value int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[entityID] = value
	return nil
}
