package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore records how many writes reached the store.
type countingStore struct {
	*MemoryStore
	writes int
	mu     sync.Mutex
}

func (s *countingStore) PersistLedgerValue(ctx context.Context, id string, v int) error {
	s.mu.Lock()
	s.writes++
	s.mu.Unlock()
	return s.MemoryStore.PersistLedgerValue(ctx, id, v)
}

type failingStore struct{ err error }

func (f failingStore) ReadLedgerValue(context.Context, string) (int, error) { return 0, nil }
func (f failingStore) PersistLedgerValue(context.Context, string, int) error {
	return f.err
}

// txStore runs updates through UpdateLedgerValue, the way database stores do.
type txStore struct {
	*countingStore
	updates int
}

func (s *txStore) UpdateLedgerValue(ctx context.Context, id string, fn func(int) (int, error)) (int, error) {
	s.updates++
	current, err := s.ReadLedgerValue(ctx, id)
	if err != nil {
		return 0, err
	}
	next, err := fn(current)
	if err != nil {
		return current, err
	}
	return next, s.PersistLedgerValue(ctx, id, next)
}

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := NewLedger(NewMemoryStore())
	require.NoError(t, err)
	return l
}

func TestLedgerGetDefaultsToZero(t *testing.T) {
	l := newTestLedger(t)
	v, err := l.Get(context.Background(), "elara")
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestLedgerIncrementIsAdditive(t *testing.T) {
	ctx := context.Background()
	pairs := [][2]int{{0, 0}, {1, 2}, {5, 0}, {3, 7}, {10, 10}}

	for _, p := range pairs {
		l := newTestLedger(t)
		_, err := l.Increment(ctx, "e", p[0])
		require.NoError(t, err)
		total, err := l.Increment(ctx, "e", p[1])
		require.NoError(t, err)

		got, err := l.Get(ctx, "e")
		require.NoError(t, err)
		assert.Equal(t, p[0]+p[1], got)
		assert.Equal(t, got, total)
	}
}

func TestLedgerIncrementRejectsNegative(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	_, err := l.Increment(ctx, "e", 4)
	require.NoError(t, err)

	_, err = l.Increment(ctx, "e", -1)
	assert.True(t, errors.Is(err, ErrInvalidAmount))

	got, _ := l.Get(ctx, "e")
	assert.Equal(t, 4, got)
}

func TestLedgerReset(t *testing.T) {
	ctx := context.Background()
	for _, start := range []int{0, 1, 7, 250} {
		l := newTestLedger(t)
		require.NoError(t, l.Set(ctx, "e", start))
		require.NoError(t, l.Reset(ctx, "e"))

		got, err := l.Get(ctx, "e")
		require.NoError(t, err)
		assert.Equal(t, 0, got)
	}
}

func TestLedgerEntitiesAreIndependent(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	_, _ = l.Increment(ctx, "a", 3)
	_, _ = l.Increment(ctx, "b", 5)
	require.NoError(t, l.Reset(ctx, "a"))

	b, _ := l.Get(ctx, "b")
	assert.Equal(t, 5, b)
}

func TestLedgerUpdateFailureDoesNotPersist(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{MemoryStore: NewMemoryStore()}
	l, err := NewLedger(store)
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = l.Update(ctx, "e", func(int) (int, error) { return 9, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, store.writes)
}

func TestLedgerPersistFailurePropagates(t *testing.T) {
	disk := errors.New("disk full")
	l, err := NewLedger(failingStore{err: disk})
	require.NoError(t, err)

	_, err = l.Increment(context.Background(), "e", 1)
	assert.ErrorIs(t, err, disk)
}

func TestLedgerConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Increment(ctx, "same", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := l.Get(ctx, "same")
	require.NoError(t, err)
	assert.Equal(t, 100, got)
}

func TestLedgerUsesStoreTransaction(t *testing.T) {
	ctx := context.Background()
	store := &txStore{countingStore: &countingStore{MemoryStore: NewMemoryStore()}}
	l, err := NewLedger(store)
	require.NoError(t, err)

	total, err := l.Increment(ctx, "e", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, 1, store.updates)

	boom := errors.New("boom")
	got, err := l.Update(ctx, "e", func(int) (int, error) { return 9, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, got)

	_, err = l.Update(ctx, "e", func(int) (int, error) { return -1, nil })
	assert.ErrorIs(t, err, ErrInvalidAmount)

	v, _ := l.Get(ctx, "e")
	assert.Equal(t, 3, v)
	assert.Equal(t, 1, store.writes)
}

func TestNewLedgerRequiresStore(t *testing.T) {
	_, err := NewLedger(nil)
	assert.True(t, errors.Is(err, ErrMissingCollaborator))
}
