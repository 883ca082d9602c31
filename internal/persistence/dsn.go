package persistence

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gearstra/vtt-potion-toxicity-5e/internal/engine"
)

// LedgerBackend is a closable engine.LedgerStore.
type LedgerBackend interface {
	engine.LedgerStore
	Close() error
}

type memoryBackend struct {
	*engine.MemoryStore
}

func (memoryBackend) Close() error { return nil }

// OpenLedger picks a ledger store by DSN scheme: "memory", "sqlite://..." or
// "postgres://..." (also "postgresql://...").
func OpenLedger(ctx context.Context, dsn string) (LedgerBackend, error) {
	switch {
	case dsn == "" || dsn == "memory":
		return memoryBackend{engine.NewMemoryStore()}, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return NewSQLiteLedger(ctx, dsn)
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return NewPostgresLedger(ctx, dsn)
	}
	return nil, fmt.Errorf("unsupported ledger DSN %q", dsn)
}

func parseSQLiteDSN(dsn string) (string, error) {
	if !strings.HasPrefix(dsn, "sqlite://") {
		return "", fmt.Errorf("invalid sqlite DSN scheme, expected sqlite://")
	}

	rest := strings.TrimPrefix(dsn, "sqlite://")
	if rest == ":memory:" || strings.HasPrefix(rest, "/") || strings.HasPrefix(rest, "./") {
		return rest, nil
	}

	path, query, hasQuery := strings.Cut(rest, "?")
	unescaped, err := url.PathUnescape(path)
	if err != nil {
		return "", fmt.Errorf("unescaping path: %w", err)
	}
	if !filepath.IsAbs(unescaped) {
		unescaped = "./" + unescaped
	}
	if hasQuery {
		return unescaped + "?" + query, nil
	}
	return unescaped, nil
}
