package versionstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/philippgille/chromem-go"
	_ "modernc.org/sqlite"

	"inkwell/internal/config"
	"inkwell/internal/services"
)

const (
	collectionName = "chapter_versions"

	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Store manages chapter lineage persistence backed by SQLite plus an embedded
// vector collection for similarity search.
type Store struct {
	db      *sql.DB
	path    string
	lock    *flock.Flock
	vectors *chromem.Collection
}

// Option customizes store construction.
type Option func(*options)

type options struct {
	embedder chromem.EmbeddingFunc
}

// WithEmbeddingFunc overrides the embedding backend used by the similarity
// index. Tests inject a deterministic local func here.
func WithEmbeddingFunc(fn chromem.EmbeddingFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.embedder = fn
		}
	}
}

// Open initializes or connects to the version store under the configured
// store directory. The directory is locked for the lifetime of the store so
// concurrent processes cannot interleave writes.
func Open(cfg *config.Config, opts ...Option) (*Store, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.embedder == nil {
		o.embedder = chromem.NewEmbeddingFuncOpenAICompat(
			cfg.Embedding.BaseURL, cfg.Embedding.APIKey, cfg.Embedding.Model, nil)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrStoreUnavailable, "store", "open", "ensure directories", err)
	}

	lock := flock.New(filepath.Join(cfg.Paths.StoreDir, "store.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrStoreUnavailable, "store", "open", "acquire lock", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrStoreUnavailable, "store", "open",
			"store is in use by another process", nil)
	}

	dbPath := filepath.Join(cfg.Paths.StoreDir, "lineage.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, services.Wrap(services.ErrStoreUnavailable, "store", "open", "open sqlite db", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, services.Wrap(services.ErrStoreUnavailable, "store", "open",
				fmt.Sprintf("apply pragma %q", pragma), execErr)
		}
	}

	store := &Store{db: db, path: dbPath, lock: lock}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, services.Wrap(services.ErrStoreUnavailable, "store", "open", "", err)
	}

	vectorDB, err := chromem.NewPersistentDB(filepath.Join(cfg.Paths.StoreDir, "index"), false)
	if err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, services.Wrap(services.ErrStoreUnavailable, "store", "open", "open vector index", err)
	}
	collection, err := vectorDB.GetOrCreateCollection(collectionName, nil, o.embedder)
	if err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, services.Wrap(services.ErrStoreUnavailable, "store", "open", "open vector collection", err)
	}
	store.vectors = collection

	return store, nil
}

// Path returns the SQLite database path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection and releases the store lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var closeErr error
	if s.db != nil {
		closeErr = s.db.Close()
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil && closeErr == nil {
			closeErr = err
		}
	}
	return closeErr
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	// Extended result codes such as SQLITE_BUSY_SNAPSHOT carry the primary
	// code in the low byte.
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}
