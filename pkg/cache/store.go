package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/mdast/pkg/config"
)

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// ErrNotFound is returned by Store.Get when no entry exists for a key.
var ErrNotFound = errors.New("cache: entry not found")

// Entry is one cached parse result.
type Entry struct {
	// ID uniquely identifies the stored row.
	ID string

	// Key is the value returned by Key for the bundle digest and input.
	Key string

	// BundleDigest is the digest of the bundle that produced the tree.
	BundleDigest string

	// Payload is the compact JSON encoding of the tree.
	Payload []byte

	// CreatedAt is when the entry was stored.
	CreatedAt time.Time
}

// Store persists cache entries.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the entry for key, or ErrNotFound.
	Get(ctx context.Context, key string) (*Entry, error)

	// Put inserts or replaces the entry with the same key.
	Put(ctx context.Context, entry *Entry) error

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int64, error)

	// DeleteBefore removes entries created before cutoff.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// DeleteOldest removes up to n entries, oldest first.
	DeleteOldest(ctx context.Context, n int64) (int64, error)

	// Backend returns the backend name used in logs and metrics.
	Backend() string

	// Close releases the store's resources.
	Close() error
}

// Key derives the cache key for input parsed by the bundle with digest.
// A zero byte separates the two parts so no digest/input pair can collide
// with another.
func Key(digest, input string) string {
	h := sha256.New()
	h.Write([]byte(digest))
	h.Write([]byte{0})
	h.Write([]byte(input))
	return hex.EncodeToString(h.Sum(nil))
}

// StorageError reports a failed backend operation.
type StorageError struct {
	Backend   string
	Operation string
	Err       error
}

// NewStorageError creates a StorageError.
func NewStorageError(backend, operation string, err error) *StorageError {
	return &StorageError{Backend: backend, Operation: operation, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("cache %s %s: %v", e.Backend, e.Operation, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Open creates the store selected by cfg.Backend.
func Open(ctx context.Context, cfg *config.CacheConfig, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("component", "cache", "backend", cfg.Backend)

	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemoryStore(), nil
	case BackendSQLite:
		return NewSQLiteStore(ctx, &cfg.SQLite, logger)
	case BackendPostgres:
		return NewPostgresStore(ctx, &cfg.Postgres, logger)
	case BackendRedis:
		return NewRedisStore(ctx, &cfg.Redis, cfg.TTL, logger)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
