package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// sqlStore implements Store on database/sql. SQLiteStore and PostgresStore
// differ only in how they open the database and bind placeholders.
type sqlStore struct {
	db      *sql.DB
	backend string
	rebind  func(string) string
	logger  *slog.Logger
}

func newSQLStore(db *sql.DB, backend string, rebind func(string) string, logger *slog.Logger) *sqlStore {
	if rebind == nil {
		rebind = func(q string) string { return q }
	}
	return &sqlStore{db: db, backend: backend, rebind: rebind, logger: logger}
}

// initialize creates the schema and checks its version.
func (s *sqlStore) initialize(ctx context.Context, schema string) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return NewStorageError(s.backend, "create_schema", err)
	}
	s.logger.Debug("cache schema created")

	if _, err := s.db.ExecContext(ctx, s.rebind(insertSchemaVersion), SchemaVersion, time.Now().UnixNano()); err != nil {
		return NewStorageError(s.backend, "insert_schema_version", err)
	}

	var version sql.NullInt64
	if err := s.db.QueryRowContext(ctx, getSchemaVersion).Scan(&version); err != nil {
		return NewStorageError(s.backend, "get_schema_version", err)
	}
	if version.Int64 != SchemaVersion {
		return NewStorageError(s.backend, "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version.Int64))
	}
	return nil
}

// Get returns the entry for key.
func (s *sqlStore) Get(ctx context.Context, key string) (*Entry, error) {
	var (
		e       Entry
		payload string
		created int64
	)
	err := s.db.QueryRowContext(ctx, s.rebind(getEntry), key).
		Scan(&e.ID, &e.Key, &e.BundleDigest, &payload, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, NewStorageError(s.backend, "get", err)
	}

	e.Payload = []byte(payload)
	e.CreatedAt = time.Unix(0, created)
	return &e, nil
}

// Put inserts or replaces the entry.
func (s *sqlStore) Put(ctx context.Context, entry *Entry) error {
	_, err := s.db.ExecContext(ctx, s.rebind(putEntry),
		entry.Key,
		entry.ID,
		entry.BundleDigest,
		string(entry.Payload),
		entry.CreatedAt.UnixNano(),
	)
	if err != nil {
		return NewStorageError(s.backend, "put", err)
	}
	return nil
}

// Count returns the number of entries.
func (s *sqlStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, countEntries).Scan(&n); err != nil {
		return 0, NewStorageError(s.backend, "count", err)
	}
	return n, nil
}

// DeleteBefore removes entries created before cutoff.
func (s *sqlStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(deleteBefore), cutoff.UnixNano())
	if err != nil {
		return 0, NewStorageError(s.backend, "delete_before", err)
	}
	return res.RowsAffected()
}

// DeleteOldest removes up to n entries, oldest first.
func (s *sqlStore) DeleteOldest(ctx context.Context, n int64) (int64, error) {
	if n <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, s.rebind(deleteOldest), n)
	if err != nil {
		return 0, NewStorageError(s.backend, "delete_oldest", err)
	}
	return res.RowsAffected()
}

// Backend returns the backend name.
func (s *sqlStore) Backend() string {
	return s.backend
}

// Close closes the database.
func (s *sqlStore) Close() error {
	if err := s.db.Close(); err != nil {
		return NewStorageError(s.backend, "close", err)
	}
	return nil
}

// dollarPlaceholders rewrites "?" placeholders as "$1", "$2", ... A "?"
// inside a single-quoted literal is kept; doubled quotes toggle twice and so
// stay inside the literal. Queries must not carry "?" in comments or quoted
// identifiers, which holds for the constant statements in this package.
func dollarPlaceholders(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	quoted := false
	for i := 0; i < len(query); i++ {
		if query[i] == '\'' {
			quoted = !quoted
		}
		if query[i] == '?' && !quoted {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
