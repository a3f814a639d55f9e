package cache

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"mercator-hq/mdast/pkg/config"
)

// SQLite driver names.
const (
	DriverModernc = "sqlite"  // pure Go, modernc.org/sqlite
	DriverCGO     = "sqlite3" // cgo, github.com/mattn/go-sqlite3
)

// SQLiteStore keeps entries in a SQLite database file.
type SQLiteStore struct {
	*sqlStore
	path string
}

// NewSQLiteStore opens or creates the database at cfg.Path and ensures the
// schema exists.
func NewSQLiteStore(ctx context.Context, cfg *config.SQLiteConfig, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	driver := cfg.Driver
	if driver == "" {
		driver = DriverModernc
	}

	db, err := sql.Open(driver, cfg.Path)
	if err != nil {
		return nil, NewStorageError(BackendSQLite, "open", err)
	}

	// SQLite allows one writer; pragmas are per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{
		sqlStore: newSQLStore(db, BackendSQLite, nil, logger),
		path:     cfg.Path,
	}

	if err := s.configure(ctx, cfg); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.initialize(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("SQLite cache opened",
		"path", cfg.Path,
		"driver", driver,
		"journal_mode", cfg.JournalMode,
	)
	return s, nil
}

func (s *SQLiteStore) configure(ctx context.Context, cfg *config.SQLiteConfig) error {
	if cfg.BusyTimeout > 0 {
		q := fmt.Sprintf("PRAGMA busy_timeout=%d;", cfg.BusyTimeout.Milliseconds())
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return NewStorageError(BackendSQLite, "set_busy_timeout", err)
		}
	}
	if cfg.JournalMode != "" {
		q := fmt.Sprintf("PRAGMA journal_mode=%s;", cfg.JournalMode)
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return NewStorageError(BackendSQLite, "set_journal_mode", err)
		}
	}
	return nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}
