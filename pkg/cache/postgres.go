package cache

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"

	"mercator-hq/mdast/pkg/config"
)

// PostgresStore keeps entries in a PostgreSQL table, letting several
// machines share one cache.
type PostgresStore struct {
	*sqlStore
}

// NewPostgresStore connects to cfg.DSN and ensures the schema exists.
func NewPostgresStore(ctx context.Context, cfg *config.PostgresConfig, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.DSN == "" {
		return nil, NewStorageError(BackendPostgres, "open", errors.New("dsn is required"))
	}

	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, NewStorageError(BackendPostgres, "open", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, NewStorageError(BackendPostgres, "ping", err)
	}

	s := &PostgresStore{
		sqlStore: newSQLStore(db, BackendPostgres, dollarPlaceholders, logger),
	}
	if err := s.initialize(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("PostgreSQL cache opened", "max_open_conns", cfg.MaxOpenConns)
	return s, nil
}
