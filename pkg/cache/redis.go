package cache

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"mercator-hq/mdast/pkg/config"
)

// RedisStore keeps each entry in a hash that expires after the cache TTL.
// A sorted set scored by creation time indexes the entries for counting and
// pruning.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisStore connects to cfg.Addr. Entries expire after ttl; zero keeps
// them until pruned.
func NewRedisStore(ctx context.Context, cfg *config.RedisConfig, ttl time.Duration, logger *slog.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, NewStorageError(BackendRedis, "ping", err)
	}

	logger.Debug("Redis cache opened", "addr", cfg.Addr, "db", cfg.DB, "prefix", cfg.Prefix)
	return &RedisStore{
		rdb:    rdb,
		prefix: cfg.Prefix,
		ttl:    ttl,
		logger: logger,
	}, nil
}

func (s *RedisStore) entryKey(key string) string {
	return s.prefix + "entry:" + key
}

func (s *RedisStore) indexKey() string {
	return s.prefix + "index"
}

// Get returns the entry for key.
func (s *RedisStore) Get(ctx context.Context, key string) (*Entry, error) {
	fields, err := s.rdb.HGetAll(ctx, s.entryKey(key)).Result()
	if err != nil {
		return nil, NewStorageError(BackendRedis, "get", err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}

	created, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, NewStorageError(BackendRedis, "get", err)
	}
	return &Entry{
		ID:           fields["id"],
		Key:          key,
		BundleDigest: fields["bundle_digest"],
		Payload:      []byte(fields["payload"]),
		CreatedAt:    time.UnixMicro(created),
	}, nil
}

// Put stores the entry and sets its expiry.
func (s *RedisStore) Put(ctx context.Context, entry *Entry) error {
	created := entry.CreatedAt.UnixMicro()
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		k := s.entryKey(entry.Key)
		pipe.HSet(ctx, k, map[string]any{
			"id":            entry.ID,
			"bundle_digest": entry.BundleDigest,
			"payload":       string(entry.Payload),
			"created_at":    strconv.FormatInt(created, 10),
		})
		if s.ttl > 0 {
			pipe.Expire(ctx, k, s.ttl)
		}
		pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(created), Member: entry.Key})
		return nil
	})
	if err != nil {
		return NewStorageError(BackendRedis, "put", err)
	}
	return nil
}

// Count returns the number of indexed entries. Entries that expired since
// the last prune are still counted.
func (s *RedisStore) Count(ctx context.Context) (int64, error) {
	n, err := s.rdb.ZCard(ctx, s.indexKey()).Result()
	if err != nil {
		return 0, NewStorageError(BackendRedis, "count", err)
	}
	return n, nil
}

// DeleteBefore removes entries created before cutoff.
func (s *RedisStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	keys, err := s.rdb.ZRangeByScore(ctx, s.indexKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(cutoff.UnixMicro(), 10),
	}).Result()
	if err != nil {
		return 0, NewStorageError(BackendRedis, "delete_before", err)
	}
	return s.remove(ctx, "delete_before", keys)
}

// DeleteOldest removes up to n entries, oldest first.
func (s *RedisStore) DeleteOldest(ctx context.Context, n int64) (int64, error) {
	if n <= 0 {
		return 0, nil
	}
	keys, err := s.rdb.ZRange(ctx, s.indexKey(), 0, n-1).Result()
	if err != nil {
		return 0, NewStorageError(BackendRedis, "delete_oldest", err)
	}
	return s.remove(ctx, "delete_oldest", keys)
}

func (s *RedisStore) remove(ctx context.Context, op string, keys []string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	entryKeys := make([]string, len(keys))
	members := make([]any, len(keys))
	for i, k := range keys {
		entryKeys[i] = s.entryKey(k)
		members[i] = k
	}

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, entryKeys...)
		pipe.ZRem(ctx, s.indexKey(), members...)
		return nil
	})
	if err != nil {
		return 0, NewStorageError(BackendRedis, op, err)
	}
	return int64(len(keys)), nil
}

// Backend returns "redis".
func (s *RedisStore) Backend() string {
	return BackendRedis
}

// Close closes the client.
func (s *RedisStore) Close() error {
	if err := s.rdb.Close(); err != nil {
		return NewStorageError(BackendRedis, "close", err)
	}
	return nil
}
