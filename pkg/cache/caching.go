package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mercator-hq/mdast/pkg/ast"
	"mercator-hq/mdast/pkg/bundle"
	"mercator-hq/mdast/pkg/telemetry/metrics"
)

// Parser is the part of bridge.Parser the cache wraps.
type Parser interface {
	ParseContext(ctx context.Context, input any) (*ast.Node, error)
	Bundle() *bundle.Bundle
}

// Options configure a CachingParser.
type Options struct {
	// TTL is how long an entry is served. Zero serves entries until they
	// are pruned.
	TTL time.Duration

	// Logger receives cache diagnostics.
	Logger *slog.Logger

	// Metrics records hits and misses. Nil disables recording.
	Metrics *metrics.Collector
}

// CachingParser serves parse results from a Store and parses on a miss.
//
// Cache failures never fail a parse: a store error is logged and the input
// is parsed as if the cache were empty.
type CachingParser struct {
	parser  Parser
	store   Store
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Collector
	now     func() time.Time
}

// NewCachingParser wraps parser with store.
func NewCachingParser(parser Parser, store Store, opts Options) *CachingParser {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &CachingParser{
		parser:  parser,
		store:   store,
		ttl:     opts.TTL,
		logger:  opts.Logger.With("component", "cache", "backend", store.Backend()),
		metrics: opts.Metrics,
		now:     time.Now,
	}
}

// Store returns the underlying store.
func (c *CachingParser) Store() Store {
	return c.store
}

// Parse returns the tree for text and whether it came from the cache.
// Parse errors are never cached.
func (c *CachingParser) Parse(ctx context.Context, text string) (*ast.Node, bool, error) {
	digest := c.parser.Bundle().Digest
	key := Key(digest, text)

	if tree, ok := c.lookup(ctx, key); ok {
		c.metrics.RecordCacheHit(c.store.Backend())
		return tree, true, nil
	}
	c.metrics.RecordCacheMiss(c.store.Backend())

	tree, err := c.parser.ParseContext(ctx, text)
	if err != nil {
		return nil, false, err
	}

	payload, err := tree.MarshalJSON()
	if err != nil {
		c.logger.Warn("failed to encode tree for cache", "error", err)
		return tree, false, nil
	}

	entry := &Entry{
		ID:           uuid.NewString(),
		Key:          key,
		BundleDigest: digest,
		Payload:      payload,
		CreatedAt:    c.now(),
	}
	if err := c.store.Put(ctx, entry); err != nil {
		c.logger.Warn("failed to store cache entry", "error", err)
	}
	return tree, false, nil
}

func (c *CachingParser) lookup(ctx context.Context, key string) (*ast.Node, bool) {
	entry, err := c.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("cache lookup failed", "error", err)
		return nil, false
	}

	if c.ttl > 0 && c.now().Sub(entry.CreatedAt) > c.ttl {
		c.logger.Debug("cache entry expired", "id", entry.ID, "created_at", entry.CreatedAt)
		return nil, false
	}

	var tree ast.Node
	if err := tree.UnmarshalJSON(entry.Payload); err != nil {
		c.logger.Warn("discarding unreadable cache entry", "id", entry.ID, "error", err)
		return nil, false
	}
	return &tree, true
}
