package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/mdast/pkg/telemetry/metrics"
)

// PrunerConfig contains configuration for the cache pruner.
type PrunerConfig struct {
	// TTL is the maximum entry age. Zero disables age-based pruning.
	TTL time.Duration

	// MaxEntries is the maximum number of entries to keep.
	// Zero means unlimited.
	MaxEntries int64

	// Schedule is the cron expression used by Start.
	// Example: "*/15 * * * *"
	Schedule string
}

// Pruner enforces the cache size and age limits.
type Pruner struct {
	store     Store
	config    PrunerConfig
	logger    *slog.Logger
	metrics   *metrics.Collector
	scheduler *Scheduler
	now       func() time.Time
}

// NewPruner creates a pruner for store.
func NewPruner(store Store, cfg PrunerConfig, logger *slog.Logger, collector *metrics.Collector) *Pruner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	p := &Pruner{
		store:   store,
		config:  cfg,
		logger:  logger.With("component", "cache.pruner", "backend", store.Backend()),
		metrics: collector,
		now:     time.Now,
	}
	p.scheduler = NewScheduler(p)
	return p
}

// Prune deletes entries older than the TTL, then the oldest entries beyond
// MaxEntries. It returns the total number of entries deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.config.TTL > 0 {
		cutoff := p.now().Add(-p.config.TTL)
		deleted, err := p.store.DeleteBefore(ctx, cutoff)
		if err != nil {
			return total, fmt.Errorf("prune by age failed: %w", err)
		}
		total += deleted
		p.logger.Debug("pruned entries by age", "deleted_count", deleted, "cutoff", cutoff)
	}

	count, err := p.store.Count(ctx)
	if err != nil {
		return total, fmt.Errorf("failed to count entries: %w", err)
	}

	if p.config.MaxEntries > 0 && count > p.config.MaxEntries {
		deleted, err := p.store.DeleteOldest(ctx, count-p.config.MaxEntries)
		if err != nil {
			return total, fmt.Errorf("prune by count failed: %w", err)
		}
		total += deleted
		count -= deleted
		p.logger.Debug("pruned entries by count",
			"deleted_count", deleted,
			"max_entries", p.config.MaxEntries,
		)
	}

	p.metrics.RecordCacheEvictions(p.store.Backend(), int(total))
	p.metrics.UpdateCacheSize(p.store.Backend(), int(count))

	if total > 0 {
		p.logger.Info("cache pruning completed", "total_deleted", total, "remaining", count)
	}
	return total, nil
}

// Start runs Prune on the configured schedule until ctx is done or Stop
// is called.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops the schedule and waits for a running prune to finish.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the time of the next scheduled prune, or nil.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}
