// Package cache stores parse results keyed by bundle digest and input text.
//
// A bundle's parse function is deterministic, so a tree stored under
// Key(digest, input) is the tree a fresh parse would return. CachingParser
// wraps a bridge.Parser with any Store:
//
//	store, err := cache.Open(ctx, &cfg.Cache, logger)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	cp := cache.NewCachingParser(parser, store, cache.Options{TTL: cfg.Cache.TTL})
//	tree, hit, err := cp.Parse(ctx, text)
//
// Backends are memory, sqlite (pure Go "sqlite" or cgo "sqlite3" driver),
// postgres and redis. Pruner trims a store by age and entry count, either
// on demand or on a cron schedule through Scheduler.
package cache
