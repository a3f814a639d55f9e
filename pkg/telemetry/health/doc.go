// Package health runs component checks for the mdast doctor command.
//
// Each component registers a CheckFunc. Run executes all checks
// concurrently, bounds each with a timeout and aggregates the results into a
// Report whose status is "ready" unless some check is unhealthy:
//
//	checker := health.New(10 * time.Second)
//	checker.RegisterCheck("bundle", func(ctx context.Context) error {
//	    return loadAndParse(ctx)
//	})
//	checker.RegisterCheck("cache", func(ctx context.Context) error {
//	    if !cfg.Cache.Enabled {
//	        return health.ErrDisabled
//	    }
//	    return pingStore(ctx)
//	})
//
//	report := checker.Run(ctx)
//	health.WriteText(os.Stdout, report)
//
// A check that returns ErrDisabled reports "disabled" and does not degrade
// the report. A check that outlives the timeout reports "unhealthy"; its
// goroutine is abandoned, so checks should honor ctx.
package health
