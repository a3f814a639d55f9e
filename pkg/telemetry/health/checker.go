package health

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// Check statuses.
const (
	StatusOK        = "ok"
	StatusUnhealthy = "unhealthy"
	StatusDisabled  = "disabled"
)

// Overall statuses.
const (
	StatusReady    = "ready"
	StatusDegraded = "degraded"
)

// ErrDisabled is returned by a check whose component is turned off in the
// configuration. It reports StatusDisabled instead of a failure.
var ErrDisabled = errors.New("disabled")

// ErrCheckTimeout is reported when a check outlives the checker timeout.
var ErrCheckTimeout = errors.New("health check timeout")

// CheckFunc checks one component. It returns nil when the component works,
// ErrDisabled when it is turned off, or an error describing the problem.
type CheckFunc func(ctx context.Context) error

// CheckResult is the outcome of a single check.
type CheckResult struct {
	// Name is the component name.
	Name string `json:"name"`

	// Status is "ok", "unhealthy" or "disabled".
	Status string `json:"status"`

	// Message explains an unhealthy status.
	Message string `json:"message,omitempty"`

	// Duration is how long the check took.
	Duration time.Duration `json:"duration_ns"`
}

// Report is the aggregated outcome of every registered check.
type Report struct {
	// Status is "ready" when no check is unhealthy, otherwise "degraded".
	Status string `json:"status"`

	// Checks are ordered by registration.
	Checks []CheckResult `json:"checks"`

	// Timestamp is when the checks ran.
	Timestamp time.Time `json:"timestamp"`
}

// Ready reports whether no check was unhealthy.
func (r Report) Ready() bool {
	return r.Status == StatusReady
}

type namedCheck struct {
	name  string
	check CheckFunc
}

// Checker runs component checks concurrently, each bounded by a timeout.
type Checker struct {
	mu     sync.RWMutex
	checks []namedCheck

	// Timeout for individual checks
	checkTimeout time.Duration
}

// New creates a checker. A zero timeout defaults to 5 seconds per check.
func New(checkTimeout time.Duration) *Checker {
	if checkTimeout == 0 {
		checkTimeout = 5 * time.Second
	}
	return &Checker{checkTimeout: checkTimeout}
}

// RegisterCheck registers check under name. Registering an existing name
// replaces its check and keeps its position.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.checks {
		if c.checks[i].name == name {
			c.checks[i].check = check
			return
		}
	}
	c.checks = append(c.checks, namedCheck{name: name, check: check})
}

// ListChecks returns the registered names in registration order.
func (c *Checker) ListChecks() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, len(c.checks))
	for i, nc := range c.checks {
		names[i] = nc.name
	}
	return names
}

// Run performs every registered check and aggregates the results.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	checks := append([]namedCheck(nil), c.checks...)
	c.mu.RUnlock()

	results := make([]CheckResult, len(checks))
	var wg sync.WaitGroup
	for i, nc := range checks {
		wg.Add(1)
		go func(i int, nc namedCheck) {
			defer wg.Done()
			results[i] = c.runCheck(ctx, nc)
		}(i, nc)
	}
	wg.Wait()

	status := StatusReady
	for _, r := range results {
		if r.Status == StatusUnhealthy {
			status = StatusDegraded
		}
	}

	return Report{
		Status:    status,
		Checks:    results,
		Timestamp: time.Now(),
	}
}

// runCheck executes a single check with timeout.
func (c *Checker) runCheck(ctx context.Context, nc namedCheck) CheckResult {
	checkCtx, cancel := context.WithTimeout(ctx, c.checkTimeout)
	defer cancel()

	start := time.Now()

	errChan := make(chan error, 1)
	go func() {
		errChan <- nc.check(checkCtx)
	}()

	var err error
	select {
	case err = <-errChan:
	case <-checkCtx.Done():
		err = ErrCheckTimeout
	}

	result := CheckResult{Name: nc.name, Status: StatusOK, Duration: time.Since(start)}
	switch {
	case errors.Is(err, ErrDisabled):
		result.Status = StatusDisabled
	case err != nil:
		result.Status = StatusUnhealthy
		result.Message = err.Error()
	}
	return result
}

// Unhealthy returns the names of unhealthy checks, sorted.
func (r Report) Unhealthy() []string {
	var names []string
	for _, c := range r.Checks {
		if c.Status == StatusUnhealthy {
			names = append(names, c.Name)
		}
	}
	sort.Strings(names)
	return names
}
