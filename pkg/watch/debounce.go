package watch

import (
	"sync"
	"time"
)

// Debouncer runs the most recent callback once no new trigger has arrived
// for the interval. Callbacks never overlap: a burst that settles while an
// earlier callback is still running waits for it to return.
type Debouncer struct {
	interval time.Duration
	timer    *time.Timer
	callback func()
	stopped  bool
	mu       sync.Mutex

	// run serializes callbacks; pending counts scheduled and running fires.
	run     sync.Mutex
	pending sync.WaitGroup
}

// NewDebouncer creates a debouncer.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Trigger replaces the pending callback and restarts the interval.
func (d *Debouncer) Trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.callback = callback

	if d.timer != nil && d.timer.Stop() {
		d.pending.Done()
	}
	d.pending.Add(1)
	d.timer = time.AfterFunc(d.interval, d.fire)
}

func (d *Debouncer) fire() {
	defer d.pending.Done()

	d.run.Lock()
	defer d.run.Unlock()

	d.mu.Lock()
	cb := d.callback
	d.callback = nil
	stopped := d.stopped
	d.mu.Unlock()

	if cb != nil && !stopped {
		cb()
	}
}

// Stop cancels any pending callback and waits for a running one to return.
// Later triggers are ignored. Stop must not be called from a callback.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	if d.timer != nil {
		if d.timer.Stop() {
			d.pending.Done()
		}
		d.timer = nil
	}
	d.callback = nil
	d.mu.Unlock()

	d.pending.Wait()
}
