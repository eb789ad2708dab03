package autosave

import (
	"sync"
	"time"

	"github.com/debemdeboas/inkpot/internal/clock"
)

// Debouncer coalesces a burst of Schedule calls into one callback that runs
// after a quiet period. At most one callback is armed at any time.
type Debouncer struct {
	clock clock.Clock
	delay time.Duration

	mu      sync.Mutex
	timer   clock.Timer
	gen     uint64
	stopped bool
}

func NewDebouncer(c clock.Clock, delay time.Duration) *Debouncer {
	return &Debouncer{
		clock: c,
		delay: delay,
	}
}

// Schedule cancels any armed callback and arms fn to run after the quiet
// period. It returns false once the debouncer has been stopped.
func (d *Debouncer) Schedule(fn func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return false
	}

	if d.timer != nil {
		d.timer.Stop()
	}

	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.fire(gen, fn)
	})
	return true
}

// Cancel disarms the pending callback, if any, and reports whether one was armed.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancelLocked()
}

// Stop cancels the pending callback and rejects every later Schedule.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cancelLocked()
	d.stopped = true
}

func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

func (d *Debouncer) cancelLocked() bool {
	armed := d.timer != nil
	if armed {
		d.timer.Stop()
		d.timer = nil
	}
	// A timer that already fired may be waiting on d.mu; bumping the
	// generation makes it a no-op.
	d.gen++
	return armed
}

// fire runs fn outside d.mu. A Schedule landing after the generation check
// arms a fresh timer, so fn may run for a burst that was re-armed since;
// callers tell the two apart themselves.
func (d *Debouncer) fire(gen uint64, fn func()) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	fn()
}
