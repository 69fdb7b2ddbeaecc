package speech

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Debouncer runs a function once the duration has elapsed without another
// call. Calls made after Cancel or a newer Debounce never run the old function.
type Debouncer struct {
	mu       sync.Mutex
	clock    clock.Clock
	timer    *clock.Timer
	duration time.Duration
	gen      uint64
}

// NewDebouncer creates a debouncer on the given clock.
func NewDebouncer(clk clock.Clock, duration time.Duration) *Debouncer {
	return &Debouncer{clock: clk, duration: duration}
}

// Debounce (re)arms the timer for fn.
func (d *Debouncer) Debounce(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.duration, func() {
		d.mu.Lock()
		current := gen == d.gen
		if current {
			d.timer = nil
		}
		d.mu.Unlock()
		if current {
			fn()
		}
	})
}

// Cancel drops any pending call.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Pending reports whether a call is armed.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
