// Package debounce coalesces rapid value changes into a single delayed
// commit. The search controller uses it to avoid issuing one server fetch
// per keystroke.
package debounce

import (
	"sync"
	"time"
)

// Debouncer records the most recent scheduled value and commits it exactly
// once after the delay elapses with no further Schedule calls. A new
// Schedule before expiry discards the previous pending value.
type Debouncer struct {
	delay  time.Duration
	commit func(string)

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// New creates a debouncer. commit runs on the timer goroutine after the
// coalescing window elapses.
func New(delay time.Duration, commit func(string)) *Debouncer {
	return &Debouncer{
		delay:  delay,
		commit: commit,
	}
}

// Schedule records value as pending and arms or resets the timer.
func (d *Debouncer) Schedule(value string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.stopped {
			d.mu.Unlock()
			return
		}
		d.mu.Unlock()

		d.commit(value)
	})
}

// Stop tears down the debouncer. A pending value that has not yet committed
// is discarded; no commit runs after Stop returns.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
