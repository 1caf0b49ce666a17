// Package timer implements the per-question countdown.
package timer

import (
	"sync"
	"time"
)

// Timer runs at most one countdown at a time. Starting a new countdown
// cancels the previous one; a cancelled countdown delivers no further
// callbacks once Cancel has returned.
type Timer struct {
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
}

// New returns a Timer that ticks every interval (time.Second in production).
func New(interval time.Duration) *Timer {
	if interval <= 0 {
		interval = time.Second
	}
	return &Timer{interval: interval}
}

// Start counts down from seconds. onTick receives the remaining seconds after
// every tick; onExpire fires exactly once when the count reaches zero.
// Callbacks run on the timer's goroutine.
func (t *Timer) Start(seconds int, onTick func(remaining int), onExpire func()) {
	t.mu.Lock()
	if t.stop != nil {
		close(t.stop)
	}
	stop := make(chan struct{})
	t.stop = stop
	t.mu.Unlock()

	go t.run(stop, seconds, onTick, onExpire)
}

// Cancel stops the running countdown, if any.
func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

// Active reports whether a countdown is running.
func (t *Timer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil
}

func (t *Timer) run(stop chan struct{}, remaining int, onTick func(int), onExpire func()) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		remaining--
		if remaining < 0 {
			remaining = 0
		}

		if remaining > 0 {
			if !t.current(stop) {
				return
			}
			if onTick != nil {
				onTick(remaining)
			}
			continue
		}

		// claim the expiry so a concurrent Cancel or Start cannot race it
		t.mu.Lock()
		if t.stop != stop {
			t.mu.Unlock()
			return
		}
		t.stop = nil
		t.mu.Unlock()

		if onTick != nil {
			onTick(0)
		}
		if onExpire != nil {
			onExpire()
		}
		return
	}
}

func (t *Timer) current(stop chan struct{}) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop == stop
}
