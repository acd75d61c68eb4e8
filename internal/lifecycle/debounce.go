package lifecycle

import (
	"sync"
	"time"
)

// Debouncer coalesces a burst of inputs into a single callback invocation
// with the latest value, fired after the input stream has been quiet for the
// configured delay (trailing edge, not throttle: every input during the
// window restarts the clock).
//
// The callback runs on a timer goroutine. Safe for concurrent use.
type Debouncer[T any] struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	fn    func(T)
}

// NewDebouncer creates a debouncer invoking fn after delay of quiet.
func NewDebouncer[T any](delay time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{delay: delay, fn: fn}
}

// Trigger records v as the latest value and restarts the quiet window.
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.fn(v)
	})
}

// Stop cancels any pending invocation. It does not wait for a callback that
// has already started.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
