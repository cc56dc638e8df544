package listing

import (
	"sync"
	"time"
)

// Timer is the part of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// Clock schedules deferred work. Tests swap in a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// SystemClock is backed by time.AfterFunc.
var SystemClock Clock = realClock{}

// Debouncer delays fn until calls stop arriving for the configured delay.
// Only the argument of the last call is delivered. A zero delay still defers
// the call to the timer goroutine.
type Debouncer[T any] struct {
	clock Clock
	delay time.Duration
	fn    func(T)

	mu      sync.Mutex
	timer   Timer
	gen     uint64
	pending bool
	arg     T
}

func Debounce[T any](clock Clock, delay time.Duration, fn func(T)) *Debouncer[T] {
	if clock == nil {
		clock = SystemClock
	}
	if delay < 0 {
		delay = 0
	}
	return &Debouncer[T]{clock: clock, delay: delay, fn: fn}
}

// Call restarts the quiet window with v as the pending argument.
func (d *Debouncer[T]) Call(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.arg = v
	d.pending = true
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	// a timer that lost the Stop race must not fire a superseded call
	if gen != d.gen || !d.pending {
		d.mu.Unlock()
		return
	}
	arg := d.arg
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	d.fn(arg)
}

// Cancel drops the pending call, if any.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	d.pending = false
}

// Flush runs the pending call now instead of waiting for the timer.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	arg := d.arg
	d.pending = false
	d.mu.Unlock()

	d.fn(arg)
}

// Pending reports whether a call is waiting for its window to close.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}
