package filter

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period search input must hold before it is
// committed.
const DefaultDebounce = 500 * time.Millisecond

// Timer is the part of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it once wrapped.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Debouncer commits the latest pushed value once no newer value has arrived
// for the configured delay. A push cancels any pending timer.
type Debouncer struct {
	mu         sync.Mutex
	delay      time.Duration
	after      AfterFunc
	commit     func(string)
	timer      Timer
	pending    string
	hasPending bool
	seq        uint64
}

// DebounceOption customizes a Debouncer.
type DebounceOption func(*Debouncer)

// WithAfterFunc replaces the timer source, used by tests to control time.
func WithAfterFunc(after AfterFunc) DebounceOption {
	return func(d *Debouncer) {
		d.after = after
	}
}

// NewDebouncer returns a debouncer that calls commit with the settled value.
// A non-positive delay falls back to DefaultDebounce.
func NewDebouncer(delay time.Duration, commit func(string), opts ...DebounceOption) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	d := &Debouncer{
		delay:  delay,
		after:  realAfterFunc,
		commit: commit,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Push records new input and restarts the quiet period.
func (d *Debouncer) Push(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.pending = text
	d.hasPending = true
	d.timer = d.after(d.delay, func() { d.fire(seq) })
}

// Flush commits pending input immediately, e.g. when the user presses enter.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if !d.hasPending {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	text := d.pending
	d.hasPending = false
	d.mu.Unlock()

	d.commit(text)
}

// Stop drops pending input without committing it.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	d.hasPending = false
}

// Pending returns input that has not been committed yet.
func (d *Debouncer) Pending() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending, d.hasPending
}

func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	// A timer that lost the race with Stop/Push/Flush must not commit.
	if seq != d.seq || !d.hasPending {
		d.mu.Unlock()
		return
	}
	text := d.pending
	d.hasPending = false
	d.timer = nil
	d.mu.Unlock()

	d.commit(text)
}
