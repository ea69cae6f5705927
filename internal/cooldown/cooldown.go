// Package cooldown implements the resend-verification cooldown: after a
// resend, the action stays disabled for a fixed period counted down in whole
// seconds.
package cooldown

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultPeriod is the cooldown after each resend
const DefaultPeriod = 60 * time.Second

// Timer tracks the cooldown. The zero value is not usable; call New.
type Timer struct {
	clock  clockwork.Clock
	period time.Duration
	onTick func(remaining int)

	mu       sync.Mutex
	deadline time.Time
	inFlight bool
	stop     chan struct{}
	done     chan struct{}
}

// Option configures a Timer
type Option func(*Timer)

// WithClock sets the clock. Tests pass clockwork.NewFakeClock().
func WithClock(clock clockwork.Clock) Option {
	return func(t *Timer) {
		t.clock = clock
	}
}

// WithPeriod overrides DefaultPeriod
func WithPeriod(d time.Duration) Option {
	return func(t *Timer) {
		t.period = d
	}
}

// WithTickHandler registers fn to be called once per elapsed second while the
// cooldown runs, with the remaining seconds. The final call reports 0.
func WithTickHandler(fn func(remaining int)) Option {
	return func(t *Timer) {
		t.onTick = fn
	}
}

// New creates an idle timer
func New(opts ...Option) *Timer {
	t := &Timer{
		clock:  clockwork.NewRealClock(),
		period: DefaultPeriod,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start begins a full cooldown from now
func (t *Timer) Start() {
	t.Resume(t.clock.Now())
}

// Resume continues a cooldown that began at startedAt, e.g. in an earlier
// process. A start older than the period leaves the timer idle.
func (t *Timer) Resume(startedAt time.Time) {
	t.Stop()

	t.mu.Lock()
	t.deadline = startedAt.Add(t.period)
	if t.remainingLocked() == 0 || t.onTick == nil {
		t.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	t.stop, t.done = stop, done
	t.mu.Unlock()

	go t.run(stop, done)
}

// Remaining returns the whole seconds left, never below zero.
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remainingLocked()
}

// Disabled reports whether a resend must be refused right now: the
// cooldown is running or a request is already in flight.
func (t *Timer) Disabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inFlight || t.remainingLocked() > 0
}

// Begin marks a resend request in flight. It returns false if the action is
// disabled.
func (t *Timer) Begin() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.inFlight || t.remainingLocked() > 0 {
		return false
	}
	t.inFlight = true
	return true
}

// Finish clears the in-flight mark. On success the cooldown starts.
func (t *Timer) Finish(success bool) {
	t.mu.Lock()
	t.inFlight = false
	t.mu.Unlock()

	if success {
		t.Start()
	}
}

// Stop cancels the tick goroutine and waits for it to exit. The deadline is
// kept, so Remaining keeps counting down.
func (t *Timer) Stop() {
	t.mu.Lock()
	stop, done := t.stop, t.done
	t.stop, t.done = nil, nil
	t.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (t *Timer) remainingLocked() int {
	left := t.deadline.Sub(t.clock.Now())
	if left <= 0 {
		return 0
	}
	secs := int(left / time.Second)
	if left%time.Second != 0 {
		secs++
	}
	return secs
}

func (t *Timer) run(stop, done chan struct{}) {
	defer close(done)

	ticker := t.clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			remaining := t.Remaining()
			t.onTick(remaining)
			if remaining == 0 {
				return
			}
		}
	}
}
