// Package watchdog tracks receiver health: it arms a timeout on every
// valid packet and reports a health transition when the timeout fires
// without having been rearmed.
package watchdog

import (
	"sync"
	"time"
)

// Clock is injected so tests can avoid waiting on real timers.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }

// Timer abstracts the single-shot alarm primitive the Watchdog arms and
// cancels. Production code backs it with time.AfterFunc; tests can
// substitute a fake that fires on command without sleeping.
type Timer interface {
	Stop() bool
}

// TimerFactory creates a Timer that calls fn once after d elapses, unless
// stopped first.
type TimerFactory func(d time.Duration, fn func()) Timer

// RealTimerFactory backs a Watchdog with actual wall-clock timers.
func RealTimerFactory(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// Watchdog reports receiver health transitions. Health changes and the
// periodic "still alive" republish (every 60s even without a change) are
// both driven through onTransition, matching the spec's setRxGood
// contract: publish whenever the state changes OR more than 60s have
// passed since the last publish.
type Watchdog struct {
	mu sync.Mutex

	clock        Clock
	newTimer     TimerFactory
	period       time.Duration
	onTransition func(good bool)

	timer                Timer
	rxGood               bool
	lastRxGoodUpdateTime time.Time
	armed                bool
}

// republishInterval is the maximum quiet time before SetGood republishes
// even without a state change.
const republishInterval = 60 * time.Second

// New creates a Watchdog that arms a period-long timeout on every
// SetGood(true) call and invokes onTransition whenever the health state
// changes (or hasn't republished in over 60s).
func New(clock Clock, newTimer TimerFactory, period time.Duration, onTransition func(good bool)) *Watchdog {
	return &Watchdog{
		clock:        clock,
		newTimer:     newTimer,
		period:       period,
		onTransition: onTransition,
	}
}

// SetGood records a health-state observation, publishing a transition
// when the state changed or the last publish is stale, then (re)arms the
// timeout. Call with true on every valid packet; the timer callback
// calls it with false when it fires.
func (w *Watchdog) SetGood(good bool) {
	w.mu.Lock()
	now := w.clock.Now()
	shouldNotify := !w.armed || good != w.rxGood || now.Sub(w.lastRxGoodUpdateTime) > republishInterval

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = w.newTimer(w.period, func() { w.SetGood(false) })

	w.rxGood = good
	w.lastRxGoodUpdateTime = now
	w.armed = true
	w.mu.Unlock()

	if shouldNotify {
		w.onTransition(good)
	}
}

// Stop cancels any pending timeout without firing it, for clean shutdown.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}
