// Package schedule owns the two timers behind the draw cadence: the
// fixed-interval frame-count ticker and the self-rescheduling draw driver.
package schedule

import "time"

// Timer is an armed deferred callback.
type Timer interface {
	// Stop cancels the timer. It reports whether the timer was still
	// pending (the callback had not started).
	Stop() bool
}

// Clock provides time and deferred callbacks. The default implementation
// uses the system clock; tests inject a fake clock to drive the schedulers
// deterministically.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

// systemClock uses the time package.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, fn func()) Timer {
	return systemTimer{time.AfterFunc(d, fn)}
}

type systemTimer struct {
	t *time.Timer
}

func (t systemTimer) Stop() bool { return t.t.Stop() }

// System is the real clock.
var System Clock = systemClock{}
