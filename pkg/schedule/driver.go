package schedule

import (
	"sync"
	"time"
)

// Driver invokes the per-frame callback on a self-rescheduling cadence:
// the next cycle is armed only after the current one finishes, so a draw
// that overruns its budget can never overlap the next one.
//
// Each cycle measures the wall-clock delta since the previous cycle and
// derives the live frame rate from it. The next arm happens in a deferred
// call, so a panic escaping the frame callback leaves the chain armed; the
// panic itself is the frame callback's problem to report.
type Driver struct {
	clock Clock
	frame func()

	mu       sync.Mutex
	interval time.Duration
	enabled  bool
	timer    Timer
	last     time.Time
	rate     float64
}

// NewDriver returns a stopped driver that runs frame once per cycle.
func NewDriver(clock Clock, interval time.Duration, frame func()) *Driver {
	if clock == nil {
		clock = System
	}
	return &Driver{clock: clock, interval: interval, frame: frame}
}

// Start enables the driver and runs the first cycle immediately on the
// calling goroutine, so the first draw follows setup without waiting a
// full interval.
func (d *Driver) Start() {
	d.mu.Lock()
	if d.enabled {
		d.mu.Unlock()
		return
	}
	d.enabled = true
	d.mu.Unlock()
	d.cycle()
}

// Pause cancels the pending arm. The driver stays constructed and can be
// resumed; no cycle runs until then.
func (d *Driver) Pause() {
	d.mu.Lock()
	d.enabled = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
}

// Resume re-arms the driver. The next cycle runs within one interval.
func (d *Driver) Resume() {
	d.mu.Lock()
	if d.enabled {
		d.mu.Unlock()
		return
	}
	d.enabled = true
	d.mu.Unlock()
	d.arm()
}

// Enabled reports whether the driver is re-arming itself.
func (d *Driver) Enabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enabled
}

// SetInterval changes the cycle interval. It takes effect on the next
// reschedule; the currently pending arm is not disturbed.
func (d *Driver) SetInterval(interval time.Duration) {
	d.mu.Lock()
	d.interval = interval
	d.mu.Unlock()
}

// Interval returns the current cycle interval.
func (d *Driver) Interval() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.interval
}

// Rate returns the frame rate measured from the delta between the two most
// recent cycles, in frames per second. Zero until two cycles have run.
func (d *Driver) Rate() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rate
}

// Step runs a single measured cycle without arming a follow-up. Used to
// redraw on demand while the loop is paused.
func (d *Driver) Step() {
	d.measure()
	if d.frame != nil {
		d.frame()
	}
}

// cycle is one driver turn: measure, run the frame callback, and re-arm.
// The re-arm is deferred so it happens even when the frame callback
// panics.
func (d *Driver) cycle() {
	d.mu.Lock()
	if !d.enabled {
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	d.measure()

	defer d.arm()
	if d.frame != nil {
		d.frame()
	}
}

func (d *Driver) measure() {
	now := d.clock.Now()
	d.mu.Lock()
	if !d.last.IsZero() {
		if elapsed := now.Sub(d.last); elapsed > 0 {
			d.rate = float64(time.Second) / float64(elapsed)
		}
	}
	d.last = now
	d.mu.Unlock()
}

func (d *Driver) arm() {
	d.mu.Lock()
	if !d.enabled {
		d.mu.Unlock()
		return
	}
	d.timer = d.clock.AfterFunc(d.interval, d.cycle)
	d.mu.Unlock()
}
