package schedule_test

import (
	"math"
	"testing"
	"time"

	"github.com/go-sketch/sketch/pkg/schedule"
	"github.com/go-sketch/sketch/pkg/sketchtest"
)

func TestDriverRunsFirstCycleOnStart(t *testing.T) {
	clk := sketchtest.NewFakeClock()
	frames := 0
	d := schedule.NewDriver(clk, 10*time.Millisecond, func() { frames++ })
	d.Start()

	if frames != 1 {
		t.Fatalf("frames = %d after Start, want 1", frames)
	}

	clk.Advance(20 * time.Millisecond)
	if frames != 3 {
		t.Errorf("frames = %d after 20ms, want 3", frames)
	}
}

func TestDriverSelfReschedulesAfterFrame(t *testing.T) {
	clk := sketchtest.NewFakeClock()
	frames := 0
	d := schedule.NewDriver(clk, 10*time.Millisecond, func() { frames++ })
	d.Start()

	// One pending arm at a time: the next cycle is armed only after the
	// current one finishes, never stacked.
	if clk.PendingTimers() != 1 {
		t.Errorf("pending arms = %d, want 1", clk.PendingTimers())
	}
	clk.Advance(10 * time.Millisecond)
	if clk.PendingTimers() != 1 {
		t.Errorf("pending arms = %d after a cycle, want 1", clk.PendingTimers())
	}
}

func TestDriverMeasuresRate(t *testing.T) {
	clk := sketchtest.NewFakeClock()
	d := schedule.NewDriver(clk, 20*time.Millisecond, func() {})
	d.Start()

	if d.Rate() != 0 {
		t.Errorf("rate = %v before a second cycle, want 0", d.Rate())
	}

	clk.Advance(20 * time.Millisecond)
	if got, want := d.Rate(), 50.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("rate = %v after 20ms cycle, want %v", got, want)
	}
}

func TestDriverPauseStopsCycles(t *testing.T) {
	clk := sketchtest.NewFakeClock()
	frames := 0
	d := schedule.NewDriver(clk, 10*time.Millisecond, func() { frames++ })
	d.Start()
	d.Pause()

	clk.Advance(time.Second)
	if frames != 1 {
		t.Errorf("frames = %d after Pause, want 1", frames)
	}
	if d.Enabled() {
		t.Error("driver should report disabled after Pause")
	}
}

func TestDriverResumeWithinOneInterval(t *testing.T) {
	clk := sketchtest.NewFakeClock()
	frames := 0
	d := schedule.NewDriver(clk, 10*time.Millisecond, func() { frames++ })
	d.Start()
	d.Pause()
	d.Resume()

	clk.Advance(10 * time.Millisecond)
	if frames != 2 {
		t.Errorf("frames = %d one interval after Resume, want 2", frames)
	}
}

func TestDriverSetIntervalTakesEffectOnNextReschedule(t *testing.T) {
	clk := sketchtest.NewFakeClock()
	frames := 0
	d := schedule.NewDriver(clk, 10*time.Millisecond, func() { frames++ })
	d.Start()

	// The pending 10ms arm is undisturbed; the one after uses 30ms.
	d.SetInterval(30 * time.Millisecond)
	clk.Advance(10 * time.Millisecond)
	if frames != 2 {
		t.Fatalf("frames = %d, want 2 (pending arm honored)", frames)
	}
	clk.Advance(10 * time.Millisecond)
	if frames != 2 {
		t.Fatalf("frames = %d, new interval should not have elapsed", frames)
	}
	clk.Advance(20 * time.Millisecond)
	if frames != 3 {
		t.Errorf("frames = %d after full new interval, want 3", frames)
	}
}

func TestDriverStepRunsSingleCycleWithoutArming(t *testing.T) {
	clk := sketchtest.NewFakeClock()
	frames := 0
	d := schedule.NewDriver(clk, 10*time.Millisecond, func() { frames++ })

	d.Step()
	d.Step()

	if frames != 2 {
		t.Fatalf("frames = %d after two Steps, want 2", frames)
	}
	if clk.PendingTimers() != 0 {
		t.Errorf("Step must not arm a follow-up cycle, pending = %d", clk.PendingTimers())
	}
}

func TestDriverRearmsEvenWhenFramePanics(t *testing.T) {
	clk := sketchtest.NewFakeClock()
	frames := 0
	d := schedule.NewDriver(clk, 10*time.Millisecond, func() {
		frames++
		if frames == 1 {
			panic("bad draw")
		}
	})

	func() {
		defer func() {
			if recover() == nil {
				t.Error("panic should propagate out of the frame callback")
			}
		}()
		d.Start()
	}()

	// The deferred re-arm must have happened despite the panic.
	if clk.PendingTimers() != 1 {
		t.Fatalf("pending arms = %d after panicking frame, want 1", clk.PendingTimers())
	}
	clk.Advance(10 * time.Millisecond)
	if frames != 2 {
		t.Errorf("frames = %d, want 2 (loop survived the panic)", frames)
	}
}
