package schedule_test

import (
	"testing"
	"time"

	"github.com/go-sketch/sketch/pkg/schedule"
	"github.com/go-sketch/sketch/pkg/sketchtest"
)

func TestTickerFiresOncePerInterval(t *testing.T) {
	clk := sketchtest.NewFakeClock()
	ticks := 0
	ticker := schedule.NewTicker(clk, 10*time.Millisecond, func() { ticks++ })
	ticker.Start()

	clk.Advance(45 * time.Millisecond)

	if ticks != 4 {
		t.Errorf("ticks = %d after 45ms at 10ms interval, want 4", ticks)
	}
}

func TestTickerStopCancelsPendingArm(t *testing.T) {
	clk := sketchtest.NewFakeClock()
	ticks := 0
	ticker := schedule.NewTicker(clk, 10*time.Millisecond, func() { ticks++ })
	ticker.Start()

	clk.Advance(10 * time.Millisecond)
	ticker.Stop()
	clk.Advance(100 * time.Millisecond)

	if ticks != 1 {
		t.Errorf("ticks = %d, want 1 (no ticks after Stop)", ticks)
	}
	if ticker.Running() {
		t.Error("ticker should not report running after Stop")
	}
}

func TestTickerSetIntervalRearms(t *testing.T) {
	clk := sketchtest.NewFakeClock()
	ticks := 0
	ticker := schedule.NewTicker(clk, time.Hour, func() { ticks++ })
	ticker.Start()

	// The hour-long arm must be cancelled and replaced.
	ticker.SetInterval(10 * time.Millisecond)
	clk.Advance(25 * time.Millisecond)

	if ticks != 2 {
		t.Errorf("ticks = %d after rate change, want 2", ticks)
	}
	if ticker.Interval() != 10*time.Millisecond {
		t.Errorf("interval = %v, want 10ms", ticker.Interval())
	}
}

func TestTickerStartIsIdempotent(t *testing.T) {
	clk := sketchtest.NewFakeClock()
	ticks := 0
	ticker := schedule.NewTicker(clk, 10*time.Millisecond, func() { ticks++ })
	ticker.Start()
	ticker.Start()

	clk.Advance(10 * time.Millisecond)
	if ticks != 1 {
		t.Errorf("double Start produced %d ticks per interval, want 1", ticks)
	}
}

func TestTickerRestartAfterStop(t *testing.T) {
	clk := sketchtest.NewFakeClock()
	ticks := 0
	ticker := schedule.NewTicker(clk, 10*time.Millisecond, func() { ticks++ })
	ticker.Start()
	clk.Advance(10 * time.Millisecond)
	ticker.Stop()
	ticker.Start()
	clk.Advance(10 * time.Millisecond)

	if ticks != 2 {
		t.Errorf("ticks = %d after restart, want 2", ticks)
	}
}
