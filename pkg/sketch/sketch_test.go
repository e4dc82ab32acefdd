package sketch_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-sketch/sketch/pkg/env"
	"github.com/go-sketch/sketch/pkg/errors"
	"github.com/go-sketch/sketch/pkg/events"
	"github.com/go-sketch/sketch/pkg/sketch"
	"github.com/go-sketch/sketch/pkg/sketchtest"
	"github.com/go-sketch/sketch/pkg/surface"
)

// testRate gives a 10ms interval for round advances.
const testRate = 100.0

func cleanGlobal(t *testing.T, names ...string) {
	t.Helper()
	t.Cleanup(func() {
		for _, name := range names {
			surface.Global.Delete(name)
		}
	})
}

func TestGlobalSketchRunsSetupThenDraw(t *testing.T) {
	cleanGlobal(t, "setup", "draw")

	flag := false
	draws := 0
	surface.Global.Set("setup", func() { flag = true })
	surface.Global.Set("draw", func() {
		if !flag {
			t.Error("draw ran before setup")
		}
		draws++
	})

	clk := sketchtest.NewFakeClock()
	h := env.NewPendingHeadless()
	s := sketch.New(nil, sketch.WithEnvironment(h), sketch.WithClock(clk), sketch.WithFrameRate(testRate))
	defer s.Remove()

	if s.CurrentPhase() != sketch.PhaseAwaitingReady {
		t.Fatalf("phase = %v before ready, want awaitingReady", s.CurrentPhase())
	}
	if draws != 0 {
		t.Fatal("no draw may run before the environment is ready")
	}

	h.MarkReady()
	clk.Advance(2 * s.TargetFrameInterval())

	if !flag {
		t.Error("setup flag not set")
	}
	if draws < 1 {
		t.Errorf("draws = %d, want >= 1", draws)
	}
	if s.FrameCount() < 1 {
		t.Errorf("frameCount = %d, want >= 1", s.FrameCount())
	}
	if s.CurrentPhase() != sketch.PhaseLooping {
		t.Errorf("phase = %v, want looping", s.CurrentPhase())
	}
}

func TestNoPreloadSetupSynchronousFromConstruction(t *testing.T) {
	setupRan := false
	s := sketch.New(func(s *sketch.Sketch) {
		s.Setup = func() { setupRan = true }
	}, sketch.WithClock(sketchtest.NewFakeClock()))
	defer s.Remove()

	// The headless default environment is already ready: setup must be
	// reachable synchronously from New, without any timer.
	if !setupRan {
		t.Fatal("setup did not run synchronously from construction")
	}
	if s.CurrentPhase() != sketch.PhaseLooping {
		t.Errorf("phase = %v, want looping", s.CurrentPhase())
	}
}

// gatedLoader is a controllable LoaderFunc: completions are released by the
// test, in any order.
type gatedLoader struct {
	mu        sync.Mutex
	completes map[string]func(any, error)
}

func newGatedLoader() *gatedLoader {
	return &gatedLoader{completes: make(map[string]func(any, error))}
}

func (g *gatedLoader) load(path string, complete func(any, error)) {
	g.mu.Lock()
	g.completes[path] = complete
	g.mu.Unlock()
}

func (g *gatedLoader) finish(path string, value any, err error) {
	g.mu.Lock()
	complete := g.completes[path]
	delete(g.completes, path)
	g.mu.Unlock()
	complete(value, err)
}

func TestPreloadGateDefersSetupUntilAllLoadsComplete(t *testing.T) {
	errors.SetHandler(&discardHandler{})
	defer errors.SetHandler(nil)

	gated := newGatedLoader()
	sketch.RegisterLoader("loadGatedAsset", gated.load)

	setupRan := false
	var handleA, handleB *sketch.Handle
	s := sketch.New(func(s *sketch.Sketch) {
		s.Preload = func() {
			load := s.Loader("loadGatedAsset")
			handleA = load("a.bin")
			handleB = load("b.bin")
		}
		s.Setup = func() { setupRan = true }
	}, sketch.WithClock(sketchtest.NewFakeClock()))
	defer s.Remove()

	if setupRan {
		t.Fatal("setup must not run while loads are outstanding")
	}
	if s.CurrentPhase() != sketch.PhasePreloading {
		t.Fatalf("phase = %v, want preloading", s.CurrentPhase())
	}
	if s.PendingLoads() != 2 {
		t.Fatalf("pending loads = %d, want 2", s.PendingLoads())
	}

	// Completion order differs from trigger order.
	gated.finish("b.bin", "B", nil)
	if setupRan {
		t.Fatal("setup must wait for every load")
	}
	gated.finish("a.bin", nil, fmt.Errorf("corrupt"))

	if !setupRan {
		t.Fatal("setup did not run after the last completion")
	}
	if v := handleB.Value(); v != "B" {
		t.Errorf("handleB.Value() = %v, want B", v)
	}
	if handleA.Err() == nil {
		t.Error("handleA should carry the load error")
	}
	if s.CurrentPhase() != sketch.PhaseLooping {
		t.Errorf("phase = %v, want looping", s.CurrentPhase())
	}
}

func TestPreloadWithZeroTriggersRunsSetupImmediately(t *testing.T) {
	order := []string{}
	s := sketch.New(func(s *sketch.Sketch) {
		s.Preload = func() { order = append(order, "preload") }
		s.Setup = func() { order = append(order, "setup") }
	}, sketch.WithClock(sketchtest.NewFakeClock()))
	defer s.Remove()

	if len(order) != 2 || order[0] != "preload" || order[1] != "setup" {
		t.Fatalf("order = %v, want [preload setup]", order)
	}
}

func TestFrameCountTicksOncePerInterval(t *testing.T) {
	clk := sketchtest.NewFakeClock()
	s := sketch.New(func(s *sketch.Sketch) {
		s.Draw = func() {}
	}, sketch.WithClock(clk), sketch.WithFrameRate(testRate))
	defer s.Remove()

	clk.Advance(5 * s.TargetFrameInterval())
	if got := s.FrameCount(); got != 5 {
		t.Errorf("frameCount = %d after 5 intervals, want 5", got)
	}
}

func TestNoLoopPausesAndLoopResumes(t *testing.T) {
	clk := sketchtest.NewFakeClock()
	draws := 0
	s := sketch.New(func(s *sketch.Sketch) {
		s.Draw = func() { draws++ }
	}, sketch.WithClock(clk), sketch.WithFrameRate(testRate))
	defer s.Remove()

	base := draws
	s.NoLoop()
	clk.Advance(10 * s.TargetFrameInterval())
	if draws != base {
		t.Fatalf("draws advanced from %d to %d while paused", base, draws)
	}
	if s.CurrentPhase() != sketch.PhaseLooping {
		t.Errorf("pausing must not leave the looping phase, got %v", s.CurrentPhase())
	}
	if s.IsLooping() {
		t.Error("IsLooping should be false after NoLoop")
	}

	s.Loop()
	clk.Advance(s.TargetFrameInterval())
	if draws != base+1 {
		t.Errorf("draws = %d one interval after resume, want %d", draws, base+1)
	}
}

func TestRedrawWhilePaused(t *testing.T) {
	clk := sketchtest.NewFakeClock()
	draws := 0
	s := sketch.New(func(s *sketch.Sketch) {
		s.Draw = func() { draws++ }
	}, sketch.WithClock(clk), sketch.WithFrameRate(testRate))
	defer s.Remove()

	s.NoLoop()
	base := draws
	s.Redraw(3)
	if draws != base+3 {
		t.Errorf("draws = %d after Redraw(3), want %d", draws, base+3)
	}
	clk.Advance(10 * s.TargetFrameInterval())
	if draws != base+3 {
		t.Error("Redraw must not re-arm the loop")
	}
}

func TestRemoveTeardown(t *testing.T) {
	clk := sketchtest.NewFakeClock()
	h := env.NewHeadless()
	s := sketch.New(func(s *sketch.Sketch) {
		s.Draw = func() {}
		s.On(events.PointerMoved, func(events.Event) {})
		s.On(events.KeyPressed, func(events.Event) {})
	}, sketch.WithEnvironment(h), sketch.WithClock(clk), sketch.WithFrameRate(testRate))

	extra, err := s.CreateElement("div")
	if err != nil {
		t.Fatal(err)
	}
	extra.On(events.PointerClicked, func(events.Event) {})

	if h.SubscriptionCount() != 3 {
		t.Fatalf("subscriptions before remove = %d, want 3", h.SubscriptionCount())
	}

	s.Remove()

	if h.SubscriptionCount() != 0 {
		t.Errorf("subscriptions after remove = %d, want 0", h.SubscriptionCount())
	}
	if extra.Element().Attached() {
		t.Error("created element must be detached by remove")
	}
	if s.CurrentPhase() != sketch.PhaseStopped {
		t.Errorf("phase = %v, want stopped", s.CurrentPhase())
	}

	draws := s.FrameCount()
	clk.Advance(time.Second)
	if s.FrameCount() != draws {
		t.Error("timers must be cancelled by remove")
	}

	// Second remove: no active element, no further effects.
	s.Remove()
}

func TestRemoveClearsGlobalNamespace(t *testing.T) {
	cleanGlobal(t, "draw")
	surface.Global.Set("draw", func() {})

	clk := sketchtest.NewFakeClock()
	s := sketch.New(nil, sketch.WithClock(clk), sketch.WithFrameRate(testRate))

	if !surface.Global.Has("noLoop") || !surface.Global.Has("PI") {
		t.Fatal("capabilities should be projected in global mode")
	}

	clk.Advance(s.TargetFrameInterval())
	if !surface.Global.Has("frameCount") {
		t.Fatal("mirrored properties should appear on the global namespace")
	}

	s.Remove()

	for _, name := range []string{"noLoop", "loop", "redraw", "remove", "frameRate", "PI", "frameCount"} {
		if surface.Global.Has(name) {
			t.Errorf("%q still reachable on the global namespace after remove", name)
		}
	}
}

func TestRemoveRunsRemoveFuncsInOrder(t *testing.T) {
	var order []int
	sketch.RegisterRemoveFunc(func(*sketch.Sketch) { order = append(order, 1) })
	sketch.RegisterRemoveFunc(func(*sketch.Sketch) { order = append(order, 2) })

	s := sketch.New(func(s *sketch.Sketch) {
		s.Draw = func() {}
	}, sketch.WithClock(sketchtest.NewFakeClock()))
	s.Remove()

	if len(order) < 2 {
		t.Fatalf("remove funcs ran %d times, want >= 2", len(order))
	}
	// Registration order is preserved at the tail of the sequence
	// (earlier tests may have registered hooks of their own).
	last := order[len(order)-2:]
	if last[0] != 1 || last[1] != 2 {
		t.Errorf("remove funcs ran as %v, want registration order", order)
	}
}

func TestInstanceModeDoesNotTouchGlobalNamespace(t *testing.T) {
	before := len(surface.Global.Names())
	s := sketch.New(func(s *sketch.Sketch) {
		s.Draw = func() {}
	}, sketch.WithClock(sketchtest.NewFakeClock()))
	defer s.Remove()

	if after := len(surface.Global.Names()); after != before {
		t.Errorf("global namespace grew from %d to %d names in instance mode", before, after)
	}
	if s.Mode() != sketch.ModeInstance {
		t.Errorf("mode = %v, want instance", s.Mode())
	}
}

func TestGlobalProjectionSkipsReservedHookNames(t *testing.T) {
	cleanGlobal(t, "draw", "pointerMoved")

	userDraw := func() {}
	surface.Global.Set("draw", userDraw)
	moved := 0
	surface.Global.Set("pointerMoved", func() { moved++ })

	h := env.NewHeadless()
	clk := sketchtest.NewFakeClock()
	s := sketch.New(nil, sketch.WithEnvironment(h), sketch.WithClock(clk), sketch.WithFrameRate(testRate))
	defer s.Remove()

	// The user hook survived projection and got wired as a subscription.
	h.Emit(events.Event{Type: events.PointerMoved, X: 4, Y: 2})
	if moved != 1 {
		t.Errorf("pointerMoved hook fired %d times, want 1", moved)
	}
}

func TestEventHooksNotRetroactivelySubscribed(t *testing.T) {
	h := env.NewHeadless()
	fired := 0
	s := sketch.New(func(s *sketch.Sketch) {
		s.Draw = func() {}
	}, sketch.WithEnvironment(h), sketch.WithClock(sketchtest.NewFakeClock()))
	defer s.Remove()

	// Attached after start: recorded on the instance but never wired.
	s.On(events.KeyTyped, func(events.Event) { fired++ })
	h.Emit(events.Event{Type: events.KeyTyped, Key: "x"})

	if fired != 0 {
		t.Errorf("late hook fired %d times, want 0 (not retroactively subscribed)", fired)
	}
}

func TestPixelDensityCompensationWithoutSetup(t *testing.T) {
	h := env.NewHeadless()
	h.SetPixelDensity(2)
	s := sketch.New(func(s *sketch.Sketch) {
		s.Draw = func() {}
	}, sketch.WithEnvironment(h), sketch.WithClock(sketchtest.NewFakeClock()))
	defer s.Remove()

	if h.StateCanvas().Scales() == 0 {
		t.Error("draw-only sketch should apply density compensation scale")
	}
	if h.StateCanvas().Depth() != 0 {
		t.Error("canvas state must be balanced after each draw cycle")
	}
}

func TestCanvasStateBalancedWhenDrawPanics(t *testing.T) {
	errors.SetHandler(&discardHandler{})
	defer errors.SetHandler(nil)

	h := env.NewHeadless()
	s := sketch.New(func(s *sketch.Sketch) {
		s.Setup = func() {}
		s.Draw = func() { panic("mid-draw") }
	}, sketch.WithEnvironment(h), sketch.WithClock(sketchtest.NewFakeClock()))
	defer s.Remove()

	if h.StateCanvas().Depth() != 0 {
		t.Error("panicking draw must not leak canvas state")
	}
}

type discardHandler struct{}

func (discardHandler) HandleError(*errors.SketchError) {}
func (discardHandler) HandlePanic(*errors.PanicError)  {}

func TestDrawPanicIsReportedAndLoopContinues(t *testing.T) {
	captured := &capturingHandler{}
	errors.SetHandler(captured)
	defer errors.SetHandler(nil)

	clk := sketchtest.NewFakeClock()
	draws := 0
	s := sketch.New(func(s *sketch.Sketch) {
		s.Draw = func() {
			draws++
			if draws == 1 {
				panic("first frame explodes")
			}
		}
	}, sketch.WithClock(clk), sketch.WithFrameRate(testRate))
	defer s.Remove()

	clk.Advance(s.TargetFrameInterval())
	if draws < 2 {
		t.Errorf("draws = %d, want >= 2 (loop survives a panicking frame)", draws)
	}
	if len(captured.panics) == 0 {
		t.Error("panic should be routed to the ambient error handler")
	}
}

type capturingHandler struct {
	mu     sync.Mutex
	errs   []*errors.SketchError
	panics []*errors.PanicError
}

func (h *capturingHandler) HandleError(err *errors.SketchError) {
	h.mu.Lock()
	h.errs = append(h.errs, err)
	h.mu.Unlock()
}

func (h *capturingHandler) HandlePanic(err *errors.PanicError) {
	h.mu.Lock()
	h.panics = append(h.panics, err)
	h.mu.Unlock()
}

func TestSetFrameRateRearmsTickers(t *testing.T) {
	clk := sketchtest.NewFakeClock()
	s := sketch.New(func(s *sketch.Sketch) {
		s.Draw = func() {}
	}, sketch.WithClock(clk), sketch.WithFrameRate(testRate))
	defer s.Remove()

	s.SetFrameRate(10) // 100ms interval
	clk.Advance(100 * time.Millisecond)

	// One ticker fire under the new rate, not ten under the old one.
	if got := s.FrameCount(); got != 1 {
		t.Errorf("frameCount = %d after one new-rate interval, want 1", got)
	}
	if s.TargetFrameInterval() != 100*time.Millisecond {
		t.Errorf("interval = %v, want 100ms", s.TargetFrameInterval())
	}
}

func TestMeasuredFrameRateMirrored(t *testing.T) {
	cleanGlobal(t, "draw")
	surface.Global.Set("draw", func() {})

	clk := sketchtest.NewFakeClock()
	s := sketch.New(nil, sketch.WithClock(clk), sketch.WithFrameRate(testRate))
	defer s.Remove()

	clk.Advance(2 * s.TargetFrameInterval())

	v, ok := surface.Global.Get("frameRate")
	if !ok {
		t.Fatal("frameRate should be mirrored in global mode")
	}
	rate, ok := v.(float64)
	if !ok || rate <= 0 {
		t.Errorf("mirrored frameRate = %v, want positive float", v)
	}
	if got := s.FrameRate(); got != rate {
		t.Errorf("instance rate %v != mirrored rate %v", got, rate)
	}
}

func TestTargetElementResolvedAtStart(t *testing.T) {
	h := env.NewHeadless()
	el, err := h.CreateElement("canvas")
	if err != nil {
		t.Fatal(err)
	}

	s := sketch.New(func(s *sketch.Sketch) {
		s.Draw = func() {}
	}, sketch.WithEnvironment(h), sketch.WithTarget(el.ID()), sketch.WithClock(sketchtest.NewFakeClock()))

	records := s.Elements()
	if len(records) != 1 || records[0].Element() != el {
		t.Fatal("resolved target should become the primary element")
	}

	s.Remove()
	if el.Attached() {
		t.Error("remove should detach the primary element")
	}
}
