// Package sketch implements the lifecycle controller of the runtime: it
// sequences preload, setup, and the recurring draw cadence, binds the
// capability surface globally or onto the instance, and tears everything
// down deterministically on Remove.
package sketch

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/go-sketch/sketch/pkg/env"
	"github.com/go-sketch/sketch/pkg/errors"
	"github.com/go-sketch/sketch/pkg/events"
	"github.com/go-sketch/sketch/pkg/graphics"
	"github.com/go-sketch/sketch/pkg/preload"
	"github.com/go-sketch/sketch/pkg/schedule"
	"github.com/go-sketch/sketch/pkg/surface"
)

// defaultFrameRate is the target cadence when none is configured.
const defaultFrameRate = 60.0

// Sketch is one runtime instance. Create it with New; it starts when the
// environment reports ready and stops when Remove is called.
type Sketch struct {
	// Preload, Setup, and Draw are the user lifecycle hooks. In instance
	// mode the sketch closure sets them; in global mode they are
	// discovered on the global namespace instead. Hooks attached after
	// the start sequence are not honored.
	Preload func()
	Setup   func()
	Draw    func()

	id          string
	mode        BindingMode
	environment env.Environment
	clock       schedule.Clock

	table    *surface.Table
	gate     *preload.Gate
	ticker   *schedule.Ticker
	driver   *schedule.Driver
	registry *events.Registry

	mu             sync.Mutex
	phase          Phase
	props          map[string]any
	boundNames     []string
	handlers       map[events.Type]events.Handler
	elements       []*ElementRecord
	removeFns      []func(*Sketch)
	loopEnabled    bool
	targetInterval time.Duration
	frameCount     int64
	targetID       string
	target         env.Element
	primary        *ElementRecord
	removed        bool
	started        bool

	// Hooks resolved at start; cached so the draw cycle does not re-query
	// the namespace every frame.
	preloadHook func()
	setupHook   func()
	drawHook    func()

	dispatchMu    sync.Mutex
	dispatchQueue []func()
}

// Option configures a Sketch at construction.
type Option func(*Sketch)

// WithEnvironment selects the ambient environment backend. Defaults to a
// headless environment.
func WithEnvironment(e env.Environment) Option {
	return func(s *Sketch) { s.environment = e }
}

// WithTarget names an existing element by identifier, resolved lazily at
// start time. An identifier that resolves to nothing is not an eager
// error; element-dependent operations fail when attempted.
func WithTarget(id string) Option {
	return func(s *Sketch) { s.targetID = id }
}

// WithElement supplies the target element by value.
func WithElement(el env.Element) Option {
	return func(s *Sketch) { s.target = el }
}

// WithFrameRate sets the target frame rate in frames per second.
func WithFrameRate(fps float64) Option {
	return func(s *Sketch) {
		if fps > 0 {
			s.targetInterval = intervalFor(fps)
		}
	}
}

// WithClock injects a clock, letting tests drive the schedulers manually.
func WithClock(c schedule.Clock) Option {
	return func(s *Sketch) { s.clock = c }
}

// New constructs a sketch. A nil closure selects global binding: every
// capability is projected onto the shared global namespace and lifecycle
// hooks are discovered there. A non-nil closure selects instance binding:
// the closure receives the sketch and attaches hooks to it directly.
//
// The start sequence (preload, setup, draw loop) begins when the
// environment reports ready; if it is already ready, the sequence runs
// synchronously within New.
func New(closure func(*Sketch), opts ...Option) *Sketch {
	s := &Sketch{
		id:             uuid.NewString(),
		phase:          PhaseConstructing,
		clock:          schedule.System,
		props:          make(map[string]any),
		handlers:       make(map[events.Type]events.Handler),
		loopEnabled:    true,
		targetInterval: intervalFor(defaultFrameRate),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.environment == nil {
		s.environment = env.NewHeadless()
	}

	s.gate = preload.NewGate(s.enterSetup)
	s.registry = events.NewRegistry(s.environment.Events())
	s.removeFns = snapshotRemoveFuncs()
	s.ticker = schedule.NewTicker(s.clock, s.targetInterval, s.tickFrame)
	s.driver = schedule.NewDriver(s.clock, s.targetInterval, s.drawCycle)
	s.table = s.buildTable()

	if closure == nil {
		s.mode = ModeGlobal
		s.boundNames = surface.Project(s.table, surface.Global, reservedNames())
	} else {
		s.mode = ModeInstance
		closure(s)
	}

	s.setPhase(PhaseAwaitingReady)
	s.environment.OnReady(s.start)
	return s
}

// ID returns the sketch's unique identifier.
func (s *Sketch) ID() string { return s.id }

// Mode returns the binding mode fixed at construction.
func (s *Sketch) Mode() BindingMode { return s.mode }

// CurrentPhase returns the current lifecycle phase.
func (s *Sketch) CurrentPhase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Environment returns the ambient environment backend.
func (s *Sketch) Environment() env.Environment { return s.environment }

// On attaches an interaction-event hook. Hooks must be attached before the
// start sequence wires subscriptions; later attachment is not retroactively
// subscribed.
func (s *Sketch) On(t events.Type, h events.Handler) {
	s.mu.Lock()
	s.handlers[t] = h
	s.mu.Unlock()
}

// start runs once the environment reports ready.
func (s *Sketch) start() {
	s.mu.Lock()
	if s.started || s.removed {
		s.mu.Unlock()
		return
	}
	s.started = true
	targetID := s.targetID
	s.mu.Unlock()

	if targetID != "" {
		if el, ok := s.environment.Resolve(targetID); ok {
			s.mu.Lock()
			s.target = el
			s.mu.Unlock()
		}
		// An unresolved id is left unresolved by design: later
		// element-dependent operations fail when attempted.
	}

	s.resolveHooks()

	if s.preloadHook != nil {
		s.setPhase(PhasePreloading)
		s.protect("sketch.preload", s.preloadHook)
		s.gate.Seal()
		return
	}
	s.enterSetup()
}

// enterSetup runs after the preload gate drains (or immediately when no
// preload hook exists). It runs setup exactly once, wires event
// subscriptions, and starts the loop.
func (s *Sketch) enterSetup() {
	s.mu.Lock()
	if s.removed {
		s.mu.Unlock()
		return
	}
	s.phase = PhaseSettingUp
	s.mu.Unlock()

	s.ensurePrimary()
	s.wireEvents()

	if s.setupHook != nil {
		s.protect("sketch.setup", s.setupHook)
	}

	s.mu.Lock()
	if s.removed {
		s.mu.Unlock()
		return
	}
	s.phase = PhaseLooping
	looping := s.loopEnabled
	s.mu.Unlock()

	if looping {
		s.ticker.Start()
		s.driver.Start()
	}
}

// ensurePrimary establishes the primary element: the resolved target if
// one exists, otherwise a freshly created canvas element.
func (s *Sketch) ensurePrimary() {
	s.mu.Lock()
	target := s.target
	have := s.primary != nil
	s.mu.Unlock()
	if have {
		return
	}

	var record *ElementRecord
	if target != nil {
		record = newElementRecord(target, s.environment.Events())
	} else {
		el, err := s.environment.CreateElement("canvas")
		if err != nil {
			errors.Report(&errors.SketchError{
				Op:     "sketch.ensurePrimary",
				Kind:   errors.KindEnv,
				Sketch: s.id,
				Err:    err,
			})
			return
		}
		record = newElementRecord(el, s.environment.Events())
	}

	s.mu.Lock()
	s.primary = record
	s.elements = append(s.elements, record)
	s.mu.Unlock()
}

// CreateElement creates a visual element and registers it for teardown.
func (s *Sketch) CreateElement(kind string) (*ElementRecord, error) {
	el, err := s.environment.CreateElement(kind)
	if err != nil {
		return nil, err
	}
	record := newElementRecord(el, s.environment.Events())
	s.mu.Lock()
	s.elements = append(s.elements, record)
	s.mu.Unlock()
	return record, nil
}

// Elements returns the created-element records in creation order.
func (s *Sketch) Elements() []*ElementRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*ElementRecord, len(s.elements))
	copy(out, s.elements)
	return out
}

// BeginLoad holds the preload gate open for one asynchronous load and
// returns its completion func. Extension capabilities use this to
// participate in the gate the way registered loaders do.
func (s *Sketch) BeginLoad() func() {
	return s.gate.Begin()
}

// PendingLoads returns the number of outstanding preload-tracked loads.
func (s *Sketch) PendingLoads() int {
	return s.gate.Pending()
}

// Dispatch schedules fn to run on the sketch's logical thread before the
// next draw tick. Safe to call from any goroutine.
func (s *Sketch) Dispatch(fn func()) {
	if fn == nil {
		return
	}
	s.dispatchMu.Lock()
	s.dispatchQueue = append(s.dispatchQueue, fn)
	s.dispatchMu.Unlock()
}

func (s *Sketch) drainDispatchQueue() []func() {
	s.dispatchMu.Lock()
	callbacks := s.dispatchQueue
	s.dispatchQueue = nil
	s.dispatchMu.Unlock()
	return callbacks
}

// tickFrame advances the frame counter by one. Driven by the ticker's own
// cadence, independent of draw execution time.
func (s *Sketch) tickFrame() {
	s.mu.Lock()
	s.frameCount++
	count := s.frameCount
	s.mu.Unlock()
	s.setProp("frameCount", count)
}

// drawCycle is one driver turn: drain dispatched callbacks, bracket the
// user draw hook in a canvas state checkpoint, and refresh the measured
// frame rate through the mirrored setter.
func (s *Sketch) drawCycle() {
	for _, callback := range s.drainDispatchQueue() {
		callback()
	}

	canvas := s.environment.Canvas()
	canvas.Save()
	defer canvas.Restore()

	// A global sketch with only a draw hook never had a chance to size
	// its surface; compensate for pixel density here.
	if s.setupHook == nil {
		d := s.environment.PixelDensity()
		canvas.Scale(d, d)
	}

	s.setProp("frameRate", s.driver.Rate())

	if s.drawHook != nil {
		s.protect("sketch.draw", s.drawHook)
	}
}

// Background fills the drawing surface with the given color. Typically
// called at the top of the draw hook to erase the previous frame.
func (s *Sketch) Background(c graphics.Color) {
	s.environment.Canvas().Clear(c)
}

// NoLoop suspends the draw cadence. The phase stays at Looping; the
// pending driver arm and the frame-count ticker are both cancelled.
func (s *Sketch) NoLoop() {
	s.mu.Lock()
	s.loopEnabled = false
	s.mu.Unlock()
	s.driver.Pause()
	s.ticker.Stop()
}

// Loop resumes the draw cadence after NoLoop. The next draw occurs within
// one scheduler interval.
func (s *Sketch) Loop() {
	s.mu.Lock()
	s.loopEnabled = true
	looping := s.phase == PhaseLooping
	s.mu.Unlock()
	if looping {
		s.ticker.Start()
		s.driver.Resume()
	}
}

// IsLooping reports whether the draw cadence is enabled.
func (s *Sketch) IsLooping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loopEnabled
}

// Redraw runs n draw cycles immediately, without touching the schedule.
// Useful while the loop is paused. n below one is treated as one.
func (s *Sketch) Redraw(n int) {
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		s.driver.Step()
	}
}

// SetFrameRate changes the target frame rate. Takes effect on the next
// reschedule of each timer.
func (s *Sketch) SetFrameRate(fps float64) {
	if fps <= 0 {
		return
	}
	interval := intervalFor(fps)
	s.mu.Lock()
	s.targetInterval = interval
	s.mu.Unlock()
	s.ticker.SetInterval(interval)
	s.driver.SetInterval(interval)
}

// FrameRate returns the frame rate measured from the delta between the two
// most recent draw cycles. Zero until two cycles have run.
func (s *Sketch) FrameRate() float64 {
	return s.driver.Rate()
}

// TargetFrameInterval returns the configured cadence interval.
func (s *Sketch) TargetFrameInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.targetInterval
}

// FrameCount returns the number of ticker frames elapsed.
func (s *Sketch) FrameCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameCount
}

// Prop returns a tracked property by name.
func (s *Sketch) Prop(name string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.props[name]
	return v, ok
}

// setProp is the single mirrored property setter: it updates the instance
// view and, in global mode, the shared namespace, so the two views never
// diverge. Every tracked mutation in the controller goes through here.
func (s *Sketch) setProp(name string, v any) {
	s.mu.Lock()
	s.props[name] = v
	mirror := s.mode == ModeGlobal && !s.removed
	s.mu.Unlock()
	if mirror {
		surface.Global.Set(name, v)
	}
}

func (s *Sketch) setPhase(p Phase) {
	s.mu.Lock()
	s.phase = p
	s.mu.Unlock()
}

// protect runs a user hook, routing any panic to the ambient error
// handler. The runtime's policy is to keep the machine alive: a panicking
// hook is reported, not fatal, and the draw chain stays armed.
func (s *Sketch) protect(op string, fn func()) {
	defer errors.Recover(op)
	fn()
}

// Remove tears the sketch down. Guarded by the presence of an active
// primary element: with nothing to remove it is a no-op, which also makes
// a second call idempotent. All steps run even if an individual hook
// misbehaves.
func (s *Sketch) Remove() {
	s.mu.Lock()
	if s.removed || s.primary == nil {
		s.mu.Unlock()
		return
	}
	s.removed = true
	s.loopEnabled = false
	s.phase = PhaseStopped
	elements := s.elements
	s.elements = nil
	s.primary = nil
	removeFns := s.removeFns
	boundNames := s.boundNames
	mode := s.mode
	propNames := make([]string, 0, len(s.props))
	for name := range s.props {
		propNames = append(propNames, name)
	}
	s.mu.Unlock()

	// 1. Stop both timers.
	s.driver.Pause()
	s.ticker.Stop()

	// 2. Unwind ambient event subscriptions.
	s.registry.UnbindAll()

	// 3. Detach elements and revoke their local handlers.
	for _, record := range elements {
		record.teardown()
	}

	// 4. Extension cleanup, in registration order.
	for _, fn := range removeFns {
		fn := fn
		s.protect("sketch.removeFunc", func() { fn(s) })
	}

	// 5. Revoke the global projection, then every property mirrored
	// after construction.
	if mode == ModeGlobal {
		for _, name := range boundNames {
			surface.Global.Delete(name)
		}
		for _, name := range propNames {
			surface.Global.Delete(name)
		}
	}
}

func intervalFor(fps float64) time.Duration {
	return time.Duration(float64(time.Second) / fps)
}
