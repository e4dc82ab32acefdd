package env

import (
	"sync"

	"github.com/google/uuid"

	"github.com/go-sketch/sketch/pkg/events"
	"github.com/go-sketch/sketch/pkg/graphics"
)

// Headless is an Environment with no display: elements are bookkeeping
// records, the canvas only tracks state depth, and events are emitted
// programmatically. It backs tests and non-interactive runs.
type Headless struct {
	mu       sync.Mutex
	ready    bool
	readyFns []func()
	density  float64
	canvas   *graphics.StateCanvas
	elements map[string]*headlessElement

	subMu  sync.Mutex
	nextID int
	subs   map[int]headlessSub
}

type headlessSub struct {
	t events.Type
	h events.Handler
}

// NewHeadless returns a ready headless environment with pixel density 1.
func NewHeadless() *Headless {
	h := NewPendingHeadless()
	h.MarkReady()
	return h
}

// NewPendingHeadless returns a headless environment that has not reported
// ready yet. Tests use it to exercise the deferred-start path.
func NewPendingHeadless() *Headless {
	return &Headless{
		density:  1,
		canvas:   &graphics.StateCanvas{},
		elements: make(map[string]*headlessElement),
		subs:     make(map[int]headlessSub),
	}
}

// MarkReady flips the environment to ready and runs deferred callbacks in
// registration order. Subsequent OnReady calls run synchronously.
func (e *Headless) MarkReady() {
	e.mu.Lock()
	if e.ready {
		e.mu.Unlock()
		return
	}
	e.ready = true
	fns := e.readyFns
	e.readyFns = nil
	e.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// SetPixelDensity overrides the reported pixel density.
func (e *Headless) SetPixelDensity(d float64) {
	e.mu.Lock()
	e.density = d
	e.mu.Unlock()
}

// OnReady implements Environment.
func (e *Headless) OnReady(fn func()) {
	if fn == nil {
		return
	}
	e.mu.Lock()
	if !e.ready {
		e.readyFns = append(e.readyFns, fn)
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()
	fn()
}

// Events implements Environment.
func (e *Headless) Events() events.Source { return e }

// Canvas implements Environment.
func (e *Headless) Canvas() graphics.Canvas { return e.canvas }

// StateCanvas exposes the counting canvas for test assertions.
func (e *Headless) StateCanvas() *graphics.StateCanvas { return e.canvas }

// PixelDensity implements Environment.
func (e *Headless) PixelDensity() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.density
}

// CreateElement implements Environment.
func (e *Headless) CreateElement(kind string) (Element, error) {
	el := &headlessElement{
		id:       uuid.NewString(),
		kind:     kind,
		attached: true,
	}
	e.mu.Lock()
	e.elements[el.id] = el
	e.mu.Unlock()
	return el, nil
}

// Resolve implements Environment.
func (e *Headless) Resolve(id string) (Element, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	el, ok := e.elements[id]
	return el, ok
}

// Subscribe implements events.Source.
func (e *Headless) Subscribe(t events.Type, h events.Handler) func() {
	e.subMu.Lock()
	id := e.nextID
	e.nextID++
	e.subs[id] = headlessSub{t: t, h: h}
	e.subMu.Unlock()

	return func() {
		e.subMu.Lock()
		delete(e.subs, id)
		e.subMu.Unlock()
	}
}

// Emit delivers an event to every live subscription of its type.
func (e *Headless) Emit(ev events.Event) {
	e.subMu.Lock()
	handlers := make([]events.Handler, 0, len(e.subs))
	for _, sub := range e.subs {
		if sub.t == ev.Type {
			handlers = append(handlers, sub.h)
		}
	}
	e.subMu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

// SubscriptionCount returns the number of live subscriptions.
func (e *Headless) SubscriptionCount() int {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	return len(e.subs)
}

type headlessElement struct {
	mu       sync.Mutex
	id       string
	kind     string
	attached bool
}

func (el *headlessElement) ID() string   { return el.id }
func (el *headlessElement) Kind() string { return el.kind }

func (el *headlessElement) Detach() {
	el.mu.Lock()
	el.attached = false
	el.mu.Unlock()
}

func (el *headlessElement) Attached() bool {
	el.mu.Lock()
	defer el.mu.Unlock()
	return el.attached
}
