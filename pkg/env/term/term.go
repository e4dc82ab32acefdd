// Package term backs a sketch with an interactive terminal: key and mouse
// input is translated into the runtime's event set, and the sketch's
// rendered frame is shown with a status line underneath.
package term

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/go-sketch/sketch/pkg/env"
	"github.com/go-sketch/sketch/pkg/events"
	"github.com/go-sketch/sketch/pkg/graphics"
)

var statusStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#FAFAFA")).
	Background(lipgloss.Color("#5F5FD7")).
	Padding(0, 1)

// Terminal is an Environment driven by a bubbletea program. It reports
// ready on the first window-size message, which every terminal sends at
// program start.
type Terminal struct {
	mu       sync.Mutex
	ready    bool
	readyFns []func()
	width    int
	height   int
	frame    string
	canvas   *graphics.StateCanvas
	elements map[string]*termElement

	subMu  sync.Mutex
	nextID int
	subs   map[int]termSub

	program *tea.Program
}

type termSub struct {
	t events.Type
	h events.Handler
}

// New returns a Terminal that has not started its program yet.
func New() *Terminal {
	return &Terminal{
		canvas:   &graphics.StateCanvas{},
		elements: make(map[string]*termElement),
		subs:     make(map[int]termSub),
	}
}

// Run starts the terminal program and blocks until it quits or ctx is
// cancelled. The sketch should be constructed before Run so its ready
// callback is registered.
func (t *Terminal) Run(ctx context.Context) error {
	p := tea.NewProgram(&model{env: t},
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithContext(ctx),
	)

	t.mu.Lock()
	t.program = p
	t.mu.Unlock()

	_, err := p.Run()
	return err
}

// SetFrame replaces the rendered frame content shown above the status
// line. Safe to call from the draw hook.
func (t *Terminal) SetFrame(content string) {
	t.mu.Lock()
	t.frame = content
	p := t.program
	t.mu.Unlock()
	if p != nil {
		p.Send(refreshMsg{})
	}
}

// Size returns the terminal dimensions in cells.
func (t *Terminal) Size() (width, height int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.width, t.height
}

// OnReady implements env.Environment.
func (t *Terminal) OnReady(fn func()) {
	if fn == nil {
		return
	}
	t.mu.Lock()
	if !t.ready {
		t.readyFns = append(t.readyFns, fn)
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()
	fn()
}

func (t *Terminal) markReady(width, height int) {
	t.mu.Lock()
	t.width, t.height = width, height
	if t.ready {
		t.mu.Unlock()
		return
	}
	t.ready = true
	fns := t.readyFns
	t.readyFns = nil
	t.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Events implements env.Environment.
func (t *Terminal) Events() events.Source { return t }

// Canvas implements env.Environment. Terminal cells have no transform
// stack of their own; the state canvas keeps the save/restore contract.
func (t *Terminal) Canvas() graphics.Canvas { return t.canvas }

// PixelDensity implements env.Environment.
func (t *Terminal) PixelDensity() float64 { return 1 }

// CreateElement implements env.Environment.
func (t *Terminal) CreateElement(kind string) (env.Element, error) {
	el := &termElement{id: uuid.NewString(), kind: kind, attached: true}
	t.mu.Lock()
	t.elements[el.id] = el
	t.mu.Unlock()
	return el, nil
}

// Resolve implements env.Environment.
func (t *Terminal) Resolve(id string) (env.Element, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	el, ok := t.elements[id]
	return el, ok
}

type termElement struct {
	mu       sync.Mutex
	id       string
	kind     string
	attached bool
}

func (el *termElement) ID() string   { return el.id }
func (el *termElement) Kind() string { return el.kind }

func (el *termElement) Detach() {
	el.mu.Lock()
	el.attached = false
	el.mu.Unlock()
}

func (el *termElement) Attached() bool {
	el.mu.Lock()
	defer el.mu.Unlock()
	return el.attached
}

// Subscribe implements events.Source.
func (t *Terminal) Subscribe(typ events.Type, h events.Handler) func() {
	t.subMu.Lock()
	id := t.nextID
	t.nextID++
	t.subs[id] = termSub{t: typ, h: h}
	t.subMu.Unlock()

	return func() {
		t.subMu.Lock()
		delete(t.subs, id)
		t.subMu.Unlock()
	}
}

func (t *Terminal) emit(ev events.Event) {
	ev.Time = time.Now()

	t.subMu.Lock()
	handlers := make([]events.Handler, 0, len(t.subs))
	for _, sub := range t.subs {
		if sub.t == ev.Type {
			handlers = append(handlers, sub.h)
		}
	}
	t.subMu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

type refreshMsg struct{}

// model is the bubbletea side of the environment: it owns no state of its
// own and forwards everything to the Terminal.
type model struct {
	env *Terminal
}

func (m *model) Init() tea.Cmd { return nil }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.env.markReady(msg.Width, msg.Height)

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		m.env.emitKey(msg)

	case tea.MouseMsg:
		m.env.emitMouse(msg)

	case refreshMsg:
		// Frame content changed; fall through to View.
	}
	return m, nil
}

// emitKey translates one key message. Terminals report presses only, so a
// release is synthesized immediately after each press.
func (t *Terminal) emitKey(msg tea.KeyMsg) {
	key := msg.String()
	t.emit(events.Event{Type: events.KeyPressed, Key: key})
	if msg.Type == tea.KeyRunes && !msg.Alt {
		t.emit(events.Event{Type: events.KeyTyped, Key: key})
	}
	t.emit(events.Event{Type: events.KeyReleased, Key: key})
}

func (t *Terminal) emitMouse(msg tea.MouseMsg) {
	x, y := float64(msg.X), float64(msg.Y)

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		t.emit(events.Event{Type: events.Wheel, X: x, Y: y, DeltaY: -1})
		return
	case tea.MouseButtonWheelDown:
		t.emit(events.Event{Type: events.Wheel, X: x, Y: y, DeltaY: 1})
		return
	case tea.MouseButtonWheelLeft:
		t.emit(events.Event{Type: events.Wheel, X: x, Y: y, DeltaX: -1})
		return
	case tea.MouseButtonWheelRight:
		t.emit(events.Event{Type: events.Wheel, X: x, Y: y, DeltaX: 1})
		return
	}

	switch msg.Action {
	case tea.MouseActionMotion:
		t.emit(events.Event{Type: events.PointerMoved, X: x, Y: y})
	case tea.MouseActionPress:
		t.emit(events.Event{Type: events.PointerPressed, X: x, Y: y})
	case tea.MouseActionRelease:
		t.emit(events.Event{Type: events.PointerReleased, X: x, Y: y})
		t.emit(events.Event{Type: events.PointerClicked, X: x, Y: y})
	}
}

func (m *model) View() string {
	m.env.mu.Lock()
	frame := m.env.frame
	width := m.env.width
	m.env.mu.Unlock()

	status := statusStyle.Width(width).Render("sketch · ctrl+c to quit")
	if frame == "" {
		return status
	}
	return frame + "\n" + status
}
