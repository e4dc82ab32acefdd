// Package events defines the closed set of interaction events a sketch can
// observe and the registry that binds user hooks to the ambient event
// source for the lifetime of a sketch.
package events

import "time"

// Type names one of the supported interaction events. The set is closed:
// hooks are discovered by these names at wiring time and nothing else is
// subscribed.
type Type string

const (
	PointerMoved    Type = "pointerMoved"
	PointerPressed  Type = "pointerPressed"
	PointerReleased Type = "pointerReleased"
	PointerClicked  Type = "pointerClicked"
	PointerEntered  Type = "pointerEntered"
	PointerExited   Type = "pointerExited"
	Wheel           Type = "wheel"
	KeyPressed      Type = "keyPressed"
	KeyReleased     Type = "keyReleased"
	KeyTyped        Type = "keyTyped"
	TouchStarted    Type = "touchStarted"
	TouchMoved      Type = "touchMoved"
	TouchEnded      Type = "touchEnded"
)

// Types returns the full supported event set.
func Types() []Type {
	return []Type{
		PointerMoved, PointerPressed, PointerReleased, PointerClicked,
		PointerEntered, PointerExited, Wheel,
		KeyPressed, KeyReleased, KeyTyped,
		TouchStarted, TouchMoved, TouchEnded,
	}
}

// HookName returns the user hook name for an event type. Hook names double
// as reserved names during capability projection so a global-mode binding
// never clobbers a user-defined hook.
func (t Type) HookName() string {
	return string(t)
}

// Event carries the payload delivered to a handler.
type Event struct {
	Type Type
	// X, Y are pointer/touch coordinates in logical units.
	X, Y float64
	// DeltaX, DeltaY carry wheel scroll amounts.
	DeltaX, DeltaY float64
	// Key is the key name for key events.
	Key string
	// Time is when the ambient source observed the event.
	Time time.Time
}

// Handler consumes a single event.
type Handler func(Event)

// Source is the ambient event source an environment exposes. Subscribe
// returns the function that revokes exactly that subscription.
type Source interface {
	Subscribe(t Type, h Handler) (unsubscribe func())
}
