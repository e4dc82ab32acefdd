// Package env defines the boundary between the lifecycle controller and the
// ambient environment hosting it: the ready signal, the event source, the
// element tree, and the drawing surface.
package env

import (
	"github.com/go-sketch/sketch/pkg/events"
	"github.com/go-sketch/sketch/pkg/graphics"
)

// Environment is what a backend (terminal, headless, ...) provides to a
// sketch.
type Environment interface {
	// OnReady registers fn to run once the environment reports ready.
	// If the environment is already ready, fn runs synchronously before
	// OnReady returns.
	OnReady(fn func())

	// Events returns the ambient event source.
	Events() events.Source

	// Canvas returns the drawing surface for frame cycles.
	Canvas() graphics.Canvas

	// PixelDensity returns the device pixel scale factor.
	PixelDensity() float64

	// CreateElement creates and attaches a visual element of the given
	// kind, returning its handle.
	CreateElement(kind string) (Element, error)

	// Resolve looks up an existing element by identifier.
	Resolve(id string) (Element, bool)
}

// Element is a visual element owned by the environment. The controller
// only ever attaches bookkeeping to it and detaches it at teardown.
type Element interface {
	// ID returns the element's identifier.
	ID() string
	// Kind returns what the element is (e.g. "canvas").
	Kind() string
	// Detach removes the element from its parent. Idempotent.
	Detach()
	// Attached reports whether the element still has a parent.
	Attached() bool
}
