// Package graphics defines the drawing-state contract the runtime needs
// from a canvas. Drawing primitives themselves live in the environment
// backends; the lifecycle controller only saves, scales, and restores.
package graphics

// Canvas is the minimal surface the frame driver draws into.
//
// Save and Restore bracket every user draw call so an exception mid-draw
// cannot leak transform or style state into the next frame.
type Canvas interface {
	// Save pushes a checkpoint of the current transform/style state.
	Save()
	// Restore pops back to the most recent checkpoint.
	Restore()
	// Scale multiplies the current transform by (sx, sy).
	Scale(sx, sy float64)
	// Clear fills the surface with the given color.
	Clear(c Color)
}

// StateCanvas is a Canvas that tracks save/restore depth without drawing.
// Environment backends without a real surface embed it, and tests assert
// on its counters.
type StateCanvas struct {
	depth    int
	saves    int
	restores int
	scales   int
	clears   int
}

func (c *StateCanvas) Save() {
	c.depth++
	c.saves++
}

func (c *StateCanvas) Restore() {
	if c.depth > 0 {
		c.depth--
	}
	c.restores++
}

func (c *StateCanvas) Scale(sx, sy float64) { c.scales++ }

func (c *StateCanvas) Clear(col Color) { c.clears++ }

// Depth returns the current save/restore nesting depth.
func (c *StateCanvas) Depth() int { return c.depth }

// Saves returns the total number of Save calls.
func (c *StateCanvas) Saves() int { return c.saves }

// Restores returns the total number of Restore calls.
func (c *StateCanvas) Restores() int { return c.restores }

// Scales returns the total number of Scale calls.
func (c *StateCanvas) Scales() int { return c.scales }

// Clears returns the total number of Clear calls.
func (c *StateCanvas) Clears() int { return c.clears }
