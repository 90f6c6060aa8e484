// Package pointer abstracts the operating system pointer so gesture
// interpretation can be driven and verified without touching a real mouse.
package pointer

import "image"

// Button identifies a mouse button.
type Button string

const (
	// ButtonLeft is the primary button.
	ButtonLeft Button = "left"
	// ButtonRight is the secondary button.
	ButtonRight Button = "right"
)

// Backend is the set of pointer primitives the gesture controller drives.
// Implementations are synchronous. A returned error is reported by the
// caller and never retried; MouseUp on a released button must be harmless.
type Backend interface {
	// MoveTo places the cursor at an absolute screen position.
	MoveTo(x, y int) error
	// MoveRel moves the cursor by a relative offset.
	MoveRel(dx, dy int) error
	// MouseDown presses and holds the left button.
	MouseDown() error
	// MouseUp releases the left button.
	MouseUp() error
	// Click presses and releases a button.
	Click(button Button) error
	// Scroll scrolls vertically. Positive amounts scroll up.
	Scroll(amount int) error
	// Position returns the current cursor position.
	Position() image.Point
	// ScreenSize returns the screen size in pixels.
	ScreenSize() (width, height int)
}
