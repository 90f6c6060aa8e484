package pointer

import (
	"fmt"
	"image"

	"github.com/go-vgo/robotgo"
)

// RobotBackend drives the real OS pointer through robotgo.
type RobotBackend struct{}

// NewRobotBackend creates a backend bound to the primary display.
func NewRobotBackend() *RobotBackend {
	return &RobotBackend{}
}

// MoveTo moves the cursor to an absolute position.
func (b *RobotBackend) MoveTo(x, y int) error {
	robotgo.Move(x, y)
	return nil
}

// MoveRel moves the cursor relative to where it is.
func (b *RobotBackend) MoveRel(dx, dy int) error {
	robotgo.MoveRelative(dx, dy)
	return nil
}

// MouseDown presses the left button.
func (b *RobotBackend) MouseDown() error {
	if err := robotgo.Toggle("left"); err != nil {
		return fmt.Errorf("mouse down: %w", err)
	}
	return nil
}

// MouseUp releases the left button.
func (b *RobotBackend) MouseUp() error {
	if err := robotgo.Toggle("left", "up"); err != nil {
		return fmt.Errorf("mouse up: %w", err)
	}
	return nil
}

// Click clicks the given button once.
func (b *RobotBackend) Click(button Button) error {
	robotgo.Click(string(button))
	return nil
}

// Scroll scrolls vertically by amount.
func (b *RobotBackend) Scroll(amount int) error {
	robotgo.Scroll(0, amount)
	return nil
}

// Position returns the cursor location.
func (b *RobotBackend) Position() image.Point {
	x, y := robotgo.Location()
	return image.Point{X: x, Y: y}
}

// ScreenSize returns the primary display size.
func (b *RobotBackend) ScreenSize() (int, int) {
	return robotgo.GetScreenSize()
}
