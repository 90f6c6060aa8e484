package gesture

import (
	"image"
	"math"

	"github.com/ayusman/handpointer/internal/detector"
)

// Trackpad maps fingertip pixels inside a frame-centered rectangle to
// absolute screen coordinates. The rectangle has the screen's aspect ratio.
type Trackpad struct {
	Rect    image.Rectangle
	Buffer  float64
	ScreenW int
	ScreenH int
}

// NewTrackpad sizes the mapping rectangle for a frame and screen.
func NewTrackpad(frame FrameSize, screenW, screenH int, scale, buffer float64) Trackpad {
	boxH := int(float64(frame.Height) * scale)
	boxW := boxH
	if screenH > 0 {
		boxW = int(float64(boxH) * float64(screenW) / float64(screenH))
	}
	if boxH < 1 {
		boxH = 1
	}
	if boxW < 1 {
		boxW = 1
	}

	x1 := floorDiv(frame.Width-boxW, 2)
	y1 := floorDiv(frame.Height-boxH, 2)

	return Trackpad{
		Rect:    image.Rect(x1, y1, x1+boxW, y1+boxH),
		Buffer:  buffer,
		ScreenW: screenW,
		ScreenH: screenH,
	}
}

// Map returns the screen target for a fingertip pixel. The result always
// lies within [0,ScreenW]x[0,ScreenH].
func (t Trackpad) Map(p image.Point) (float64, float64) {
	relX := float64(p.X-t.Rect.Min.X) / float64(t.Rect.Dx())
	relY := float64(p.Y-t.Rect.Min.Y) / float64(t.Rect.Dy())

	relX = detector.Clamp(relX, -t.Buffer, 1+t.Buffer)
	relY = detector.Clamp(relY, -t.Buffer, 1+t.Buffer)
	relX = detector.Clamp(relX, 0, 1)
	relY = detector.Clamp(relY, 0, 1)

	return relX * float64(t.ScreenW), relY * float64(t.ScreenH)
}

// smoother low-pass filters the cursor target. The zero position is the
// uninitialized sentinel: the first target seeds the filter directly.
type smoother struct {
	x, y float64
}

func (s *smoother) step(tx, ty, factor, deadzone float64) (float64, float64) {
	if s.x == 0 && s.y == 0 {
		s.x, s.y = tx, ty
	}

	if math.Abs(tx-s.x) < deadzone && math.Abs(ty-s.y) < deadzone {
		tx, ty = s.x, s.y
	}

	s.x += (tx - s.x) * factor
	s.y += (ty - s.y) * factor
	return s.x, s.y
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
