// Package preview draws the gesture state over camera frames and hands the
// annotated frames to displays: the local debug window and the MJPEG
// stream of the debug server.
package preview

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/handpointer/internal/gesture"
	"github.com/ayusman/handpointer/internal/overlay"
)

var (
	colorGreen   = color.RGBA{G: 255, A: 255}
	colorMagenta = color.RGBA{R: 255, B: 255, A: 255}
	colorWhite   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	colorGray    = color.RGBA{R: 100, G: 100, B: 100, A: 255}
	colorHint    = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	colorYellow  = color.RGBA{R: 255, G: 255, A: 255}
	colorBlue    = color.RGBA{B: 255, A: 255}
	colorRing    = color.RGBA{G: 255, A: 255}
)

const holdBarWidth = 20

// Display receives annotated frames. Display returns false when the user
// asked to quit.
type Display interface {
	Display(frame *gocv.Mat) bool
	Close() error
}

// Line is one row of overlay text.
type Line struct {
	Text      string
	Origin    image.Point
	Scale     float64
	Color     color.RGBA
	Thickness int
}

// Annotator draws the trackpad, debug text and click ring on a frame.
type Annotator struct {
	ScreenW int
	ScreenH int
	Pointer gesture.PointerConfig
}

// Preview annotates each frame once and passes it to every display.
type Preview struct {
	annotator Annotator
	displays  []Display
}

// New creates a Preview. With no displays Show only annotates.
func New(annotator Annotator, displays ...Display) *Preview {
	return &Preview{annotator: annotator, displays: displays}
}

// Show annotates frame and shows it on every display. It returns false
// once any display asks to quit.
func (p *Preview) Show(frame *gocv.Mat, snap gesture.Snapshot, ring overlay.Ring) bool {
	p.annotator.Draw(frame, snap, ring)

	keep := true
	for _, d := range p.displays {
		if !d.Display(frame) {
			keep = false
		}
	}
	return keep
}

// Close closes every display.
func (p *Preview) Close() error {
	var errs []error
	for _, d := range p.displays {
		if err := d.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Trackpad returns the trackpad rectangle for a frame size.
func (a Annotator) Trackpad(size gesture.FrameSize) gesture.Trackpad {
	return gesture.NewTrackpad(size, a.ScreenW, a.ScreenH, a.Pointer.TrackpadScale, a.Pointer.TrackpadBuffer)
}

// Draw annotates frame in place.
func (a Annotator) Draw(frame *gocv.Mat, snap gesture.Snapshot, ring overlay.Ring) {
	size := gesture.FrameSize{Width: frame.Cols(), Height: frame.Rows()}
	pad := a.Trackpad(size)

	box := colorMagenta
	if snap.Pointer.GrabActive {
		box = colorGreen
	}
	gocv.Rectangle(frame, pad.Rect, box, 2)

	for _, l := range a.Lines(snap, size) {
		gocv.PutText(frame, l.Text, l.Origin, gocv.FontHersheySimplex, l.Scale, l.Color, l.Thickness)
	}

	if ring.Visible {
		gocv.Circle(frame, a.RingPosition(pad, ring.Center), ring.Radius, colorRing, 2)
	}
}

// RingPosition maps a screen position back into the trackpad rectangle so
// the click ring shows where the cursor is.
func (a Annotator) RingPosition(pad gesture.Trackpad, screen image.Point) image.Point {
	if a.ScreenW <= 0 || a.ScreenH <= 0 {
		return pad.Rect.Min
	}
	return image.Point{
		X: pad.Rect.Min.X + screen.X*pad.Rect.Dx()/a.ScreenW,
		Y: pad.Rect.Min.Y + screen.Y*pad.Rect.Dy()/a.ScreenH,
	}
}

// Lines returns the text drawn for snap on a frame of the given size.
func (a Annotator) Lines(snap gesture.Snapshot, size gesture.FrameSize) []Line {
	lines := []Line{{
		Text:      snap.Status(),
		Origin:    image.Pt(10, 30),
		Scale:     0.8,
		Color:     colorGreen,
		Thickness: 2,
	}}

	y := 60
	add := func(text string, scale float64, c color.RGBA, thickness, step int) {
		lines = append(lines, Line{Text: text, Origin: image.Pt(10, y), Scale: scale, Color: c, Thickness: thickness})
		y += step
	}

	add("Hands: "+handsText(snap), 0.5, colorWhite, 1, 25)

	if snap.Scroll.Present {
		if snap.Scroll.Active {
			add("SCROLL HAND: SCROLLING ACTIVE", 0.6, colorGreen, 2, 30)
		} else {
			add("SCROLL HAND: Hold 2 fingers together", 0.5, colorHint, 1, 30)
		}
	}

	p := snap.Pointer
	if p.Present {
		cfg := a.Pointer
		add(pinchText("CLICK (I+T)", p.LeftRatio, cfg.LeftClose, p.LeftPinchFrames, cfg.PinchFrames),
			0.5, pinchColor(p.LeftPinchFrames, cfg.PinchFrames), pinchThickness(p.LeftPinchFrames, cfg.PinchFrames), 25)
		add(pinchText("RIGHT CLICK (M+T)", p.RightRatio, cfg.RightClose, p.RightPinchFrames, cfg.PinchFrames),
			0.5, pinchColor(p.RightPinchFrames, cfg.PinchFrames), pinchThickness(p.RightPinchFrames, cfg.PinchFrames), 25)

		if p.EpisodeOpen && !p.GrabActive {
			c := colorYellow
			if p.Held >= cfg.GrabHold {
				c = colorGreen
			}
			add(fmt.Sprintf("Hold: %.2fs [%s]", p.Held.Seconds(), holdBar(p.Held, cfg.GrabHold)), 0.5, c, 1, 25)
		}

		if p.GrabActive && p.LeftReleaseFrames > 0 {
			add(fmt.Sprintf("Release countdown: %d/%d", p.LeftReleaseFrames, cfg.ReleaseFrames), 0.5, colorBlue, 1, 25)
		}
	}

	if s := snap.Scroll; s.Present {
		lines = append(lines,
			Line{
				Text:      fmt.Sprintf("S: Idx:%.3f Mid:%.3f Dist:%.3f", s.IndexLength, s.MiddleLength, s.TipGap),
				Origin:    image.Pt(10, size.Height-60),
				Scale:     0.4,
				Color:     colorYellow,
				Thickness: 1,
			},
			Line{
				Text:      fmt.Sprintf("S: Extended I:%d M:%d Together:%d", b2i(s.IndexExtended), b2i(s.MiddleExtended), b2i(s.Together)),
				Origin:    image.Pt(10, size.Height-40),
				Scale:     0.4,
				Color:     colorYellow,
				Thickness: 1,
			},
		)
	}

	return lines
}

func handsText(snap gesture.Snapshot) string {
	var parts []string
	if snap.Pointer.Present {
		parts = append(parts, "POINTER")
	}
	if snap.Scroll.Present {
		parts = append(parts, "SCROLL")
	}
	if len(parts) == 0 {
		return "NONE"
	}
	return strings.Join(parts, " + ")
}

func pinchText(name string, ratio, closeAt float64, frames, stable int) string {
	marker := fmt.Sprintf("%d/%d", frames, stable)
	if frames >= stable {
		marker = "DETECTED"
	}
	return fmt.Sprintf("%s: %.3f < %.2f | %s", name, ratio, closeAt, marker)
}

func pinchColor(frames, stable int) color.RGBA {
	if frames >= stable {
		return colorGreen
	}
	return colorGray
}

func pinchThickness(frames, stable int) int {
	if frames >= stable {
		return 2
	}
	return 1
}

func holdBar(held, hold time.Duration) string {
	n := 0
	if hold > 0 {
		n = int(float64(held) / float64(hold) * holdBarWidth)
	}
	n = max(0, min(n, holdBarWidth))
	return strings.Repeat("#", n) + strings.Repeat("-", holdBarWidth-n)
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
