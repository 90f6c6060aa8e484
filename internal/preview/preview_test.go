package preview

import (
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/handpointer/internal/gesture"
	"github.com/ayusman/handpointer/internal/overlay"
)

var size = gesture.FrameSize{Width: 640, Height: 480}

func testAnnotator() Annotator {
	return Annotator{ScreenW: 1920, ScreenH: 1080, Pointer: gesture.DefaultPointerConfig()}
}

func texts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

func TestAnnotator_Lines(t *testing.T) {
	a := testAnnotator()

	t.Run("no hands", func(t *testing.T) {
		got := texts(a.Lines(gesture.Snapshot{}, size))
		assert.Equal(t, []string{"READY", "Hands: NONE"}, got)
	})

	t.Run("pointer pinching", func(t *testing.T) {
		snap := gesture.Snapshot{Pointer: gesture.PointerSnapshot{
			Present:         true,
			LeftRatio:       0.1,
			RightRatio:      1.0,
			LeftPinchFrames: 2,
			Pinching:        true,
			EpisodeOpen:     true,
			Held:            200 * time.Millisecond,
		}}
		lines := a.Lines(snap, size)
		assert.Equal(t, []string{
			"PINCH",
			"Hands: POINTER",
			"CLICK (I+T): 0.100 < 0.30 | DETECTED",
			"RIGHT CLICK (M+T): 1.000 < 0.28 | 0/2",
			"Hold: 0.20s [###########---------]",
		}, texts(lines))
		assert.Equal(t, colorGreen, lines[2].Color)
		assert.Equal(t, 2, lines[2].Thickness)
		assert.Equal(t, colorGray, lines[3].Color)
		assert.Equal(t, colorYellow, lines[4].Color)
	})

	t.Run("dragging with release countdown", func(t *testing.T) {
		snap := gesture.Snapshot{Pointer: gesture.PointerSnapshot{
			Present:           true,
			GrabActive:        true,
			EpisodeOpen:       true,
			LeftReleaseFrames: 1,
		}}
		got := texts(a.Lines(snap, size))
		assert.Equal(t, "GRABBING", got[0])
		assert.Equal(t, "Release countdown: 1/3", got[len(got)-1])
		assert.NotContains(t, got, "Hold")
	})

	t.Run("scroll hand", func(t *testing.T) {
		snap := gesture.Snapshot{Scroll: gesture.ScrollSnapshot{
			Present:        true,
			IndexLength:    0.2,
			MiddleLength:   0.2,
			TipGap:         0.05,
			IndexExtended:  true,
			MiddleExtended: true,
			Together:       true,
			Active:         true,
		}}
		lines := a.Lines(snap, size)
		assert.Equal(t, []string{
			"SCROLLING",
			"Hands: SCROLL",
			"SCROLL HAND: SCROLLING ACTIVE",
			"S: Idx:0.200 Mid:0.200 Dist:0.050",
			"S: Extended I:1 M:1 Together:1",
		}, texts(lines))
		assert.Equal(t, image.Pt(10, 420), lines[3].Origin)
		assert.Equal(t, image.Pt(10, 440), lines[4].Origin)
	})
}

func TestHoldBar(t *testing.T) {
	hold := 350 * time.Millisecond
	assert.Equal(t, "--------------------", holdBar(0, hold))
	assert.Equal(t, "##########----------", holdBar(175*time.Millisecond, hold))
	assert.Equal(t, "####################", holdBar(time.Second, hold))
}

func TestAnnotator_RingPosition(t *testing.T) {
	a := testAnnotator()
	pad := a.Trackpad(size)
	require.Equal(t, image.Rect(107, 120, 533, 360), pad.Rect)

	assert.Equal(t, pad.Rect.Min, a.RingPosition(pad, image.Pt(0, 0)))
	assert.Equal(t, image.Pt(107+213, 120+120), a.RingPosition(pad, image.Pt(960, 540)))
}

type fakeDisplay struct {
	quit   bool
	shown  int
	closed bool
}

func (d *fakeDisplay) Display(frame *gocv.Mat) bool {
	d.shown++
	return !d.quit
}

func (d *fakeDisplay) Close() error {
	d.closed = true
	return nil
}

func TestPreview_Show(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping OpenCV test in short mode")
	}

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	keep, quit := &fakeDisplay{}, &fakeDisplay{quit: true}
	p := New(testAnnotator(), keep, quit)

	ring := overlay.Ring{Center: image.Pt(960, 540), Radius: 8, Visible: true}
	assert.False(t, p.Show(&frame, gesture.Snapshot{}, ring))
	assert.Equal(t, 1, keep.shown)
	assert.Equal(t, 1, quit.shown)

	// The trackpad outline is magenta while idle.
	px := frame.GetVecbAt(120, 300)
	assert.Equal(t, []uint8{255, 0, 255}, []uint8{px[0], px[1], px[2]})

	// The ring is green, centred on the mapped cursor.
	px = frame.GetVecbAt(240, 328)
	assert.Equal(t, []uint8{0, 255, 0}, []uint8{px[0], px[1], px[2]})

	require.NoError(t, p.Close())
	assert.True(t, keep.closed)
	assert.True(t, quit.closed)
}

func TestFrames(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping OpenCV test in short mode")
	}

	f := NewFrames()
	data, seq, ready := f.Latest()
	assert.Nil(t, data)
	assert.Zero(t, seq)

	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()

	assert.True(t, f.Display(&frame))

	select {
	case <-ready:
	default:
		t.Fatal("ready channel not closed after a new frame")
	}

	data, seq, _ = f.Latest()
	assert.EqualValues(t, 1, seq)
	require.Greater(t, len(data), 2)
	assert.Equal(t, []byte{0xFF, 0xD8}, data[:2])
}
