package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
	"gocv.io/x/gocv"

	"github.com/ayusman/handpointer/internal/capture"
	"github.com/ayusman/handpointer/internal/detector"
	"github.com/ayusman/handpointer/internal/gesture"
	"github.com/ayusman/handpointer/internal/overlay"
	"github.com/ayusman/handpointer/internal/pointer"
	"github.com/ayusman/handpointer/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testSize = gesture.FrameSize{Width: 640, Height: 480}

var center = detector.Point3D{X: 0.5, Y: 0.5}

func open() detector.HandLandmarks {
	return detector.PoseLandmarks(detector.LabelRight, center, 1.0, 1.0)
}

func leftPinch() detector.HandLandmarks {
	return detector.PoseLandmarks(detector.LabelRight, center, 0.1, 1.0)
}

// clock hands out timestamps one nominal frame apart.
type clock struct{ now time.Time }

func newClock() *clock {
	return &clock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) tick() time.Time {
	c.now = c.now.Add(time.Second / gesture.NominalFPS)
	return c.now
}

func feed(a *App, c *clock, n int, hands ...detector.HandLandmarks) gesture.Snapshot {
	var snap gesture.Snapshot
	for i := 0; i < n; i++ {
		snap = a.Process(hands, testSize, c.tick())
	}
	return snap
}

func newTestApp(t *testing.T, cfg Config) (*App, *pointer.Recorder) {
	t.Helper()
	rec := pointer.NewRecorder(1920, 1080)
	cfg.Backend = rec
	cfg.Gesture = gesture.DefaultConfig()
	cfg.Logger = zaptest.NewLogger(t)
	if cfg.Detector == nil {
		cfg.Detector = detector.NewMockDetector()
	}
	return New(cfg), rec
}

func TestApp_ProcessClicks(t *testing.T) {
	a, rec := newTestApp(t, Config{Overlay: true})
	c := newClock()

	feed(a, c, 3, open())
	feed(a, c, 4, leftPinch())
	snap := feed(a, c, 3, open())

	assert.Equal(t, 1, rec.Clicks(pointer.ButtonLeft))
	assert.Equal(t, 0, rec.Count(pointer.ActionMouseDown))
	assert.Equal(t, "READY", snap.Status())
	assert.EqualValues(t, 1, a.OverlayStats().Triggers)
	assert.Equal(t, snap, a.Snapshot())
}

func TestApp_OverlayDisabled(t *testing.T) {
	a, rec := newTestApp(t, Config{})
	c := newClock()

	feed(a, c, 4, leftPinch())
	feed(a, c, 3, open())

	assert.Equal(t, 1, rec.Clicks(pointer.ButtonLeft))
	assert.Equal(t, overlay.MailboxStats{}, a.OverlayStats())
	assert.False(t, a.Ring().Visible)
}

func TestApp_DisableReleasesGrab(t *testing.T) {
	a, rec := newTestApp(t, Config{})
	c := newClock()

	snap := feed(a, c, 30, leftPinch())
	require.True(t, snap.Pointer.GrabActive)
	require.True(t, rec.Pressed())

	a.SetEnabled(false)
	assert.False(t, a.IsEnabled())

	snap = feed(a, c, 1, leftPinch())
	assert.False(t, snap.Pointer.GrabActive)
	assert.False(t, snap.Pointer.Present)
	assert.False(t, rec.Pressed())
	assert.Equal(t, 1, rec.Count(pointer.ActionMouseUp))

	// Disabled frames drive nothing.
	before := len(rec.Actions())
	feed(a, c, 10, open())
	assert.Len(t, rec.Actions(), before)

	a.SetEnabled(true)
	feed(a, c, 1, open())
	assert.Equal(t, pointer.ActionMoveTo, rec.Actions()[len(rec.Actions())-1].Kind)
}

func TestApp_OnSnapshot(t *testing.T) {
	a, _ := newTestApp(t, Config{})
	c := newClock()

	var frames []uint64
	a.OnSnapshot(func(s gesture.Snapshot) {
		frames = append(frames, s.Frame)
	})

	feed(a, c, 3, open())
	feed(a, c, 2)

	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, frames)
}

func TestApp_FrameRateScaling(t *testing.T) {
	a, rec := newTestApp(t, Config{TargetFPS: 30})
	c := newClock()

	// At 30 fps one pinch frame opens the episode and two open frames end it.
	feed(a, c, 1, leftPinch())
	feed(a, c, 1, open())
	assert.Equal(t, 0, rec.Clicks(pointer.ButtonLeft))

	feed(a, c, 1, leftPinch())
	feed(a, c, 2, open())
	assert.Equal(t, 1, rec.Clicks(pointer.ButtonLeft))
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestApp_RecordingReplaysIdentically(t *testing.T) {
	s := openStore(t)
	a, live := newTestApp(t, Config{Store: s, Record: true, RecordingName: "session"})
	c := newClock()

	feed(a, c, 3, open())
	feed(a, c, 4, leftPinch())
	feed(a, c, 3, open())
	feed(a, c, 2)
	feed(a, c, 30, leftPinch())
	feed(a, c, 4, open(), detector.TwoFingerLandmarks(detector.LabelLeft, 0.5, true, true))
	feed(a, c, 1, open(), detector.TwoFingerLandmarks(detector.LabelLeft, 0.7, true, true))
	a.controller.Release()

	id := a.RecordingID()
	require.NotEmpty(t, id)

	rec, err := s.Recordings().Get(id)
	require.NoError(t, err)
	assert.Equal(t, "session", rec.Name)
	assert.Equal(t, 47, rec.Frames)
	assert.Equal(t, 640, rec.FrameWidth)

	frames, err := s.Recordings().Frames(id)
	require.NoError(t, err)
	require.Len(t, frames, 47)
	assert.Empty(t, frames[10].Hands)

	replayed := pointer.NewRecorder(1920, 1080)
	result := Replay(frames, gesture.DefaultConfig(), replayed, zaptest.NewLogger(t))

	assert.Equal(t, 47, result.Frames)
	assert.Equal(t, live.Actions(), result.Actions)
	assert.Equal(t, 1, result.Summary[pointer.ActionClick])
	assert.Equal(t, 1, result.Summary[pointer.ActionMouseDown])
	assert.Equal(t, 1, result.Summary[pointer.ActionMouseUp])
	assert.Len(t, replayed.Scrolls(), 1)
}

func TestApp_RecordingKeepsRawHandsWhileDisabled(t *testing.T) {
	s := openStore(t)
	a, rec := newTestApp(t, Config{Store: s, Record: true})
	a.SetEnabled(false)

	feed(a, newClock(), 2, open())
	assert.Empty(t, rec.Actions())

	frames, err := s.Recordings().Frames(a.RecordingID())
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Len(t, frames[0].Hands, 1)
}

func TestApp_RecordingFailureDisablesRecording(t *testing.T) {
	s := openStore(t)
	a, rec := newTestApp(t, Config{Store: s, Record: true})
	require.NoError(t, s.Close())

	feed(a, newClock(), 3, open())

	assert.Empty(t, a.RecordingID())
	assert.Equal(t, 3, rec.Count(pointer.ActionMoveTo))
}

// fakePreview quits after a fixed number of frames.
type fakePreview struct {
	quitAfter int
	shown     atomic.Int32
	closed    atomic.Bool

	mu    sync.Mutex
	snaps []gesture.Snapshot
}

func (p *fakePreview) Show(frame *gocv.Mat, snap gesture.Snapshot, ring overlay.Ring) bool {
	p.mu.Lock()
	p.snaps = append(p.snaps, snap)
	p.mu.Unlock()
	return int(p.shown.Add(1)) < p.quitAfter
}

func (p *fakePreview) Close() error {
	p.closed.Store(true)
	return nil
}

func blankFrame(t *testing.T) *gocv.Mat {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping frame loop test in short mode")
	}
	m := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { m.Close() })
	return &m
}

func TestApp_RunStopsWhenCameraIsExhausted(t *testing.T) {
	frame := blankFrame(t)
	cam := capture.NewMockCamera([]*gocv.Mat{frame, frame, frame}, false)
	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{open()})

	a, rec := newTestApp(t, Config{Camera: cam, Detector: det, TargetFPS: 200, Overlay: true})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, a.Run(ctx))
	assert.Equal(t, 3, det.Calls())
	assert.Equal(t, 3, rec.Count(pointer.ActionMoveTo))
	assert.Equal(t, testSize, a.Snapshot().Size)
}

func TestApp_RunFailsWhenDetectorUnavailable(t *testing.T) {
	cam := capture.NewMockCamera([]*gocv.Mat{blankFrame(t)}, true)
	det := detector.NewMockDetector()
	det.SetError(fmt.Errorf("%w: broken pipe", detector.ErrUnavailable))

	a, _ := newTestApp(t, Config{Camera: cam, Detector: det, TargetFPS: 200})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := a.Run(ctx)
	require.ErrorIs(t, err, detector.ErrUnavailable)
	assert.Equal(t, 1, det.Calls())
}

func TestApp_RunTreatsDetectErrorsAsNoHands(t *testing.T) {
	frame := blankFrame(t)
	cam := capture.NewMockCamera([]*gocv.Mat{frame, frame}, false)
	det := detector.NewMockDetector()
	det.SetError(errors.New("malformed response"))

	a, rec := newTestApp(t, Config{Camera: cam, Detector: det, TargetFPS: 200})

	require.NoError(t, a.Run(context.Background()))
	assert.Equal(t, 2, det.Calls())
	assert.Empty(t, rec.Actions())
	assert.Equal(t, uint64(2), a.Snapshot().Frame)
}

func TestApp_RunReleasesGrabOnQuit(t *testing.T) {
	cam := capture.NewMockCamera([]*gocv.Mat{blankFrame(t)}, true)
	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{leftPinch()})
	preview := &fakePreview{quitAfter: 40}

	a, rec := newTestApp(t, Config{Camera: cam, Detector: det, Preview: preview})

	var serviceStopped atomic.Bool
	a.AddService("idle", func(ctx context.Context) error {
		<-ctx.Done()
		serviceStopped.Store(true)
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, a.Run(ctx))

	assert.True(t, preview.closed.Load())
	assert.True(t, serviceStopped.Load())
	assert.EqualValues(t, 40, preview.shown.Load())

	// 40 frames at 60 fps is well past the grab hold.
	assert.Equal(t, 1, rec.Count(pointer.ActionMouseDown))
	assert.Equal(t, 1, rec.Count(pointer.ActionMouseUp))
	assert.False(t, rec.Pressed())
	assert.False(t, a.Snapshot().Pointer.GrabActive)
}

func TestApp_RunCancelled(t *testing.T) {
	cam := capture.NewMockCamera([]*gocv.Mat{blankFrame(t)}, true)
	a, _ := newTestApp(t, Config{Camera: cam, Overlay: true})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestApp_ServiceErrorStopsRun(t *testing.T) {
	cam := capture.NewMockCamera([]*gocv.Mat{blankFrame(t)}, true)
	a, _ := newTestApp(t, Config{Camera: cam})

	boom := errors.New("listen: address in use")
	a.AddService("server", func(ctx context.Context) error { return boom })

	err := a.Run(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "server")
}
