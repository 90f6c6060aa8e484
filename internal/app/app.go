// Package app wires camera, estimator, gesture controller, pointer backend
// and the optional surfaces (preview, overlay, recording, debug server)
// into one frame loop.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/handpointer/internal/capture"
	"github.com/ayusman/handpointer/internal/detector"
	"github.com/ayusman/handpointer/internal/gesture"
	"github.com/ayusman/handpointer/internal/overlay"
	"github.com/ayusman/handpointer/internal/pointer"
	"github.com/ayusman/handpointer/internal/store"
)

// DefaultTargetFPS is the frame rate the loop paces itself to.
const DefaultTargetFPS = gesture.NominalFPS

// ErrQuit is returned by the frame loop when the user asked to stop.
var ErrQuit = errors.New("quit requested")

// Preview displays each processed frame with its snapshot. Show returns
// false when the user asked to quit.
type Preview interface {
	Show(frame *gocv.Mat, snap gesture.Snapshot, ring overlay.Ring) bool
	Close() error
}

// Service is a long running component supervised next to the frame loop,
// such as the debug server. It must return when ctx is cancelled.
type Service func(ctx context.Context) error

// Config holds the collaborators and options of the application.
type Config struct {
	Camera   capture.Camera
	Detector detector.Detector
	Backend  pointer.Backend
	// Preview is optional.
	Preview Preview
	// Store is optional; frames are recorded only when Record is set.
	Store         *store.Store
	Record        bool
	RecordingName string

	Gesture   gesture.Config
	TargetFPS float64
	Overlay   bool

	Logger *zap.Logger
}

// App is the main application that turns camera frames into pointer control.
type App struct {
	config     Config
	logger     *zap.Logger
	controller *gesture.Controller
	mailbox    *overlay.Mailbox
	animator   *overlay.Animator
	ring       *overlay.RingState

	enabled   bool
	listeners []func(gesture.Snapshot)
	services  []namedService
	mu        sync.RWMutex

	recordingID  string
	recordingSeq int
	recordingOff bool
}

type namedService struct {
	name string
	run  Service
}

// New creates an App. Gesture thresholds are rescaled when TargetFPS
// differs from gesture.NominalFPS. Control starts enabled.
func New(config Config) *App {
	if config.TargetFPS <= 0 {
		config.TargetFPS = DefaultTargetFPS
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	a := &App{
		config:  config,
		logger:  config.Logger.Named("app"),
		ring:    &overlay.RingState{},
		enabled: true,
	}

	var feedback gesture.Feedback
	if config.Overlay {
		a.mailbox = overlay.NewMailbox()
		a.animator = overlay.NewAnimator(a.mailbox, a.ring, overlay.DefaultAnimatorConfig(), config.Logger)
		feedback = a.mailbox
	}

	gcfg := config.Gesture.ForFrameRate(config.TargetFPS)
	a.controller = gesture.NewController(gcfg, config.Backend, feedback, config.Logger)

	return a
}

// SetEnabled enables or disables pointer control. While disabled every
// frame is processed as if no hand were visible, so the next frame closes
// all open sessions.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.enabled != enabled {
		a.logger.Info("Pointer control toggled", zap.Bool("enabled", enabled))
	}
	a.enabled = enabled
}

// IsEnabled returns whether pointer control is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// OnSnapshot registers fn to receive every frame's snapshot. fn runs on the
// frame loop and must not block.
func (a *App) OnSnapshot(fn func(gesture.Snapshot)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// AddService registers a component that Run supervises.
func (a *App) AddService(name string, run Service) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.services = append(a.services, namedService{name: name, run: run})
}

// Snapshot returns the state after the most recent frame.
func (a *App) Snapshot() gesture.Snapshot {
	return a.controller.Latest()
}

// Ring returns the feedback ring currently on screen.
func (a *App) Ring() overlay.Ring {
	return a.ring.Current()
}

// OverlayStats returns ring request counters, or zero when the overlay is off.
func (a *App) OverlayStats() overlay.MailboxStats {
	if a.mailbox == nil {
		return overlay.MailboxStats{}
	}
	return a.mailbox.Stats()
}

// RecordingID returns the recording being written, if any.
func (a *App) RecordingID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.recordingID
}

// Store returns the configured store, or nil.
func (a *App) Store() *store.Store {
	return a.config.Store
}

// Process runs one frame of detections through the controller. It is the
// whole per-frame core and is called by the frame loop; tests and replay
// call it directly.
func (a *App) Process(hands []detector.HandLandmarks, size gesture.FrameSize, now time.Time) gesture.Snapshot {
	a.record(hands, size, now)

	if !a.IsEnabled() {
		hands = nil
	}
	snap := a.controller.Step(hands, size, now)

	a.mu.RLock()
	listeners := a.listeners
	a.mu.RUnlock()
	for _, fn := range listeners {
		fn(snap)
	}

	return snap
}

// record appends the raw detections to the current recording. A storage
// failure disables recording for the rest of the run.
func (a *App) record(hands []detector.HandLandmarks, size gesture.FrameSize, now time.Time) {
	if !a.config.Record || a.config.Store == nil || a.recordingOff {
		return
	}

	repo := a.config.Store.Recordings()

	if a.recordingID == "" {
		rec := &store.Recording{
			Name:        a.config.RecordingName,
			FrameWidth:  size.Width,
			FrameHeight: size.Height,
			TargetFPS:   a.config.TargetFPS,
		}
		if err := repo.Create(rec); err != nil {
			a.logger.Error("Recording disabled", zap.Error(err))
			a.recordingOff = true
			return
		}
		a.mu.Lock()
		a.recordingID = rec.ID
		a.mu.Unlock()
		a.logger.Info("Recording started", zap.String("recording", rec.ID))
	}

	err := repo.AppendFrame(a.recordingID, store.RecordedFrame{
		Sequence:  a.recordingSeq,
		Timestamp: now,
		Width:     size.Width,
		Height:    size.Height,
		Hands:     hands,
	})
	if err != nil {
		a.logger.Error("Recording disabled", zap.String("recording", a.recordingID), zap.Error(err))
		a.recordingOff = true
		return
	}
	a.recordingSeq++
}
