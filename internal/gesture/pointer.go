package gesture

import (
	"image"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/handpointer/internal/detector"
	"github.com/ayusman/handpointer/internal/pointer"
)

// Feedback receives a request to show the click ring at a screen position.
// Implementations must not block.
type Feedback interface {
	Trigger(pos image.Point)
}

// FeedbackFunc adapts a function to Feedback.
type FeedbackFunc func(pos image.Point)

// Trigger calls f(pos).
func (f FeedbackFunc) Trigger(pos image.Point) { f(pos) }

type noFeedback struct{}

func (noFeedback) Trigger(image.Point) {}

// PointerSnapshot is the observable state of the pointer role after a frame.
type PointerSnapshot struct {
	Present            bool            `json:"present"`
	Fingertip          image.Point     `json:"fingertip"`
	Cursor             image.Point     `json:"cursor"`
	Trackpad           image.Rectangle `json:"trackpad"`
	LeftRatio          float64         `json:"left_ratio"`
	RightRatio         float64         `json:"right_ratio"`
	LeftPinchFrames    int             `json:"left_pinch_frames"`
	LeftReleaseFrames  int             `json:"left_release_frames"`
	RightPinchFrames   int             `json:"right_pinch_frames"`
	RightReleaseFrames int             `json:"right_release_frames"`
	Pinching           bool            `json:"pinching"`
	EpisodeOpen        bool            `json:"episode_open"`
	Held               time.Duration   `json:"held"`
	GrabActive         bool            `json:"grab_active"`
	RightActive        bool            `json:"right_active"`
}

// PointerInterpreter turns the pointer hand into cursor motion, left click,
// drag and right click.
type PointerInterpreter struct {
	cfg      PointerConfig
	backend  pointer.Backend
	feedback Feedback
	logger   *zap.Logger

	filter smoother

	grabActive    bool
	grabRef       image.Point
	episodeOpen   bool
	episodeStart  time.Time
	clickConsumed bool
	rightActive   bool
	left          stability
	right         stability

	present    bool
	fingertip  image.Point
	trackpad   image.Rectangle
	leftRatio  float64
	rightRatio float64
	now        time.Time
}

// NewPointerInterpreter creates an interpreter driving backend. A nil
// feedback disables the click ring.
func NewPointerInterpreter(cfg PointerConfig, backend pointer.Backend, feedback Feedback, logger *zap.Logger) *PointerInterpreter {
	if feedback == nil {
		feedback = noFeedback{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PointerInterpreter{
		cfg:      cfg,
		backend:  backend,
		feedback: feedback,
		logger:   logger.Named("pointer"),
	}
}

// Step consumes one frame in which the pointer hand is present.
// Cursor motion is applied before the pinch machines so a drag always
// starts from the fingertip position of the promoting frame.
func (p *PointerInterpreter) Step(hand *detector.HandLandmarks, frame FrameSize, now time.Time) {
	p.present = true
	p.now = now

	tip := hand.Points[detector.IndexTip].Pixel(frame.Width, frame.Height)
	p.fingertip = tip

	if p.grabActive {
		p.drag(tip)
	} else {
		p.track(tip, frame)
	}

	p.stepLeft(hand, tip, now)
	p.stepRight(hand)
}

func (p *PointerInterpreter) track(tip image.Point, frame FrameSize) {
	screenW, screenH := p.backend.ScreenSize()
	pad := NewTrackpad(frame, screenW, screenH, p.cfg.TrackpadScale, p.cfg.TrackpadBuffer)
	p.trackpad = pad.Rect

	tx, ty := pad.Map(tip)
	x, y := p.filter.step(tx, ty, p.cfg.Smoothing, p.cfg.PixelDeadzone)

	p.check("move_to", p.backend.MoveTo(int(x), int(y)))
}

func (p *PointerInterpreter) drag(tip image.Point) {
	dx := float64(tip.X-p.grabRef.X) * p.cfg.DragGain
	dy := float64(tip.Y-p.grabRef.Y) * p.cfg.DragGain
	p.check("move_rel", p.backend.MoveRel(int(dx), int(dy)))
	p.grabRef = tip
}

func (p *PointerInterpreter) stepLeft(hand *detector.HandLandmarks, tip image.Point, now time.Time) {
	pts := &hand.Points
	p.leftRatio = detector.Ratio(
		detector.Dist3(pts[detector.IndexTip], pts[detector.ThumbTip]),
		detector.Dist3(pts[detector.IndexTip], pts[detector.IndexMCP]),
	)
	p.left.observe(p.leftRatio, p.cfg.LeftClose, p.cfg.LeftOpen)

	if p.left.pinch >= p.cfg.PinchFrames && !p.episodeOpen {
		p.episodeOpen = true
		p.episodeStart = now
		p.logger.Debug("Pinch detected")
	}

	if p.episodeOpen && !p.grabActive &&
		p.left.pinch >= p.cfg.PinchFrames && now.Sub(p.episodeStart) >= p.cfg.GrabHold {
		p.check("mouse_down", p.backend.MouseDown())
		p.grabActive = true
		p.grabRef = tip
		p.logger.Info("Grab started", zap.Duration("held", now.Sub(p.episodeStart)))
	}

	if p.left.release >= p.cfg.ReleaseFrames {
		switch {
		case p.grabActive:
			p.check("mouse_up", p.backend.MouseUp())
			p.grabActive = false
			p.left.release = 0
			p.logger.Info("Grab released")
		case p.episodeOpen && !p.clickConsumed:
			p.check("click", p.backend.Click(pointer.ButtonLeft))
			p.feedback.Trigger(p.backend.Position())
			p.clickConsumed = true
			p.left.release = 0
			p.logger.Info("Left click")
		}
		p.episodeOpen = false
		p.episodeStart = time.Time{}
		p.clickConsumed = false
	}
}

func (p *PointerInterpreter) stepRight(hand *detector.HandLandmarks) {
	pts := &hand.Points
	p.rightRatio = detector.Ratio(
		detector.Dist3(pts[detector.MiddleTip], pts[detector.ThumbTip]),
		detector.Dist3(pts[detector.MiddleTip], pts[detector.MiddleMCP]),
	)
	p.right.observe(p.rightRatio, p.cfg.RightClose, p.cfg.RightOpen)

	if p.right.pinch >= p.cfg.PinchFrames && !p.rightActive {
		p.check("click", p.backend.Click(pointer.ButtonRight))
		p.feedback.Trigger(p.backend.Position())
		p.rightActive = true
		p.logger.Info("Right click")
	}

	if p.right.release >= p.cfg.ReleaseFrames && p.rightActive {
		p.rightActive = false
		p.right.release = 0
	}
}

// Reset closes every pointer session after the hand disappeared. A held
// button is released. Only the cursor filter survives, so a returning hand
// does not make the cursor jump. Calling Reset repeatedly has no further
// effect.
func (p *PointerInterpreter) Reset() {
	if p.grabActive {
		p.check("mouse_up", p.backend.MouseUp())
		p.logger.Info("Grab released (tracking lost)")
	}

	p.present = false
	p.grabActive = false
	p.grabRef = image.Point{}
	p.episodeOpen = false
	p.episodeStart = time.Time{}
	p.clickConsumed = false
	p.rightActive = false
	p.left.reset()
	p.right.reset()
}

// Snapshot returns the state after the last Step or Reset.
func (p *PointerInterpreter) Snapshot() PointerSnapshot {
	s := PointerSnapshot{
		Present:            p.present,
		Fingertip:          p.fingertip,
		Cursor:             image.Point{X: int(p.filter.x), Y: int(p.filter.y)},
		Trackpad:           p.trackpad,
		LeftRatio:          p.leftRatio,
		RightRatio:         p.rightRatio,
		LeftPinchFrames:    p.left.pinch,
		LeftReleaseFrames:  p.left.release,
		RightPinchFrames:   p.right.pinch,
		RightReleaseFrames: p.right.release,
		Pinching:           p.present && p.left.pinch >= p.cfg.PinchFrames,
		EpisodeOpen:        p.episodeOpen,
		GrabActive:         p.grabActive,
		RightActive:        p.rightActive,
	}
	if p.episodeOpen {
		s.Held = p.now.Sub(p.episodeStart)
	}
	return s
}

// check reports a backend failure. State keeps advancing so a transient
// OS error cannot wedge the machine.
func (p *PointerInterpreter) check(action string, err error) {
	if err != nil {
		p.logger.Warn("Pointer backend call failed", zap.String("action", action), zap.Error(err))
	}
}
