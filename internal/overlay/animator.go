package overlay

import (
	"context"
	"image"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Renderer draws the feedback ring. Calls come from the animator goroutine
// only.
type Renderer interface {
	ShowRing(center image.Point, radius int)
	HideRing()
}

// AnimatorConfig controls the ring animation.
type AnimatorConfig struct {
	Steps      int
	BaseRadius int
	Growth     int
	Interval   time.Duration
}

// DefaultAnimatorConfig returns a ten step ring growing from radius 5 by 3
// pixels every 10ms.
func DefaultAnimatorConfig() AnimatorConfig {
	return AnimatorConfig{
		Steps:      10,
		BaseRadius: 5,
		Growth:     3,
		Interval:   10 * time.Millisecond,
	}
}

// Animator consumes ring requests from a Mailbox and plays them on a
// Renderer, one at a time.
type Animator struct {
	mailbox  *Mailbox
	renderer Renderer
	cfg      AnimatorConfig
	logger   *zap.Logger
}

// NewAnimator creates an animator.
func NewAnimator(mailbox *Mailbox, renderer Renderer, cfg AnimatorConfig, logger *zap.Logger) *Animator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Animator{
		mailbox:  mailbox,
		renderer: renderer,
		cfg:      cfg,
		logger:   logger.Named("overlay"),
	}
}

// Run plays rings until ctx is cancelled or the mailbox is closed.
func (a *Animator) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, a.mailbox.Close)
	defer stop()

	a.logger.Debug("Animator started")
	defer a.logger.Debug("Animator stopped")

	for {
		pos, ok := a.mailbox.Wait()
		if !ok {
			return nil
		}
		a.play(ctx, pos)
		a.mailbox.discard()
	}
}

func (a *Animator) play(ctx context.Context, pos image.Point) {
	defer a.renderer.HideRing()

	timer := time.NewTimer(a.cfg.Interval)
	defer timer.Stop()

	for i := 0; i < a.cfg.Steps; i++ {
		a.renderer.ShowRing(pos, a.cfg.BaseRadius+a.cfg.Growth*i)

		timer.Reset(a.cfg.Interval)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}

// Ring is the ring currently on screen.
type Ring struct {
	Center  image.Point
	Radius  int
	Visible bool
}

// RingState is a Renderer that stores the current ring for a drawing
// surface to read on its own schedule.
type RingState struct {
	mu   sync.RWMutex
	ring Ring
}

// ShowRing records a visible ring.
func (r *RingState) ShowRing(center image.Point, radius int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ring = Ring{Center: center, Radius: radius, Visible: true}
}

// HideRing hides the ring.
func (r *RingState) HideRing() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ring.Visible = false
}

// Current returns the ring to draw.
func (r *RingState) Current() Ring {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ring
}
