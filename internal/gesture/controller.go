package gesture

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/handpointer/internal/detector"
	"github.com/ayusman/handpointer/internal/pointer"
)

// Snapshot is the full controller state after a frame. It feeds the
// preview overlay, the status API and the tray.
type Snapshot struct {
	Frame   uint64          `json:"frame"`
	Time    time.Time       `json:"time"`
	Size    FrameSize       `json:"size"`
	Hands   int             `json:"hands"`
	Pointer PointerSnapshot `json:"pointer"`
	Scroll  ScrollSnapshot  `json:"scroll"`
}

// Status summarizes the active gestures in one line, or READY when idle.
func (s Snapshot) Status() string {
	var parts []string
	if s.Scroll.Active {
		parts = append(parts, "SCROLLING")
	}
	switch {
	case s.Pointer.GrabActive:
		parts = append(parts, "GRABBING")
	case s.Pointer.Pinching:
		parts = append(parts, "PINCH")
	}
	if s.Pointer.RightActive {
		parts = append(parts, "RIGHT-CLICK")
	}
	if len(parts) == 0 {
		return "READY"
	}
	return strings.Join(parts, " | ")
}

// Controller advances both hand roles once per frame.
// Step must be called from a single goroutine; Latest is safe to call
// concurrently.
type Controller struct {
	pointer *PointerInterpreter
	scroll  *ScrollInterpreter
	logger  *zap.Logger

	frames uint64

	mu     sync.RWMutex
	latest Snapshot
}

// NewController creates a controller driving backend.
func NewController(cfg Config, backend pointer.Backend, feedback Feedback, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("gesture")
	return &Controller{
		pointer: NewPointerInterpreter(cfg.Pointer, backend, feedback, logger),
		scroll:  NewScrollInterpreter(cfg.Scroll, backend, logger),
		logger:  logger,
	}
}

// Step consumes one frame of detections. Roles whose hand is absent are
// reset, which releases a held button and closes a scroll session.
func (c *Controller) Step(hands []detector.HandLandmarks, frame FrameSize, now time.Time) Snapshot {
	pointerHand, scrollHand := AssignRoles(hands)

	if pointerHand != nil {
		c.pointer.Step(pointerHand, frame, now)
	} else {
		c.pointer.Reset()
	}

	if scrollHand != nil {
		c.scroll.Step(scrollHand, frame)
	} else {
		c.scroll.Reset()
	}

	c.frames++
	snap := Snapshot{
		Frame:   c.frames,
		Time:    now,
		Size:    frame,
		Hands:   len(hands),
		Pointer: c.pointer.Snapshot(),
		Scroll:  c.scroll.Snapshot(),
	}

	c.mu.Lock()
	c.latest = snap
	c.mu.Unlock()

	return snap
}

// Release closes every open session as if both hands disappeared. It is
// used when control is paused and on shutdown so no button stays held.
func (c *Controller) Release() {
	c.pointer.Reset()
	c.scroll.Reset()

	c.mu.Lock()
	c.latest.Pointer = c.pointer.Snapshot()
	c.latest.Scroll = c.scroll.Snapshot()
	c.mu.Unlock()
}

// Latest returns the snapshot of the most recent frame.
func (c *Controller) Latest() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest
}
