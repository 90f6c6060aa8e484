// Package gesture interprets per-frame hand landmarks as pointer control:
// cursor motion, click, drag, right-click and scroll.
//
// Each hand role owns one state machine with a single Step operation.
// Controller ties them together, assigns roles and applies the reset
// policy that closes every session whose hand disappeared.
package gesture

import (
	"math"
	"time"
)

// NominalFPS is the frame rate the frame-count thresholds were tuned at.
const NominalFPS = 60

// FrameSize is the size in pixels of the camera frame landmarks refer to.
type FrameSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// PointerConfig holds the pointer hand tuning constants.
type PointerConfig struct {
	// TrackpadScale is the mapping rectangle height as a fraction of the frame height.
	TrackpadScale float64
	// TrackpadBuffer widens the clamp range around the rectangle, in rectangle units.
	TrackpadBuffer float64
	// Smoothing is the per-frame exponential interpolation factor.
	Smoothing float64
	// PixelDeadzone suppresses target changes smaller than this many screen pixels.
	PixelDeadzone float64
	// DragGain scales fingertip displacement while dragging.
	DragGain float64

	LeftClose  float64
	LeftOpen   float64
	RightClose float64
	RightOpen  float64

	// GrabHold is how long a left pinch must be held before it becomes a drag.
	// A hold of exactly GrabHold drags.
	GrabHold time.Duration

	PinchFrames   int
	ReleaseFrames int
}

// ScrollConfig holds the scroll hand tuning constants.
type ScrollConfig struct {
	// ExtendedThreshold is the fingertip-to-knuckle distance above which a
	// finger counts as extended (normalized units).
	ExtendedThreshold float64
	// TogetherMax is the fingertip gap below which index and middle count as together.
	TogetherMax float64
	// Threshold is the row movement in pixels that triggers a scroll step.
	Threshold int
	// Speed is the scroll amount per Threshold pixels of movement.
	Speed float64
	// Direction maps downward hand motion to scroll sign. -1 makes a hand
	// moving down produce negative amounts.
	Direction float64
}

// Config groups the tuning of both roles.
type Config struct {
	Pointer PointerConfig
	Scroll  ScrollConfig
}

// DefaultPointerConfig returns the pointer tuning.
func DefaultPointerConfig() PointerConfig {
	return PointerConfig{
		TrackpadScale:  0.5,
		TrackpadBuffer: 0.12,
		Smoothing:      0.18,
		PixelDeadzone:  2,
		DragGain:       1.2,
		LeftClose:      0.30,
		LeftOpen:       0.45,
		RightClose:     0.28,
		RightOpen:      0.43,
		GrabHold:       350 * time.Millisecond,
		PinchFrames:    2,
		ReleaseFrames:  3,
	}
}

// DefaultScrollConfig returns the scroll tuning.
func DefaultScrollConfig() ScrollConfig {
	return ScrollConfig{
		ExtendedThreshold: 0.075,
		TogetherMax:       0.20,
		Threshold:         10,
		Speed:             40,
		Direction:         -1,
	}
}

// DefaultConfig returns the tuning for both roles at NominalFPS.
func DefaultConfig() Config {
	return Config{
		Pointer: DefaultPointerConfig(),
		Scroll:  DefaultScrollConfig(),
	}
}

// ForFrameRate returns a copy whose frame-count thresholds keep the same
// time budget at fps as the defaults have at NominalFPS.
func (c Config) ForFrameRate(fps float64) Config {
	c.Pointer.PinchFrames = ScaleFrames(c.Pointer.PinchFrames, fps)
	c.Pointer.ReleaseFrames = ScaleFrames(c.Pointer.ReleaseFrames, fps)
	return c
}

// ScaleFrames converts a frame count tuned at NominalFPS to the count with
// the same duration at fps. The result is never below one frame.
func ScaleFrames(frames int, fps float64) int {
	if fps <= 0 {
		return frames
	}
	scaled := int(math.Round(float64(frames) * fps / NominalFPS))
	if scaled < 1 {
		return 1
	}
	return scaled
}
