// Package detector provides hand detection interfaces, landmark types and the
// geometry helpers used to interpret them.
package detector

import (
	"image"
	"math"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Handedness labels as reported by the estimator. The camera view is
// mirrored, so "Right" is the user's anatomical left hand.
const (
	LabelLeft  = "Left"
	LabelRight = "Right"
)

// RatioEpsilon is the smallest denominator Ratio will divide by.
const RatioEpsilon = 1e-6

// Point3D represents a landmark in normalized image coordinates: x and y in
// [0,1] relative to the frame, z relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Pixel returns the point's position in a frame of the given size.
// Coordinates are truncated, not rounded.
func (p Point3D) Pixel(width, height int) image.Point {
	return image.Point{
		X: int(p.X * float64(width)),
		Y: int(p.Y * float64(height)),
	}
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Dist3 returns the Euclidean distance between two landmarks.
func Dist3(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Clamp limits v to the range [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Ratio divides num by den, substituting RatioEpsilon for denominators below
// it. A zero-length reference segment is a tracking artifact, not an error.
func Ratio(num, den float64) float64 {
	return num / math.Max(den, RatioEpsilon)
}
