package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu       sync.Mutex
	hands    []HandLandmarks
	sequence [][]HandLandmarks
	err      error
	calls    int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by every Detect call.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetSequence scripts one result per Detect call. Once the sequence is
// exhausted Detect falls back to the hands set with SetHands.
func (m *MockDetector) SetSequence(frames [][]HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence = frames
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the next scripted frame, the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.sequence) > 0 {
		next := m.sequence[0]
		m.sequence = m.sequence[1:]
		return next, nil
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// PoseLandmarks builds a hand whose index fingertip sits at tip and whose
// pinch ratios are exactly left (index-thumb over index length) and right
// (middle-thumb over middle length). Both reference segments are 0.2 long.
func PoseLandmarks(label string, tip Point3D, left, right float64) HandLandmarks {
	const segment = 0.2

	lm := OpenPalmLandmarks()
	lm.Handedness = label

	thumb := Point3D{X: tip.X + left*segment, Y: tip.Y, Z: tip.Z}
	middle := Point3D{X: thumb.X, Y: thumb.Y, Z: thumb.Z + right*segment}

	lm.Points[IndexTip] = tip
	lm.Points[IndexMCP] = Point3D{X: tip.X, Y: tip.Y + segment, Z: tip.Z}
	lm.Points[ThumbTip] = thumb
	lm.Points[MiddleTip] = middle
	lm.Points[MiddleMCP] = Point3D{X: middle.X, Y: middle.Y + segment, Z: middle.Z}

	return lm
}

// TwoFingerLandmarks builds a hand with index and middle fingertips at row
// y (normalized). extended controls whether both fingers reach past the
// extension threshold; together controls whether the tips touch.
func TwoFingerLandmarks(label string, y float64, extended, together bool) HandLandmarks {
	lm := OpenPalmLandmarks()
	lm.Handedness = label

	length := 0.2
	if !extended {
		length = 0.05
	}
	gap := 0.05
	if !together {
		gap = 0.3
	}

	lm.Points[IndexTip] = Point3D{X: 0.4, Y: y}
	lm.Points[IndexMCP] = Point3D{X: 0.4, Y: y + length}
	lm.Points[MiddleTip] = Point3D{X: 0.4 + gap, Y: y}
	lm.Points[MiddleMCP] = Point3D{X: 0.4 + gap, Y: y + length}

	return lm
}

// OpenPalmLandmarks returns a preset HandLandmarks representing an open palm.
// All fingers are extended outward and index and middle tips are close, so
// it reads as released for both pinches and as a scroll pose.
func OpenPalmLandmarks() HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: LabelRight,
		Score:      0.95,
	}

	landmarks.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	landmarks.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.02}
	landmarks.Points[ThumbMCP] = Point3D{X: 0.62, Y: 0.70, Z: 0.03}
	landmarks.Points[ThumbIP] = Point3D{X: 0.68, Y: 0.65, Z: 0.03}
	landmarks.Points[ThumbTip] = Point3D{X: 0.73, Y: 0.60, Z: 0.03}

	landmarks.Points[IndexMCP] = Point3D{X: 0.55, Y: 0.68, Z: 0.0}
	landmarks.Points[IndexPIP] = Point3D{X: 0.57, Y: 0.55, Z: 0.0}
	landmarks.Points[IndexDIP] = Point3D{X: 0.58, Y: 0.45, Z: 0.0}
	landmarks.Points[IndexTip] = Point3D{X: 0.58, Y: 0.35, Z: 0.0}

	landmarks.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.66, Z: 0.0}
	landmarks.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.52, Z: 0.0}
	landmarks.Points[MiddleDIP] = Point3D{X: 0.50, Y: 0.40, Z: 0.0}
	landmarks.Points[MiddleTip] = Point3D{X: 0.50, Y: 0.28, Z: 0.0}

	landmarks.Points[RingMCP] = Point3D{X: 0.45, Y: 0.68, Z: 0.0}
	landmarks.Points[RingPIP] = Point3D{X: 0.43, Y: 0.55, Z: 0.0}
	landmarks.Points[RingDIP] = Point3D{X: 0.42, Y: 0.45, Z: 0.0}
	landmarks.Points[RingTip] = Point3D{X: 0.42, Y: 0.35, Z: 0.0}

	landmarks.Points[PinkyMCP] = Point3D{X: 0.40, Y: 0.70, Z: 0.0}
	landmarks.Points[PinkyPIP] = Point3D{X: 0.37, Y: 0.60, Z: 0.0}
	landmarks.Points[PinkyDIP] = Point3D{X: 0.35, Y: 0.50, Z: 0.0}
	landmarks.Points[PinkyTip] = Point3D{X: 0.34, Y: 0.42, Z: 0.0}

	return landmarks
}
