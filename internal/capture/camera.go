// Package capture provides camera capture functionality using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// Default camera settings
const (
	DefaultWidth  = 640
	DefaultHeight = 480
	DefaultFPS    = 60
)

// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
var ErrCameraNotOpen = errors.New("camera is not open")

// ErrEmptyFrame is returned when the device delivers no pixels.
var ErrEmptyFrame = errors.New("captured frame is empty")

// Config selects and sizes the capture device.
type Config struct {
	DeviceID int
	Width    int
	Height   int
	FPS      float64
	// Mirror flips frames horizontally so the preview behaves like a mirror
	// and handedness labels come out swapped.
	Mirror bool
}

// DefaultConfig returns a mirrored 640x480 camera 0 at 60 fps.
func DefaultConfig() Config {
	return Config{
		Width:  DefaultWidth,
		Height: DefaultHeight,
		FPS:    DefaultFPS,
		Mirror: true,
	}
}

// Camera defines the interface for camera capture implementations.
type Camera interface {
	Open() error
	Close() error
	// ReadFrame returns the next frame. The caller closes the Mat.
	ReadFrame() (*gocv.Mat, error)
	IsOpen() bool
}

// cameraImpl manages video capture from a camera device using GoCV.
type cameraImpl struct {
	cfg     Config
	logger  *zap.Logger
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
}

// NewCamera creates a camera for cfg. Nothing is opened until Open.
func NewCamera(cfg Config, logger *zap.Logger) Camera {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cameraImpl{
		cfg:    cfg,
		logger: logger.Named("camera"),
	}
}

// Open opens the device and requests the configured size and rate.
// Devices may deliver a different size; frames are used as delivered.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.cfg.DeviceID)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", c.cfg.DeviceID, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("open camera %d: %w", c.cfg.DeviceID, ErrCameraNotOpen)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(c.cfg.Width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(c.cfg.Height))
	if c.cfg.FPS > 0 {
		capture.Set(gocv.VideoCaptureFPS, c.cfg.FPS)
	}

	c.capture = capture
	c.running = true

	c.logger.Info("Camera opened",
		zap.Int("device", c.cfg.DeviceID),
		zap.Float64("width", capture.Get(gocv.VideoCaptureFrameWidth)),
		zap.Float64("height", capture.Get(gocv.VideoCaptureFrameHeight)),
		zap.Bool("mirror", c.cfg.Mirror))

	return nil
}

// Close closes the camera and releases resources.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame, mirrored when configured.
func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, errors.New("failed to read frame from camera")
	}

	if mat.Empty() {
		mat.Close()
		return nil, ErrEmptyFrame
	}

	if c.cfg.Mirror {
		gocv.Flip(mat, &mat, 1)
	}

	return &mat, nil
}

// IsOpen returns true if the camera is currently open and running.
func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}
