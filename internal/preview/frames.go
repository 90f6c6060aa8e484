package preview

import (
	"sync"

	"gocv.io/x/gocv"
)

// Frames keeps the latest annotated frame JPEG-encoded for streaming.
type Frames struct {
	mu    sync.RWMutex
	jpeg  []byte
	seq   uint64
	ready chan struct{}
}

// NewFrames creates an empty frame buffer.
func NewFrames() *Frames {
	return &Frames{ready: make(chan struct{})}
}

// Display encodes and stores frame. It never asks to quit.
func (f *Frames) Display(frame *gocv.Mat) bool {
	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return true
	}
	defer buf.Close()

	data := append([]byte(nil), buf.GetBytes()...)

	f.mu.Lock()
	f.jpeg = data
	f.seq++
	ready := f.ready
	f.ready = make(chan struct{})
	f.mu.Unlock()

	close(ready)
	return true
}

// Latest returns the most recent JPEG, its sequence number and a channel
// closed when a newer frame arrives. seq is zero before the first frame.
func (f *Frames) Latest() ([]byte, uint64, <-chan struct{}) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.jpeg, f.seq, f.ready
}

// Close is a no-op; streams end with their requests.
func (f *Frames) Close() error {
	return nil
}
