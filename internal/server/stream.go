package server

import (
	"fmt"
	"net/http"
)

// FrameSource provides the latest annotated preview frame as JPEG, its
// sequence number and a channel closed when a newer frame is available.
type FrameSource interface {
	Latest() (jpeg []byte, seq uint64, next <-chan struct{})
}

// StreamHandler serves MJPEG frames from a FrameSource.
type StreamHandler struct {
	frames FrameSource
	quit   <-chan struct{}
}

// NewStreamHandler creates a new StreamHandler. Streams end when quit is
// closed.
func NewStreamHandler(frames FrameSource, quit <-chan struct{}) *StreamHandler {
	return &StreamHandler{frames: frames, quit: quit}
}

// ServeHTTP streams MJPEG frames to connected clients, one part per new
// frame.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	var last uint64
	for {
		jpeg, seq, next := h.frames.Latest()
		if seq != last && len(jpeg) > 0 {
			last = seq

			fmt.Fprintf(w, "--frame\r\n")
			fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
			fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(jpeg))
			if _, err := w.Write(jpeg); err != nil {
				return
			}
			fmt.Fprintf(w, "\r\n")

			if flusher != nil {
				flusher.Flush()
			}
		}

		select {
		case <-r.Context().Done():
			return
		case <-h.quit:
			return
		case <-next:
		}
	}
}
