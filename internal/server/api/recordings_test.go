package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/handpointer/internal/detector"
	"github.com/ayusman/handpointer/internal/pointer"
	"github.com/ayusman/handpointer/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

// seedQuickPinch stores a recording holding one quick index+thumb pinch.
func seedQuickPinch(t *testing.T, s *store.Store) *store.Recording {
	t.Helper()

	rec := &store.Recording{Name: "quick pinch", FrameWidth: 640, FrameHeight: 480, TargetFPS: 60}
	if err := s.Recordings().Create(rec); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	tip := detector.Point3D{X: 0.5, Y: 0.5}
	open := detector.PoseLandmarks(detector.LabelRight, tip, 1.0, 1.0)
	pinch := detector.PoseLandmarks(detector.LabelRight, tip, 0.1, 1.0)

	var hands [][]detector.HandLandmarks
	for i := 0; i < 4; i++ {
		hands = append(hands, []detector.HandLandmarks{pinch})
	}
	for i := 0; i < 3; i++ {
		hands = append(hands, []detector.HandLandmarks{open})
	}

	start := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	for i, h := range hands {
		err := s.Recordings().AppendFrame(rec.ID, store.RecordedFrame{
			Sequence:  i,
			Timestamp: start.Add(time.Duration(i) * time.Second / 60),
			Width:     640,
			Height:    480,
			Hands:     h,
		})
		if err != nil {
			t.Fatalf("AppendFrame(%d) error = %v", i, err)
		}
	}

	return rec
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRecordingHandler_List(t *testing.T) {
	s := newTestStore(t)
	handler := NewRecordingHandler(s, 1920, 1080)

	resp := serve(handler, http.MethodGet, "/api/recordings")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.Code, http.StatusOK)
	}

	var empty listRecordingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&empty); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if empty.Recordings == nil || len(empty.Recordings) != 0 {
		t.Errorf("recordings = %v, want empty list", empty.Recordings)
	}

	seeded := seedQuickPinch(t, s)

	resp = serve(handler, http.MethodGet, "/api/recordings")
	var listed listRecordingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(listed.Recordings) != 1 {
		t.Fatalf("len(recordings) = %d, want 1", len(listed.Recordings))
	}
	got := listed.Recordings[0]
	if got.ID != seeded.ID || got.Name != "quick pinch" || got.Frames != 7 {
		t.Errorf("recording = %+v", got)
	}

	if resp := serve(handler, http.MethodPost, "/api/recordings"); resp.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want %d", resp.Code, http.StatusMethodNotAllowed)
	}
}

func TestRecordingHandler_Get(t *testing.T) {
	s := newTestStore(t)
	handler := NewRecordingHandler(s, 1920, 1080)
	seeded := seedQuickPinch(t, s)

	t.Run("metadata only", func(t *testing.T) {
		resp := serve(handler, http.MethodGet, "/api/recordings/"+seeded.ID)
		if resp.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.Code, http.StatusOK)
		}
		var got recordingResponse
		json.NewDecoder(resp.Body).Decode(&got)
		if got.FrameWidth != 640 || got.FrameHeight != 480 || got.TargetFPS != 60 {
			t.Errorf("recording = %+v", got)
		}
		if got.FrameData != nil {
			t.Errorf("frame data included without ?frames=true")
		}
	})

	t.Run("with frames", func(t *testing.T) {
		resp := serve(handler, http.MethodGet, "/api/recordings/"+seeded.ID+"?frames=true")
		var got recordingResponse
		json.NewDecoder(resp.Body).Decode(&got)
		if len(got.FrameData) != 7 {
			t.Fatalf("len(frame_data) = %d, want 7", len(got.FrameData))
		}
		if len(got.FrameData[0].Hands) != 1 || got.FrameData[0].Hands[0].Handedness != detector.LabelRight {
			t.Errorf("frame 0 hands = %+v", got.FrameData[0].Hands)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		resp := serve(handler, http.MethodGet, "/api/recordings/missing")
		if resp.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", resp.Code, http.StatusNotFound)
		}
		var got errorResponse
		json.NewDecoder(resp.Body).Decode(&got)
		if got.Error != "Recording not found" {
			t.Errorf("error = %q", got.Error)
		}
	})

	t.Run("unknown sub-resource", func(t *testing.T) {
		resp := serve(handler, http.MethodGet, "/api/recordings/"+seeded.ID+"/samples")
		if resp.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", resp.Code, http.StatusNotFound)
		}
	})
}

func TestRecordingHandler_Delete(t *testing.T) {
	s := newTestStore(t)
	handler := NewRecordingHandler(s, 1920, 1080)
	seeded := seedQuickPinch(t, s)

	if resp := serve(handler, http.MethodDelete, "/api/recordings/"+seeded.ID); resp.Code != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want %d", resp.Code, http.StatusNoContent)
	}
	if resp := serve(handler, http.MethodDelete, "/api/recordings/"+seeded.ID); resp.Code != http.StatusNotFound {
		t.Errorf("second DELETE status = %d, want %d", resp.Code, http.StatusNotFound)
	}
	if resp := serve(handler, http.MethodPut, "/api/recordings/"+seeded.ID); resp.Code != http.StatusMethodNotAllowed {
		t.Errorf("PUT status = %d, want %d", resp.Code, http.StatusMethodNotAllowed)
	}
}

func TestRecordingHandler_Replay(t *testing.T) {
	s := newTestStore(t)
	handler := NewRecordingHandler(s, 1920, 1080)
	seeded := seedQuickPinch(t, s)

	resp := serve(handler, http.MethodGet, "/api/recordings/"+seeded.ID+"/replay")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.Code, http.StatusOK)
	}

	var got replayResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Frames != 7 {
		t.Errorf("frames = %d, want 7", got.Frames)
	}
	if got.Summary[pointer.ActionClick] != 1 {
		t.Errorf("clicks = %d, want 1", got.Summary[pointer.ActionClick])
	}
	if got.Summary[pointer.ActionMouseDown] != 0 {
		t.Errorf("quick pinch pressed the button")
	}
	if got.Summary[pointer.ActionMoveTo] != 7 {
		t.Errorf("moves = %d, want 7", got.Summary[pointer.ActionMoveTo])
	}
	if got.Status != "READY" {
		t.Errorf("status = %q, want READY", got.Status)
	}

	if resp := serve(handler, http.MethodGet, "/api/recordings/missing/replay"); resp.Code != http.StatusNotFound {
		t.Errorf("missing replay status = %d, want %d", resp.Code, http.StatusNotFound)
	}
}
