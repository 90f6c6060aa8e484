// Package api provides HTTP API handlers for the hand pointer debug server.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/handpointer/internal/app"
	"github.com/ayusman/handpointer/internal/gesture"
	"github.com/ayusman/handpointer/internal/pointer"
	"github.com/ayusman/handpointer/internal/store"
)

// RecordingHandler handles HTTP requests for recording resources.
type RecordingHandler struct {
	store   *store.Store
	screenW int
	screenH int
}

// NewRecordingHandler creates a RecordingHandler. Replays run against a
// simulated screen of the given size.
func NewRecordingHandler(s *store.Store, screenW, screenH int) *RecordingHandler {
	return &RecordingHandler{store: s, screenW: screenW, screenH: screenH}
}

// ServeHTTP routes requests to the appropriate method.
// Expected paths: /api/recordings, /api/recordings/{id} and
// /api/recordings/{id}/replay.
func (h *RecordingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/recordings")
	path = strings.Trim(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	id, sub, _ := strings.Cut(path, "/")
	switch sub {
	case "":
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, id)
		case http.MethodDelete:
			h.delete(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case "replay":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.replay(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

type recordingResponse struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	FrameWidth  int                   `json:"frame_width"`
	FrameHeight int                   `json:"frame_height"`
	TargetFPS   float64               `json:"target_fps"`
	Frames      int                   `json:"frames"`
	CreatedAt   string                `json:"created_at"`
	UpdatedAt   string                `json:"updated_at"`
	FrameData   []store.RecordedFrame `json:"frame_data,omitempty"`
}

type listRecordingsResponse struct {
	Recordings []recordingResponse `json:"recordings"`
}

type replayResponse struct {
	RecordingID string                     `json:"recording_id"`
	Frames      int                        `json:"frames"`
	Summary     map[pointer.ActionKind]int `json:"summary"`
	Actions     []pointer.Action           `json:"actions"`
	Status      string                     `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toResponse(rec *store.Recording) recordingResponse {
	return recordingResponse{
		ID:          rec.ID,
		Name:        rec.Name,
		FrameWidth:  rec.FrameWidth,
		FrameHeight: rec.FrameHeight,
		TargetFPS:   rec.TargetFPS,
		Frames:      rec.Frames,
		CreatedAt:   rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:   rec.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, errorResponse{Error: message})
}

// list handles GET /api/recordings.
func (h *RecordingHandler) list(w http.ResponseWriter, r *http.Request) {
	recordings, err := h.store.Recordings().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list recordings")
		return
	}

	response := listRecordingsResponse{
		Recordings: make([]recordingResponse, 0, len(recordings)),
	}
	for _, rec := range recordings {
		response.Recordings = append(response.Recordings, toResponse(rec))
	}

	WriteJSON(w, http.StatusOK, response)
}

// get handles GET /api/recordings/{id}. With ?frames=true the recorded
// detections are included.
func (h *RecordingHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	rec, err := h.store.Recordings().Get(id)
	if err != nil {
		h.notFoundOr(w, err, "Failed to get recording")
		return
	}

	response := toResponse(rec)
	if r.URL.Query().Get("frames") == "true" {
		frames, err := h.store.Recordings().Frames(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load frames")
			return
		}
		response.FrameData = frames
	}

	WriteJSON(w, http.StatusOK, response)
}

// delete handles DELETE /api/recordings/{id}.
func (h *RecordingHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Recordings().Delete(id); err != nil {
		h.notFoundOr(w, err, "Failed to delete recording")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// replay handles GET /api/recordings/{id}/replay. The recording is fed
// through a fresh controller tuned for its frame rate, driving a simulated
// pointer; nothing on the host moves.
func (h *RecordingHandler) replay(w http.ResponseWriter, r *http.Request, id string) {
	rec, err := h.store.Recordings().Get(id)
	if err != nil {
		h.notFoundOr(w, err, "Failed to get recording")
		return
	}
	frames, err := h.store.Recordings().Frames(id)
	if err != nil {
		h.notFoundOr(w, err, "Failed to load frames")
		return
	}

	cfg := gesture.DefaultConfig().ForFrameRate(rec.TargetFPS)
	result := app.Replay(frames, cfg, pointer.NewRecorder(h.screenW, h.screenH), nil)

	WriteJSON(w, http.StatusOK, replayResponse{
		RecordingID: id,
		Frames:      result.Frames,
		Summary:     result.Summary,
		Actions:     result.Actions,
		Status:      result.Final.Status(),
	})
}

func (h *RecordingHandler) notFoundOr(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, store.ErrRecordingNotFound) {
		writeError(w, http.StatusNotFound, "Recording not found")
		return
	}
	writeError(w, http.StatusInternalServerError, message)
}
