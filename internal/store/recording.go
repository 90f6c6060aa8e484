package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/handpointer/internal/detector"
)

// ErrRecordingNotFound is returned when a requested recording does not exist.
var ErrRecordingNotFound = errors.New("recording not found")

// Recording describes one captured session.
type Recording struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	FrameWidth  int       `json:"frame_width"`
	FrameHeight int       `json:"frame_height"`
	TargetFPS   float64   `json:"target_fps"`
	Frames      int       `json:"frames"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RecordedFrame is the estimator output of one processed frame. An empty
// Hands slice is a frame in which no hand was detected.
type RecordedFrame struct {
	Sequence  int                      `json:"sequence"`
	Timestamp time.Time                `json:"timestamp"`
	Width     int                      `json:"width"`
	Height    int                      `json:"height"`
	Hands     []detector.HandLandmarks `json:"hands"`
}

// RecordingRepository provides CRUD operations for recordings.
type RecordingRepository struct {
	db *sql.DB
}

// Recordings returns the recording repository for this store.
func (s *Store) Recordings() *RecordingRepository {
	return &RecordingRepository{db: s.db}
}

// Create inserts a new recording. An empty ID is filled with a fresh UUID.
func (r *RecordingRepository) Create(rec *Recording) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	rec.Frames = 0

	_, err := r.db.Exec(
		`INSERT INTO recordings (id, name, frame_width, frame_height, target_fps, frames, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		rec.ID, rec.Name, rec.FrameWidth, rec.FrameHeight, rec.TargetFPS, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create recording: %w", err)
	}
	return nil
}

// AppendFrame adds a frame to the end of a recording.
func (r *RecordingRepository) AppendFrame(id string, frame RecordedFrame) error {
	hands := frame.Hands
	if hands == nil {
		hands = []detector.HandLandmarks{}
	}
	data, err := json.Marshal(hands)
	if err != nil {
		return fmt.Errorf("encode hands: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`UPDATE recordings SET frames = frames + 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrRecordingNotFound
	}

	_, err = tx.Exec(
		`INSERT INTO recording_frames (recording_id, sequence, timestamp_ns, width, height, hands)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, frame.Sequence, frame.Timestamp.UnixNano(), frame.Width, frame.Height, string(data),
	)
	if err != nil {
		return fmt.Errorf("append frame %d: %w", frame.Sequence, err)
	}

	return tx.Commit()
}

// Get retrieves a recording by its ID.
func (r *RecordingRepository) Get(id string) (*Recording, error) {
	rec := &Recording{}
	err := r.db.QueryRow(
		`SELECT id, name, frame_width, frame_height, target_fps, frames, created_at, updated_at
		 FROM recordings WHERE id = ?`,
		id,
	).Scan(&rec.ID, &rec.Name, &rec.FrameWidth, &rec.FrameHeight, &rec.TargetFPS, &rec.Frames, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordingNotFound
		}
		return nil, err
	}
	return rec, nil
}

// List retrieves all recordings, newest first.
func (r *RecordingRepository) List() ([]*Recording, error) {
	rows, err := r.db.Query(
		`SELECT id, name, frame_width, frame_height, target_fps, frames, created_at, updated_at
		 FROM recordings ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recordings []*Recording
	for rows.Next() {
		rec := &Recording{}
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.FrameWidth, &rec.FrameHeight, &rec.TargetFPS, &rec.Frames, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		recordings = append(recordings, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return recordings, nil
}

// Frames returns every frame of a recording in sequence order.
func (r *RecordingRepository) Frames(id string) ([]RecordedFrame, error) {
	if _, err := r.Get(id); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(
		`SELECT sequence, timestamp_ns, width, height, hands
		 FROM recording_frames WHERE recording_id = ? ORDER BY sequence`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var frames []RecordedFrame
	for rows.Next() {
		var (
			f    RecordedFrame
			ns   int64
			data string
		)
		if err := rows.Scan(&f.Sequence, &ns, &f.Width, &f.Height, &data); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(data), &f.Hands); err != nil {
			return nil, fmt.Errorf("decode frame %d: %w", f.Sequence, err)
		}
		f.Timestamp = time.Unix(0, ns).UTC()
		frames = append(frames, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return frames, nil
}

// Delete removes a recording and its frames.
func (r *RecordingRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM recordings WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrRecordingNotFound
	}

	return nil
}
