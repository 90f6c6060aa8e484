package app

import (
	"go.uber.org/zap"

	"github.com/ayusman/handpointer/internal/gesture"
	"github.com/ayusman/handpointer/internal/pointer"
	"github.com/ayusman/handpointer/internal/store"
)

// ReplayResult summarizes a replayed recording.
type ReplayResult struct {
	Frames  int                        `json:"frames"`
	Actions []pointer.Action           `json:"actions"`
	Summary map[pointer.ActionKind]int `json:"summary"`
	Final   gesture.Snapshot           `json:"final"`
}

// Replay feeds recorded frames through a fresh controller driving rec,
// using each frame's own timestamp for hold timing. Open sessions are
// released after the last frame, as they would be on shutdown.
func Replay(frames []store.RecordedFrame, cfg gesture.Config, rec *pointer.Recorder, logger *zap.Logger) ReplayResult {
	if logger == nil {
		logger = zap.NewNop()
	}
	controller := gesture.NewController(cfg, rec, nil, logger)

	var final gesture.Snapshot
	for _, f := range frames {
		final = controller.Step(f.Hands, gesture.FrameSize{Width: f.Width, Height: f.Height}, f.Timestamp)
	}
	controller.Release()

	logger.Named("replay").Info("Replay finished",
		zap.Int("frames", len(frames)),
		zap.Int("actions", len(rec.Actions())))

	return ReplayResult{
		Frames:  len(frames),
		Actions: rec.Actions(),
		Summary: rec.Summary(),
		Final:   final,
	}
}
