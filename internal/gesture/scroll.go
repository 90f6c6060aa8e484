package gesture

import (
	"math"

	"go.uber.org/zap"

	"github.com/ayusman/handpointer/internal/detector"
	"github.com/ayusman/handpointer/internal/pointer"
)

// ScrollSnapshot is the observable state of the scroll role after a frame.
type ScrollSnapshot struct {
	Present        bool    `json:"present"`
	IndexLength    float64 `json:"index_length"`
	MiddleLength   float64 `json:"middle_length"`
	TipGap         float64 `json:"tip_gap"`
	IndexExtended  bool    `json:"index_extended"`
	MiddleExtended bool    `json:"middle_extended"`
	Together       bool    `json:"together"`
	Row            int     `json:"row"`
	Active         bool    `json:"active"`
	RefRow         int     `json:"ref_row"` // zero unless Active
}

// ScrollInterpreter turns vertical motion of the scroll hand's joined index
// and middle fingers into wheel scrolling.
type ScrollInterpreter struct {
	cfg     ScrollConfig
	backend pointer.Backend
	logger  *zap.Logger

	active bool
	refRow int
	last   ScrollSnapshot
}

// NewScrollInterpreter creates an interpreter driving backend.
func NewScrollInterpreter(cfg ScrollConfig, backend pointer.Backend, logger *zap.Logger) *ScrollInterpreter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScrollInterpreter{
		cfg:     cfg,
		backend: backend,
		logger:  logger.Named("scroll"),
	}
}

// Step consumes one frame in which the scroll hand is present. The pose is
// evaluated fresh every frame without debouncing.
func (s *ScrollInterpreter) Step(hand *detector.HandLandmarks, frame FrameSize) {
	pts := &hand.Points
	obs := ScrollSnapshot{
		Present:      true,
		IndexLength:  detector.Dist3(pts[detector.IndexTip], pts[detector.IndexMCP]),
		MiddleLength: detector.Dist3(pts[detector.MiddleTip], pts[detector.MiddleMCP]),
		TipGap:       detector.Dist3(pts[detector.IndexTip], pts[detector.MiddleTip]),
	}
	obs.IndexExtended = obs.IndexLength > s.cfg.ExtendedThreshold
	obs.MiddleExtended = obs.MiddleLength > s.cfg.ExtendedThreshold
	obs.Together = obs.TipGap < s.cfg.TogetherMax

	indexY := pts[detector.IndexTip].Pixel(frame.Width, frame.Height).Y
	middleY := pts[detector.MiddleTip].Pixel(frame.Width, frame.Height).Y
	obs.Row = floorDiv(indexY+middleY, 2)

	switch {
	case obs.IndexExtended && obs.MiddleExtended && obs.Together:
		if !s.active {
			s.active = true
			s.refRow = obs.Row
			s.logger.Info("Scroll activated", zap.Int("row", obs.Row))
			break
		}

		dy := obs.Row - s.refRow
		if abs(dy) > s.cfg.Threshold {
			amount := int(math.Round(s.cfg.Direction * float64(dy) / float64(s.cfg.Threshold) * s.cfg.Speed))
			if err := s.backend.Scroll(amount); err != nil {
				s.logger.Warn("Pointer backend call failed", zap.String("action", "scroll"), zap.Error(err))
			}
			s.logger.Debug("Scrolling", zap.Int("dy", dy), zap.Int("amount", amount))
			s.refRow = obs.Row
		}
	case s.active:
		s.active = false
		s.refRow = 0
		s.logger.Info("Scroll deactivated")
	}

	obs.Active = s.active
	if s.active {
		obs.RefRow = s.refRow
	}
	s.last = obs
}

// Reset closes the scroll session after the hand disappeared.
func (s *ScrollInterpreter) Reset() {
	if s.active {
		s.logger.Info("Scroll deactivated (tracking lost)")
	}
	s.active = false
	s.refRow = 0
	s.last = ScrollSnapshot{}
}

// Snapshot returns the state after the last Step or Reset.
func (s *ScrollInterpreter) Snapshot() ScrollSnapshot {
	return s.last
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
