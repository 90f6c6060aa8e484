package gesture

// stability counts consecutive frames on each side of a hysteresis band.
// Ratios inside the band leave both counters untouched.
type stability struct {
	pinch   int
	release int
}

func (s *stability) observe(ratio, closeAt, openAt float64) {
	switch {
	case ratio < closeAt:
		s.pinch++
		s.release = 0
	case ratio > openAt:
		s.release++
		s.pinch = 0
	}
}

func (s *stability) reset() {
	s.pinch = 0
	s.release = 0
}
