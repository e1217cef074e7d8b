package virtualizer

// HeightState tracks whether a stored height is an estimate or a measurement
type HeightState uint8

const (
	Estimated HeightState = iota
	Measured
)

func (s HeightState) String() string {
	switch s {
	case Estimated:
		return "estimated"
	case Measured:
		return "measured"
	default:
		return "unknown"
	}
}

// heightStore is the per-position height list owned by a Virtualizer
type heightStore struct {
	heights  []float64
	states   []HeightState
	estimate float64
	measured int
}

func newHeightStore(estimate float64) heightStore {
	return heightStore{estimate: estimate}
}

// reset discards every entry and fills n positions with the estimate
func (s *heightStore) reset(n int) {
	s.heights = make([]float64, n)
	s.states = make([]HeightState, n)
	s.measured = 0
	for i := range s.heights {
		s.heights[i] = s.estimate
	}
}

// grow appends k estimated positions
func (s *heightStore) grow(k int) {
	for i := 0; i < k; i++ {
		s.heights = append(s.heights, s.estimate)
		s.states = append(s.states, Estimated)
	}
}

// restore seeds position i with a previously measured height
func (s *heightStore) restore(i int, h float64) {
	s.heights[i] = h
	if s.states[i] != Measured {
		s.states[i] = Measured
		s.measured++
	}
}

// set records a measurement and reports whether the height changed
func (s *heightStore) set(i int, h float64) bool {
	if s.states[i] != Measured {
		s.states[i] = Measured
		s.measured++
	}
	if s.heights[i] == h {
		return false
	}
	s.heights[i] = h
	return true
}

func (s *heightStore) len() int {
	return len(s.heights)
}
