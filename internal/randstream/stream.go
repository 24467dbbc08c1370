// Package randstream is the single sequential random source of a run. Every
// draw goes through a Stream so one seed reproduces a dataset exactly.
package randstream

import (
	"fmt"
	"math/rand/v2"
)

type Stream struct {
	r *rand.Rand
}

// New seeds a PCG generator with (seed, seed).
func New(seed uint64) *Stream {
	return &Stream{r: rand.New(rand.NewPCG(seed, seed))}
}

// IntRange returns a uniform integer in [lo, hi].
func (s *Stream) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.r.IntN(hi-lo+1)
}

// Index returns a uniform index in [0, n). n must be positive.
func (s *Stream) Index(n int) int {
	return s.r.IntN(n)
}

// Chance returns true with probability p.
func (s *Stream) Chance(p float64) bool {
	return s.r.Float64() < p
}

// Weighted returns an index into weights chosen proportionally to its weight.
// Zero-weight entries are never chosen.
func (s *Stream) Weighted(weights []int) (int, error) {
	total := 0
	for _, w := range weights {
		if w < 0 {
			return 0, fmt.Errorf("negative weight %d", w)
		}
		total += w
	}
	if total == 0 {
		return 0, fmt.Errorf("weights sum to zero")
	}

	x := s.r.IntN(total)
	for i, w := range weights {
		if x < w {
			return i, nil
		}
		x -= w
	}
	return len(weights) - 1, nil
}
