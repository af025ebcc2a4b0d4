package swarm

import "math"

// Stopper implements the relative improvement stopping policy.  Each
// observed pair of consecutive global best values whose relative change is
// below Tol counts as a stopping round; any larger change resets the count.
// The run should stop once Rounds consecutive stopping rounds are seen.
// Rounds <= 0 behaves like 1.
type Stopper struct {
	Rounds int
	Tol    float64
	count  int
}

// Observe records the change from prev to curr and reports whether the
// run should stop.  Equal values (0 == 0 and Inf == Inf included) are a
// change of zero.  A move away from a previous best of exactly zero has no
// finite relative change and is never counted as converged.
func (s *Stopper) Observe(prev, curr float64) bool {
	if RelChange(prev, curr) < s.Tol {
		s.count++
	} else {
		s.count = 0
	}
	if s.Rounds <= 0 {
		return s.count >= 1
	}
	return s.count >= s.Rounds
}

// Count returns the current number of consecutive stopping rounds.
func (s *Stopper) Count() int { return s.count }

func (s *Stopper) Reset() { s.count = 0 }

// RelChange returns |curr-prev| / |prev|.  It returns 0 when the values are
// equal and +Inf when prev is zero (or infinite) and curr differs from it.
func RelChange(prev, curr float64) float64 {
	if curr == prev {
		return 0
	}
	if prev == 0 || math.IsInf(prev, 0) {
		return math.Inf(1)
	}
	return math.Abs(curr-prev) / math.Abs(prev)
}
