// Package swarm implements a constricted particle swarm optimizer over a
// box-bounded continuous search space.
package swarm

import (
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/rwcarlsen/pso"
)

// These params are the canonical constriction values originally
// described in:
//
//     Clerc and M.  “The swarm and the queen: towards a deterministic and
//     adaptive particle swarm optimization” Proc. 1999 Congress on
//     Evolutionary Computation, pp. 1951-1957
//
// DefaultChi is Constriction(2.05, 2.05) rounded to three places.
const (
	DefaultChi  = 0.729
	DefaultPhi1 = 2.05
	DefaultPhi2 = 2.05
)

// ErrNoParticles is returned when a swarm is built with fewer than one
// particle.
var ErrNoParticles = errors.New("swarm: swarm needs at least one particle")

// Constriction calculates the constriction coefficient for the given c1 and
// c2 for the particle velocity equation:
//
//    v_next = k(v_curr + c1*rand*(p_personal-x) + c2*rand*(p_glob-x))
//
// c1+c2 should usually be greater than (but close to) 4.  For c1+c2 <= 4
// the swarm is not constricted and 1 is returned.
func Constriction(c1, c2 float64) float64 {
	phi := c1 + c2
	if phi <= 4 {
		return 1
	}
	return 2 / math.Abs(2-phi-math.Sqrt(phi*phi-4*phi))
}

// Params are the velocity update coefficients.  Chi is the constriction
// coefficient, Phi1 the cognitive (personal best) weight and Phi2 the social
// (global best) weight.
type Params struct {
	Chi  float64
	Phi1 float64
	Phi2 float64
}

func DefaultParams() Params {
	return Params{Chi: DefaultChi, Phi1: DefaultPhi1, Phi2: DefaultPhi2}
}

type Option func(*Swarm)

func Coefficients(chi, phi1, phi2 float64) Option {
	return func(s *Swarm) {
		s.Params = Params{Chi: chi, Phi1: phi1, Phi2: phi2}
	}
}

// Constricted sets the cognitive and social weights and derives chi from
// them with Constriction.
func Constricted(phi1, phi2 float64) Option {
	return Coefficients(Constriction(phi1, phi2), phi1, phi2)
}

// Seed makes the swarm draw random numbers from a math/rand source seeded
// with seed.  Two swarms with the same seed and configuration produce
// identical runs.
func Seed(seed int64) Option {
	return func(s *Swarm) {
		s.Rng = rand.New(rand.NewSource(seed))
	}
}

func WithRand(rng pso.Rng) Option {
	return func(s *Swarm) {
		s.Rng = rng
	}
}

func Logger(l *slog.Logger) Option {
	return func(s *Swarm) {
		s.log = l
	}
}

type Swarm struct {
	Bounds pso.Bounds
	Params
	Pop Population
	// Rng is used for particle initialization and all velocity updates.
	// It defaults to a time-seeded math/rand source.
	Rng  pso.Rng
	log  *slog.Logger
	best pso.Point
}

// New builds a swarm of size randomly placed particles inside b.  The
// configuration is validated before any particle is created.
func New(b pso.Bounds, size int, opts ...Option) (*Swarm, error) {
	if size < 1 {
		return nil, ErrNoParticles
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	s := &Swarm{
		Bounds: append(pso.Bounds{}, b...),
		Params: DefaultParams(),
		best:   pso.Point{Val: pso.Inf},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Rng == nil {
		s.Rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if s.log == nil {
		s.log = pso.DiscardLogger()
	}

	s.Pop = NewPopulation(size, s.Bounds, s.Rng)
	s.log.Debug("swarm created", "particles", size, "dimensions", len(b),
		"chi", s.Chi, "phi1", s.Phi1, "phi2", s.Phi2)
	return s, nil
}

// Best returns the best position found so far.  Before the first
// iteration it has a nil position and value +Inf.
func (s *Swarm) Best() pso.Point { return s.best }

// Iterate runs a single evaluate-then-move iteration and returns the updated
// global best.
func (s *Swarm) Iterate(obj pso.Objectiver) (best pso.Point, err error) {
	if err := s.evaluate(obj); err != nil {
		return s.best, err
	}
	s.move()
	return s.best, nil
}

// evaluate runs every particle's objective in index order.  The global best
// is checked right after each particle, so the lowest-index particle wins a
// tie.  Evaluation never reads the global best, so the best at the end of
// the phase is the same as with a single check after all evaluations.  A
// NaN best is always replaced by the next evaluated value.
func (s *Swarm) evaluate(obj pso.Objectiver) error {
	for _, p := range s.Pop {
		if err := p.Evaluate(obj); err != nil {
			return err
		}
		if p.Val < s.best.Val || s.best.Len() == 0 || math.IsNaN(s.best.Val) {
			s.best = pso.NewPoint(p.Pos, p.Val)
		}
	}
	return nil
}

// move updates every particle against the global best as it stood at the
// end of the evaluation phase.
func (s *Swarm) move() {
	gbest := s.best.Pos()
	for _, p := range s.Pop {
		p.Move(gbest, s.Params, s.Bounds, s.Rng)
	}
}
