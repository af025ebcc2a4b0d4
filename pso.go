// Package pso holds the shared vocabulary for particle swarm optimization:
// box-bounded search spaces, points, objective functions and random number
// sources.  The optimizer itself lives in the swarm subpackage.
package pso

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoDimensions is returned when a search space has no dimensions.
var ErrNoDimensions = errors.New("pso: search space has no dimensions")

// BoundError reports an invalid bound for a single dimension.
type BoundError struct {
	Dim int
	Bound
}

func (e *BoundError) Error() string {
	return fmt.Sprintf("pso: invalid bound for dimension %v: low %v > high %v", e.Dim, e.Low, e.High)
}

type Point struct {
	pos []float64
	Val float64
}

func NewPoint(pos []float64, val float64) Point {
	cpos := make([]float64, len(pos))
	copy(cpos, pos)
	return Point{pos: cpos, Val: val}
}

func (p Point) At(i int) float64 { return p.pos[i] }

func (p Point) Len() int { return len(p.pos) }

// Pos returns a copy of p's position.  It returns nil for a point with no
// position (e.g. a swarm best before the first evaluation).
func (p Point) Pos() []float64 {
	if p.pos == nil {
		return nil
	}
	pos := make([]float64, len(p.pos))
	copy(pos, p.pos)
	return pos
}

// Bound is the closed interval [Low, High] of a single dimension.
type Bound struct {
	Low  float64
	High float64
}

// Bounds is a box-bounded search space with one Bound per dimension.
type Bounds []Bound

// NewBounds builds bounds from separate lower and upper bound vectors.
func NewBounds(low, up []float64) (Bounds, error) {
	if len(low) != len(up) {
		return nil, fmt.Errorf("pso: low and up vectors are not same length (%v != %v)", len(low), len(up))
	}
	b := make(Bounds, len(low))
	for i := range low {
		b[i] = Bound{Low: low[i], High: up[i]}
	}
	return b, b.Validate()
}

// Validate checks that b has at least one dimension and that every
// dimension has Low <= High.  NaN bounds are rejected.
func (b Bounds) Validate() error {
	if len(b) == 0 {
		return ErrNoDimensions
	}
	for i, d := range b {
		if !(d.Low <= d.High) {
			return &BoundError{Dim: i, Bound: d}
		}
	}
	return nil
}

func (b Bounds) Len() int { return len(b) }

// Clamp limits each coordinate of pos to its dimension's bounds in place.
func (b Bounds) Clamp(pos []float64) {
	for i, d := range b {
		if pos[i] > d.High {
			pos[i] = d.High
		}
		if pos[i] < d.Low {
			pos[i] = d.Low
		}
	}
}

func (b Bounds) Contains(pos []float64) bool {
	if len(pos) != len(b) {
		return false
	}
	for i, d := range b {
		if pos[i] < d.Low || pos[i] > d.High {
			return false
		}
	}
	return true
}

func (b Bounds) Lows() []float64 {
	low := make([]float64, len(b))
	for i, d := range b {
		low[i] = d.Low
	}
	return low
}

func (b Bounds) Ups() []float64 {
	up := make([]float64, len(b))
	for i, d := range b {
		up[i] = d.High
	}
	return up
}

// Uniform draws a position uniformly distributed inside b.
func (b Bounds) Uniform(rng Rng) []float64 {
	pos := make([]float64, len(b))
	for i, d := range b {
		pos[i] = d.Low + rng.Float64()*(d.High-d.Low)
	}
	return pos
}

// Rng is the source of uniform [0,1) random numbers used for particle
// initialization and velocity updates.  *math/rand.Rand satisfies it.
type Rng interface {
	Float64() float64
}

type Objectiver interface {
	// Objective evaluates the variables in v and returns the objective
	// function value.  The objective function must be framed so that lower
	// values are better. If the evaluation fails, positive infinity should be
	// returned along with an error.
	Objective(v []float64) (float64, error)
}

// Func adapts an ordinary function that cannot fail into an Objectiver.
type Func func([]float64) float64

func (fn Func) Objective(v []float64) (float64, error) { return fn(v), nil }

// Inf is the quality of a position that has not been evaluated yet.
var Inf = math.Inf(1)
