package swarm

import (
	"fmt"
	"math"

	"github.com/rwcarlsen/pso"
)

// Particle is a single candidate solution.  Val and BestVal are +Inf and
// BestPos is nil until the first evaluation.
type Particle struct {
	Id      int
	Pos     []float64
	Vel     []float64
	Val     float64
	BestPos []float64
	BestVal float64
}

// NewParticle places a particle uniformly at random inside b with a
// velocity drawn uniformly from [-1, 1] in each dimension.
func NewParticle(id int, b pso.Bounds, rng pso.Rng) *Particle {
	p := &Particle{
		Id:      id,
		Pos:     b.Uniform(rng),
		Vel:     make([]float64, len(b)),
		Val:     pso.Inf,
		BestVal: pso.Inf,
	}
	for i := range p.Vel {
		p.Vel[i] = 1 - 2*rng.Float64()
	}
	return p
}

// Evaluate computes the objective at p's current position.  On strict
// improvement (or the first evaluation, even at +Inf) the personal best is
// updated with a copy of the position.  A NaN personal best never blocks
// later values from replacing it.  If the objective fails, p is left
// untouched.
func (p *Particle) Evaluate(obj pso.Objectiver) error {
	val, err := obj.Objective(append([]float64{}, p.Pos...))
	if err != nil {
		return fmt.Errorf("particle %v: %w", p.Id, err)
	}

	p.Val = val
	if p.Val < p.BestVal || p.BestPos == nil || math.IsNaN(p.BestVal) {
		p.BestVal = p.Val
		p.BestPos = append(p.BestPos[:0], p.Pos...)
	}
	return nil
}

// UpdateVelocity applies the constricted velocity update:
//
//    v = chi*(v + phi1*r1*(pbest-x) + phi2*r2*(gbest-x))
//
// gbest must hold a position, so p needs at least one evaluation (and the
// swarm a best) before the first call.
func (p *Particle) UpdateVelocity(gbest []float64, params Params, rng pso.Rng) {
	for i, currv := range p.Vel {
		// random numbers r1 and r2 MUST go inside this loop and be generated
		// uniquely for each dimension of p's velocity.
		r1 := rng.Float64()
		r2 := rng.Float64()
		cognitive := params.Phi1 * r1 * (p.BestPos[i] - p.Pos[i])
		social := params.Phi2 * r2 * (gbest[i] - p.Pos[i])
		p.Vel[i] = params.Chi * (currv + cognitive + social)
	}
}

// UpdatePosition moves p by its velocity and clamps the result to b.  The
// velocity is deliberately left alone when a bound is hit, so a particle can
// stay pressed against a bound for several iterations.
func (p *Particle) UpdatePosition(b pso.Bounds) {
	for i := range p.Pos {
		p.Pos[i] += p.Vel[i]
	}
	b.Clamp(p.Pos)
}

// Move updates p's velocity and then its position.
func (p *Particle) Move(gbest []float64, params Params, b pso.Bounds, rng pso.Rng) {
	p.UpdateVelocity(gbest, params, rng)
	p.UpdatePosition(b)
}

func (p *Particle) String() string {
	return fmt.Sprintf("%d: f=%.4g x=%.4g v=%.4g bf=%.4g bx=%.4g", p.Id, p.Val, p.Pos, p.Vel, p.BestVal, p.BestPos)
}

type Population []*Particle

// NewPopulation creates n randomly positioned particles inside b.
func NewPopulation(n int, b pso.Bounds, rng pso.Rng) Population {
	pop := make(Population, n)
	for i := range pop {
		pop[i] = NewParticle(i, b, rng)
	}
	return pop
}

func (pop Population) Points() []pso.Point {
	points := make([]pso.Point, 0, len(pop))
	for _, p := range pop {
		points = append(points, pso.NewPoint(p.Pos, p.Val))
	}
	return points
}

// Best returns the particle with the lowest personal best value.  Ties go
// to the lowest index.
func (pop Population) Best() *Particle {
	if len(pop) == 0 {
		return nil
	}

	best := pop[0]
	for _, p := range pop[1:] {
		if p.BestVal < best.BestVal {
			best = p
		}
	}
	return best
}
