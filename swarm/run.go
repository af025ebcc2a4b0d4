package swarm

import (
	"errors"
	"fmt"
	"math"

	"github.com/rwcarlsen/pso"
	"gonum.org/v1/gonum/mat"
)

const (
	DefaultMaxIter    = 100
	DefaultStopRounds = 10
	DefaultStopTol    = 0.001
)

// ErrRunConfig is returned for negative or NaN run limits.
var ErrRunConfig = errors.New("swarm: invalid run configuration")

// Recorder receives the swarm state after each evaluation phase, before
// particles move.  An error from Record aborts the run.
type Recorder interface {
	Record(iter int, pop Population, best pso.Point) error
}

// Renderer receives the per-iteration global best values once a run
// completes.
type Renderer interface {
	Render(vals []float64) error
}

// RunConfig controls a Run.  Zero values select the defaults.
type RunConfig struct {
	MaxIter    int
	StopRounds int
	StopTol    float64
	// Table requests the per-particle, per-iteration log in Result.Table.
	Table     bool
	Recorders []Recorder
	Render    Renderer
}

func (cfg RunConfig) withDefaults() (RunConfig, error) {
	if cfg.MaxIter < 0 || cfg.StopRounds < 0 || cfg.StopTol < 0 || math.IsNaN(cfg.StopTol) {
		return cfg, fmt.Errorf("%w: maxiter=%v rounds=%v tol=%v", ErrRunConfig, cfg.MaxIter, cfg.StopRounds, cfg.StopTol)
	}
	if cfg.MaxIter == 0 {
		cfg.MaxIter = DefaultMaxIter
	}
	if cfg.StopRounds == 0 {
		cfg.StopRounds = DefaultStopRounds
	}
	if cfg.StopTol == 0 {
		cfg.StopTol = DefaultStopTol
	}
	return cfg, nil
}

type Result struct {
	// Vals holds the global best value after each iteration.
	Vals []float64
	// Positions holds the global best position after each iteration.
	Positions [][]float64
	// Table has one row per particle per iteration, laid out as
	// TableColumns describes.  It is nil unless RunConfig.Table is set.
	Table *mat.Dense
	Iters int
	// Converged is true if the stopping policy ended the run before
	// MaxIter was reached.
	Converged bool
}

func (r *Result) Best() pso.Point {
	if r.Iters == 0 {
		return pso.Point{Val: pso.Inf}
	}
	return pso.NewPoint(r.Positions[r.Iters-1], r.Vals[r.Iters-1])
}

// TableColumns returns the column names of a result table for ndim
// dimensions: x_0 ... x_{ndim-1}, quality, iteration.
func TableColumns(ndim int) []string {
	cols := make([]string, 0, ndim+2)
	for i := 0; i < ndim; i++ {
		cols = append(cols, fmt.Sprintf("x_%v", i))
	}
	return append(cols, "quality", "iteration")
}

// Run iterates the swarm until the stopping policy triggers or MaxIter
// iterations have run.  Starting with the third iteration, each iteration
// whose global best changed by less than StopTol relative to the previous
// one counts towards StopRounds.  An objective or recorder failure aborts
// the run and no result is returned.
func (s *Swarm) Run(obj pso.Objectiver, cfg RunConfig) (*Result, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}

	ndim := len(s.Bounds)
	res := &Result{}
	var rows []float64
	stop := &Stopper{Rounds: cfg.StopRounds, Tol: cfg.StopTol}

	for iter := 0; iter < cfg.MaxIter; iter++ {
		if err := s.evaluate(obj); err != nil {
			return nil, fmt.Errorf("swarm: iteration %v: %w", iter, err)
		}
		for _, r := range cfg.Recorders {
			if err := r.Record(iter, s.Pop, s.best); err != nil {
				return nil, fmt.Errorf("swarm: recording iteration %v: %w", iter, err)
			}
		}
		if cfg.Table {
			for _, p := range s.Pop {
				rows = append(rows, p.Pos...)
				rows = append(rows, p.Val, float64(iter))
			}
		}
		s.move()

		res.Vals = append(res.Vals, s.best.Val)
		res.Positions = append(res.Positions, s.best.Pos())
		res.Iters++
		done := iter > 1 && stop.Observe(res.Vals[iter-1], res.Vals[iter])
		s.log.Debug("iteration", "iter", iter, "best", s.best.Val, "stoprounds", stop.Count())
		if done {
			res.Converged = true
			break
		}
	}

	if res.Converged {
		s.log.Info("swarm converged", "iters", res.Iters, "best", s.best.Val, "pos", s.best.Pos())
	} else {
		s.log.Info("swarm hit iteration limit", "iters", res.Iters, "best", s.best.Val, "pos", s.best.Pos())
	}

	if cfg.Table {
		res.Table = mat.NewDense(res.Iters*len(s.Pop), ndim+2, rows)
	}
	if cfg.Render != nil {
		if err := cfg.Render.Render(res.Vals); err != nil {
			return res, fmt.Errorf("swarm: rendering: %w", err)
		}
	}
	return res, nil
}
