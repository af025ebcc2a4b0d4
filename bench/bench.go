// Package bench provides tools for testing the swarm against benchmark
// optimization functions from
// http://en.wikipedia.org/wiki/Test_functions_for_optimization.
package bench

import (
	"fmt"
	"math"
	"sort"

	"github.com/rwcarlsen/pso"
	"github.com/rwcarlsen/pso/swarm"
	"gonum.org/v1/gonum/floats"
)

var (
	sin  = math.Sin
	cos  = math.Cos
	abs  = math.Abs
	exp  = math.Exp
	sqrt = math.Sqrt
)

var AllFuncs = []Func{
	Quadratic{},
	Sphere{NDim: 2},
	Sphere{NDim: 10},
	Ackley{},
	Eggholder{},
	HolderTable{},
	Styblinski{NDim: 1},
	Styblinski{NDim: 10},
	Rosenbrock{NDim: 2},
	Rosenbrock{NDim: 10},
}

type Func interface {
	Eval(v []float64) float64
	Bounds() pso.Bounds
	Optima() []pso.Point
	Name() string
}

// ByName looks up one of AllFuncs by its Name.
func ByName(name string) (Func, error) {
	for _, fn := range AllFuncs {
		if fn.Name() == name {
			return fn, nil
		}
	}
	return nil, fmt.Errorf("bench: unknown function %q (have %v)", name, Names())
}

func Names() []string {
	names := make([]string, 0, len(AllFuncs))
	for _, fn := range AllFuncs {
		names = append(names, fn.Name())
	}
	sort.Strings(names)
	return names
}

func box(ndim int, low, up float64) pso.Bounds {
	b := make(pso.Bounds, ndim)
	for i := range b {
		b[i] = pso.Bound{Low: low, High: up}
	}
	return b
}

func fill(ndim int, x float64) []float64 {
	pos := make([]float64, ndim)
	for i := range pos {
		pos[i] = x
	}
	return pos
}

// Quadratic is (x-3)^2 on [-10, 10].
type Quadratic struct{}

func (fn Quadratic) Name() string { return "Quadratic" }

func (fn Quadratic) Eval(v []float64) float64 { return (v[0] - 3) * (v[0] - 3) }

func (fn Quadratic) Bounds() pso.Bounds { return box(1, -10, 10) }

func (fn Quadratic) Optima() []pso.Point {
	return []pso.Point{pso.NewPoint([]float64{3}, 0)}
}

type Sphere struct {
	NDim int
}

func (fn Sphere) Name() string { return fmt.Sprintf("Sphere_%vD", fn.NDim) }

func (fn Sphere) Eval(v []float64) float64 { return floats.Dot(v, v) }

func (fn Sphere) Bounds() pso.Bounds { return box(fn.NDim, -100, 100) }

func (fn Sphere) Optima() []pso.Point {
	return []pso.Point{pso.NewPoint(make([]float64, fn.NDim), 0)}
}

type Ackley struct{}

func (fn Ackley) Name() string { return "Ackley" }

func (fn Ackley) Eval(v []float64) float64 {
	x := v[0]
	y := v[1]
	return -20*exp(-0.2*sqrt(0.5*(x*x+y*y))) -
		exp(0.5*(cos(2*math.Pi*x)+cos(2*math.Pi*y))) +
		20 + math.E
}

func (fn Ackley) Bounds() pso.Bounds { return box(2, -5, 5) }

func (fn Ackley) Optima() []pso.Point {
	return []pso.Point{pso.NewPoint([]float64{0, 0}, 0)}
}

type Eggholder struct{}

func (fn Eggholder) Name() string { return "Eggholder" }

func (fn Eggholder) Eval(v []float64) float64 {
	x := v[0]
	y := v[1]
	return -(y+47)*sin(sqrt(abs(y+x/2+47))) - x*sin(sqrt(abs(x-(y+47))))
}

func (fn Eggholder) Bounds() pso.Bounds { return box(2, -512, 512) }

func (fn Eggholder) Optima() []pso.Point {
	return []pso.Point{pso.NewPoint([]float64{512, 404.2319}, -959.6407)}
}

type HolderTable struct{}

func (fn HolderTable) Name() string { return "HolderTable" }

func (fn HolderTable) Eval(v []float64) float64 {
	x := v[0]
	y := v[1]
	return -abs(sin(x) * cos(y) * exp(abs(1-sqrt(x*x+y*y)/math.Pi)))
}

func (fn HolderTable) Bounds() pso.Bounds { return box(2, -10, 10) }

func (fn HolderTable) Optima() []pso.Point {
	return []pso.Point{
		pso.NewPoint([]float64{8.05502, 9.66459}, -19.2085),
		pso.NewPoint([]float64{-8.05502, 9.66459}, -19.2085),
		pso.NewPoint([]float64{8.05502, -9.66459}, -19.2085),
		pso.NewPoint([]float64{-8.05502, -9.66459}, -19.2085),
	}
}

type Styblinski struct {
	NDim int
}

func (fn Styblinski) Name() string { return fmt.Sprintf("Styblinski_%vD", fn.NDim) }

func (fn Styblinski) Eval(x []float64) float64 {
	tot := 0.0
	for _, v := range x {
		tot += v*v*v*v - 16*v*v + 5*v
	}
	return tot / 2
}

func (fn Styblinski) Bounds() pso.Bounds { return box(fn.NDim, -5, 5) }

func (fn Styblinski) Optima() []pso.Point {
	return []pso.Point{pso.NewPoint(fill(fn.NDim, -2.903534), -39.16599*float64(fn.NDim))}
}

type Rosenbrock struct {
	NDim int
}

func (fn Rosenbrock) Name() string { return fmt.Sprintf("Rosenbrock_%vD", fn.NDim) }

func (fn Rosenbrock) Eval(x []float64) float64 {
	tot := 0.0
	for i := 0; i < fn.NDim-1; i++ {
		tot += 100*math.Pow(x[i+1]-x[i]*x[i], 2) + math.Pow(x[i]-1, 2)
	}
	return tot
}

func (fn Rosenbrock) Bounds() pso.Bounds { return box(fn.NDim, -30, 30) }

func (fn Rosenbrock) Optima() []pso.Point {
	return []pso.Point{pso.NewPoint(fill(fn.NDim, 1), 0)}
}

// Benchmark runs a fresh swarm of n particles on fn.
func Benchmark(fn Func, n int, cfg swarm.RunConfig, opts ...swarm.Option) (*swarm.Result, error) {
	s, err := swarm.New(fn.Bounds(), n, opts...)
	if err != nil {
		return nil, err
	}
	return s.Run(pso.Func(fn.Eval), cfg)
}

// Success reports whether best is within a relative tol of fn's optimum
// value.  Optima near zero use an absolute threshold of 0.001.
func Success(fn Func, best pso.Point, tol float64) bool {
	optimum := fn.Optima()[0].Val
	thresh := tol * abs(optimum)
	if 0.001 > thresh {
		thresh = 0.001
	}
	return abs(optimum-best.Val) < thresh
}

// PosErr returns the euclidean distance from pos to the nearest of fn's
// optima.
func PosErr(fn Func, pos []float64) float64 {
	dist := math.Inf(1)
	for _, opt := range fn.Optima() {
		dist = math.Min(dist, floats.Distance(pos, opt.Pos(), 2))
	}
	return dist
}
