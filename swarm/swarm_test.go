package swarm

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rwcarlsen/pso"
)

const seed = 7

func quadratic(v []float64) float64 { return (v[0] - 3) * (v[0] - 3) }

func sphere2(v []float64) float64 {
	return (v[0]-1)*(v[0]-1) + (v[1]+2)*(v[1]+2)
}

func TestConstriction(t *testing.T) {
	k := Constriction(2.05, 2.05)
	if math.Abs(k-0.7298437881283576) > 1e-12 {
		t.Errorf("expected constriction 0.7298437881283576, got %v", k)
	}
	if math.Abs(k-DefaultChi) > 1e-3 {
		t.Errorf("DefaultChi %v does not match Constriction(2.05, 2.05) = %v", DefaultChi, k)
	}
	if k := Constriction(1, 1); k != 1 {
		t.Errorf("unconstricted coefficients should give 1, got %v", k)
	}

	s, err := New(pso.Bounds{{Low: 0, High: 1}}, 1, Constricted(2.1, 2.1))
	if err != nil {
		t.Fatal(err)
	}
	if s.Chi != Constriction(2.1, 2.1) || s.Phi1 != 2.1 || s.Phi2 != 2.1 {
		t.Errorf("Constricted option not applied: %+v", s.Params)
	}
}

func TestNewErrors(t *testing.T) {
	if _, err := New(pso.Bounds{{Low: 0, High: 1}}, 0); !errors.Is(err, ErrNoParticles) {
		t.Errorf("size 0: expected ErrNoParticles, got %v", err)
	}
	if _, err := New(pso.Bounds{}, 10); !errors.Is(err, pso.ErrNoDimensions) {
		t.Errorf("no dimensions: expected ErrNoDimensions, got %v", err)
	}
	var be *pso.BoundError
	if _, err := New(pso.Bounds{{Low: 0, High: 1}, {Low: 1, High: 0}}, 10); !errors.As(err, &be) || be.Dim != 1 {
		t.Errorf("inverted bound: expected BoundError on dim 1, got %v", err)
	}
}

func TestDefaults(t *testing.T) {
	s, err := New(pso.Bounds{{Low: 0, High: 1}}, 4)
	if err != nil {
		t.Fatal(err)
	}
	if s.Params != (Params{0.729, 2.05, 2.05}) {
		t.Errorf("wrong default params %+v", s.Params)
	}
	if len(s.Pop) != 4 {
		t.Errorf("expected 4 particles, got %v", len(s.Pop))
	}
	if best := s.Best(); best.Val != pso.Inf || best.Pos() != nil {
		t.Errorf("new swarm should have no best, got %+v", best)
	}
}

func TestQuadratic(t *testing.T) {
	s, err := New(pso.Bounds{{Low: -10, High: 10}}, 20, Seed(seed))
	if err != nil {
		t.Fatal(err)
	}

	res, err := s.Run(pso.Func(quadratic), RunConfig{MaxIter: 200})
	if err != nil {
		t.Fatal(err)
	}

	best := res.Best()
	t.Logf("%v iters: best %v at %v", res.Iters, best.Val, best.Pos())
	if best.Val >= 1e-4 {
		t.Errorf("expected best < 1e-4, got %v", best.Val)
	}
	if math.Abs(best.At(0)-3) > 0.02 {
		t.Errorf("expected best position within 0.02 of 3, got %v", best.At(0))
	}
	if best.Val != s.Best().Val {
		t.Errorf("result best %v differs from swarm best %v", best.Val, s.Best().Val)
	}
}

func TestConstantObjective(t *testing.T) {
	for _, c := range []float64{5, 0} {
		s, err := New(pso.Bounds{{Low: -10, High: 10}, {Low: -10, High: 10}}, 10, Seed(seed))
		if err != nil {
			t.Fatal(err)
		}

		cfg := RunConfig{MaxIter: 100, StopRounds: 10}
		res, err := s.Run(pso.Func(func([]float64) float64 { return c }), cfg)
		if err != nil {
			t.Fatal(err)
		}

		if !res.Converged {
			t.Errorf("f=%v: run did not converge", c)
		}
		// no change is counted from the third iteration on (index 2).
		if want := cfg.StopRounds + 2; res.Iters != want {
			t.Errorf("f=%v: expected %v iterations, got %v", c, want, res.Iters)
		}
		for i, v := range res.Vals {
			if v != c {
				t.Errorf("f=%v: iteration %v best is %v", c, i, v)
			}
		}
	}
}

func TestMaxIter(t *testing.T) {
	s, err := New(pso.Bounds{{Low: -1, High: 1}}, 3, Seed(seed))
	if err != nil {
		t.Fatal(err)
	}
	res, err := s.Run(pso.Func(func([]float64) float64 { return 1 }), RunConfig{MaxIter: 5, StopRounds: 10})
	if err != nil {
		t.Fatal(err)
	}
	if res.Iters != 5 || len(res.Vals) != 5 || len(res.Positions) != 5 {
		t.Errorf("expected 5 iterations, got %v (%v vals, %v positions)", res.Iters, len(res.Vals), len(res.Positions))
	}
	if res.Converged {
		t.Errorf("iteration limit reported as convergence")
	}
}

func TestRunConfigErr(t *testing.T) {
	s, err := New(pso.Bounds{{Low: -1, High: 1}}, 3, Seed(seed))
	if err != nil {
		t.Fatal(err)
	}
	for _, cfg := range []RunConfig{{MaxIter: -1}, {StopRounds: -2}, {StopTol: -0.1}, {StopTol: math.NaN()}} {
		if _, err := s.Run(pso.Func(quadratic), cfg); !errors.Is(err, ErrRunConfig) {
			t.Errorf("%+v: expected ErrRunConfig, got %v", cfg, err)
		}
	}
}

func TestObjectiveErr(t *testing.T) {
	s, err := New(pso.Bounds{{Low: -1, High: 1}}, 4, Seed(seed))
	if err != nil {
		t.Fatal(err)
	}
	obj := &errObj{after: 10}
	res, err := s.Run(obj, RunConfig{})
	if !errors.Is(err, errFake) {
		t.Fatalf("expected objective error, got %v", err)
	}
	if res != nil {
		t.Errorf("failed run returned a result")
	}
	if obj.count != 11 {
		t.Errorf("run continued after objective failure: %v evaluations", obj.count)
	}
}

// invariantRecorder checks the swarm invariants after each evaluation phase.
type invariantRecorder struct {
	t       *testing.T
	b       pso.Bounds
	minseen float64
	prev    float64
	iters   int
}

func (r *invariantRecorder) Record(iter int, pop Population, best pso.Point) error {
	if iter != r.iters {
		r.t.Errorf("recorder called for iteration %v, expected %v", iter, r.iters)
	}
	r.iters++
	for _, p := range pop {
		if !r.b.Contains(p.Pos) {
			r.t.Errorf("iter %v: particle %v outside bounds: %v", iter, p.Id, p.Pos)
		}
		r.minseen = math.Min(r.minseen, p.Val)
	}
	if best.Val != r.minseen {
		r.t.Errorf("iter %v: global best %v is not the minimum observed value %v", iter, best.Val, r.minseen)
	}
	if best.Val > r.prev {
		r.t.Errorf("iter %v: global best increased from %v to %v", iter, r.prev, best.Val)
	}
	r.prev = best.Val
	return nil
}

func TestInvariants(t *testing.T) {
	b := pso.Bounds{{Low: -5, High: 5}, {Low: -1, High: 8}}
	s, err := New(b, 15, Seed(seed))
	if err != nil {
		t.Fatal(err)
	}

	rec := &invariantRecorder{t: t, b: b, minseen: pso.Inf, prev: pso.Inf}
	res, err := s.Run(pso.Func(sphere2), RunConfig{MaxIter: 60, Recorders: []Recorder{rec}})
	if err != nil {
		t.Fatal(err)
	}
	if rec.iters != res.Iters {
		t.Errorf("recorder saw %v iterations, result has %v", rec.iters, res.Iters)
	}
	for i := 1; i < len(res.Vals); i++ {
		if res.Vals[i] > res.Vals[i-1] {
			t.Errorf("best value increased at iteration %v: %v -> %v", i, res.Vals[i-1], res.Vals[i])
		}
	}
	for _, p := range s.Pop {
		if !b.Contains(p.Pos) {
			t.Errorf("particle %v ended outside bounds: %v", p.Id, p.Pos)
		}
	}
}

type singleRecorder struct {
	t *testing.T
}

func (r singleRecorder) Record(iter int, pop Population, best pso.Point) error {
	p := pop[0]
	if p.BestVal != best.Val {
		r.t.Errorf("iter %v: personal best %v != global best %v", iter, p.BestVal, best.Val)
	}
	if diff := cmp.Diff(p.BestPos, best.Pos()); diff != "" {
		r.t.Errorf("iter %v: personal best position differs from global (-personal +global):\n%s", iter, diff)
	}
	return nil
}

func TestSingleParticle(t *testing.T) {
	s, err := New(pso.Bounds{{Low: -5, High: 5}, {Low: -5, High: 5}}, 1, Seed(seed))
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.Run(pso.Func(sphere2), RunConfig{MaxIter: 50, Recorders: []Recorder{singleRecorder{t}}})
	if err != nil {
		t.Fatal(err)
	}
}

func TestDeterminism(t *testing.T) {
	run := func() *Result {
		s, err := New(pso.Bounds{{Low: -5, High: 5}, {Low: -5, High: 5}}, 12, Seed(seed))
		if err != nil {
			t.Fatal(err)
		}
		res, err := s.Run(pso.Func(sphere2), RunConfig{MaxIter: 40, Table: true})
		if err != nil {
			t.Fatal(err)
		}
		return res
	}

	r1, r2 := run(), run()
	if diff := cmp.Diff(r1.Vals, r2.Vals); diff != "" {
		t.Errorf("seeded runs produced different values (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(r1.Positions, r2.Positions); diff != "" {
		t.Errorf("seeded runs produced different positions (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(r1.Table.RawMatrix().Data, r2.Table.RawMatrix().Data); diff != "" {
		t.Errorf("seeded runs produced different tables (-first +second):\n%s", diff)
	}
}

// valRecorder keeps every particle's value for each iteration.
type valRecorder struct {
	vals [][]float64
}

func (r *valRecorder) Record(iter int, pop Population, best pso.Point) error {
	row := make([]float64, len(pop))
	for i, p := range pop {
		row[i] = p.Val
	}
	r.vals = append(r.vals, row)
	return nil
}

func TestTable(t *testing.T) {
	const size = 8
	b := pso.Bounds{{Low: -5, High: 5}, {Low: -5, High: 5}}
	s, err := New(b, size, Seed(seed))
	if err != nil {
		t.Fatal(err)
	}

	rec := &valRecorder{}
	res, err := s.Run(pso.Func(sphere2), RunConfig{MaxIter: 30, Table: true, Recorders: []Recorder{rec}})
	if err != nil {
		t.Fatal(err)
	}

	r, c := res.Table.Dims()
	if r != size*res.Iters {
		t.Errorf("expected %v rows, got %v", size*res.Iters, r)
	}
	if c != len(b)+2 || len(TableColumns(len(b))) != c {
		t.Errorf("expected %v columns, got %v", len(b)+2, c)
	}

	for i := 0; i < r; i++ {
		iter, id := i/size, i%size
		if got := res.Table.At(i, c-1); got != float64(iter) {
			t.Errorf("row %v: expected iteration %v, got %v", i, iter, got)
		}
		if got, want := res.Table.At(i, c-2), rec.vals[iter][id]; got != want {
			t.Errorf("row %v: quality %v does not match particle %v value %v", i, got, id, want)
		}
		pos := []float64{res.Table.At(i, 0), res.Table.At(i, 1)}
		if got, want := sphere2(pos), res.Table.At(i, c-2); got != want {
			t.Errorf("row %v: position %v evaluates to %v, table quality is %v", i, pos, got, want)
		}
	}

	if diff := cmp.Diff([]string{"x_0", "x_1", "quality", "iteration"}, TableColumns(2)); diff != "" {
		t.Errorf("wrong column names (-want +got):\n%s", diff)
	}
}

func TestNoTable(t *testing.T) {
	s, err := New(pso.Bounds{{Low: -5, High: 5}}, 3, Seed(seed))
	if err != nil {
		t.Fatal(err)
	}
	res, err := s.Run(pso.Func(quadratic), RunConfig{MaxIter: 10})
	if err != nil {
		t.Fatal(err)
	}
	if res.Table != nil {
		t.Errorf("table built without being requested")
	}
}

var errSink = errors.New("sink failed")

type failRecorder struct{}

func (failRecorder) Record(int, Population, pso.Point) error { return errSink }

type captureRenderer struct {
	vals []float64
	err  error
}

func (r *captureRenderer) Render(vals []float64) error {
	r.vals = append([]float64{}, vals...)
	return r.err
}

func TestSinks(t *testing.T) {
	s, err := New(pso.Bounds{{Low: -5, High: 5}}, 3, Seed(seed))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Run(pso.Func(quadratic), RunConfig{Recorders: []Recorder{failRecorder{}}}); !errors.Is(err, errSink) {
		t.Errorf("expected recorder error, got %v", err)
	}

	r := &captureRenderer{}
	res, err := s.Run(pso.Func(quadratic), RunConfig{MaxIter: 10, Render: r})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(res.Vals, r.vals); diff != "" {
		t.Errorf("renderer got wrong values (-want +got):\n%s", diff)
	}

	r.err = errSink
	if _, err := s.Run(pso.Func(quadratic), RunConfig{MaxIter: 10, Render: r}); !errors.Is(err, errSink) {
		t.Errorf("expected renderer error, got %v", err)
	}
}

func TestIterate(t *testing.T) {
	s, err := New(pso.Bounds{{Low: -10, High: 10}}, 10, Seed(seed))
	if err != nil {
		t.Fatal(err)
	}
	prev := pso.Inf
	for i := 0; i < 20; i++ {
		best, err := s.Iterate(pso.Func(quadratic))
		if err != nil {
			t.Fatal(err)
		}
		if best.Val > prev {
			t.Errorf("iteration %v: best increased from %v to %v", i, prev, best.Val)
		}
		if best.Val != s.Pop.Best().BestVal {
			t.Errorf("iteration %v: swarm best %v != best personal best %v", i, best.Val, s.Pop.Best().BestVal)
		}
		prev = best.Val
	}
}

// nanOnce returns NaN for its first evaluation only.
type nanOnce struct {
	n int
}

func (o *nanOnce) Objective(v []float64) (float64, error) {
	o.n++
	if o.n == 1 {
		return math.NaN(), nil
	}
	return quadratic(v), nil
}

func TestNaNFirstEvaluation(t *testing.T) {
	s, err := New(pso.Bounds{{Low: -10, High: 10}}, 4, Seed(seed))
	if err != nil {
		t.Fatal(err)
	}
	res, err := s.Run(&nanOnce{}, RunConfig{MaxIter: 50})
	if err != nil {
		t.Fatal(err)
	}

	for i, v := range res.Vals {
		if math.IsNaN(v) {
			t.Fatalf("iteration %v: global best is NaN", i)
		}
	}
	for i := 1; i < len(res.Vals); i++ {
		if res.Vals[i] > res.Vals[i-1] {
			t.Errorf("best value increased at iteration %v: %v -> %v", i, res.Vals[i-1], res.Vals[i])
		}
	}
	for _, p := range s.Pop {
		if math.IsNaN(p.BestVal) {
			t.Errorf("particle %v personal best stuck at NaN", p.Id)
		}
	}
	if best := s.Pop.Best().BestVal; best != s.Best().Val {
		t.Errorf("swarm best %v != best personal best %v", s.Best().Val, best)
	}
}
