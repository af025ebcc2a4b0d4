package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/rwcarlsen/pso/swarm"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// WriteCSV writes a run table (see swarm.TableColumns) as CSV with a header
// row.
func WriteCSV(w io.Writer, tbl mat.Matrix) error {
	r, c := tbl.Dims()
	if c < 2 {
		return fmt.Errorf("report: table has %v columns, need at least 2", c)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(swarm.TableColumns(c - 2)); err != nil {
		return err
	}

	rec := make([]string, c)
	for i := 0; i < r; i++ {
		for j := range rec {
			rec[j] = strconv.FormatFloat(tbl.At(i, j), 'g', -1, 64)
		}
		// iteration column holds integers
		rec[c-1] = strconv.Itoa(int(tbl.At(i, c-1)))
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Summary describes a finished run.
type Summary struct {
	Iters     int
	Converged bool
	Best      float64
	BestPos   []float64
	// FirstBest is the first iteration at which the final best value was
	// reached.
	FirstBest int
}

func Summarize(res *swarm.Result) Summary {
	s := Summary{Iters: res.Iters, Converged: res.Converged, Best: res.Best().Val, BestPos: res.Best().Pos()}
	if len(res.Vals) > 0 {
		s.FirstBest = floats.MinIdx(res.Vals)
	}
	return s
}

func (s Summary) String() string {
	reason := "iteration limit"
	if s.Converged {
		reason = "converged"
	}
	return fmt.Sprintf("%v after %v iterations: best %v at %v (first reached at iteration %v)",
		reason, s.Iters, s.Best, s.BestPos, s.FirstBest)
}
