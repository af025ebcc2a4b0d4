package report

import (
	"errors"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Plot is a swarm.Renderer that saves the convergence curve (global best
// value vs. iteration) to an image file.  The image format follows the
// extension of Path (png, svg, pdf, ...).
type Plot struct {
	Path   string
	Title  string
	Width  vg.Length
	Height vg.Length
	// LogY plots the value axis on a log scale.  It is ignored unless
	// every plotted value is positive.
	LogY bool
}

var errNoPoints = errors.New("report: no finite values to plot")

func (r *Plot) Render(vals []float64) error {
	p := plot.New()
	p.Title.Text = r.Title
	if p.Title.Text == "" {
		p.Title.Text = "swarm convergence"
	}
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = "best value"

	pts := make(plotter.XYs, 0, len(vals))
	positive := true
	for i, v := range vals {
		// unevaluated (+Inf) and NaN values cannot be drawn
		if math.IsInf(v, 0) || math.IsNaN(v) {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(i), Y: v})
		positive = positive && v > 0
	}
	if len(pts) == 0 {
		return errNoPoints
	}

	if r.LogY && positive {
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	p.Add(line, plotter.NewGrid())

	w, h := r.Width, r.Height
	if w == 0 {
		w = 6 * vg.Inch
	}
	if h == 0 {
		h = 4 * vg.Inch
	}
	return p.Save(w, h, r.Path)
}
