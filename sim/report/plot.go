package report

import (
	"fmt"
	"image/color"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	sim "github.com/inference-sim/blocktime-sim/sim"
)

// PlotSink renders the dynamic interval against elapsed time as a
// line-and-marker chart. The output format follows Path's extension
// (.png, .svg, .pdf, ...).
type PlotSink struct {
	Path   string
	Width  vg.Length
	Height vg.Length
}

// NewPlotSink creates a 10x6 inch PlotSink writing to path.
func NewPlotSink(path string) *PlotSink {
	return &PlotSink{Path: path, Width: 10 * vg.Inch, Height: 6 * vg.Inch}
}

func (s *PlotSink) Observe(sim.Observation) {}

// Render writes the chart. Non-finite points are left out.
func (s *PlotSink) Render(res *sim.Result) error {
	p, err := IntervalPlot(res)
	if err != nil {
		return err
	}
	if err := p.Save(s.Width, s.Height, s.Path); err != nil {
		return fmt.Errorf("saving plot %s: %w", s.Path, err)
	}
	logrus.Infof("Plot written to %s", s.Path)
	return nil
}

// IntervalPlot builds the dynamic interval chart without saving it.
func IntervalPlot(res *sim.Result) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Dynamic Interval over Time"
	p.X.Label.Text = "Time (seconds)"
	p.Y.Label.Text = "Dynamic Interval (seconds)"
	p.Add(plotter.NewGrid())

	pts := finitePoints(res.Series.Elapsed, res.Series.DynamicInterval)
	if skipped := res.Series.Len() - len(pts); skipped > 0 {
		logrus.Warnf("plot: skipped %d non-finite dynamic interval values", skipped)
	}
	if len(pts) == 0 {
		return p, nil
	}

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, fmt.Errorf("building plot series: %w", err)
	}
	blue := color.RGBA{B: 255, A: 255}
	line.Color = blue
	points.Color = blue
	points.Shape = draw.CircleGlyph{}
	p.Add(line, points)
	return p, nil
}

func finitePoints(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, 0, len(xs))
	for i := range xs {
		if math.IsNaN(ys[i]) || math.IsInf(ys[i], 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: xs[i], Y: ys[i]})
	}
	return pts
}
