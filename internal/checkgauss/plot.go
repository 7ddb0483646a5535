package checkgauss

import (
	"fmt"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"bwestbro.com/gausswrangler/internal/gaussian"
	"bwestbro.com/gausswrangler/internal/status"
)

const (
	plotSuffix = "_conv"
	plotWidth  = 6 * vg.Inch
	plotHeight = 4 * vg.Inch
)

// PlotSteps saves the convergence of each step in steps, read from f,
// to <base>_conv.png next to f
func (c *Checker) PlotSteps(f string, steps []gaussian.Step) error {
	pts := make(plotter.XYs, len(steps))
	for i, s := range steps {
		pts[i].X = float64(s.Num)
		pts[i].Y = s.Convergence
	}
	p := plot.New()
	p.Title.Text = "Convergence of " + filepath.Base(f)
	p.X.Label.Text = "Step number"
	p.Y.Label.Text = "Convergence"
	p.Add(plotter.NewGrid())
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return status.Errorf(status.Data, "Could not plot %s: %v", f, err)
	}
	p.Add(line, points)
	out := outName(f, plotSuffix, ".png")
	if err := p.Save(plotWidth, plotHeight, out); err != nil {
		return status.Errorf(status.IO, "Could not write %s: %v", out, err)
	}
	fmt.Fprintf(c.Out, "Wrote file: %s\n", out)
	return nil
}
