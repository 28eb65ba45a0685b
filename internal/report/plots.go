package report

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// maxHeatmapSteps caps how many per-step heatmaps WritePlots emits.
const maxHeatmapSteps = 25

// beliefGrid adapts a belief vector to plotter.GridXYZ. Walls are NaN so
// the heatmap paints them with its NaN colour.
type beliefGrid struct {
	view RunView
	p    []float64
}

func (g beliefGrid) Dims() (c, r int) { return g.view.Width, g.view.Height }
func (g beliefGrid) X(c int) float64   { return float64(c) }
func (g beliefGrid) Y(r int) float64   { return float64(r) }
func (g beliefGrid) Min() float64      { return 0 }

func (g beliefGrid) Z(c, r int) float64 {
	s := r*g.view.Width + c
	if g.view.isWall(s) {
		return math.NaN()
	}
	return g.p[s]
}

func (g beliefGrid) Max() float64 {
	return math.Max(peak(g.p), 1e-12)
}

// WritePlots renders the run into dir: one line plot of the probability
// assigned to the true state, and a filtered and smoothed heatmap for each
// step (up to maxHeatmapSteps). It returns the files written.
func WritePlots(dir string, view RunView) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create plot dir: %w", err)
	}

	var files []string
	truthFile := filepath.Join(dir, "truth_probability.png")
	if err := WriteTruthPlot(truthFile, view); err != nil {
		return files, err
	}
	files = append(files, truthFile)

	for i, s := range view.Steps {
		if i >= maxHeatmapSteps {
			break
		}
		for _, kind := range []struct {
			name string
			p    []float64
		}{
			{"filtered", s.Filtered},
			{"smoothed", s.Smoothed},
		} {
			file := filepath.Join(dir, fmt.Sprintf("step_%03d_%s.png", i+1, kind.name))
			title := fmt.Sprintf("Step %d - %s (observed %s)", i+1, kind.name, s.Observed)
			if err := WriteBeliefHeatmap(file, view, kind.p, s.TrueState, title); err != nil {
				return files, err
			}
			files = append(files, file)
		}
	}
	return files, nil
}

// WriteBeliefHeatmap draws one belief over the grid, marking the true state
// with a cross.
func WriteBeliefHeatmap(file string, view RunView, belief []float64, trueState int, title string) error {
	if len(belief) != view.Width*view.Height {
		return fmt.Errorf("belief has %d states, grid has %d", len(belief), view.Width*view.Height)
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"

	hm := plotter.NewHeatMap(beliefGrid{view: view, p: belief}, palette.Heat(12, 1))
	hm.NaN = color.Gray{Y: 60}
	p.Add(hm)

	if trueState >= 0 && view.Width > 0 {
		pts := plotter.XYs{{X: float64(trueState % view.Width), Y: float64(trueState / view.Width)}}
		truth, err := plotter.NewScatter(pts)
		if err != nil {
			return err
		}
		truth.GlyphStyle.Shape = draw.CrossGlyph{}
		truth.GlyphStyle.Radius = vg.Points(6)
		truth.GlyphStyle.Color = color.RGBA{B: 255, A: 255}
		p.Add(truth)
		p.Legend.Add("true state", truth)
	}

	side := 1.2 * vg.Inch * vg.Length(math.Max(float64(view.Width), float64(view.Height)))
	side = vg.Length(math.Max(float64(side), float64(4*vg.Inch)))
	if err := p.Save(side, side, file); err != nil {
		return fmt.Errorf("save heatmap: %w", err)
	}
	return nil
}

// WriteTruthPlot draws the probability of the true state per step for the
// filtered and smoothed beliefs.
func WriteTruthPlot(file string, view RunView) error {
	filtered, smoothed := view.TruthProbabilities()

	p := plot.New()
	p.Title.Text = "Probability of true state"
	if view.Title != "" {
		p.Title.Text += " - " + view.Title
	}
	p.X.Label.Text = "Step"
	p.Y.Label.Text = "P(true state)"
	p.Y.Min = 0
	p.Y.Max = 1

	for _, series := range []struct {
		name string
		ys   []float64
		col  color.Color
	}{
		{"filtered", filtered, color.RGBA{R: 220, G: 80, B: 40, A: 255}},
		{"smoothed", smoothed, color.RGBA{R: 40, G: 120, B: 220, A: 255}},
	} {
		pts := make(plotter.XYs, len(series.ys))
		for i, y := range series.ys {
			pts[i] = plotter.XY{X: float64(i + 1), Y: y}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = series.col
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(series.name, line)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(10*vg.Inch, 5*vg.Inch, file); err != nil {
		return fmt.Errorf("save truth plot: %w", err)
	}
	return nil
}
