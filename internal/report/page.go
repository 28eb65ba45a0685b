package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// RenderRunPage writes an HTML page with the truth-probability curves,
// per-algorithm accuracy and a heatmap of the first and last smoothed
// beliefs.
func RenderRunPage(w io.Writer, view RunView) error {
	if len(view.Steps) == 0 {
		return fmt.Errorf("run has no steps")
	}
	page := components.NewPage()
	page.SetPageTitle(pageTitle(view))
	page.AddCharts(
		truthLine(view),
		accuracyBar(view),
		beliefHeatmap(view, 0, "smoothed"),
		beliefHeatmap(view, len(view.Steps)-1, "smoothed"),
	)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render run page: %w", err)
	}
	return nil
}

func pageTitle(view RunView) string {
	if view.Title == "" {
		return "Grid HMM run"
	}
	return "Grid HMM run " + view.Title
}

func truthLine(view RunView) *charts.Line {
	filtered, smoothed := view.TruthProbabilities()
	xs := make([]string, len(view.Steps))
	fData := make([]opts.LineData, len(view.Steps))
	sData := make([]opts.LineData, len(view.Steps))
	for i := range view.Steps {
		xs[i] = strconv.Itoa(i + 1)
		fData[i] = opts.LineData{Value: filtered[i]}
		sData[i] = opts.LineData{Value: smoothed[i]}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Probability of true state", Subtitle: view.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "step"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "P", Min: 0, Max: 1}),
	)
	line.SetXAxis(xs).
		AddSeries("filtered", fData).
		AddSeries("smoothed", sData)
	return line
}

func accuracyBar(view RunView) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "320px"}),
		charts.WithTitleOpts(opts.Title{Title: "Accuracy", Subtitle: "fraction of steps where the best state was the true state"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1}),
	)
	bar.SetXAxis([]string{"filter", "smooth", "viterbi"}).
		AddSeries("accuracy", []opts.BarData{
			{Value: view.FilterAccuracy},
			{Value: view.SmoothAccuracy},
			{Value: view.ViterbiAccuracy},
		}, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
	return bar
}

func beliefHeatmap(view RunView, step int, kind string) *charts.HeatMap {
	s := view.Steps[step]
	belief := s.Smoothed
	if kind == "filtered" {
		belief = s.Filtered
	}

	xs := make([]string, view.Width)
	for x := range xs {
		xs[x] = strconv.Itoa(x)
	}
	ys := make([]string, view.Height)
	for y := range ys {
		ys[y] = strconv.Itoa(y)
	}

	data := make([]opts.HeatMapData, 0, len(belief))
	for state, p := range belief {
		if view.isWall(state) {
			continue
		}
		data = append(data, opts.HeatMapData{Value: [3]interface{}{state % view.Width, state / view.Width, p}})
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "520px", Height: "520px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Step %d %s belief", step+1, kind),
			Subtitle: fmt.Sprintf("true state %d, observed %s", s.TrueState, s.Observed),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: xs, Name: "x"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: ys, Name: "y"}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(peak(belief)),
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	hm.SetXAxis(xs).AddSeries(kind, data)
	return hm
}
