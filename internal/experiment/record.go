package experiment

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/banshee-data/gridhmm/internal/db"
	"github.com/banshee-data/gridhmm/internal/grid"
	"github.com/banshee-data/gridhmm/internal/report"
)

// Record converts the result into a storable run.
func (r *Result) Record() (*db.Run, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return &db.Run{
		Name:               r.Name,
		Seed:               r.Seed,
		PathLength:         r.PathLength,
		Width:              r.Width,
		Height:             r.Height,
		Map:                r.Map,
		FilterAccuracy:     r.Summary.FilterAccuracy,
		SmoothAccuracy:     r.Summary.SmoothAccuracy,
		ViterbiAccuracy:    r.Summary.ViterbiAccuracy,
		ViterbiProbability: r.Summary.ViterbiProbability,
		DurationMS:         float64(r.Timings.Total.Microseconds()) / 1000,
		Result:             payload,
	}, nil
}

// FromRecord decodes the result stored with run.
func FromRecord(run *db.Run) (*Result, error) {
	if len(run.Result) == 0 {
		return nil, fmt.Errorf("run %s has no stored result", run.RunID)
	}
	var r Result
	if err := json.Unmarshal(run.Result, &r); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", run.RunID, err)
	}
	return &r, nil
}

// View prepares the result for rendering.
func (r *Result) View() (report.RunView, error) {
	g, err := grid.Parse(strings.NewReader(r.Map))
	if err != nil {
		return report.RunView{}, fmt.Errorf("parse run map: %w", err)
	}
	walls := make([]bool, g.Width()*g.Height())
	for i := range walls {
		walls[i] = g.IsWall(i%g.Width(), i/g.Width())
	}

	title := r.Name
	if title == "" {
		title = fmt.Sprintf("seed %d", r.Seed)
	}
	v := report.RunView{
		Title:           title,
		Width:           g.Width(),
		Height:          g.Height(),
		Walls:           walls,
		Steps:           make([]report.StepView, len(r.Steps)),
		FilterAccuracy:  r.Summary.FilterAccuracy,
		SmoothAccuracy:  r.Summary.SmoothAccuracy,
		ViterbiAccuracy: r.Summary.ViterbiAccuracy,
	}
	for i, s := range r.Steps {
		v.Steps[i] = report.StepView{
			TrueState:    int(s.TrueState),
			Observed:     s.Observed,
			Filtered:     s.Filtered,
			Smoothed:     s.Smoothed,
			ViterbiState: int(s.ViterbiState),
		}
	}
	return v, nil
}

// WritePlots renders PNG plots for the result into dir.
func (r *Result) WritePlots(dir string) ([]string, error) {
	v, err := r.View()
	if err != nil {
		return nil, err
	}
	return report.WritePlots(dir, v)
}

// WritePage renders the HTML report for the result.
func (r *Result) WritePage(w io.Writer) error {
	v, err := r.View()
	if err != nil {
		return err
	}
	return report.RenderRunPage(w, v)
}
