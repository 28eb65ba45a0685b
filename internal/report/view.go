// Package report renders experiment runs as PNG plots and an HTML page.
package report

import "gonum.org/v1/gonum/floats"

// RunView is the rendering input for one run. Beliefs are indexed by state,
// y*Width + x.
type RunView struct {
	Title  string
	Width  int
	Height int
	Walls  []bool
	Steps  []StepView

	FilterAccuracy  float64
	SmoothAccuracy  float64
	ViterbiAccuracy float64
}

// StepView is one time step of a run.
type StepView struct {
	TrueState    int
	Observed     string
	Filtered     []float64
	Smoothed     []float64
	ViterbiState int
}

// TruthProbabilities returns, per step, the mass the filtered and smoothed
// beliefs put on the true state.
func (v RunView) TruthProbabilities() (filtered, smoothed []float64) {
	filtered = make([]float64, len(v.Steps))
	smoothed = make([]float64, len(v.Steps))
	for i, s := range v.Steps {
		if s.TrueState >= 0 && s.TrueState < len(s.Filtered) {
			filtered[i] = s.Filtered[s.TrueState]
		}
		if s.TrueState >= 0 && s.TrueState < len(s.Smoothed) {
			smoothed[i] = s.Smoothed[s.TrueState]
		}
	}
	return filtered, smoothed
}

func (v RunView) isWall(state int) bool {
	return state < len(v.Walls) && v.Walls[state]
}

func peak(p []float64) float64 {
	if len(p) == 0 {
		return 0
	}
	return floats.Max(p)
}
