// Package experiment runs one end-to-end simulation: build the model from a
// map, simulate a walk, run the three inference algorithms and score each
// against the ground truth.
package experiment

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/banshee-data/gridhmm/internal/grid"
	"github.com/banshee-data/gridhmm/internal/hmm"
	"github.com/banshee-data/gridhmm/internal/metrics"
	"github.com/banshee-data/gridhmm/internal/monitoring"
	"github.com/banshee-data/gridhmm/internal/timeutil"
)

// Config describes one run.
type Config struct {
	Name       string
	PathLength int
	Seed       int64
}

// Step is the record for one time step.
type Step struct {
	T            int        `json:"t"`
	TrueState    hmm.State  `json:"true_state"`
	TrueColor    string     `json:"true_color"`
	Observed     string     `json:"observed"`
	Filtered     hmm.Belief `json:"filtered"`
	Smoothed     hmm.Belief `json:"smoothed"`
	FilterBest   hmm.State  `json:"filter_best"`
	SmoothBest   hmm.State  `json:"smooth_best"`
	ViterbiState hmm.State  `json:"viterbi_state"`
}

// Summary scores a run.
type Summary struct {
	FilterAccuracy     float64 `json:"filter_accuracy"`
	SmoothAccuracy     float64 `json:"smooth_accuracy"`
	ViterbiAccuracy    float64 `json:"viterbi_accuracy"`
	FilterTruthMass    float64 `json:"filter_truth_mass"`
	SmoothTruthMass    float64 `json:"smooth_truth_mass"`
	ViterbiProbability float64 `json:"viterbi_probability"`
	ViterbiFeasible    bool    `json:"viterbi_feasible"`
	SensorHitRate      float64 `json:"sensor_hit_rate"`
}

// Timings records how long each stage took.
type Timings struct {
	Build    time.Duration `json:"build_ns"`
	Simulate time.Duration `json:"simulate_ns"`
	Filter   time.Duration `json:"filter_ns"`
	Smooth   time.Duration `json:"smooth_ns"`
	Viterbi  time.Duration `json:"viterbi_ns"`
	Total    time.Duration `json:"total_ns"`
}

// Result is everything a run produced.
type Result struct {
	Name        string      `json:"name"`
	Seed        int64       `json:"seed"`
	PathLength  int         `json:"path_length"`
	Width       int         `json:"width"`
	Height      int         `json:"height"`
	Map         string      `json:"map"`
	Path        []hmm.State `json:"path"`
	TrueColors  string      `json:"true_colors"`
	Evidence    string      `json:"evidence"`
	ViterbiPath []hmm.State `json:"viterbi_path"`
	Steps       []Step      `json:"steps"`
	Summary     Summary     `json:"summary"`
	Timings     Timings     `json:"timings"`
}

// Runner executes runs. The zero value is ready to use and records no
// metrics.
type Runner struct {
	Metrics *metrics.Collectors
	// Clock times each stage; nil means the wall clock.
	Clock timeutil.Clock
}

// NewRunner returns a Runner that reports to m, which may be nil.
func NewRunner(m *metrics.Collectors) *Runner {
	return &Runner{Metrics: m, Clock: timeutil.RealClock{}}
}

func (r *Runner) clock() timeutil.Clock {
	if r.Clock == nil {
		return timeutil.RealClock{}
	}
	return r.Clock
}

// Run executes one experiment on a copy of g. Uncoloured floor cells are
// painted from the run's seeded source before the walk is drawn, so the
// same map, seed and length always give the same result.
func (r *Runner) Run(g *grid.Grid, cfg Config) (*Result, error) {
	res, err := r.run(g, cfg)
	if err != nil {
		r.Metrics.RunFailed(err)
		monitoring.Logf("run %q failed: %v", cfg.Name, err)
		return nil, err
	}
	r.Metrics.RunSucceeded()
	r.Metrics.SetAccuracy("filter", res.Summary.FilterAccuracy)
	r.Metrics.SetAccuracy("smooth", res.Summary.SmoothAccuracy)
	r.Metrics.SetAccuracy("viterbi", res.Summary.ViterbiAccuracy)
	monitoring.Logf("run %q: %dx%d grid, %d steps, seed %d: accuracy filter=%.2f smooth=%.2f viterbi=%.2f in %v",
		cfg.Name, res.Width, res.Height, res.PathLength, res.Seed,
		res.Summary.FilterAccuracy, res.Summary.SmoothAccuracy, res.Summary.ViterbiAccuracy, res.Timings.Total)
	return res, nil
}

func (r *Runner) run(g *grid.Grid, cfg Config) (*Result, error) {
	if g == nil {
		return nil, &grid.FormatError{Reason: "no grid"}
	}
	if cfg.PathLength < 1 {
		return nil, &hmm.InvalidLengthError{Length: cfg.PathLength}
	}
	clock := r.clock()
	start := clock.Now()
	rng := rand.New(rand.NewSource(cfg.Seed))

	world := g.Clone()
	world.PaintMissing(rng)

	var timings Timings
	t0 := clock.Now()
	model, err := hmm.BuildModel(world)
	if err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}
	timings.Build = clock.Since(t0)

	t0 = clock.Now()
	traj, err := hmm.SimulateTrajectory(world, cfg.PathLength, rng)
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}
	timings.Simulate = clock.Since(t0)

	t0 = clock.Now()
	filtered, err := hmm.Filter(model, traj.Evidence)
	if err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	timings.Filter = clock.Since(t0)
	r.Metrics.ObserveInference("filter", timings.Filter)

	t0 = clock.Now()
	smoothed, err := hmm.Smooth(model, traj.Evidence)
	if err != nil {
		return nil, fmt.Errorf("smooth: %w", err)
	}
	timings.Smooth = clock.Since(t0)
	r.Metrics.ObserveInference("smooth", timings.Smooth)

	t0 = clock.Now()
	decoded, err := hmm.Viterbi(model, traj.Evidence)
	if err != nil {
		return nil, fmt.Errorf("viterbi: %w", err)
	}
	timings.Viterbi = clock.Since(t0)
	r.Metrics.ObserveInference("viterbi", timings.Viterbi)

	res := &Result{
		Name:        cfg.Name,
		Seed:        cfg.Seed,
		PathLength:  cfg.PathLength,
		Width:       world.Width(),
		Height:      world.Height(),
		Map:         world.String(),
		Path:        traj.Path,
		TrueColors:  grid.FormatColors(traj.TrueColors),
		Evidence:    grid.FormatColors(traj.Evidence),
		ViterbiPath: decoded.Path,
		Steps:       make([]Step, cfg.PathLength),
	}
	for i, truth := range traj.Path {
		res.Steps[i] = Step{
			T:            i + 1,
			TrueState:    truth,
			TrueColor:    traj.TrueColors[i].String(),
			Observed:     traj.Evidence[i].String(),
			Filtered:     filtered[i],
			Smoothed:     smoothed[i],
			FilterBest:   filtered[i].ArgMax(),
			SmoothBest:   smoothed[i].ArgMax(),
			ViterbiState: decoded.Path[i],
		}
	}
	res.Summary = score(res.Steps, traj)
	res.Summary.ViterbiProbability = decoded.Probability
	res.Summary.ViterbiFeasible = model.Feasible(decoded.Path)

	timings.Total = clock.Since(start)
	res.Timings = timings
	return res, nil
}

func score(steps []Step, traj *hmm.Trajectory) Summary {
	var s Summary
	n := float64(len(steps))
	if n == 0 {
		return s
	}
	hits := 0
	for i, st := range steps {
		if st.FilterBest == st.TrueState {
			s.FilterAccuracy++
		}
		if st.SmoothBest == st.TrueState {
			s.SmoothAccuracy++
		}
		if st.ViterbiState == st.TrueState {
			s.ViterbiAccuracy++
		}
		s.FilterTruthMass += st.Filtered.At(st.TrueState)
		s.SmoothTruthMass += st.Smoothed.At(st.TrueState)
		if traj.Evidence[i] == traj.TrueColors[i] {
			hits++
		}
	}
	s.FilterAccuracy /= n
	s.SmoothAccuracy /= n
	s.ViterbiAccuracy /= n
	s.FilterTruthMass /= n
	s.SmoothTruthMass /= n
	s.SensorHitRate = float64(hits) / n
	return s
}
