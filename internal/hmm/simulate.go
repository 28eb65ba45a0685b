package hmm

import (
	"fmt"

	"github.com/banshee-data/gridhmm/internal/grid"
)

const (
	// startDrawsPerCell bounds start-cell rejection sampling at this many
	// draws per grid cell.
	startDrawsPerCell = 64
	// maxMoveDraws bounds the rejection loop for a single step. Stay is
	// always legal from a floor cell, so each draw succeeds with at least
	// probability 1/5.
	maxMoveDraws = 1000
)

// SimulateTrajectory walks length steps over g and records what the sensor
// reports at each one.
//
// The start cell and every move are drawn by rejection sampling: random
// coordinates (or actions) are drawn until a legal one turns up. This is
// not the same distribution as sampling from the model's transition rows,
// since cells with more open neighbours are left more often.
//
// The full path is drawn before any reading, so the same seed over the same
// grid always produces the same walk regardless of evidence draws.
func SimulateTrajectory(g GridModel, length int, rng Rand) (*Trajectory, error) {
	if length < 1 {
		return nil, &InvalidLengthError{Length: length}
	}
	w, h := g.Width(), g.Height()
	if w <= 0 || h <= 0 {
		return nil, &grid.FormatError{Reason: fmt.Sprintf("grid reports dimensions %dx%d", w, h)}
	}
	if !hasFloor(g) {
		return nil, ErrNoFloor
	}

	x, y, err := drawStart(g, rng)
	if err != nil {
		return nil, err
	}
	path := make([]State, length)
	path[0] = XYToState(x, y, w)
	for i := 1; i < length; i++ {
		x, y, err = drawMove(g, x, y, rng)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		path[i] = XYToState(x, y, w)
	}

	truth := make([]grid.Color, length)
	evidence := make([]grid.Color, length)
	for i, s := range path {
		sx, sy := s.XY(w)
		c := g.ColorAt(sx, sy)
		if !c.Valid() {
			return nil, &grid.FormatError{Reason: fmt.Sprintf("floor cell (%d,%d) has no colour", sx, sy)}
		}
		truth[i] = c
		evidence[i] = observe(c, rng)
	}

	return &Trajectory{Path: path, TrueColors: truth, Evidence: evidence}, nil
}

func hasFloor(g GridModel) bool {
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			if g.IsLegal(x, y) {
				return true
			}
		}
	}
	return false
}

func drawStart(g GridModel, rng Rand) (int, int, error) {
	w, h := g.Width(), g.Height()
	limit := startDrawsPerCell * w * h
	for i := 0; i < limit; i++ {
		x, y := rng.Intn(w), rng.Intn(h)
		if g.IsLegal(x, y) {
			return x, y, nil
		}
	}
	return 0, 0, fmt.Errorf("start cell after %d draws: %w", limit, ErrSamplingExhausted)
}

func drawMove(g GridModel, x, y int, rng Rand) (int, int, error) {
	for i := 0; i < maxMoveDraws; i++ {
		a := Actions[rng.Intn(len(Actions))]
		nx, ny := x+a.DX, y+a.DY
		if g.IsLegal(nx, ny) {
			return nx, ny, nil
		}
	}
	return 0, 0, fmt.Errorf("move from (%d,%d) after %d draws: %w", x, y, maxMoveDraws, ErrSamplingExhausted)
}

// observe returns truth with probability SensorHit and otherwise one of the
// other three colours uniformly.
func observe(truth grid.Color, rng Rand) grid.Color {
	if rng.Float64() < SensorHit {
		return truth
	}
	k := grid.Color(rng.Intn(grid.NumColors - 1))
	if k >= truth {
		k++
	}
	return k
}
