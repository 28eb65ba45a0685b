package hmm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/gridhmm/internal/grid"
)

// MaxStates caps Width*Height. The model keeps two dense N×N matrices and
// decoding is quadratic in N per step.
const MaxStates = 4096

// Model holds the matrices shared by every inference call. It is never
// mutated after construction.
type Model struct {
	Width  int
	Height int

	// Transition[s][s'] is the probability of moving from s to s'.
	Transition *mat.Dense
	// TransitionT is Transition transposed, used by the forward recurrence.
	TransitionT *mat.Dense
	// Sensors[c] has the likelihood of reading c at s on its diagonal.
	Sensors [grid.NumColors]*mat.DiagDense
}

// States returns the number of states, Width*Height.
func (m *Model) States() int { return m.Width * m.Height }

// Sensor returns the observation matrix for c.
func (m *Model) Sensor(c grid.Color) *mat.DiagDense { return m.Sensors[c] }

// TransitionProb returns the one-step probability of moving from a to b.
func (m *Model) TransitionProb(a, b State) float64 {
	return m.Transition.At(int(a), int(b))
}

// Feasible reports whether every consecutive pair in path has non-zero
// transition probability.
func (m *Model) Feasible(path []State) bool {
	n := State(m.States())
	for i, s := range path {
		if s < 0 || s >= n {
			return false
		}
		if i > 0 && m.TransitionProb(path[i-1], s) <= 0 {
			return false
		}
	}
	return true
}

// BuildModel derives the transition and sensor matrices from g.
//
// A move is legal when its destination is in bounds and not a wall. Each
// state spreads its mass evenly over its legal moves. A state with no legal
// move gets an all-zero row. Every floor cell must carry a colour; walls
// read each colour with equal likelihood.
func BuildModel(g GridModel) (*Model, error) {
	w, h := g.Width(), g.Height()
	if w <= 0 || h <= 0 {
		return nil, &grid.FormatError{Reason: fmt.Sprintf("grid reports dimensions %dx%d", w, h)}
	}
	if w > MaxStates || h > MaxStates || w*h > MaxStates {
		return nil, &grid.FormatError{Reason: fmt.Sprintf("grid %dx%d has more than %d cells", w, h, MaxStates)}
	}
	n := w * h

	trans := mat.NewDense(n, n, nil)
	var dest [len(Actions)]int
	for s := 0; s < n; s++ {
		x, y := State(s).XY(w)
		k := 0
		for _, a := range Actions {
			nx, ny := x+a.DX, y+a.DY
			if g.IsLegal(nx, ny) {
				dest[k] = int(XYToState(nx, ny, w))
				k++
			}
		}
		if k == 0 {
			continue
		}
		p := 1.0 / float64(k)
		for _, d := range dest[:k] {
			trans.Set(s, d, trans.At(s, d)+p)
		}
	}

	m := &Model{
		Width:       w,
		Height:      h,
		Transition:  trans,
		TransitionT: mat.DenseCopyOf(trans.T()),
	}

	var diags [grid.NumColors][]float64
	for c := range diags {
		diags[c] = make([]float64, n)
	}
	for s := 0; s < n; s++ {
		x, y := State(s).XY(w)
		if !g.IsLegal(x, y) {
			for c := range diags {
				diags[c][s] = wallLikelihood
			}
			continue
		}
		truth := g.ColorAt(x, y)
		if !truth.Valid() {
			return nil, &grid.FormatError{Reason: fmt.Sprintf("floor cell (%d,%d) has no colour", x, y)}
		}
		for c := range diags {
			if grid.Color(c) == truth {
				diags[c][s] = SensorHit
			} else {
				diags[c][s] = SensorMiss
			}
		}
	}
	for c := range diags {
		m.Sensors[c] = mat.NewDiagDense(n, diags[c])
	}
	return m, nil
}

// NewModel assembles a model from caller-supplied matrices, for worlds that
// do not come from a grid. The matrices are copied.
func NewModel(width, height int, transition mat.Matrix, sensors [grid.NumColors]mat.Diagonal) (*Model, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("hmm: model dimensions must be positive, got %dx%d", width, height)
	}
	n := width * height
	if r, c := transition.Dims(); r != n || c != n {
		return nil, fmt.Errorf("hmm: transition matrix is %dx%d, want %dx%d", r, c, n, n)
	}
	trans := mat.DenseCopyOf(transition)
	for i := 0; i < n; i++ {
		for _, v := range trans.RawRowView(i) {
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("hmm: transition row %d has invalid entry %g", i, v)
			}
		}
	}

	m := &Model{
		Width:       width,
		Height:      height,
		Transition:  trans,
		TransitionT: mat.DenseCopyOf(trans.T()),
	}
	for c, s := range sensors {
		if s == nil {
			return nil, fmt.Errorf("hmm: missing sensor matrix for %v", grid.Color(c))
		}
		if s.Diag() != n {
			return nil, fmt.Errorf("hmm: sensor matrix for %v has size %d, want %d", grid.Color(c), s.Diag(), n)
		}
		d := make([]float64, n)
		for i := range d {
			v := s.At(i, i)
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("hmm: sensor %v state %d has invalid likelihood %g", grid.Color(c), i, v)
			}
			d[i] = v
		}
		m.Sensors[c] = mat.NewDiagDense(n, d)
	}
	return m, nil
}
