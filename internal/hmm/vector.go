package hmm

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/gridhmm/internal/grid"
)

// Belief is a probability distribution over states.
type Belief []float64

// Sum returns the total mass, 1 for a normalised belief.
func (b Belief) Sum() float64 { return floats.Sum(b) }

// ArgMax returns the most probable state. Ties go to the lowest index.
func (b Belief) ArgMax() State { return State(floats.MaxIdx(b)) }

// At returns the probability of s.
func (b Belief) At(s State) float64 { return b[s] }

func uniform(n int) *mat.VecDense {
	d := make([]float64, n)
	for i := range d {
		d[i] = 1 / float64(n)
	}
	return mat.NewVecDense(n, d)
}

func ones(n int) *mat.VecDense {
	d := make([]float64, n)
	for i := range d {
		d[i] = 1
	}
	return mat.NewVecDense(n, d)
}

// normalize scales v in place so it sums to 1.
func normalize(v []float64, algorithm string, step int) error {
	sum := floats.Sum(v)
	if sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return &NormalizationError{Algorithm: algorithm, Step: step, Sum: sum}
	}
	floats.Scale(1/sum, v)
	return nil
}

func toBelief(v *mat.VecDense) Belief {
	return Belief(mat.Col(nil, 0, v))
}

// checkEvidence rejects empty sequences and unknown colours before any
// matrix is indexed.
func checkEvidence(evidence []grid.Color) error {
	if len(evidence) == 0 {
		return &InvalidLengthError{Length: 0}
	}
	for i, c := range evidence {
		if !c.Valid() {
			return &UnknownObservationError{Step: i + 1, Color: c}
		}
	}
	return nil
}

// forward advances a filtering message by one reading:
// normalize(O_c · Tᵀ · prev).
func (m *Model) forward(prev *mat.VecDense, c grid.Color, algorithm string, step int) (*mat.VecDense, error) {
	var predicted mat.VecDense
	predicted.MulVec(m.TransitionT, prev)

	next := mat.NewVecDense(m.States(), nil)
	next.MulVec(m.Sensors[c], &predicted)
	if err := normalize(next.RawVector().Data, algorithm, step); err != nil {
		return nil, err
	}
	return next, nil
}
