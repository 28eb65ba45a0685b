package hmm

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/gridhmm/internal/grid"
)

// Smooth runs forward-backward and returns, for every step, the
// distribution over that step's state given the whole evidence sequence.
func Smooth(m *Model, evidence []grid.Color) ([]Belief, error) {
	if err := checkEvidence(evidence); err != nil {
		return nil, err
	}
	fwd, err := m.forwardPass(evidence, "smooth")
	if err != nil {
		return nil, err
	}

	n := m.States()
	out := make([]Belief, len(evidence))
	b := ones(n)
	for t := len(evidence) - 1; t >= 0; t-- {
		s := mat.NewVecDense(n, nil)
		s.MulElemVec(fwd[t], b)
		if err := normalize(s.RawVector().Data, "smooth", t+1); err != nil {
			return nil, err
		}
		out[t] = toBelief(s)

		if t == 0 {
			break
		}
		// b_{t-1} = T · O_t · b_t
		var weighted mat.VecDense
		weighted.MulVec(m.Sensors[evidence[t]], b)
		next := mat.NewVecDense(n, nil)
		next.MulVec(m.Transition, &weighted)
		// Rescaling does not change any smoothed result; it keeps long
		// sequences out of underflow.
		raw := next.RawVector().Data
		if sum := floats.Sum(raw); sum > 0 && !math.IsInf(sum, 0) {
			floats.Scale(1/sum, raw)
		}
		b = next
	}
	return out, nil
}
