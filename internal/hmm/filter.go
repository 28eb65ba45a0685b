package hmm

import (
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/gridhmm/internal/grid"
)

// Filter returns, for every step, the distribution over the current state
// given the readings up to and including that step. It starts from a
// uniform prior over all states.
func Filter(m *Model, evidence []grid.Color) ([]Belief, error) {
	if err := checkEvidence(evidence); err != nil {
		return nil, err
	}
	msgs, err := m.forwardPass(evidence, "filter")
	if err != nil {
		return nil, err
	}
	out := make([]Belief, len(msgs))
	for t, f := range msgs {
		out[t] = toBelief(f)
	}
	return out, nil
}

// forwardPass keeps every forward message; evidence must already be checked.
func (m *Model) forwardPass(evidence []grid.Color, algorithm string) ([]*mat.VecDense, error) {
	msgs := make([]*mat.VecDense, len(evidence))
	f := uniform(m.States())
	for t, c := range evidence {
		next, err := m.forward(f, c, algorithm, t+1)
		if err != nil {
			return nil, err
		}
		msgs[t] = next
		f = next
	}
	return msgs, nil
}
