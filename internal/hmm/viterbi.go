package hmm

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/gridhmm/internal/grid"
)

// Predecessor is a Viterbi backpointer. Valid is false at the first step
// and for states no earlier state can reach.
type Predecessor struct {
	State State
	Valid bool
}

// Decoding is the result of Viterbi.
type Decoding struct {
	// Path is the most probable state sequence, one state per reading.
	Path []State
	// Probability is the normalised score of the final state.
	Probability float64
	// Table holds the normalised max-path scores per step.
	Table []Belief
	// Backpointers[t][s] is the best predecessor of s at step t.
	Backpointers [][]Predecessor
}

// Viterbi finds the single most probable state sequence for the evidence.
//
// The first row of the table is the first filtering message. Each later
// row takes, for every state, the best predecessor score times the
// transition probability, weights it by the sensor and normalises.
// Predecessor ties go to the lowest-numbered state, as does the choice of
// final state.
func Viterbi(m *Model, evidence []grid.Color) (*Decoding, error) {
	if err := checkEvidence(evidence); err != nil {
		return nil, err
	}
	n := m.States()
	steps := len(evidence)

	first, err := m.forward(uniform(n), evidence[0], "viterbi", 1)
	if err != nil {
		return nil, err
	}
	table := make([]Belief, steps)
	back := make([][]Predecessor, steps)
	table[0] = toBelief(first)
	back[0] = make([]Predecessor, n)

	for t := 1; t < steps; t++ {
		prev := table[t-1]
		sensor := m.Sensors[evidence[t]]
		row := make(Belief, n)
		bp := make([]Predecessor, n)
		for cur := 0; cur < n; cur++ {
			// Row cur of the transpose is column cur of the transition matrix.
			into := m.TransitionT.RawRowView(cur)
			best := 0.0
			var p Predecessor
			for last, tp := range into {
				if v := prev[last] * tp; v > best {
					best = v
					p = Predecessor{State: State(last), Valid: true}
				}
			}
			row[cur] = best * sensor.At(cur, cur)
			bp[cur] = p
		}
		if err := normalize(row, "viterbi", t+1); err != nil {
			return nil, err
		}
		table[t] = row
		back[t] = bp
	}

	final := floats.MaxIdx(table[steps-1])
	path := make([]State, steps)
	path[steps-1] = State(final)
	for t := steps - 1; t > 0; t-- {
		p := back[t][path[t]]
		if !p.Valid {
			return nil, fmt.Errorf("hmm: viterbi step %d: state %d has no predecessor", t+1, path[t])
		}
		path[t-1] = p.State
	}

	return &Decoding{
		Path:         path,
		Probability:  table[steps-1][final],
		Table:        table,
		Backpointers: back,
	}, nil
}
