package hmm

import (
	"errors"
	"fmt"

	"github.com/banshee-data/gridhmm/internal/grid"
)

var (
	// ErrNoFloor is returned when a trajectory is requested on a map with
	// no legal cell to stand on.
	ErrNoFloor = errors.New("hmm: grid has no floor cells")

	// ErrSamplingExhausted is returned when rejection sampling hits its
	// draw limit without finding a legal cell.
	ErrSamplingExhausted = errors.New("hmm: rejection sampling exhausted")
)

// InvalidLengthError reports a non-positive path length or an empty
// evidence sequence.
type InvalidLengthError struct {
	Length int
}

func (e *InvalidLengthError) Error() string {
	return fmt.Sprintf("hmm: invalid length %d, must be at least 1", e.Length)
}

// NormalizationError reports a belief vector whose mass vanished (or
// became non-finite) before normalisation.
type NormalizationError struct {
	Algorithm string
	Step      int // 1-based time step
	Sum       float64
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("hmm: %s step %d: cannot normalize vector with sum %g", e.Algorithm, e.Step, e.Sum)
}

// UnknownObservationError reports an evidence symbol outside the colour set.
type UnknownObservationError struct {
	Step  int // 1-based time step
	Color grid.Color
}

func (e *UnknownObservationError) Error() string {
	return fmt.Sprintf("hmm: step %d: unknown observation %v", e.Step, e.Color)
}
