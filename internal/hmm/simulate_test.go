package hmm

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/gridhmm/internal/grid"
)

func TestSimulateTrajectory_Reproducible(t *testing.T) {
	g := mustParse(t, "rg#b\ny#gr\nbbyg\n#rgy\n")

	a, err := SimulateTrajectory(g, 25, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	b, err := SimulateTrajectory(g, 25, rand.New(rand.NewSource(42)))
	require.NoError(t, err)

	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed produced different trajectories (-first +second):\n%s", diff)
	}
}

func TestSimulateTrajectory_StaysOnFloor(t *testing.T) {
	g := mustParse(t, "rg#b\ny#gr\nbbyg\n#rgy\n")
	m, err := BuildModel(g)
	require.NoError(t, err)

	tr, err := SimulateTrajectory(g, 200, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	require.Equal(t, 200, tr.Len())
	require.Len(t, tr.TrueColors, 200)
	require.Len(t, tr.Evidence, 200)

	for i, s := range tr.Path {
		x, y := s.XY(g.Width())
		require.True(t, g.IsLegal(x, y), "step %d on illegal cell (%d,%d)", i+1, x, y)
		assert.Equal(t, g.ColorAt(x, y), tr.TrueColors[i])
		assert.True(t, tr.Evidence[i].Valid())
	}
	assert.True(t, m.Feasible(tr.Path), "simulated path uses a zero-probability move")
}

func TestSimulateTrajectory_SensorNoiseRate(t *testing.T) {
	g := openGrid(t, 5, 11)
	tr, err := SimulateTrajectory(g, 5000, rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	hits := 0
	for i := range tr.Evidence {
		if tr.Evidence[i] == tr.TrueColors[i] {
			hits++
		}
	}
	rate := float64(hits) / float64(tr.Len())
	assert.InDelta(t, SensorHit, rate, 0.03)
}

func TestSimulateTrajectory_SingleStep(t *testing.T) {
	g := mustParse(t, "##\n#y\n")
	tr, err := SimulateTrajectory(g, 1, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, []State{1}, tr.Path)
	assert.Equal(t, []grid.Color{grid.Yellow}, tr.TrueColors)
}

func TestSimulateTrajectory_Errors(t *testing.T) {
	g := openGrid(t, 3, 1)
	for _, n := range []int{0, -4} {
		_, err := SimulateTrajectory(g, n, rand.New(rand.NewSource(1)))
		var le *InvalidLengthError
		if !errors.As(err, &le) || le.Length != n {
			t.Errorf("length %d: got %v, want InvalidLengthError", n, err)
		}
	}

	walls, err := grid.New(2, 2)
	require.NoError(t, err)
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			walls.SetWall(x, y)
		}
	}
	_, err = SimulateTrajectory(walls, 3, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrNoFloor)

	unpainted, err := grid.New(2, 2)
	require.NoError(t, err)
	_, err = SimulateTrajectory(unpainted, 3, rand.New(rand.NewSource(1)))
	var fe *grid.FormatError
	assert.True(t, errors.As(err, &fe), "got %v", err)
}

// fixedRand always misses the sensor and returns k from Intn.
type fixedRand struct{ k int }

func (r fixedRand) Intn(n int) int   { return r.k % n }
func (r fixedRand) Float64() float64 { return 0.99 }

func TestObserve_MissNeverReturnsTruth(t *testing.T) {
	for _, truth := range grid.Colors {
		seen := map[grid.Color]bool{}
		for k := 0; k < grid.NumColors-1; k++ {
			got := observe(truth, fixedRand{k: k})
			if got == truth {
				t.Errorf("miss for %v returned the true colour", truth)
			}
			require.True(t, got.Valid())
			seen[got] = true
		}
		assert.Len(t, seen, grid.NumColors-1, "misses for %v should cover the other colours", truth)
	}
}

// stuckRand never yields a legal start.
type stuckRand struct{}

func (stuckRand) Intn(n int) int   { return 0 }
func (stuckRand) Float64() float64 { return 0 }

func TestSimulateTrajectory_BoundedStart(t *testing.T) {
	g := mustParse(t, "#r\n##\n")
	_, err := SimulateTrajectory(g, 2, stuckRand{})
	assert.ErrorIs(t, err, ErrSamplingExhausted)
}
