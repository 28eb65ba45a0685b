package hmm

import (
	"fmt"

	"github.com/banshee-data/gridhmm/internal/grid"
)

// Sensor likelihoods. SensorHit is the chance of reading a cell's true
// colour; each of the other three colours is read with SensorMiss.
const (
	SensorHit  = 0.88
	SensorMiss = 0.04
)

// wallLikelihood keeps the per-state sensor column summing to one on cells
// that have no colour.
const wallLikelihood = 1.0 / grid.NumColors

// State identifies one grid cell.
type State int

// XYToState numbers cell (x, y) on a grid of the given width.
func XYToState(x, y, width int) State {
	return State(y*width + x)
}

// XY returns the coordinates of s on a grid of the given width.
func (s State) XY(width int) (x, y int) {
	return int(s) % width, int(s) / width
}

func (s State) String() string {
	return fmt.Sprintf("s%d", int(s))
}

// Action is one move the agent may attempt.
type Action struct {
	Name   string
	DX, DY int
}

// Actions is the closed, ordered set of moves.
var Actions = [...]Action{
	{"north", 0, 1},
	{"east", 1, 0},
	{"south", 0, -1},
	{"west", -1, 0},
	{"stay", 0, 0},
}

// GridModel is what the model builder and simulator need from a map.
// *grid.Grid satisfies it.
type GridModel interface {
	Width() int
	Height() int
	IsLegal(x, y int) bool
	ColorAt(x, y int) grid.Color
}

// Rand is the random source the simulator draws from. *math/rand.Rand
// satisfies it.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// Trajectory is one simulated walk and what the sensor reported along it.
type Trajectory struct {
	Path       []State
	TrueColors []grid.Color
	Evidence   []grid.Color
}

// Len returns the number of time steps.
func (t *Trajectory) Len() int { return len(t.Path) }
