package grid

import "fmt"

// DefaultWallFraction is the share of cells Generate turns into walls.
const DefaultWallFraction = 0.25

// Generate builds a dim×dim map where each cell independently becomes a wall
// with probability wallFraction. Cells are drawn top row first so the output
// reads in file order. If every cell came up wall, one random cell is
// reopened so the map always has floor.
func Generate(dim int, wallFraction float64, rng Rand) (*Grid, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("generate: dimension must be positive, got %d", dim)
	}
	if wallFraction < 0 || wallFraction >= 1 {
		return nil, fmt.Errorf("generate: wall fraction must be in [0, 1), got %g", wallFraction)
	}
	g, err := New(dim, dim)
	if err != nil {
		return nil, err
	}
	for y := dim - 1; y >= 0; y-- {
		for x := 0; x < dim; x++ {
			if rng.Float64() < wallFraction {
				g.SetWall(x, y)
			}
		}
	}
	if g.FloorCount() == 0 {
		i := rng.Intn(dim * dim)
		g.walls[i] = false
	}
	return g, nil
}
