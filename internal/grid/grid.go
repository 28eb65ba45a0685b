package grid

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
)

// maxMapBytes caps how much of a map file Load will read.
const maxMapBytes = 1 << 20

// Rand is the subset of *math/rand.Rand the package draws from.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// Grid is a rectangular world of wall and floor cells. Cell (x, y) lives at
// index y*width + x.
type Grid struct {
	width  int
	height int
	walls  []bool
	colors []Color
}

// New returns a width×height grid of unpainted floor cells.
func New(width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, &FormatError{Reason: fmt.Sprintf("dimensions must be positive, got %dx%d", width, height)}
	}
	g := &Grid{
		width:  width,
		height: height,
		walls:  make([]bool, width*height),
		colors: make([]Color, width*height),
	}
	for i := range g.colors {
		g.colors[i] = NoColor
	}
	return g, nil
}

// Parse reads a map in the text format described in the package doc.
// Trailing blank lines and carriage returns are ignored.
func Parse(r io.Reader) (*Grid, error) {
	var rows []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxMapBytes)
	for sc.Scan() {
		rows = append(rows, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read map: %w", err)
	}
	for len(rows) > 0 && strings.TrimSpace(rows[len(rows)-1]) == "" {
		rows = rows[:len(rows)-1]
	}
	if len(rows) == 0 {
		return nil, &FormatError{Reason: "map is empty"}
	}

	width := len(rows[0])
	if width == 0 {
		return nil, &FormatError{Line: 1, Reason: "first row is empty"}
	}
	g, err := New(width, len(rows))
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		line := i + 1
		if len(row) != width {
			return nil, &FormatError{Line: line, Reason: fmt.Sprintf("row has %d cells, want %d", len(row), width)}
		}
		y := g.height - 1 - i
		for x := 0; x < width; x++ {
			switch ch := row[x]; ch {
			case '.':
			case '#':
				g.SetWall(x, y)
			default:
				c, ok := ColorFromGlyph(ch)
				if !ok {
					return nil, &FormatError{Line: line, Column: x + 1, Reason: fmt.Sprintf("unknown glyph %q", ch)}
				}
				g.SetColor(x, y, c)
			}
		}
	}
	return g, nil
}

// Load parses the map file at path.
func Load(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open map %s: %w", path, err)
	}
	defer f.Close()

	g, err := Parse(io.LimitReader(f, maxMapBytes))
	if err != nil {
		return nil, fmt.Errorf("parse map %s: %w", path, err)
	}
	return g, nil
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

// Size is the number of cells, width*height.
func (g *Grid) Size() int { return g.width * g.height }

// InBounds reports whether (x, y) lies inside the grid.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.width && y < g.height
}

// IsLegal reports whether the agent may occupy (x, y): in bounds and not a wall.
func (g *Grid) IsLegal(x, y int) bool {
	return g.InBounds(x, y) && !g.walls[y*g.width+x]
}

// IsWall reports whether (x, y) is a wall. Out-of-bounds cells are not walls.
func (g *Grid) IsWall(x, y int) bool {
	return g.InBounds(x, y) && g.walls[y*g.width+x]
}

// ColorAt returns the colour of (x, y), or NoColor for walls, unpainted or
// out-of-bounds cells.
func (g *Grid) ColorAt(x, y int) Color {
	if !g.IsLegal(x, y) {
		return NoColor
	}
	return g.colors[y*g.width+x]
}

// SetWall turns (x, y) into a wall and clears its colour.
func (g *Grid) SetWall(x, y int) {
	if !g.InBounds(x, y) {
		return
	}
	i := y*g.width + x
	g.walls[i] = true
	g.colors[i] = NoColor
}

// SetColor turns (x, y) into a floor cell of colour c.
func (g *Grid) SetColor(x, y int, c Color) {
	if !g.InBounds(x, y) {
		return
	}
	i := y*g.width + x
	g.walls[i] = false
	g.colors[i] = c
}

// FloorCount returns the number of legal cells.
func (g *Grid) FloorCount() int {
	n := 0
	for _, w := range g.walls {
		if !w {
			n++
		}
	}
	return n
}

// Unpainted returns the first floor cell without a colour.
func (g *Grid) Unpainted() (x, y int, ok bool) {
	for i, w := range g.walls {
		if !w && !g.colors[i].Valid() {
			return i % g.width, i / g.width, true
		}
	}
	return 0, 0, false
}

// Clone returns a deep copy of g.
func (g *Grid) Clone() *Grid {
	c := &Grid{
		width:  g.width,
		height: g.height,
		walls:  make([]bool, len(g.walls)),
		colors: make([]Color, len(g.colors)),
	}
	copy(c.walls, g.walls)
	copy(c.colors, g.colors)
	return c
}

// Paint assigns a uniformly random colour to every floor cell, visiting
// rows bottom-up and cells left to right. Cells that already carry a
// colour are repainted.
func (g *Grid) Paint(rng Rand) {
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			i := y*g.width + x
			if g.walls[i] {
				continue
			}
			g.colors[i] = Color(rng.Intn(NumColors))
		}
	}
}

// PaintMissing colours only the floor cells that have no colour yet.
func (g *Grid) PaintMissing(rng Rand) {
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			i := y*g.width + x
			if g.walls[i] || g.colors[i].Valid() {
				continue
			}
			g.colors[i] = Color(rng.Intn(NumColors))
		}
	}
}

// String renders g in map format, top row first. Unpainted floor is '.'.
func (g *Grid) String() string {
	var buf bytes.Buffer
	_, _ = g.WriteTo(&buf)
	return buf.String()
}

// WriteTo writes g in map format.
func (g *Grid) WriteTo(w io.Writer) (int64, error) {
	var total int64
	row := make([]byte, g.width+1)
	row[g.width] = '\n'
	for y := g.height - 1; y >= 0; y-- {
		for x := 0; x < g.width; x++ {
			i := y*g.width + x
			switch {
			case g.walls[i]:
				row[x] = '#'
			case g.colors[i].Valid():
				row[x] = g.colors[i].Glyph()
			default:
				row[x] = '.'
			}
		}
		n, err := w.Write(row)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
