package grid

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Orientation(t *testing.T) {
	t.Parallel()

	g, err := Parse(strings.NewReader("#.\n..\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, g.Width())
	assert.Equal(t, 2, g.Height())

	// First line is the top row.
	assert.True(t, g.IsWall(0, 1))
	assert.False(t, g.IsWall(0, 0))
	assert.True(t, g.IsLegal(1, 1))
	assert.Equal(t, 3, g.FloorCount())
}

func TestParse_ColorGlyphs(t *testing.T) {
	t.Parallel()

	g, err := Parse(strings.NewReader("ry\nb#\r\n\n\n"))
	require.NoError(t, err)
	assert.Equal(t, Red, g.ColorAt(0, 1))
	assert.Equal(t, Yellow, g.ColorAt(1, 1))
	assert.Equal(t, Blue, g.ColorAt(0, 0))
	assert.Equal(t, NoColor, g.ColorAt(1, 0))
	_, _, ok := g.Unpainted()
	assert.False(t, ok)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		line   int
		column int
	}{
		{"empty", "", 0, 0},
		{"only blank lines", "\n\n", 0, 0},
		{"ragged", "...\n..\n", 2, 0},
		{"bad glyph", "..\n.x\n", 2, 2},
		{"empty first row", "\n..\n", 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("Parse(%q) error = %v, want *FormatError", tt.input, err)
			}
			if fe.Line != tt.line || fe.Column != tt.column {
				t.Errorf("FormatError at line %d column %d, want line %d column %d", fe.Line, fe.Column, tt.line, tt.column)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "map.txt")
	require.NoError(t, os.WriteFile(path, []byte("..#\n.#.\n...\n"), 0o644))

	g, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, g.Width())
	assert.Equal(t, 7, g.FloorCount())
	assert.Equal(t, "..#\n.#.\n...\n", g.String())

	_, err = Load(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestNew_InvalidDimensions(t *testing.T) {
	for _, dims := range [][2]int{{0, 3}, {3, 0}, {-1, 2}} {
		if _, err := New(dims[0], dims[1]); err == nil {
			t.Errorf("New(%d, %d) returned nil error", dims[0], dims[1])
		}
	}
}

func TestLegality(t *testing.T) {
	g, err := New(3, 2)
	require.NoError(t, err)
	g.SetWall(1, 1)

	assert.False(t, g.IsLegal(-1, 0))
	assert.False(t, g.IsLegal(3, 0))
	assert.False(t, g.IsLegal(0, 2))
	assert.False(t, g.IsLegal(1, 1))
	assert.True(t, g.IsLegal(2, 1))
	assert.False(t, g.IsWall(5, 5))
}

func TestPaint_Deterministic(t *testing.T) {
	base, err := Parse(strings.NewReader("..#\n...\n"))
	require.NoError(t, err)

	a := base.Clone()
	b := base.Clone()
	a.Paint(rand.New(rand.NewSource(7)))
	b.Paint(rand.New(rand.NewSource(7)))
	assert.Equal(t, a.String(), b.String())

	for y := 0; y < a.Height(); y++ {
		for x := 0; x < a.Width(); x++ {
			if a.IsWall(x, y) {
				assert.Equal(t, NoColor, a.ColorAt(x, y))
				continue
			}
			assert.True(t, a.ColorAt(x, y).Valid(), "cell (%d,%d) unpainted", x, y)
		}
	}

	// Clone is independent of the original.
	_, _, ok := base.Unpainted()
	assert.True(t, ok)
}

func TestPaintMissing_KeepsFixedColors(t *testing.T) {
	g, err := Parse(strings.NewReader("r.\n.b\n"))
	require.NoError(t, err)
	g.PaintMissing(rand.New(rand.NewSource(1)))

	assert.Equal(t, Red, g.ColorAt(0, 1))
	assert.Equal(t, Blue, g.ColorAt(1, 0))
	_, _, ok := g.Unpainted()
	assert.False(t, ok)
}

func TestGenerate(t *testing.T) {
	g, err := Generate(6, DefaultWallFraction, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	assert.Equal(t, 6, g.Width())
	assert.Equal(t, 6, g.Height())
	assert.Greater(t, g.FloorCount(), 0)

	again, err := Generate(6, DefaultWallFraction, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	assert.Equal(t, g.String(), again.String())

	_, err = Generate(0, 0.25, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
	_, err = Generate(3, 1.0, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

// allWalls answers every draw with the smallest value.
type allWalls struct{}

func (allWalls) Intn(n int) int   { return 0 }
func (allWalls) Float64() float64 { return 0 }

func TestGenerate_AlwaysHasFloor(t *testing.T) {
	g, err := Generate(3, 0.5, allWalls{})
	require.NoError(t, err)
	assert.Equal(t, 1, g.FloorCount())
	assert.True(t, g.IsLegal(0, 0))
}

func TestColor(t *testing.T) {
	c, err := ParseColor("Yellow")
	require.NoError(t, err)
	assert.Equal(t, Yellow, c)

	c, err = ParseColor("g")
	require.NoError(t, err)
	assert.Equal(t, Green, c)

	_, err = ParseColor("purple")
	assert.Error(t, err)

	cs, err := ParseColors("rgby")
	require.NoError(t, err)
	assert.Equal(t, []Color{Red, Green, Blue, Yellow}, cs)
	assert.Equal(t, "rgby", FormatColors(cs))

	_, err = ParseColors("rx")
	assert.Error(t, err)

	assert.Equal(t, "color(255)", NoColor.String())
	assert.Equal(t, byte('?'), NoColor.Glyph())
}
