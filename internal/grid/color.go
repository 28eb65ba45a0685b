package grid

import (
	"fmt"
	"strings"
)

// Color is the reading a floor cell returns to the agent's sensor.
type Color uint8

const (
	Red Color = iota
	Green
	Blue
	Yellow
)

// NumColors is the size of the colour enumeration.
const NumColors = 4

// NoColor is reported for walls and for floor cells that have not been painted.
const NoColor Color = 255

// Colors lists every colour in enumeration order.
var Colors = [NumColors]Color{Red, Green, Blue, Yellow}

var colorNames = [NumColors]string{"red", "green", "blue", "yellow"}
var colorGlyphs = [NumColors]byte{'r', 'g', 'b', 'y'}

// Valid reports whether c is one of the four sensor colours.
func (c Color) Valid() bool {
	return c < NumColors
}

func (c Color) String() string {
	if !c.Valid() {
		return fmt.Sprintf("color(%d)", uint8(c))
	}
	return colorNames[c]
}

// Glyph returns the single-letter map glyph for c, or '?' for invalid colours.
func (c Color) Glyph() byte {
	if !c.Valid() {
		return '?'
	}
	return colorGlyphs[c]
}

// ColorFromGlyph maps a map-file glyph to its colour.
func ColorFromGlyph(b byte) (Color, bool) {
	for i, g := range colorGlyphs {
		if g == b {
			return Color(i), true
		}
	}
	return NoColor, false
}

// ParseColor accepts a colour name or its single-letter glyph, case-insensitive.
func ParseColor(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range colorNames {
		if s == name || (len(s) == 1 && s[0] == colorGlyphs[i]) {
			return Color(i), nil
		}
	}
	return NoColor, fmt.Errorf("unknown color %q", s)
}

// ParseColors parses a glyph string such as "rgby" into a colour sequence.
func ParseColors(s string) ([]Color, error) {
	out := make([]Color, 0, len(s))
	for i := 0; i < len(s); i++ {
		c, ok := ColorFromGlyph(s[i])
		if !ok {
			return nil, fmt.Errorf("unknown color glyph %q at position %d", s[i], i)
		}
		out = append(out, c)
	}
	return out, nil
}

// FormatColors renders a colour sequence as glyphs, the inverse of ParseColors.
func FormatColors(cs []Color) string {
	b := make([]byte, len(cs))
	for i, c := range cs {
		b[i] = c.Glyph()
	}
	return string(b)
}
