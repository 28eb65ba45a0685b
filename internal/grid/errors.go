package grid

import "fmt"

// FormatError reports a malformed map: empty input, ragged rows, unknown
// glyphs, non-positive dimensions or floor cells without a colour.
type FormatError struct {
	Line   int // 1-based map line, 0 when the failure is not tied to a line
	Column int // 1-based column, 0 when not tied to a cell
	Reason string
}

func (e *FormatError) Error() string {
	switch {
	case e.Line > 0 && e.Column > 0:
		return fmt.Sprintf("grid format: line %d column %d: %s", e.Line, e.Column, e.Reason)
	case e.Line > 0:
		return fmt.Sprintf("grid format: line %d: %s", e.Line, e.Reason)
	default:
		return "grid format: " + e.Reason
	}
}
