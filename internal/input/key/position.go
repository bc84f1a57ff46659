package key

import "fmt"

// Position identifies a physical key by its matrix row and column.
// Equality is structural.
type Position struct {
	Row uint8
	Col uint8
}

// NoPosition never matches a real key. Parsers return it alongside errors.
var NoPosition = Position{Row: 0xFF, Col: 0xFF}

// SentinelPosition is the fictitious key used when a gesture fires a
// keycode action; the gesture's own positions mean nothing to the result.
var SentinelPosition = Position{Row: 0, Col: 0}

// Pos is shorthand for Position{Row: row, Col: col}.
func Pos(row, col uint8) Position {
	return Position{Row: row, Col: col}
}

// IsValid returns false for NoPosition.
func (p Position) IsValid() bool {
	return p != NoPosition
}

// String returns the position in "r<row>c<col>" form.
func (p Position) String() string {
	if !p.IsValid() {
		return "none"
	}
	return fmt.Sprintf("r%dc%d", p.Row, p.Col)
}
