package key

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Parse errors
var (
	ErrEmptySpec       = errors.New("empty key specification")
	ErrInvalidPosition = errors.New("invalid key position")
	ErrUnknownKeycode  = errors.New("unknown keycode")
)

// ParsePosition parses a key position.
//
// Supported formats:
//   - Matrix notation: "r1c2", "R1C2"
//   - Comma pair: "1,2" (row, column)
//   - Hex pair as used in firmware keymaps: "0x52" (column nibble, row nibble)
func ParsePosition(spec string) (Position, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return NoPosition, ErrEmptySpec
	}

	lower := strings.ToLower(spec)

	switch {
	case strings.HasPrefix(lower, "r"):
		idx := strings.IndexByte(lower, 'c')
		if idx < 2 {
			return NoPosition, fmt.Errorf("%w: %q", ErrInvalidPosition, spec)
		}
		return parsePair(spec, lower[1:idx], lower[idx+1:])

	case strings.Contains(lower, ","):
		parts := strings.SplitN(lower, ",", 2)
		return parsePair(spec, parts[0], parts[1])

	case strings.HasPrefix(lower, "0x") && len(lower) == 4:
		v, err := strconv.ParseUint(lower[2:], 16, 8)
		if err != nil {
			return NoPosition, fmt.Errorf("%w: %q", ErrInvalidPosition, spec)
		}
		return Position{Row: uint8(v & 0x0F), Col: uint8(v >> 4)}, nil
	}

	return NoPosition, fmt.Errorf("%w: %q", ErrInvalidPosition, spec)
}

func parsePair(spec, row, col string) (Position, error) {
	r, err := strconv.ParseUint(strings.TrimSpace(row), 10, 8)
	if err != nil {
		return NoPosition, fmt.Errorf("%w: %q: row: %v", ErrInvalidPosition, spec, err)
	}
	c, err := strconv.ParseUint(strings.TrimSpace(col), 10, 8)
	if err != nil {
		return NoPosition, fmt.Errorf("%w: %q: column: %v", ErrInvalidPosition, spec, err)
	}
	p := Position{Row: uint8(r), Col: uint8(c)}
	if !p.IsValid() {
		return NoPosition, fmt.Errorf("%w: %q is reserved", ErrInvalidPosition, spec)
	}
	return p, nil
}

// ParsePositions parses a list of position specifications.
func ParsePositions(specs []string) ([]Position, error) {
	out := make([]Position, 0, len(specs))
	for _, s := range specs {
		p, err := ParsePosition(s)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// MustParsePosition parses a position and panics on error.
// Use only for known-valid specs in initialization code.
func MustParsePosition(spec string) Position {
	p, err := ParsePosition(spec)
	if err != nil {
		panic("invalid key position: " + spec + ": " + err.Error())
	}
	return p
}

// ParseKeycode parses a keycode name such as "ESC", "kc_a" or "Enter".
// Numeric codes ("0x29", "41") are accepted as well.
func ParseKeycode(spec string) (Keycode, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return KeyNone, ErrEmptySpec
	}

	upper := strings.ToUpper(spec)
	if upper == "NO" || upper == "KC_NO" {
		return KeyNone, nil
	}
	if k := KeycodeFromName(spec); k != KeyNone {
		return k, nil
	}

	// Single digits are names, not numbers; those were handled above.
	if v, err := strconv.ParseUint(spec, 0, 16); err == nil {
		return Keycode(v), nil
	}

	return KeyNone, fmt.Errorf("%w: %q", ErrUnknownKeycode, spec)
}
