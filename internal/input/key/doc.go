// Package key provides the fundamental input types for gesture matching.
//
// This package defines:
//
//   - Position: a physical key identified by matrix row and column
//   - Event: a single press or release of a Position with a timestamp
//   - Timestamp: a 16-bit wrapping millisecond timer value
//   - Clock: the source of the current timer value
//   - Keycode: a logical code understood by the host action pipeline
//   - Layer: the host's active keymap layer
//
// # Position Specifications
//
// Positions can be written as "r1c2", "1,2" or firmware-style hex "0x21"
// (column nibble first). Keycodes use short firmware names such as "ESC",
// "BSPC" or "KC_A".
//
// # Time
//
// Timestamps wrap every 65.536 seconds. All differences are taken with
// unsigned arithmetic via Timestamp.Sub, so a timeout spanning a wrap is
// still measured correctly.
package key
