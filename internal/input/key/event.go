package key

import "fmt"

// Event is a single key-position transition delivered by the matrix scanner.
// The matcher never mutates an Event; it only stores copies.
type Event struct {
	// Position identifies the physical key.
	Position Position

	// Pressed is true for a key-down transition, false for key-up.
	Pressed bool

	// Time is when the transition was detected.
	Time Timestamp
}

// NewPress creates a key-down event.
func NewPress(pos Position, at Timestamp) Event {
	return Event{Position: pos, Pressed: true, Time: at}
}

// NewRelease creates a key-up event.
func NewRelease(pos Position, at Timestamp) Event {
	return Event{Position: pos, Pressed: false, Time: at}
}

// Equals returns true if two events describe the same transition.
// Timestamps are not compared.
func (e Event) Equals(other Event) bool {
	return e.Position == other.Position && e.Pressed == other.Pressed
}

// At returns a copy of the event with a different timestamp.
func (e Event) At(t Timestamp) Event {
	e.Time = t
	return e
}

// String returns a compact representation, e.g. "r1c2 down @120".
func (e Event) String() string {
	dir := "up"
	if e.Pressed {
		dir = "down"
	}
	return fmt.Sprintf("%s %s @%d", e.Position, dir, e.Time)
}
