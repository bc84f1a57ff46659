package record

import (
	"errors"
	"fmt"

	"github.com/dshills/keymelody/internal/input/key"
)

// DefaultCapacity is the number of events a buffer holds unless told otherwise.
const DefaultCapacity = 100

// ErrBufferFull is returned by Append when the buffer is at capacity.
var ErrBufferFull = errors.New("record buffer full")

// Handler receives replayed events.
type Handler func(ev key.Event)

// Buffer is a bounded, ordered list of withheld key events.
type Buffer struct {
	events   []key.Event
	capacity int
}

// NewBuffer creates a buffer holding at most capacity events.
// A non-positive capacity selects DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		events:   make([]key.Event, 0, capacity),
		capacity: capacity,
	}
}

// Append adds ev at the end. It fails with ErrBufferFull once capacity
// events are held; the buffer is left unchanged.
func (b *Buffer) Append(ev key.Event) error {
	if len(b.events) >= b.capacity {
		return fmt.Errorf("%w: %d events", ErrBufferFull, b.capacity)
	}
	b.events = append(b.events, ev)
	return nil
}

// Events returns a copy of the buffered events in arrival order.
func (b *Buffer) Events() []key.Event {
	out := make([]key.Event, len(b.events))
	copy(out, b.events)
	return out
}

// Len returns the number of buffered events.
func (b *Buffer) Len() int {
	return len(b.events)
}

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int {
	return b.capacity
}

// Full reports whether another Append would fail.
func (b *Buffer) Full() bool {
	return len(b.events) >= b.capacity
}

// Last returns the most recent event and false when the buffer is empty.
func (b *Buffer) Last() (key.Event, bool) {
	if len(b.events) == 0 {
		return key.Event{}, false
	}
	return b.events[len(b.events)-1], true
}

// Reset drops all buffered events without replaying them.
func (b *Buffer) Reset() {
	b.events = b.events[:0]
}

// Replay empties the buffer and hands every event to fn in arrival order.
// Each timestamp is moved by now minus the last event's timestamp, so the
// final event is delivered at now. The buffer is cleared before fn is
// first called, so fn may safely append to it. Replay returns the number
// of events delivered.
func (b *Buffer) Replay(now key.Timestamp, fn Handler) int {
	if len(b.events) == 0 {
		return 0
	}

	pending := b.Events()
	b.Reset()

	offset := now.Sub(pending[len(pending)-1].Time)
	for _, ev := range pending {
		if fn != nil {
			fn(ev.At(ev.Time.Add(offset)))
		}
	}
	return len(pending)
}
