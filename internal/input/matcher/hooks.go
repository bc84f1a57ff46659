package matcher

import (
	"github.com/dshills/keymelody/internal/input/action"
	"github.com/dshills/keymelody/internal/input/key"
	"github.com/dshills/keymelody/internal/input/phrase"
)

// Reason explains why withheld events were replayed.
type Reason uint8

const (
	// ReasonInvalid means no registered gesture matched the input.
	ReasonInvalid Reason = iota
	// ReasonTimeout means the gesture stalled with no fallback action.
	ReasonTimeout
	// ReasonAbort means the abort position was pressed.
	ReasonAbort
	// ReasonOverflow means the gesture outgrew the record buffer.
	ReasonOverflow
	// ReasonFlush means the host asked for the events back.
	ReasonFlush
)

func (r Reason) String() string {
	switch r {
	case ReasonInvalid:
		return "invalid"
	case ReasonTimeout:
		return "timeout"
	case ReasonAbort:
		return "abort"
	case ReasonOverflow:
		return "overflow"
	case ReasonFlush:
		return "flush"
	default:
		return "unknown"
	}
}

// Hook observes match outcomes. Hooks run synchronously on the matcher's
// goroutine and must not call back into the matcher.
type Hook interface {
	// GestureCompleted is called after an action fired. node is the node
	// whose action fired; fallback is true when it was reached from a
	// timeout rather than by completing a leaf.
	GestureCompleted(node *phrase.Node, a action.Action, fallback bool)

	// Replayed is called after withheld events were handed back to the host,
	// with the events as delivered.
	Replayed(reason Reason, events []key.Event)
}

// HookFuncs adapts plain functions to Hook. Nil fields are skipped.
type HookFuncs struct {
	OnGesture func(node *phrase.Node, a action.Action, fallback bool)
	OnReplay  func(reason Reason, events []key.Event)
}

func (h HookFuncs) GestureCompleted(node *phrase.Node, a action.Action, fallback bool) {
	if h.OnGesture != nil {
		h.OnGesture(node, a, fallback)
	}
}

func (h HookFuncs) Replayed(reason Reason, events []key.Event) {
	if h.OnReplay != nil {
		h.OnReplay(reason, events)
	}
}
