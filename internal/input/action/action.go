// Package action defines what happens when a gesture completes and the
// dispatcher that carries it out.
package action

import (
	"fmt"

	"github.com/dshills/keymelody/internal/input/key"
)

// Kind identifies the variant of an Action.
type Kind uint8

const (
	// KindUnset is the zero value: no action was ever assigned.
	KindUnset Kind = iota
	// KindNone swallows the gesture and does nothing.
	KindNone
	// KindTransparent defers to the nearest ancestor with a concrete action.
	KindTransparent
	// KindKeycode taps a keycode.
	KindKeycode
	// KindCallback invokes a user function.
	KindCallback
)

func (k Kind) String() string {
	switch k {
	case KindUnset:
		return "unset"
	case KindNone:
		return "none"
	case KindTransparent:
		return "transparent"
	case KindKeycode:
		return "keycode"
	case KindCallback:
		return "callback"
	default:
		return "unknown"
	}
}

// Func is the signature of callback actions. arg is the context value
// supplied when the action was built.
type Func func(arg any) error

// Action is an immutable value attached to phrase nodes.
type Action struct {
	kind Kind
	code key.Keycode
	name string
	fn   Func
	arg  any
}

// None returns an action that consumes the gesture silently.
func None() Action {
	return Action{kind: KindNone}
}

// Transparent returns an action that resolves to an ancestor's action.
func Transparent() Action {
	return Action{kind: KindTransparent}
}

// Keycode returns an action that taps code.
func Keycode(code key.Keycode) Action {
	return Action{kind: KindKeycode, code: code}
}

// Callback returns an action that calls fn(arg). The name identifies the
// callback in logs, conflict reports and equality checks.
func Callback(name string, fn Func, arg any) Action {
	return Action{kind: KindCallback, name: name, fn: fn, arg: arg}
}

// Kind returns the variant.
func (a Action) Kind() Kind { return a.kind }

// Code returns the keycode of a keycode action.
func (a Action) Code() key.Keycode { return a.code }

// Name returns the callback name.
func (a Action) Name() string { return a.name }

// Arg returns the callback context value.
func (a Action) Arg() any { return a.arg }

// IsSet reports whether an action was assigned.
func (a Action) IsSet() bool { return a.kind != KindUnset }

// IsConcrete reports whether firing the action produces an effect.
func (a Action) IsConcrete() bool {
	return a.kind == KindKeycode || a.kind == KindCallback
}

// Equal compares two actions. Callbacks compare by name.
func (a Action) Equal(other Action) bool {
	if a.kind != other.kind {
		return false
	}
	switch a.kind {
	case KindKeycode:
		return a.code == other.code
	case KindCallback:
		return a.name == other.name
	default:
		return true
	}
}

// String renders the action for logs and tree dumps.
func (a Action) String() string {
	switch a.kind {
	case KindKeycode:
		return fmt.Sprintf("keycode(%s)", a.code)
	case KindCallback:
		return fmt.Sprintf("callback(%s)", a.name)
	default:
		return a.kind.String()
	}
}
