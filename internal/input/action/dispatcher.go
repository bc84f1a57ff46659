package action

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/dshills/keymelody/internal/input/key"
	"github.com/dshills/keymelody/internal/logging"
)

var (
	// ErrNoSink is returned when a keycode action fires without a keycode sink.
	ErrNoSink = errors.New("action: no keycode sink")

	// ErrNoFunc is returned when a callback action has a nil function.
	ErrNoFunc = errors.New("action: callback has no function")

	// ErrPanic wraps a panic raised by a callback.
	ErrPanic = errors.New("action: callback panic")
)

// KeycodeFunc receives synthetic keycode presses and releases. Keycode
// actions are delivered as a press immediately followed by a release, both
// at the firing time.
type KeycodeFunc func(code key.Keycode, pressed bool, at key.Timestamp)

// Dispatcher executes actions.
type Dispatcher struct {
	sink          KeycodeFunc
	logger        *logging.Logger
	recoverPanics bool
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(l *logging.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l.WithComponent("action")
		}
	}
}

// WithPanicRecovery controls whether callback panics are turned into
// ErrPanic errors. Recovery is on by default.
func WithPanicRecovery(enabled bool) DispatcherOption {
	return func(d *Dispatcher) {
		d.recoverPanics = enabled
	}
}

// NewDispatcher creates a dispatcher delivering keycodes to sink.
func NewDispatcher(sink KeycodeFunc, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		sink:          sink,
		logger:        logging.Discard(),
		recoverPanics: true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Fire performs a. It reports whether the action had an effect. Unset,
// None and Transparent actions do nothing; resolving a transparent action
// to an ancestor is the caller's job.
func (d *Dispatcher) Fire(a Action, now key.Timestamp) (bool, error) {
	switch a.kind {
	case KindKeycode:
		if d.sink == nil {
			d.logger.Error("tap %s: %v", a.code, ErrNoSink)
			return false, ErrNoSink
		}
		d.logger.Debug("tap %s", a.code)
		d.sink(a.code, true, now)
		d.sink(a.code, false, now)
		return true, nil

	case KindCallback:
		if a.fn == nil {
			err := fmt.Errorf("%w: %s", ErrNoFunc, a.name)
			d.logger.Error("%v", err)
			return false, err
		}
		d.logger.Debug("callback %s", a.name)
		if err := d.call(a); err != nil {
			d.logger.Error("callback %s: %v", a.name, err)
			return true, err
		}
		return true, nil

	default:
		return false, nil
	}
}

func (d *Dispatcher) call(a Action) (err error) {
	if d.recoverPanics {
		defer func() {
			if r := recover(); r != nil {
				stack := make([]byte, 4096)
				n := runtime.Stack(stack, false)
				err = fmt.Errorf("%w in %s: %v\n%s", ErrPanic, a.name, r, stack[:n])
			}
		}()
	}
	return a.fn(a.arg)
}
