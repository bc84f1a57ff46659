package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrQuit signals that the interactive driver should exit normally.
	ErrQuit = errors.New("quit requested")

	// ErrShutdown is returned by operations after Shutdown.
	ErrShutdown = errors.New("application shut down")

	// ErrManualClockRequired is returned when a trace runs against a
	// wall clock.
	ErrManualClockRequired = errors.New("trace replay requires a manual clock")

	// ErrInvalidTrace indicates a malformed trace step.
	ErrInvalidTrace = errors.New("invalid trace")
)

// InitError represents an initialization error.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return "init " + e.Component + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// TraceError locates a failure inside a trace file.
type TraceError struct {
	Step int // zero-based step index
	Line int // line in the source, 0 when unknown
	Err  error
}

func (e *TraceError) Error() string {
	if e == nil {
		return ""
	}
	if e.Line > 0 {
		return fmt.Sprintf("trace step %d (line %d): %v", e.Step, e.Line, e.Err)
	}
	return fmt.Sprintf("trace step %d: %v", e.Step, e.Err)
}

func (e *TraceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
