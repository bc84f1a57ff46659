package config

import (
	"errors"
	"fmt"
)

// Errors returned by configuration operations.
var (
	// ErrUnknownFormat indicates a file extension with no parser.
	ErrUnknownFormat = errors.New("unknown config format")

	// ErrUnknownKind indicates a gesture kind outside the supported set.
	ErrUnknownKind = errors.New("unknown gesture kind")

	// ErrMissingAction indicates a gesture or tap without an action.
	ErrMissingAction = errors.New("missing action")

	// ErrAmbiguousAction indicates an action table setting more than one variant.
	ErrAmbiguousAction = errors.New("action sets more than one variant")

	// ErrNoResolver indicates a script action with no script engine to run it.
	ErrNoResolver = errors.New("no script resolver for lua action")

	// ErrValidationFailed wraps every ValidationError.
	ErrValidationFailed = errors.New("validation failed")
)

// ParseError represents an error while parsing a configuration file.
type ParseError struct {
	// Path is the file that failed to parse.
	Path string
	// Line and Column locate the error when the parser reports it.
	Line   int
	Column int
	// Message describes the parse error.
	Message string
	// Err is the underlying error.
	Err error
}

func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError describes one invalid field.
type ValidationError struct {
	// Path locates the field, e.g. "gesture[2].keys[0]".
	Path string
	// Message describes the problem.
	Message string
	// Err is the underlying cause, if any.
	Err error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrValidationFailed, e.Err}
	}
	return []error{ErrValidationFailed}
}
