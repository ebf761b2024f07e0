package config

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingKey is returned when a required key has no value.
	ErrMissingKey = errors.New("missing required key")

	// ErrInvalidValue is returned when a key has a value of the wrong type or
	// an unusable value.
	ErrInvalidValue = errors.New("invalid value")
)

// KeyError locates a configuration problem. It wraps ErrMissingKey or
// ErrInvalidValue for errors.Is() compatibility.
type KeyError struct {
	File   string // empty when the value came from flags or defaults
	Key    string
	Line   int // 1-based, 0 when unknown
	Column int
	Err    error
}

// Error implements the error interface.
func (e *KeyError) Error() string {
	where := e.File
	if where == "" {
		where = "config"
	}
	if e.Line > 0 {
		where = fmt.Sprintf("%s:%d:%d", where, e.Line, e.Column)
	}
	if e.Key == "" {
		return fmt.Sprintf("%s: %v", where, e.Err)
	}
	return fmt.Sprintf("%s: key %q: %v", where, e.Key, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is/As.
func (e *KeyError) Unwrap() error {
	return e.Err
}
