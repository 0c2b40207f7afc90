// Package failure holds the error kinds a run can abort with.
//
// Every error that leaves a component is wrapped with exactly one kind so the
// entrypoint (and tests) can classify it with errors.Is.
package failure

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork is returned when a remote resource could not be downloaded.
	ErrNetwork = errors.New("network error")
	// ErrParse is returned when the orders table is malformed.
	ErrParse = errors.New("parse error")
	// ErrUIInteraction is returned when an expected page element is missing or an
	// action on it fails.
	ErrUIInteraction = errors.New("ui interaction error")
	// ErrRender is returned when a receipt or screenshot could not be produced.
	ErrRender = errors.New("render error")
	// ErrFilesystem is returned for archive and cleanup I/O failures.
	ErrFilesystem = errors.New("filesystem error")
)

// Wrap tags err with kind, op describes what was being attempted.
// A nil err stays nil.
func Wrap(kind error, op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", kind, op, err)
}

// New creates an error of the given kind without an underlying cause.
func New(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// Kind returns the kind err was wrapped with, or nil when it has none.
func Kind(err error) error {
	for _, kind := range []error{ErrNetwork, ErrParse, ErrUIInteraction, ErrRender, ErrFilesystem} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
