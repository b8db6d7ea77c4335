// Package app wires the keyboard engine to its event sources and backends.
package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrAlreadyRunning indicates the loop is already running.
	ErrAlreadyRunning = errors.New("loop already running")

	// ErrNoSource indicates the loop was started without event sources.
	ErrNoSource = errors.New("no event source")

	// ErrMissingLayer indicates the layout lacks a layer the engine drives.
	ErrMissingLayer = errors.New("layout is missing a required layer")
)

// InitError represents a component failing to start.
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

// ComponentError represents an error from a running component.
type ComponentError struct {
	Component string // e.g. "storage", "midi", "source:terminal"
	Action    string // Action being performed
	Err       error  // Underlying error
}

func (e *ComponentError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s: %s: %v", e.Component, e.Action, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Component, e.Err)
}

func (e *ComponentError) Unwrap() error {
	return e.Err
}

// closeAll closes every closer in reverse order and joins the failures.
func closeAll(closers []namedCloser) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		c := closers[i]
		if err := c.close(); err != nil {
			errs = append(errs, &ComponentError{Component: c.name, Action: "close", Err: err})
		}
	}
	return errors.Join(errs...)
}

type namedCloser struct {
	name  string
	close func() error
}
