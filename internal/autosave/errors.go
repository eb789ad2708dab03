package autosave

import (
	"errors"
	"fmt"
)

var (
	// ErrTerminated is returned for work against a session that was closed.
	ErrTerminated = errors.New("autosave: session terminated")

	// ErrEmptyDocument is returned when a forced save is asked for a document
	// with neither title nor content.
	ErrEmptyDocument = errors.New("autosave: document is empty")
)

// SaveError wraps a failed persistence call.
type SaveError struct {
	Op  string // "create" or "update"
	Err error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("autosave: %s failed: %v", e.Op, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}
