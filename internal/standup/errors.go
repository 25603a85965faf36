package standup

import (
	"errors"
	"fmt"
)

var (
	// ErrCollaboratorUnavailable wraps failures of roster, history, directory,
	// notifier and voice collaborators. Callers log it and continue.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
	ErrAlreadyActive           = errors.New("standup is already active")
	ErrNotActive               = errors.New("standup is not active")
)

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrCollaboratorUnavailable, op, err)
}

// ScanError reports a message history failure after Checked messages were processed.
// The scan result accompanying it holds everything collected up to that point.
type ScanError struct {
	Checked int
	Err     error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("async update scan stopped after %d messages: %v", e.Checked, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}
