// Package editor holds CV editor sessions: the form being edited, the chosen
// layout and the last rendered preview.
package editor

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInFlight is matched by InFlightError via errors.Is.
var ErrInFlight = errors.New("operation already in progress")

// InFlightError is returned when an upload or print is started while the previous
// one has not finished.
type InFlightError struct {
	Operation string
}

func (e *InFlightError) Error() string {
	return fmt.Sprintf("%s already in progress", e.Operation)
}

func (e *InFlightError) Is(target error) bool {
	return target == ErrInFlight
}

// SessionNotFoundError is returned for unknown or expired session ids.
type SessionNotFoundError struct {
	ID uuid.UUID
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("session not found: %s", e.ID)
}
