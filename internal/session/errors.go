package session

import (
	"errors"
	"fmt"

	"github.com/abhisek/hooptriage/internal/triage"
)

// ErrEmptySessionID is returned when a submission names no session.
var ErrEmptySessionID = errors.New("session id is required")

// UpstreamCallError wraps a failed model call. The turn that triggered it
// was not recorded; the caller may submit the same input again.
type UpstreamCallError struct {
	SessionID string
	Phase     triage.Phase
	Err       error
}

func (e *UpstreamCallError) Error() string {
	return fmt.Sprintf("model call for session %s (%s): %v", e.SessionID, e.Phase, e.Err)
}

func (e *UpstreamCallError) Unwrap() error { return e.Err }
