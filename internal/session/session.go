// Package session runs the injury interview: one conversation per session
// id, kept in an injected Store, advanced one model turn at a time.
package session

import (
	"time"

	"github.com/abhisek/hooptriage/internal/triage"
)

// Session is the persisted state of one interview.
type Session struct {
	ID       string        `json:"id"`
	BodyPart string        `json:"body_part,omitempty"`
	Phase    triage.Phase  `json:"phase"`
	Turns    []triage.Turn `json:"turns"`

	// Asked counts assistant turns. It always equals the number of
	// assistant entries in Turns.
	Asked int `json:"asked"`

	// LastRequestID is the caller's id for the last recorded submission.
	LastRequestID string `json:"last_request_id,omitempty"`

	// Diagnosis is set once the session is done.
	Diagnosis *triage.Diagnosis `json:"diagnosis,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Done reports whether the interview has produced its diagnosis.
func (s *Session) Done() bool { return s.Phase == triage.PhaseDone }

// Clone returns a copy whose turn list can be appended to without
// touching s.
func (s *Session) Clone() *Session {
	c := *s
	c.Turns = append([]triage.Turn(nil), s.Turns...)
	return &c
}

// LastTurn returns the most recent turn with the given role.
func (s *Session) LastTurn(role triage.Role) (triage.Turn, bool) {
	for i := len(s.Turns) - 1; i >= 0; i-- {
		if s.Turns[i].Role == role {
			return s.Turns[i], true
		}
	}
	return triage.Turn{}, false
}

// LastPayload returns the interpreted content of the last assistant turn.
func (s *Session) LastPayload() (triage.Payload, bool) {
	t, ok := s.LastTurn(triage.RoleAssistant)
	if !ok || t.Payload == nil {
		return triage.Payload{}, false
	}
	return *t.Payload, true
}
