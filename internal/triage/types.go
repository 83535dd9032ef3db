// Package triage holds the domain types shared by the interview engine,
// the response interpreter and the specialist ranker.
package triage

import (
	"strings"
	"time"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry in a session's conversation history.
type Turn struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`

	// Payload is the interpreted form of an assistant turn. Nil for
	// system and user turns.
	Payload *Payload `json:"payload,omitempty"`
}

// Phase is the interview phase of a session.
type Phase string

const (
	PhaseInterviewing Phase = "interviewing"
	PhaseDiagnosing   Phase = "diagnosing"
	PhaseDone         Phase = "done"
)

// Valid reports whether p is one of the known phases.
func (p Phase) Valid() bool {
	switch p {
	case PhaseInterviewing, PhaseDiagnosing, PhaseDone:
		return true
	}
	return false
}

// QuestionType tags a question by the kind of answer it expects.
type QuestionType string

const (
	QuestionSubjective QuestionType = "subjective" // open-ended
	QuestionObjective  QuestionType = "objective"  // pick one of Options
	QuestionScale      QuestionType = "scale"      // numeric rating
	QuestionChoice     QuestionType = "choice"
	QuestionMultiple   QuestionType = "multiple"
	QuestionText       QuestionType = "text"
)

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionSubjective, QuestionObjective, QuestionScale,
		QuestionChoice, QuestionMultiple, QuestionText:
		return true
	}
	return false
}

// NeedsOptions reports whether questions of this type must carry options.
func (t QuestionType) NeedsOptions() bool {
	return t == QuestionObjective || t == QuestionChoice || t == QuestionMultiple
}

// Scale is the inclusive numeric range of a scale question.
type Scale struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// DefaultScale is used when a scale question does not state its range.
var DefaultScale = Scale{Min: 1, Max: 10}

// Question is a single interview question produced by the model.
type Question struct {
	Type     QuestionType `json:"type"`
	Question string       `json:"question"`
	Options  []string     `json:"options,omitempty"`
	Scale    *Scale       `json:"scale,omitempty"`
}

// Severity grades a condition.
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
	SeverityUnknown  Severity = "unknown"
)

// ParseSeverity maps free text onto a Severity, falling back to unknown.
func ParseSeverity(s string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityMild:
		return SeverityMild
	case SeverityModerate:
		return SeverityModerate
	case SeveritySevere:
		return SeveritySevere
	}
	return SeverityUnknown
}

// Condition is one candidate injury in a diagnosis.
type Condition struct {
	Name            string   `json:"name"`
	Confidence      float64  `json:"confidence"` // 0.0–1.0
	Severity        Severity `json:"severity,omitempty"`
	Description     string   `json:"description,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// DefaultRecommendations is attached to conditions the model left without
// any advice.
var DefaultRecommendations = []string{
	"Consult a sports medicine specialist",
	"Apply RICE protocol (Rest, Ice, Compression, Elevation)",
	"Avoid activities that cause pain",
	"Seek immediate medical attention if pain is severe",
}
