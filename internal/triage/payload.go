package triage

import (
	"encoding/json"
	"fmt"
)

// Diagnosis is the final structured result of an interview.
type Diagnosis struct {
	Conditions []Condition
}

// Empty reports whether the diagnosis names no conditions.
func (d Diagnosis) Empty() bool { return len(d.Conditions) == 0 }

// Injuries returns the condition names in order.
func (d Diagnosis) Injuries() []string {
	out := make([]string, len(d.Conditions))
	for i, c := range d.Conditions {
		out[i] = c.Name
	}
	return out
}

// Confidences returns the condition confidences, parallel to Injuries.
func (d Diagnosis) Confidences() []float64 {
	out := make([]float64, len(d.Conditions))
	for i, c := range d.Conditions {
		out[i] = c.Confidence
	}
	return out
}

type diagnosisWire struct {
	Type               string      `json:"type"`
	Injuries           []string    `json:"injuries"`
	Confidence         []float64   `json:"confidence"`
	PossibleConditions []Condition `json:"possible_conditions,omitempty"`
}

// MarshalJSON emits both the compact parallel-array form and the
// detailed condition list.
func (d Diagnosis) MarshalJSON() ([]byte, error) {
	return json.Marshal(diagnosisWire{
		Type:               string(KindDiagnosis),
		Injuries:           d.Injuries(),
		Confidence:         d.Confidences(),
		PossibleConditions: d.Conditions,
	})
}

// UnmarshalJSON reads the form produced by MarshalJSON. It does not
// validate or normalize; model output goes through the interpret package.
func (d *Diagnosis) UnmarshalJSON(b []byte) error {
	var w diagnosisWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if len(w.PossibleConditions) > 0 {
		d.Conditions = w.PossibleConditions
		return nil
	}
	if len(w.Injuries) != len(w.Confidence) {
		return fmt.Errorf("injuries and confidence differ in length (%d != %d)",
			len(w.Injuries), len(w.Confidence))
	}
	d.Conditions = make([]Condition, len(w.Injuries))
	for i, name := range w.Injuries {
		d.Conditions[i] = Condition{Name: name, Confidence: w.Confidence[i]}
	}
	return nil
}

// ErrorTag names why a model reply could not be used.
type ErrorTag string

const (
	ErrNoJSONFound  ErrorTag = "no_json_found"
	ErrInvalidJSON  ErrorTag = "invalid_json"
	ErrInvalidShape ErrorTag = "invalid_shape"
)

// PayloadError is the value returned in place of content when a model
// reply fails extraction, parsing or shape validation.
type PayloadError struct {
	Tag    ErrorTag `json:"error"`
	Raw    string   `json:"raw"`
	Detail string   `json:"detail,omitempty"`
}

func (e *PayloadError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Tag, e.Detail)
	}
	return string(e.Tag)
}

// Kind identifies which variant a Payload holds.
type Kind string

const (
	KindQuestion  Kind = "question"
	KindDiagnosis Kind = "diagnosis"
	KindError     Kind = "error"
)

// Payload is the structured content of one assistant turn: exactly one of
// Question, Diagnosis or Error is set.
type Payload struct {
	Question  *Question
	Diagnosis *Diagnosis
	Error     *PayloadError
}

// QuestionPayload wraps q.
func QuestionPayload(q Question) Payload { return Payload{Question: &q} }

// DiagnosisPayload wraps d.
func DiagnosisPayload(d Diagnosis) Payload { return Payload{Diagnosis: &d} }

// ErrorPayload builds an error payload.
func ErrorPayload(tag ErrorTag, raw, detail string) Payload {
	return Payload{Error: &PayloadError{Tag: tag, Raw: raw, Detail: detail}}
}

// Kind reports the active variant.
func (p Payload) Kind() Kind {
	switch {
	case p.Diagnosis != nil:
		return KindDiagnosis
	case p.Question != nil:
		return KindQuestion
	default:
		return KindError
	}
}

// IsDiagnosis reports whether the payload is a final diagnosis.
func (p Payload) IsDiagnosis() bool { return p.Diagnosis != nil }

func (p Payload) MarshalJSON() ([]byte, error) {
	switch p.Kind() {
	case KindDiagnosis:
		return json.Marshal(p.Diagnosis)
	case KindQuestion:
		return json.Marshal(p.Question)
	}
	if p.Error == nil {
		return []byte("null"), nil
	}
	return json.Marshal(p.Error)
}

func (p *Payload) UnmarshalJSON(b []byte) error {
	var probe struct {
		Type  string          `json:"type"`
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return err
	}
	*p = Payload{}
	switch {
	case len(probe.Error) > 0:
		p.Error = &PayloadError{}
		return json.Unmarshal(b, p.Error)
	case probe.Type == string(KindDiagnosis):
		p.Diagnosis = &Diagnosis{}
		return json.Unmarshal(b, p.Diagnosis)
	default:
		p.Question = &Question{}
		return json.Unmarshal(b, p.Question)
	}
}
