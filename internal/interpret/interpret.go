// Package interpret turns raw model text into validated triage payloads.
//
// Nothing here returns a Go error for bad model output. Every failure
// becomes an error payload tagged no_json_found, invalid_json or
// invalid_shape, carrying the raw text, so the interview can carry on.
package interpret

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/abhisek/hooptriage/internal/llm"
	"github.com/abhisek/hooptriage/internal/triage"
)

// ForPhase interprets raw as the reply expected in phase: a question while
// interviewing, a diagnosis otherwise.
func ForPhase(phase triage.Phase, raw string) triage.Payload {
	if phase == triage.PhaseInterviewing {
		return ParseQuestion(raw)
	}
	return ParseDiagnosis(raw)
}

// ParseQuestion interprets raw as a single interview question. A diagnosis
// in its place is a shape error.
func ParseQuestion(raw string) triage.Payload {
	obj, perr := decodeObject(raw)
	if perr != nil {
		return triage.Payload{Error: perr}
	}
	foldType(obj)
	if t, _ := obj["type"].(string); t == string(triage.KindDiagnosis) {
		return shapeError(raw, "diagnosis returned while the interview is still running")
	}
	if _, ok := obj["possible_conditions"]; ok {
		return shapeError(raw, "diagnosis returned while the interview is still running")
	}
	if err := llm.ValidateValue(QuestionSchema, obj, raw); err != nil {
		return shapeError(raw, schemaDetail(err))
	}

	text, _ := ExtractObject(raw)
	var w questionWire
	if err := json.Unmarshal([]byte(text), &w); err != nil {
		return shapeError(raw, err.Error())
	}
	q, err := buildQuestion(w)
	if err != nil {
		return shapeError(raw, err.Error())
	}
	return triage.QuestionPayload(q)
}

// ParseDiagnosis interprets raw as a final diagnosis, in either the
// parallel-array form or the possible_conditions form.
func ParseDiagnosis(raw string) triage.Payload {
	obj, perr := decodeObject(raw)
	if perr != nil {
		return triage.Payload{Error: perr}
	}
	foldType(obj)
	schema := DiagnosisSchema
	if _, ok := obj["possible_conditions"]; ok {
		schema = AnalysisSchema
	}
	if err := llm.ValidateValue(schema, obj, raw); err != nil {
		return shapeError(raw, schemaDetail(err))
	}

	text, _ := ExtractObject(raw)
	var w diagnosisWire
	if err := json.Unmarshal([]byte(text), &w); err != nil {
		return shapeError(raw, err.Error())
	}

	var conds []triage.Condition
	var err error
	if schema == AnalysisSchema {
		conds, err = fromConditions(w.PossibleConditions)
	} else {
		conds, err = fromParallel(w)
	}
	if err != nil {
		return shapeError(raw, err.Error())
	}
	return triage.DiagnosisPayload(triage.Diagnosis{Conditions: conds})
}

// ParseQuestionBatch interprets raw as a JSON list of questions.
func ParseQuestionBatch(raw string) ([]triage.Question, *triage.PayloadError) {
	text, ok := ExtractList(raw)
	if !ok {
		return nil, &triage.PayloadError{Tag: triage.ErrNoJSONFound, Raw: raw}
	}
	var list []any
	if err := json.Unmarshal([]byte(text), &list); err != nil {
		return nil, &triage.PayloadError{Tag: triage.ErrInvalidJSON, Raw: raw, Detail: err.Error()}
	}
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			foldType(obj)
		}
	}
	if err := llm.ValidateValue(QuestionBatchSchema, list, raw); err != nil {
		return nil, &triage.PayloadError{Tag: triage.ErrInvalidShape, Raw: raw, Detail: schemaDetail(err)}
	}

	var wires []questionWire
	if err := json.Unmarshal([]byte(text), &wires); err != nil {
		return nil, &triage.PayloadError{Tag: triage.ErrInvalidShape, Raw: raw, Detail: err.Error()}
	}
	out := make([]triage.Question, 0, len(wires))
	for i, w := range wires {
		q, err := buildQuestion(w)
		if err != nil {
			return nil, &triage.PayloadError{
				Tag:    triage.ErrInvalidShape,
				Raw:    raw,
				Detail: fmt.Sprintf("question %d: %v", i+1, err),
			}
		}
		out = append(out, q)
	}
	return out, nil
}

func decodeObject(raw string) (map[string]any, *triage.PayloadError) {
	text, ok := ExtractObject(raw)
	if !ok {
		return nil, &triage.PayloadError{Tag: triage.ErrNoJSONFound, Raw: raw}
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, &triage.PayloadError{Tag: triage.ErrInvalidJSON, Raw: raw, Detail: err.Error()}
	}
	return obj, nil
}

func shapeError(raw, detail string) triage.Payload {
	return triage.ErrorPayload(triage.ErrInvalidShape, raw, detail)
}

// foldType lowercases the type tag so "Objective" validates like
// "objective".
func foldType(obj map[string]any) {
	if t, ok := obj["type"].(string); ok {
		obj["type"] = strings.ToLower(strings.TrimSpace(t))
	}
}

// schemaDetail strips the provider-facing wrapper from a validation error.
func schemaDetail(err error) string {
	var ir *llm.ErrInvalidResponse
	if errors.As(err, &ir) && ir.Err != nil {
		return ir.Err.Error()
	}
	return err.Error()
}

func buildQuestion(w questionWire) (triage.Question, error) {
	q := triage.Question{
		Type:     triage.QuestionType(strings.ToLower(strings.TrimSpace(w.Type))),
		Question: strings.TrimSpace(w.Question),
	}
	if !q.Type.Valid() {
		return q, fmt.Errorf("unknown question type %q", w.Type)
	}
	if q.Question == "" {
		return q, fmt.Errorf("empty question text")
	}

	if q.Type.NeedsOptions() {
		for _, o := range w.Options.list {
			if o = strings.TrimSpace(o); o != "" {
				q.Options = append(q.Options, o)
			}
		}
		if len(q.Options) == 0 {
			return q, fmt.Errorf("%s question without options", q.Type)
		}
	}

	if q.Type == triage.QuestionScale {
		s := triage.DefaultScale
		switch {
		case w.Scale.set:
			s = w.Scale.value
		case w.Options.scale.set:
			s = w.Options.scale.value
		}
		if s.Min >= s.Max {
			return q, fmt.Errorf("scale %d-%d is empty", s.Min, s.Max)
		}
		q.Scale = &s
	}
	return q, nil
}

func fromParallel(w diagnosisWire) ([]triage.Condition, error) {
	if len(w.Injuries) != len(w.Confidence) {
		return nil, fmt.Errorf("injuries and confidence differ in length (%d != %d)",
			len(w.Injuries), len(w.Confidence))
	}
	if len(w.Severity) > 0 && len(w.Severity) != len(w.Injuries) {
		return nil, fmt.Errorf("severity has %d entries for %d injuries", len(w.Severity), len(w.Injuries))
	}
	if len(w.Recommendations) > 0 && len(w.Recommendations) != len(w.Injuries) {
		return nil, fmt.Errorf("recommendations has %d entries for %d injuries",
			len(w.Recommendations), len(w.Injuries))
	}
	conf, err := normalizeConfidence(w.Confidence)
	if err != nil {
		return nil, err
	}

	conds := make([]triage.Condition, len(w.Injuries))
	for i, name := range w.Injuries {
		c := triage.Condition{Name: name, Confidence: conf[i]}
		if len(w.Severity) > 0 {
			c.Severity = triage.ParseSeverity(w.Severity[i])
		}
		if len(w.Recommendations) > 0 {
			c.Recommendations = w.Recommendations[i]
		}
		conds[i] = c
	}
	return finish(conds)
}

func fromConditions(in []conditionWire) ([]triage.Condition, error) {
	raw := make([]confidenceWire, len(in))
	for i, c := range in {
		raw[i] = c.Confidence
	}
	conf, err := normalizeConfidence(raw)
	if err != nil {
		return nil, err
	}

	conds := make([]triage.Condition, len(in))
	for i, c := range in {
		conds[i] = triage.Condition{
			Name:            c.Name,
			Confidence:      conf[i],
			Description:     strings.TrimSpace(c.Description),
			Recommendations: c.Recommendations,
		}
		if c.Severity != "" {
			conds[i].Severity = triage.ParseSeverity(c.Severity)
		}
	}
	return finish(conds)
}

// finish trims names, drops repeated conditions (first wins), fills in
// missing recommendations and orders by confidence, highest first.
func finish(in []triage.Condition) ([]triage.Condition, error) {
	seen := make(map[string]bool, len(in))
	out := make([]triage.Condition, 0, len(in))
	for _, c := range in {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			return nil, fmt.Errorf("condition with empty name")
		}
		key := strings.ToLower(c.Name)
		if seen[key] {
			continue
		}
		seen[key] = true

		var recs []string
		for _, r := range c.Recommendations {
			if r = strings.TrimSpace(r); r != "" {
				recs = append(recs, r)
			}
		}
		if len(recs) == 0 {
			recs = append([]string(nil), triage.DefaultRecommendations...)
		}
		c.Recommendations = recs
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out, nil
}
