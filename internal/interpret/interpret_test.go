package interpret

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/abhisek/hooptriage/internal/triage"
)

func TestExtractObject_Embedded(t *testing.T) {
	objects := []map[string]any{
		{"type": "subjective", "question": "Where does it hurt?"},
		{"type": "objective", "question": "Can you walk?", "options": []any{"Yes", "No"}},
		{"nested": map[string]any{"a": []any{1.0, 2.0}}, "s": "with [brackets]"},
	}
	noise := []string{"", "Sure! Here you go: ", "```json\n", "Thanks.\n\nAnswer follows -> "}

	for _, obj := range objects {
		want, _ := json.Marshal(obj)
		for _, pre := range noise {
			for _, post := range noise {
				text := pre + string(want) + post
				got, ok := ExtractObject(text)
				if !ok {
					t.Fatalf("no object found in %q", text)
				}
				var back map[string]any
				if err := json.Unmarshal([]byte(got), &back); err != nil {
					t.Fatalf("parse %q: %v", got, err)
				}
				if !reflect.DeepEqual(back, obj) {
					t.Errorf("round trip of %s through %q = %v", want, text, back)
				}
			}
		}
	}
}

func TestExtract_Missing(t *testing.T) {
	for _, text := range []string{"", "no json here", "} backwards {", "[1, 2"} {
		if _, ok := ExtractObject(text); ok {
			t.Errorf("ExtractObject(%q) found an object", text)
		}
	}
	if _, ok := ExtractList("only {} here"); ok {
		t.Error("ExtractList found a list")
	}
}

func TestParseQuestion(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantTag triage.ErrorTag // empty for success
		check   func(t *testing.T, q *triage.Question)
	}{
		{
			name: "subjective",
			raw:  `Here is my next question: {"type": "subjective", "question": "How did the injury happen?"}`,
			check: func(t *testing.T, q *triage.Question) {
				if q.Type != triage.QuestionSubjective || q.Question != "How did the injury happen?" {
					t.Errorf("got %+v", q)
				}
			},
		},
		{
			name: "objective keeps options",
			raw:  `{"type":"objective","question":"Any swelling?","options":["Yes"," No ",""]}`,
			check: func(t *testing.T, q *triage.Question) {
				if !reflect.DeepEqual(q.Options, []string{"Yes", "No"}) {
					t.Errorf("options = %v", q.Options)
				}
			},
		},
		{
			name: "type tag in any case",
			raw:  `{"type":" Objective ","question":"Any swelling?","options":["Yes","No"]}`,
			check: func(t *testing.T, q *triage.Question) {
				if q.Type != triage.QuestionObjective {
					t.Errorf("type = %q", q.Type)
				}
			},
		},
		{
			name:    "capitalized diagnosis while interviewing",
			raw:     `{"type":"Diagnosis","injuries":["ACL tear"],"confidence":[0.9]}`,
			wantTag: triage.ErrInvalidShape,
		},
		{
			name: "scale from string",
			raw:  `{"type":"scale","question":"Rate the pain","scale":"1-10"}`,
			check: func(t *testing.T, q *triage.Question) {
				if q.Scale == nil || *q.Scale != (triage.Scale{Min: 1, Max: 10}) {
					t.Errorf("scale = %v", q.Scale)
				}
			},
		},
		{
			name: "scale defaults",
			raw:  `{"type":"scale","question":"Rate the pain"}`,
			check: func(t *testing.T, q *triage.Question) {
				if q.Scale == nil || *q.Scale != triage.DefaultScale {
					t.Errorf("scale = %v", q.Scale)
				}
			},
		},
		{
			name: "subjective drops stray options",
			raw:  `{"type":"subjective","question":"Tell me more","options":["a"]}`,
			check: func(t *testing.T, q *triage.Question) {
				if q.Options != nil {
					t.Errorf("options = %v", q.Options)
				}
			},
		},
		{name: "no json", raw: "What position do you play?", wantTag: triage.ErrNoJSONFound},
		{name: "broken json", raw: `{"type": "subjective", "question": }`, wantTag: triage.ErrInvalidJSON},
		{name: "missing question", raw: `{"type":"subjective"}`, wantTag: triage.ErrInvalidShape},
		{name: "unknown type", raw: `{"type":"riddle","question":"?"}`, wantTag: triage.ErrInvalidShape},
		{name: "objective without options", raw: `{"type":"objective","question":"Pick","options":[]}`, wantTag: triage.ErrInvalidShape},
		{name: "empty scale", raw: `{"type":"scale","question":"Rate","scale":[5,5]}`, wantTag: triage.ErrInvalidShape},
		{name: "early diagnosis", raw: `{"type":"diagnosis","injuries":["ACL tear"],"confidence":[0.9]}`, wantTag: triage.ErrInvalidShape},
		{name: "two objects", raw: `{"type":"subjective","question":"a"} {"type":"subjective","question":"b"}`, wantTag: triage.ErrInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParseQuestion(tt.raw)
			if tt.wantTag != "" {
				if p.Error == nil || p.Error.Tag != tt.wantTag {
					t.Fatalf("got %+v, want error %s", p, tt.wantTag)
				}
				if p.Error.Raw != tt.raw {
					t.Errorf("raw = %q, want original text", p.Error.Raw)
				}
				return
			}
			if p.Kind() != triage.KindQuestion {
				t.Fatalf("kind = %s, error = %v", p.Kind(), p.Error)
			}
			tt.check(t, p.Question)
		})
	}
}

func TestParseDiagnosis_Parallel(t *testing.T) {
	raw := `Based on your answers:
{"type": "diagnosis", "injuries": ["Meniscus tear", "ACL tear", "meniscus TEAR"], "confidence": [0.4, 0.7, 0.9]}`

	p := ParseDiagnosis(raw)
	if p.Kind() != triage.KindDiagnosis {
		t.Fatalf("kind = %s, error = %v", p.Kind(), p.Error)
	}
	got := p.Diagnosis.Conditions
	if len(got) != 2 {
		t.Fatalf("conditions = %+v, want duplicate dropped", got)
	}
	if got[0].Name != "ACL tear" || got[0].Confidence != 0.7 {
		t.Errorf("first = %+v, want highest confidence first", got[0])
	}
	if got[1].Name != "Meniscus tear" || got[1].Confidence != 0.4 {
		t.Errorf("second = %+v, want first occurrence kept", got[1])
	}
	if !reflect.DeepEqual(got[0].Recommendations, triage.DefaultRecommendations) {
		t.Errorf("recommendations = %v, want defaults", got[0].Recommendations)
	}
}

func TestParseDiagnosis_PercentConfidence(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []float64
	}{
		{"numbers over one", `{"injuries":["a","b"],"confidence":[80, 0.5]}`, []float64{0.8, 0.005}},
		{"percent strings", `{"injuries":["a","b"],"confidence":["60%", "0.5"]}`, []float64{0.6, 0.005}},
		{"fractions", `{"injuries":["a","b"],"confidence":[0.6, 1]}`, []float64{1, 0.6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParseDiagnosis(tt.raw)
			if p.Diagnosis == nil {
				t.Fatalf("error = %v", p.Error)
			}
			got := p.Diagnosis.Confidences()
			for i := range tt.want {
				if diff := got[i] - tt.want[i]; diff > 1e-9 || diff < -1e-9 {
					t.Errorf("confidence[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseDiagnosis_SeverityAndRecommendations(t *testing.T) {
	raw := `{"type":"diagnosis","injuries":["Ankle sprain"],"confidence":[0.8],
		"severity":["Moderate"],"recommendations":[["Ice it", " "]]}`
	p := ParseDiagnosis(raw)
	if p.Diagnosis == nil {
		t.Fatalf("error = %v", p.Error)
	}
	c := p.Diagnosis.Conditions[0]
	if c.Severity != triage.SeverityModerate {
		t.Errorf("severity = %q", c.Severity)
	}
	if !reflect.DeepEqual(c.Recommendations, []string{"Ice it"}) {
		t.Errorf("recommendations = %v", c.Recommendations)
	}
}

func TestParseDiagnosis_PossibleConditions(t *testing.T) {
	raw := `{"possible_conditions": [
		{"name": "Patellar tendinitis", "confidence": 65, "description": "Overuse", "severity": "mild",
		 "recommendations": ["Rest from jumping"]},
		{"name": "Knee sprain", "confidence": 85}
	]}`
	p := ParseDiagnosis(raw)
	if p.Diagnosis == nil {
		t.Fatalf("error = %v", p.Error)
	}
	got := p.Diagnosis.Conditions
	if got[0].Name != "Knee sprain" || got[0].Confidence != 0.85 {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Severity != triage.SeverityMild || got[1].Description != "Overuse" {
		t.Errorf("second = %+v", got[1])
	}
}

func TestParseDiagnosis_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want triage.ErrorTag
	}{
		{"no json", "You probably sprained it.", triage.ErrNoJSONFound},
		{"invalid json", `{"injuries": ["a",], "confidence": [1]}`, triage.ErrInvalidJSON},
		{"length mismatch", `{"injuries":["a","b"],"confidence":[0.5]}`, triage.ErrInvalidShape},
		{"empty lists", `{"injuries":[],"confidence":[]}`, triage.ErrInvalidShape},
		{"question instead", `{"type":"subjective","question":"More?"}`, triage.ErrInvalidShape},
		{"negative", `{"injuries":["a"],"confidence":[-0.1]}`, triage.ErrInvalidShape},
		{"over 100", `{"injuries":["a"],"confidence":[140]}`, triage.ErrInvalidShape},
		{"bad string", `{"injuries":["a"],"confidence":["high"]}`, triage.ErrInvalidShape},
		{"blank name", `{"injuries":["  "],"confidence":[0.5]}`, triage.ErrInvalidShape},
		{"severity mismatch", `{"injuries":["a"],"confidence":[0.5],"severity":["mild","severe"]}`, triage.ErrInvalidShape},
		{"empty analysis", `{"possible_conditions":[]}`, triage.ErrInvalidShape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParseDiagnosis(tt.raw)
			if p.Error == nil || p.Error.Tag != tt.want {
				t.Fatalf("got %+v, want %s", p, tt.want)
			}
		})
	}
}

func TestForPhase(t *testing.T) {
	q := `{"type":"subjective","question":"When did it start?"}`
	d := `{"type":"diagnosis","injuries":["Hip pointer"],"confidence":[0.5]}`

	if p := ForPhase(triage.PhaseInterviewing, q); p.Kind() != triage.KindQuestion {
		t.Errorf("interviewing question: kind = %s", p.Kind())
	}
	if p := ForPhase(triage.PhaseInterviewing, d); p.Kind() != triage.KindError {
		t.Errorf("interviewing diagnosis: kind = %s", p.Kind())
	}
	if p := ForPhase(triage.PhaseDiagnosing, d); p.Kind() != triage.KindDiagnosis {
		t.Errorf("diagnosing diagnosis: kind = %s", p.Kind())
	}
	if p := ForPhase(triage.PhaseDiagnosing, q); p.Kind() != triage.KindError {
		t.Errorf("diagnosing question: kind = %s", p.Kind())
	}
}

func TestParseQuestionBatch(t *testing.T) {
	raw := "Questions:\n" + `[
		{"question": "On a scale of 1-10, how severe is the pain?", "type": "scale", "options": "0-5"},
		{"question": "What type of pain?", "type": "choice", "options": ["Sharp", "Dull"]},
		{"question": "Describe it", "type": "text"}
	]`
	qs, perr := ParseQuestionBatch(raw)
	if perr != nil {
		t.Fatalf("error = %v", perr)
	}
	if len(qs) != 3 {
		t.Fatalf("got %d questions", len(qs))
	}
	if qs[0].Scale == nil || *qs[0].Scale != (triage.Scale{Min: 0, Max: 5}) {
		t.Errorf("first scale = %v, want range taken from options", qs[0].Scale)
	}
	if qs[1].Type != triage.QuestionChoice || len(qs[1].Options) != 2 {
		t.Errorf("second = %+v", qs[1])
	}

	if _, perr := ParseQuestionBatch("none"); perr == nil || perr.Tag != triage.ErrNoJSONFound {
		t.Errorf("expected no_json_found, got %v", perr)
	}
	if _, perr := ParseQuestionBatch(`[{"question":"x","type":"choice"}]`); perr == nil || perr.Tag != triage.ErrInvalidShape {
		t.Errorf("expected invalid_shape, got %v", perr)
	} else if !strings.Contains(perr.Detail, "question 1") {
		t.Errorf("detail = %q", perr.Detail)
	}
}
