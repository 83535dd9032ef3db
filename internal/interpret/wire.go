package interpret

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/abhisek/hooptriage/internal/triage"
)

// questionWire is a question as the model writes it.
type questionWire struct {
	Type     string      `json:"type"`
	Question string      `json:"question"`
	Options  optionsWire `json:"options"`
	Scale    scaleWire   `json:"scale"`
}

// optionsWire accepts a list of options, or a "1-10" range string that
// some replies put in place of a scale.
type optionsWire struct {
	list  []string
	scale scaleWire
}

func (o *optionsWire) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		if err := o.scale.UnmarshalJSON(b); err != nil {
			o.scale = scaleWire{}
		}
		return nil
	}
	return json.Unmarshal(b, &o.list)
}

// scaleWire accepts "1-10", [1, 10] or {"min": 1, "max": 10}.
type scaleWire struct {
	set   bool
	value triage.Scale
}

func (s *scaleWire) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	switch b[0] {
	case '"':
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		from, to, ok := strings.Cut(str, "-")
		if !ok {
			return fmt.Errorf("scale %q: want MIN-MAX", str)
		}
		lo, err := strconv.Atoi(strings.TrimSpace(from))
		if err != nil {
			return fmt.Errorf("scale %q: %w", str, err)
		}
		hi, err := strconv.Atoi(strings.TrimSpace(to))
		if err != nil {
			return fmt.Errorf("scale %q: %w", str, err)
		}
		s.value = triage.Scale{Min: lo, Max: hi}
	case '[':
		var pair []int
		if err := json.Unmarshal(b, &pair); err != nil {
			return err
		}
		if len(pair) != 2 {
			return fmt.Errorf("scale: want 2 bounds, got %d", len(pair))
		}
		s.value = triage.Scale{Min: pair[0], Max: pair[1]}
	default:
		if err := json.Unmarshal(b, &s.value); err != nil {
			return err
		}
	}
	s.set = true
	return nil
}

// confidenceWire is a confidence as written by the model: 0.85, 85 or "85%".
type confidenceWire struct {
	value   float64
	percent bool
}

func (c *confidenceWire) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		str = strings.TrimSpace(str)
		if strings.HasSuffix(str, "%") {
			c.percent = true
			str = strings.TrimSpace(strings.TrimSuffix(str, "%"))
		}
		v, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return fmt.Errorf("confidence %q is not a number", str)
		}
		c.value = v
		return nil
	}
	return json.Unmarshal(b, &c.value)
}

// diagnosisWire covers both diagnosis shapes the model may produce.
type diagnosisWire struct {
	Type               string           `json:"type"`
	Injuries           []string         `json:"injuries"`
	Confidence         []confidenceWire `json:"confidence"`
	Severity           []string         `json:"severity"`
	Recommendations    [][]string       `json:"recommendations"`
	PossibleConditions []conditionWire  `json:"possible_conditions"`
}

type conditionWire struct {
	Name            string         `json:"name"`
	Confidence      confidenceWire `json:"confidence"`
	Description     string         `json:"description"`
	Severity        string         `json:"severity"`
	Recommendations []string       `json:"recommendations"`
}

// normalizeConfidence maps values onto 0.0-1.0. If any value is above 1 or
// was written with a percent sign, the whole list is read as percentages.
func normalizeConfidence(in []confidenceWire) ([]float64, error) {
	percent := false
	for _, c := range in {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return nil, fmt.Errorf("confidence is not a finite number")
		}
		if c.value < 0 || c.value > 100 {
			return nil, fmt.Errorf("confidence %v out of range", c.value)
		}
		if c.percent || c.value > 1 {
			percent = true
		}
	}
	out := make([]float64, len(in))
	for i, c := range in {
		out[i] = c.value
		if percent {
			out[i] /= 100
		}
	}
	return out, nil
}
