package prompt

import (
	"fmt"
	"strings"

	"github.com/abhisek/hooptriage/internal/llm"
	"github.com/abhisek/hooptriage/internal/triage"
)

// QA is one answered questionnaire item.
type QA struct {
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
}

// Analysis builds the request that turns a completed questionnaire into
// a list of possible conditions.
func (b *Builder) Analysis(bodyPart string, qa []QA) llm.Request {
	part := strings.ToLower(strings.TrimSpace(bodyPart))

	var sb strings.Builder
	fmt.Fprintf(&sb, "Based on the following responses about a basketball player's %s injury, provide a detailed analysis:\n\n", part)
	writeQA(&sb, qa)
	sb.WriteString(`
Return only a JSON object in this form:
{
  "possible_conditions": [
    {
      "name": "Condition name",
      "confidence": 85,
      "description": "Brief description of the condition",
      "severity": "mild|moderate|severe",
      "recommendations": ["Recommendation 1", "Recommendation 2"]
    }
  ]
}
Confidence is a percentage from 0 to 100.
`)
	fmt.Fprintf(&sb, "Focus on common basketball-related %s injuries", part)
	if b.tax != nil {
		if conds := b.tax.CommonConditions(bodyPart); len(conds) > 0 {
			fmt.Fprintf(&sb, " such as %s", strings.Join(conds, ", "))
		}
	}
	sb.WriteString(" and give practical recommendations.")

	maxTokens := b.cfg.DiagnosisMaxTokens
	if maxTokens <= 0 {
		maxTokens = b.cfg.MaxTokens
	}
	return llm.Request{
		System:      expertInstruction,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: sb.String()}},
		MaxTokens:   maxTokens,
		Temperature: b.cfg.Temperature,
	}
}

// FollowUp builds the request for one more question after a
// questionnaire has been answered.
func (b *Builder) FollowUp(bodyPart string, qa []QA) llm.Request {
	part := strings.ToLower(strings.TrimSpace(bodyPart))

	var sb strings.Builder
	fmt.Fprintf(&sb, "A basketball player answered these questions about a %s injury:\n\n", part)
	writeQA(&sb, qa)
	sb.WriteString(`
Ask the single most useful follow-up question that has not been covered yet.
Return only a JSON object in this form:
{"question": "Question text here", "type": "scale|choice|multiple|text", "options": ["option1", "option2"] or "1-10" or null}`)

	return llm.Request{
		System:      expertInstruction,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: sb.String()}},
		MaxTokens:   b.cfg.MaxTokens,
		Temperature: b.cfg.Temperature,
	}
}

func writeQA(sb *strings.Builder, qa []QA) {
	for _, item := range qa {
		fmt.Fprintf(sb, "Q: %s\nA: %s\n\n", strings.TrimSpace(item.Question), strings.TrimSpace(item.Answer))
	}
}

// FallbackAnalysis is the diagnosis reported when the analysis call fails
// or its reply cannot be used. cause is shown to the player.
func FallbackAnalysis(cause error) triage.Diagnosis {
	reason := "no usable analysis"
	if cause != nil {
		reason = cause.Error()
	}
	recs := make([]string, len(triage.DefaultRecommendations))
	copy(recs, triage.DefaultRecommendations)
	return triage.Diagnosis{Conditions: []triage.Condition{{
		Name:            "Analysis Error",
		Confidence:      0,
		Severity:        triage.SeverityUnknown,
		Description:     fmt.Sprintf("Error analyzing responses: %s. Please consult a medical professional for accurate diagnosis.", reason),
		Recommendations: recs,
	}}}
}

// FallbackFollowUp is asked when no follow-up question can be generated.
func FallbackFollowUp() triage.Question {
	return triage.Question{
		Type:     triage.QuestionText,
		Question: "Is there anything else you'd like to add about your injury?",
	}
}
