package prompt

import (
	"fmt"
	"strings"

	"github.com/abhisek/hooptriage/internal/llm"
	"github.com/abhisek/hooptriage/internal/triage"
)

const expertInstruction = "You are a sports medicine expert specializing in basketball injuries."

// QuestionBatch builds the request for a fixed questionnaire of n
// questions about bodyPart, answered as a JSON list.
func (b *Builder) QuestionBatch(bodyPart string, n int) llm.Request {
	part := strings.ToLower(strings.TrimSpace(bodyPart))

	var sb strings.Builder
	fmt.Fprintf(&sb, "As a sports medicine expert, generate %d specific diagnostic questions for a basketball player's %s injury.\n", n, part)
	fmt.Fprintf(&sb, "Consider the anatomy and common basketball injuries for the %s area.\n", part)
	if b.tax != nil {
		if conds := b.tax.CommonConditions(bodyPart); len(conds) > 0 {
			fmt.Fprintf(&sb, "Conditions worth telling apart: %s.\n", strings.Join(conds, ", "))
		}
	}
	sb.WriteString(`
For each question, pick the input type that fits what is asked:
- "scale" (1-10) for pain or intensity questions
- "choice" for yes/no or specific options
- "multiple" when several selections are possible
- "text" for open-ended questions

Return only a JSON list in this form:
[
  {"question": "Question text here", "type": "scale", "options": "1-10"},
  {"question": "Question text here", "type": "choice", "options": ["option1", "option2"]},
  {"question": "Question text here", "type": "text", "options": null}
]`)

	maxTokens := b.cfg.BatchMaxTokens
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

// FallbackQuestions is the questionnaire used when the model's batch
// cannot be used.
func FallbackQuestions(bodyPart string) []triage.Question {
	part := strings.ToLower(strings.TrimSpace(bodyPart))
	scale := triage.DefaultScale
	return []triage.Question{
		{
			Type:     triage.QuestionScale,
			Question: fmt.Sprintf("Rate the pain level in your %s", part),
			Scale:    &scale,
		},
		{
			Type:     triage.QuestionChoice,
			Question: fmt.Sprintf("What type of pain do you feel in your %s?", part),
			Options:  []string{"Sharp", "Dull", "Throbbing", "Burning"},
		},
		{
			Type:     triage.QuestionMultiple,
			Question: fmt.Sprintf("Which movements make your %s pain worse?", part),
			Options:  []string{"Jumping", "Running", "Turning", "Stretching", "Walking"},
		},
		{
			Type:     triage.QuestionText,
			Question: fmt.Sprintf("Describe how the %s injury occurred", part),
		},
		{
			Type:     triage.QuestionChoice,
			Question: fmt.Sprintf("Is there any swelling in your %s?", part),
			Options:  []string{"Yes", "No"},
		},
	}
}
