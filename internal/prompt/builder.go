// Package prompt builds the model requests for the injury interview.
package prompt

import (
	"fmt"
	"strings"

	"github.com/abhisek/hooptriage/internal/llm"
	"github.com/abhisek/hooptriage/internal/taxonomy"
	"github.com/abhisek/hooptriage/internal/triage"
)

const interviewInstruction = `You are a basketball-injury diagnostician. Ask exactly one question at a time, and output only a single JSON object.
- Every JSON must include a "type" field: "subjective" (open-ended) or "objective" (multiple-choice).
- If "type" is "objective", include an "options" array of strings.
Examples:
  Subjective: {"type":"subjective","question":"Describe your pain location."}
  Objective:  {"type":"objective","question":"Rate your pain","options":["1-3","4-6","7-10"]}`

const diagnosisInstruction = `You have gathered enough info. Now output only a JSON object with:
- "type":"diagnosis"
- "injuries":[list of possible injury names]
- "confidence":[matching confidences between 0.0-1.0]
Optionally add "severity":[mild|moderate|severe for each injury] and "recommendations":[a list of advice strings for each injury], in the same order.
Example:
{"type":"diagnosis","injuries":["Ankle sprain","Achilles tendonitis"],"confidence":[0.85,0.65]}`

// InvalidPhaseError is returned when a prompt is requested for a phase
// that has none.
type InvalidPhaseError struct {
	Phase triage.Phase
}

func (e *InvalidPhaseError) Error() string {
	return fmt.Sprintf("no prompt for phase %q", e.Phase)
}

// Builder turns session state into model requests. It holds no mutable
// state; the same inputs always give the same request.
type Builder struct {
	cfg Config
	tax *taxonomy.Taxonomy
}

// New creates a Builder. tax may be nil, in which case prompts carry no
// body-part context.
func New(cfg Config, tax *taxonomy.Taxonomy) *Builder {
	return &Builder{cfg: cfg, tax: tax}
}

// Instruction returns the system instruction for phase. The diagnosing
// instruction replaces the interviewing one rather than extending it.
func (b *Builder) Instruction(phase triage.Phase, bodyPart string) (string, error) {
	var base string
	switch phase {
	case triage.PhaseInterviewing:
		base = interviewInstruction
	case triage.PhaseDiagnosing:
		base = diagnosisInstruction
	default:
		return "", &InvalidPhaseError{Phase: phase}
	}

	ctx := b.bodyPartContext(phase, bodyPart)
	if ctx == "" {
		return base, nil
	}
	return base + "\n\n" + ctx, nil
}

// Build returns the request for the next model turn. System turns in
// history are skipped: the instruction always comes from phase.
func (b *Builder) Build(phase triage.Phase, bodyPart string, history []triage.Turn) (llm.Request, error) {
	system, err := b.Instruction(phase, bodyPart)
	if err != nil {
		return llm.Request{}, err
	}

	msgs := make([]llm.Message, 0, len(history))
	for _, t := range history {
		switch t.Role {
		case triage.RoleUser:
			msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: t.Content})
		case triage.RoleAssistant:
			msgs = append(msgs, llm.Message{Role: llm.RoleAssistant, Content: t.Content})
		}
	}

	maxTokens := b.cfg.MaxTokens
	if phase == triage.PhaseDiagnosing && b.cfg.DiagnosisMaxTokens > 0 {
		maxTokens = b.cfg.DiagnosisMaxTokens
	}

	return llm.Request{
		System:      system,
		Messages:    msgs,
		MaxTokens:   maxTokens,
		Temperature: b.cfg.Temperature,
	}, nil
}

// bodyPartContext names the injured area and what the taxonomy knows
// about it. Unknown parts are still named.
func (b *Builder) bodyPartContext(phase triage.Phase, bodyPart string) string {
	bodyPart = strings.TrimSpace(bodyPart)
	if bodyPart == "" {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Injured area: %s.", strings.ToLower(bodyPart))
	if b.tax == nil {
		return sb.String()
	}

	if conds := b.tax.CommonConditions(bodyPart); len(conds) > 0 {
		fmt.Fprintf(&sb, "\nCommon basketball injuries for this area: %s.", strings.Join(conds, ", "))
	}
	if phase == triage.PhaseInterviewing && b.cfg.ContextQuestions > 0 {
		qs := b.tax.RankedQuestions(bodyPart)
		if len(qs) > b.cfg.ContextQuestions {
			qs = qs[:b.cfg.ContextQuestions]
		}
		if len(qs) > 0 {
			sb.WriteString("\nUseful things to find out:")
			for _, q := range qs {
				sb.WriteString("\n- ")
				sb.WriteString(q)
			}
		}
	}
	return sb.String()
}
