package session

import (
	"context"
	"fmt"

	"github.com/abhisek/hooptriage/internal/interpret"
	"github.com/abhisek/hooptriage/internal/llm"
	"github.com/abhisek/hooptriage/internal/prompt"
	"github.com/abhisek/hooptriage/internal/triage"
)

// Questionnaire asks the model for n screening questions about bodyPart.
// When the call fails or the reply is unusable it returns the fixed
// fallback set and reports fromModel=false.
func (e *Engine) Questionnaire(ctx context.Context, bodyPart string, n int) (qs []triage.Question, fromModel bool) {
	ctx, cancel := e.callContext(ctx, llm.PurposeQuestionBatch)
	defer cancel()

	resp, err := e.provider.Generate(ctx, e.builder.QuestionBatch(bodyPart, n))
	if err != nil {
		e.logger.Warn("questionnaire call failed, using fallback", "body_part", bodyPart, "error", err)
		return prompt.FallbackQuestions(bodyPart), false
	}

	qs, perr := interpret.ParseQuestionBatch(resp.Text)
	if perr != nil {
		e.logger.Warn("unusable questionnaire, using fallback", "body_part", bodyPart, "tag", perr.Tag, "detail", perr.Detail)
		return prompt.FallbackQuestions(bodyPart), false
	}
	if n > 0 && len(qs) > n {
		qs = qs[:n]
	}
	return qs, true
}

// Analyze turns an answered questionnaire into possible conditions. When
// the call fails or the reply is unusable it returns a single
// "Analysis Error" condition with default advice and fromModel=false.
func (e *Engine) Analyze(ctx context.Context, bodyPart string, qa []prompt.QA) (d triage.Diagnosis, fromModel bool) {
	ctx, cancel := e.callContext(ctx, llm.PurposeAnalysis)
	defer cancel()

	resp, err := e.provider.Generate(ctx, e.builder.Analysis(bodyPart, qa))
	if err != nil {
		e.logger.Warn("analysis call failed, using fallback", "body_part", bodyPart, "error", err)
		return prompt.FallbackAnalysis(err), false
	}

	p := interpret.ParseDiagnosis(resp.Text)
	if p.Error != nil {
		e.logger.Warn("unusable analysis, using fallback", "body_part", bodyPart, "tag", p.Error.Tag, "detail", p.Error.Detail)
		return prompt.FallbackAnalysis(fmt.Errorf("unusable model reply (%s)", p.Error.Tag)), false
	}
	return *p.Diagnosis, true
}

// FollowUp asks for one more question after a questionnaire. A failed
// call or unusable reply gives the open-ended fallback question.
func (e *Engine) FollowUp(ctx context.Context, bodyPart string, qa []prompt.QA) (q triage.Question, fromModel bool) {
	ctx, cancel := e.callContext(ctx, llm.PurposeFollowUp)
	defer cancel()

	resp, err := e.provider.Generate(ctx, e.builder.FollowUp(bodyPart, qa))
	if err != nil {
		e.logger.Warn("follow-up call failed, using fallback", "body_part", bodyPart, "error", err)
		return prompt.FallbackFollowUp(), false
	}

	p := interpret.ParseQuestion(resp.Text)
	if p.Error != nil {
		e.logger.Warn("unusable follow-up, using fallback", "body_part", bodyPart, "tag", p.Error.Tag, "detail", p.Error.Detail)
		return prompt.FallbackFollowUp(), false
	}
	return *p.Question, true
}

func (e *Engine) callContext(ctx context.Context, purpose string) (context.Context, context.CancelFunc) {
	ctx = llm.WithPurpose(ctx, purpose)
	if e.cfg.CallTimeout > 0 {
		return context.WithTimeout(ctx, e.cfg.CallTimeout)
	}
	return ctx, func() {}
}
