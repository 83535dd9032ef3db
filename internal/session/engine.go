package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/hooptriage/internal/interpret"
	"github.com/abhisek/hooptriage/internal/llm"
	"github.com/abhisek/hooptriage/internal/prompt"
	"github.com/abhisek/hooptriage/internal/triage"
	"github.com/charmbracelet/log"
)

// Config controls the interview engine.
type Config struct {
	// MaxQuestions is the number of assistant turns after which the next
	// call asks for the diagnosis. Every recorded reply counts, error
	// payloads included.
	MaxQuestions int `mapstructure:"max_questions" yaml:"max_questions"`

	// CallTimeout bounds each model call. Zero leaves only the caller's
	// deadline.
	CallTimeout time.Duration `mapstructure:"call_timeout" yaml:"call_timeout"`

	// TTL is how long a session lives after its last write. Zero keeps
	// sessions until deleted.
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl"`

	// DuplicateWindow treats a submission without a request id as a
	// retry when it repeats the last recorded answer within this window.
	// Zero, the default, matches retries on RequestID only.
	DuplicateWindow time.Duration `mapstructure:"duplicate_window" yaml:"duplicate_window"`
}

// DefaultConfig returns the conversational interview settings.
func DefaultConfig() Config {
	return Config{
		MaxQuestions:    10,
		CallTimeout:     30 * time.Second,
		TTL:             24 * time.Hour,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.MaxQuestions < 1 {
		return fmt.Errorf("max_questions must be at least 1, got %d", c.MaxQuestions)
	}
	if c.CallTimeout < 0 || c.TTL < 0 || c.DuplicateWindow < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}

// SubmitRequest is one user answer.
type SubmitRequest struct {
	SessionID string
	Input     string

	// BodyPart is recorded when the session is created and ignored
	// afterwards.
	BodyPart string

	// RequestID optionally identifies the submission so a retry is
	// answered from history instead of calling the model again.
	RequestID string
}

// TurnResult is the outcome of one Submit call.
type TurnResult struct {
	SessionID string
	Content   triage.Payload
	Done      bool

	// Turn is the number of assistant turns recorded after the call.
	Turn int

	// Replayed is set when the result came from history.
	Replayed bool
}

// Engine advances interview sessions. It is safe for concurrent use;
// calls for the same session id are serialized.
type Engine struct {
	provider llm.Provider
	builder  *prompt.Builder
	store    Store
	cfg      Config
	observer Observer
	logger   *log.Logger
	locks    *keyedMutex
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver sets the hook that receives every outcome.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithLogger sets the engine's logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock replaces the time source. For tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an Engine.
func NewEngine(provider llm.Provider, builder *prompt.Builder, st Store, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		provider: provider,
		builder:  builder,
		store:    st,
		cfg:      cfg,
		locks:    newKeyedMutex(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.Default()
	}
	if e.observer == nil {
		e.observer = Observers{}
	}
	return e
}

// Submit records the user's answer, asks the model for the next turn and
// returns its interpreted content.
//
// A new session id starts a new interview. Once the session holds
// MaxQuestions assistant turns the model is prompted for the diagnosis.
// Unusable model replies are returned as error payloads and still count
// as a turn. A failed model call returns *UpstreamCallError and leaves
// the session as it was.
func (e *Engine) Submit(ctx context.Context, req SubmitRequest) (*TurnResult, error) {
	if strings.TrimSpace(req.SessionID) == "" {
		return nil, ErrEmptySessionID
	}

	unlock := e.locks.Lock(req.SessionID)
	defer unlock()

	now := e.now()
	sess, err := e.store.Get(ctx, req.SessionID)
	switch {
	case errors.Is(err, ErrSessionNotFound):
		sess, err = e.newSession(req, now)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("load session %s: %w", req.SessionID, err)
	}

	if res, ok := e.replay(sess, req, now); ok {
		e.observer.Observe(ctx, Event{
			Kind:      EventReplay,
			SessionID: sess.ID,
			Phase:     sess.Phase,
			Turn:      sess.Asked,
		})
		return res, nil
	}

	phase := triage.PhaseInterviewing
	if sess.Asked >= e.cfg.MaxQuestions {
		phase = triage.PhaseDiagnosing
	}

	next := sess.Clone()
	next.Turns = append(next.Turns, triage.Turn{Role: triage.RoleUser, Content: req.Input, At: now})

	llmReq, err := e.builder.Build(phase, next.BodyPart, next.Turns)
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}

	resp, latency, err := e.call(ctx, next.ID, phase, llmReq)
	if err != nil {
		e.observer.Observe(ctx, Event{
			Kind:      EventUpstreamError,
			SessionID: next.ID,
			Phase:     phase,
			Turn:      sess.Asked,
			Err:       err,
			Latency:   latency,
		})
		return nil, &UpstreamCallError{SessionID: next.ID, Phase: phase, Err: err}
	}

	payload := interpret.ForPhase(phase, resp.Text)
	next.Turns = append(next.Turns, triage.Turn{
		Role:    triage.RoleAssistant,
		Content: resp.Text,
		At:      e.now(),
		Payload: &payload,
	})
	next.Asked++
	next.LastRequestID = req.RequestID
	next.UpdatedAt = e.now()
	next.Phase = phase
	if payload.IsDiagnosis() {
		next.Phase = triage.PhaseDone
		next.Diagnosis = payload.Diagnosis
	}

	if err := e.store.Put(ctx, next, e.cfg.TTL); err != nil {
		e.observer.Observe(ctx, Event{
			Kind:      EventStoreError,
			SessionID: next.ID,
			Phase:     phase,
			Turn:      sess.Asked,
			Err:       err,
		})
		return nil, fmt.Errorf("save session %s: %w", next.ID, err)
	}

	ev := Event{SessionID: next.ID, Phase: phase, Turn: next.Asked, Latency: latency}
	switch payload.Kind() {
	case triage.KindDiagnosis:
		ev.Kind = EventDiagnosis
	case triage.KindQuestion:
		ev.Kind = EventTurn
	default:
		ev.Kind = EventPayloadError
		ev.ErrorTag = payload.Error.Tag
	}
	e.observer.Observe(ctx, ev)

	return &TurnResult{
		SessionID: next.ID,
		Content:   payload,
		Done:      payload.IsDiagnosis(),
		Turn:      next.Asked,
	}, nil
}

func (e *Engine) newSession(req SubmitRequest, now time.Time) (*Session, error) {
	bodyPart := strings.TrimSpace(req.BodyPart)
	system, err := e.builder.Instruction(triage.PhaseInterviewing, bodyPart)
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:        req.SessionID,
		BodyPart:  bodyPart,
		Phase:     triage.PhaseInterviewing,
		Turns:     []triage.Turn{{Role: triage.RoleSystem, Content: system, At: now}},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// replay answers a submission from history when the session is done or
// the submission repeats the last recorded one.
func (e *Engine) replay(sess *Session, req SubmitRequest, now time.Time) (*TurnResult, bool) {
	last, ok := sess.LastPayload()
	if !ok {
		return nil, false
	}

	dup := sess.Done()
	if !dup && req.RequestID != "" {
		dup = req.RequestID == sess.LastRequestID
	}
	if !dup && req.RequestID == "" && e.cfg.DuplicateWindow > 0 {
		if u, ok := sess.LastTurn(triage.RoleUser); ok {
			dup = u.Content == req.Input && now.Sub(u.At) <= e.cfg.DuplicateWindow
		}
	}
	if !dup {
		return nil, false
	}
	return &TurnResult{
		SessionID: sess.ID,
		Content:   last,
		Done:      last.IsDiagnosis(),
		Turn:      sess.Asked,
		Replayed:  true,
	}, true
}

func (e *Engine) call(ctx context.Context, sessionID string, phase triage.Phase, req llm.Request) (*llm.Response, time.Duration, error) {
	purpose := llm.PurposeQuestion
	if phase == triage.PhaseDiagnosing {
		purpose = llm.PurposeDiagnosis
	}
	ctx = llm.WithSession(llm.WithPurpose(ctx, purpose), sessionID)
	if e.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.CallTimeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := e.provider.Generate(ctx, req)
	return resp, time.Since(start), err
}

// Get returns the stored session.
func (e *Engine) Get(ctx context.Context, id string) (*Session, error) {
	return e.store.Get(ctx, id)
}

// Delete forgets a session.
func (e *Engine) Delete(ctx context.Context, id string) error {
	unlock := e.locks.Lock(id)
	defer unlock()
	return e.store.Delete(ctx, id)
}

// Purge drops expired sessions.
func (e *Engine) Purge(ctx context.Context) (int, error) {
	n, err := e.store.Sweep(ctx)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	if n > 0 {
		e.logger.Info("purged expired sessions", "count", n)
	}
	return n, nil
}
