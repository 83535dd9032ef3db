package session

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/abhisek/hooptriage/internal/llm"
	"github.com/abhisek/hooptriage/internal/prompt"
	"github.com/abhisek/hooptriage/internal/store"
	"github.com/abhisek/hooptriage/internal/triage"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSession(id string) *Session {
	q := triage.QuestionPayload(triage.Question{Type: triage.QuestionObjective, Question: "Swelling?", Options: []string{"Yes", "No"}})
	at := time.Date(2026, 4, 10, 19, 30, 0, 0, time.UTC)
	return &Session{
		ID:       id,
		BodyPart: "Knee",
		Phase:    triage.PhaseInterviewing,
		Turns: []triage.Turn{
			{Role: triage.RoleSystem, Content: "instruction", At: at},
			{Role: triage.RoleUser, Content: "it hurts", At: at},
			{Role: triage.RoleAssistant, Content: `{"type":"objective"}`, At: at, Payload: &q},
		},
		Asked:     1,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func TestMemoryStore_CopiesOnReadAndWrite(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	s := sampleSession("s1")

	require.NoError(t, m.Put(ctx, s, 0))
	s.Turns = append(s.Turns, triage.Turn{Role: triage.RoleUser, Content: "mutated"})

	got, err := m.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, got.Turns, 3)

	got.Turns = append(got.Turns, triage.Turn{Role: triage.RoleUser})
	again, _ := m.Get(ctx, "s1")
	assert.Len(t, again.Turns, 3)
}

func TestMemoryStore_TTL(t *testing.T) {
	clock := newTestClock()
	m := NewMemoryStore()
	m.SetClock(clock.Now)
	ctx := context.Background()

	m.Put(ctx, sampleSession("short"), time.Minute)
	m.Put(ctx, sampleSession("long"), time.Hour)
	m.Put(ctx, sampleSession("forever"), 0)

	clock.Advance(2 * time.Minute)
	_, err := m.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 2, m.Len(), "expired entry dropped on read")

	clock.Advance(2 * time.Hour)
	n, err := m.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = m.Get(ctx, "forever")
	assert.NoError(t, err)
}

func openSQLStore(t *testing.T, clock *testClock) (*SQLStore, *store.Store) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	db.SetClock(clock.Now)

	return NewSQLStore(db.SessionRepo()), db
}

func TestSQLStore_RoundTrip(t *testing.T) {
	clock := newTestClock()
	s, _ := openSQLStore(t, clock)
	ctx := context.Background()

	_, err := s.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	want := sampleSession("s1")
	require.NoError(t, s.Put(ctx, want, time.Hour))

	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, want.BodyPart, got.BodyPart)
	assert.Equal(t, want.Asked, got.Asked)
	require.Len(t, got.Turns, 3)
	require.NotNil(t, got.Turns[2].Payload)
	assert.Equal(t, triage.KindQuestion, got.Turns[2].Payload.Kind())
	assert.Equal(t, []string{"Yes", "No"}, got.Turns[2].Payload.Question.Options)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))

	clock.Advance(2 * time.Hour)
	_, err = s.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	n, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLStore_DiagnosisSurvivesRoundTrip(t *testing.T) {
	s, _ := openSQLStore(t, newTestClock())
	ctx := context.Background()

	sess := sampleSession("s1")
	sess.Phase = triage.PhaseDone
	sess.Diagnosis = &triage.Diagnosis{Conditions: []triage.Condition{
		{Name: "ACL tear", Confidence: 0.7, Recommendations: []string{"See a surgeon"}},
	}}
	require.NoError(t, s.Put(ctx, sess, 0))

	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, got.Done())
	require.NotNil(t, got.Diagnosis)
	assert.Equal(t, sess.Diagnosis.Conditions, got.Diagnosis.Conditions)
}

func TestEngine_WithSQLStoreAndRecorder(t *testing.T) {
	clock := newTestClock()
	st, db := openSQLStore(t, clock)
	ctx := context.Background()

	provider := llm.NewMockProviderText(questionJSON, diagnosisJSON)
	var logs bytes.Buffer
	logger := log.New(&logs)
	logger.SetLevel(log.DebugLevel)

	engine := NewEngine(provider, prompt.New(prompt.DefaultConfig(), nil), st, testConfig(1),
		WithClock(clock.Now),
		WithObserver(Observers{LogObserver(logger), RecordObserver(db.EventRepo(), logger)}),
	)

	_, err := engine.Submit(ctx, SubmitRequest{SessionID: "sql-1", Input: "ankle rolled"})
	require.NoError(t, err)
	res, err := engine.Submit(ctx, SubmitRequest{SessionID: "sql-1", Input: "can't walk"})
	require.NoError(t, err)
	assert.True(t, res.Done)

	sess, err := engine.Get(ctx, "sql-1")
	require.NoError(t, err)
	assert.Equal(t, triage.PhaseDone, sess.Phase)

	events, err := db.EventRepo().QueryTriageEvents(ctx, store.QueryOpts{SessionID: "sql-1"})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, string(EventTurn), events[0].Kind)
	assert.Equal(t, string(EventDiagnosis), events[1].Kind)
	assert.Equal(t, "diagnosing", events[1].Phase)
	assert.Equal(t, 2, events[1].Turn)

	assert.Contains(t, logs.String(), "session=sql-1")
}

type failingRepo struct {
	store.EventRepo
}

func (failingRepo) AppendTriageEvent(context.Context, store.TriageEventData) error {
	return errors.New("disk full")
}

func TestRecordObserver_LogsFailures(t *testing.T) {
	var logs bytes.Buffer
	o := RecordObserver(failingRepo{}, log.New(&logs))
	o.Observe(context.Background(), Event{Kind: EventTurn, SessionID: "s1"})
	assert.Contains(t, logs.String(), "failed to record triage event")
}

func TestLogObserver_Levels(t *testing.T) {
	var logs bytes.Buffer
	o := LogObserver(log.New(&logs)) // info level: debug events are dropped

	o.Observe(context.Background(), Event{Kind: EventTurn, SessionID: "quiet"})
	assert.NotContains(t, logs.String(), "quiet")

	o.Observe(context.Background(), Event{Kind: EventUpstreamError, SessionID: "loud", Err: errors.New("timeout")})
	assert.Contains(t, logs.String(), "turn failed")
	assert.Contains(t, logs.String(), "timeout")
}

func TestKeyedMutex_Cleanup(t *testing.T) {
	k := newKeyedMutex()
	unlockA := k.Lock("a")
	unlockB := k.Lock("b")
	assert.Equal(t, 2, k.size())
	unlockA()
	unlockB()
	assert.Equal(t, 0, k.size())
}
