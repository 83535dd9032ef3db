package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abhisek/hooptriage/internal/llm"
	"github.com/abhisek/hooptriage/internal/store"
	"github.com/abhisek/hooptriage/internal/triage"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rosterPath = "../data/doctors.yaml"

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func useMockProvider(t *testing.T, texts ...string) *llm.MockProvider {
	t.Helper()
	mock := llm.NewMockProviderText(texts...)
	saved := newProvider
	newProvider = func(context.Context, llm.Config, store.EventRepo, *log.Logger) (llm.Provider, error) {
		return mock, nil
	}
	t.Cleanup(func() { newProvider = saved })
	t.Setenv("HOOPTRIAGE_LLM_PROVIDER", "mock")
	return mock
}

func TestInterview_EndToEnd(t *testing.T) {
	mock := useMockProvider(t,
		`{"type":"objective","question":"Does the knee swell after games?","options":["Yes","No"]}`,
		`Here you go: {"type":"diagnosis","injuries":["Patellar tendinitis","ACL tear"],"confidence":[70,30]}`,
	)
	t.Setenv("HOOPTRIAGE_SESSION_MAX_QUESTIONS", "1")
	db := filepath.Join(t.TempDir(), "triage.db")

	out, err := run(t, "my knee hurts when I land\n\nyes\n",
		"interview", "--session", "cli-1", "--db", db, "--roster", rosterPath)
	require.NoError(t, err)
	assert.Equal(t, 2, mock.CallCount(), "blank lines are skipped")

	lines := strings.SplitN(out, "\n", 3)
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], `"type":"objective"`)
	assert.Contains(t, lines[1], `"type":"diagnosis"`)
	assert.Contains(t, lines[1], `0.7`)

	var rec recommendationOutput
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &rec))
	require.NotEmpty(t, rec.Specialists)
	assert.Equal(t, "Dr. Maya Rivera", rec.Specialists[0].Name)
	assert.Empty(t, rec.Message)

	req, ok := mock.LastCall()
	require.True(t, ok)
	assert.Contains(t, req.System, "Knee", "body part detected from the first answer")

	shown, err := run(t, "", "sessions", "show", "cli-1", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, shown, `"phase": "done"`)
}

func TestRecommend_FromFileAndStdin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diagnosis.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"type":"diagnosis","injuries":["Lateral ankle sprain"],"confidence":[0.8]}`), 0o644))
	db := filepath.Join(t.TempDir(), "triage.db")

	out, err := run(t, "", "recommend", path, "--roster", rosterPath, "--db", db)
	require.NoError(t, err)
	var rec recommendationOutput
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	require.NotEmpty(t, rec.Specialists)
	assert.Equal(t, "Dr. Lin Chen", rec.Specialists[0].Name)
	assert.Equal(t, "Riverside Orthopedic Center", rec.Specialists[0].Location, "empty location falls back to hospital")

	out, err = run(t, `{"possible_conditions":[]}`, "recommend", "-", "--roster", rosterPath, "--db", db)
	require.NoError(t, err)
	rec = recommendationOutput{}
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Empty(t, rec.Specialists)
	assert.Contains(t, rec.Message, "sports medicine physician")
}

func TestDecodeDiagnosis(t *testing.T) {
	d, err := decodeDiagnosis([]byte(`{"injuries":["ACL tear"],"confidence":[0.6]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"ACL tear"}, d.Injuries())

	d, err = decodeDiagnosis([]byte(`{"injuries":["Jammed finger"],"confidence":[85]}`))
	require.NoError(t, err)
	assert.InDelta(t, 0.85, d.Conditions[0].Confidence, 1e-9, "percent confidences are normalized")

	d, err = decodeDiagnosis([]byte(`Assessment: {"type":"diagnosis","injuries":["Wrist sprain"],"confidence":["55%"]}.`))
	require.NoError(t, err)
	assert.InDelta(t, 0.55, d.Conditions[0].Confidence, 1e-9)

	printed, err := json.Marshal(triage.Diagnosis{Conditions: []triage.Condition{
		{Name: "Patellar tendinitis", Confidence: 0.7, Severity: triage.SeverityModerate},
	}})
	require.NoError(t, err)
	d, err = decodeDiagnosis(printed)
	require.NoError(t, err)
	assert.Equal(t, []string{"Patellar tendinitis"}, d.Injuries())
	assert.InDelta(t, 0.7, d.Conditions[0].Confidence, 1e-9)

	d, err = decodeDiagnosis([]byte(`{"injuries":[],"confidence":[]}`))
	require.NoError(t, err)
	assert.True(t, d.Empty())

	for _, bad := range []string{"no idea", `{"foo":1}`, `{"injuries":["x"]}`} {
		_, err = decodeDiagnosis([]byte(bad))
		assert.Error(t, err, bad)
	}
}

func TestAnalyze_FromModelWithFollowUp(t *testing.T) {
	mock := useMockProvider(t,
		`{"possible_conditions":[{"name":"Lateral ankle sprain","confidence":80,"severity":"moderate"}]}`,
		`{"question":"Can you bear weight on it?","type":"choice","options":["Yes","No"]}`,
	)
	path := filepath.Join(t.TempDir(), "answers.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"question":"Rate the pain level in your ankle","answer":"6"},
		{"question":"Is there any swelling in your ankle?","answer":"Yes"}
	]`), 0o644))
	db := filepath.Join(t.TempDir(), "triage.db")

	out, err := run(t, "", "analyze", path, "--body-part", "Ankle", "--follow-up", "--roster", rosterPath, "--db", db)
	require.NoError(t, err)
	assert.Equal(t, 2, mock.CallCount())

	dec := json.NewDecoder(strings.NewReader(out))
	var res analysisOutput
	require.NoError(t, dec.Decode(&res))
	assert.Equal(t, "model", res.Source)
	assert.Equal(t, []string{"Lateral ankle sprain"}, res.Diagnosis.Injuries())
	require.NotNil(t, res.FollowUp)
	assert.Equal(t, "Can you bear weight on it?", res.FollowUp.Question)

	var rec recommendationOutput
	require.NoError(t, dec.Decode(&rec))
	require.NotEmpty(t, rec.Specialists)
	assert.Equal(t, "Dr. Lin Chen", rec.Specialists[0].Name)
}

func TestAnalyze_FallbackWhenModelReplyUnusable(t *testing.T) {
	useMockProvider(t, "I am not able to diagnose injuries.")
	db := filepath.Join(t.TempDir(), "triage.db")
	answers := "- question: Describe how the knee injury occurred\n  answer: Landed awkwardly\n"

	out, err := run(t, answers, "analyze", "--body-part", "Knee", "--follow-up=false", "--roster", rosterPath, "--db", db)
	require.NoError(t, err)

	dec := json.NewDecoder(strings.NewReader(out))
	var res analysisOutput
	require.NoError(t, dec.Decode(&res))
	assert.Equal(t, "fallback", res.Source)
	assert.Equal(t, []string{"Analysis Error"}, res.Diagnosis.Injuries())
	assert.Nil(t, res.FollowUp)
}

func TestDecodeAnswers(t *testing.T) {
	qa, err := decodeAnswers([]byte(`[{"question":"Any swelling?","answer":"No"},{"question":" ","answer":"x"}]`))
	require.NoError(t, err)
	assert.Len(t, qa, 1)

	for _, bad := range []string{`{"question":"x"}`, `[]`, `[{"answer":"yes"}]`} {
		_, err = decodeAnswers([]byte(bad))
		assert.Error(t, err, bad)
	}
}

func TestQuestions_FallbackWhenModelReplyUnusable(t *testing.T) {
	useMockProvider(t, "sorry, I cannot help with that")
	db := filepath.Join(t.TempDir(), "triage.db")

	out, err := run(t, "", "questions", "--body-part", "Ankle", "-n", "3", "--db", db)
	require.NoError(t, err)

	var q questionnaireOutput
	require.NoError(t, json.Unmarshal([]byte(out), &q))
	assert.Equal(t, "fallback", q.Source)
	assert.Len(t, q.Questions, 3)
}
