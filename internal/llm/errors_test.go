package llm

import (
	"net/http"
	"testing"
	"time"
)

func TestRetryAfter(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", 0},
		{"12", 12 * time.Second},
		{"-4", 0},
		{now.Add(90 * time.Second).Format(http.TimeFormat), 90 * time.Second},
		{now.Add(-time.Minute).Format(http.TimeFormat), 0},
		{"soon", 0},
	}
	for _, tt := range tests {
		h := http.Header{}
		if tt.value != "" {
			h.Set("Retry-After", tt.value)
		}
		if got := retryAfter(h, now); got != tt.want {
			t.Errorf("retryAfter(%q) = %s, want %s", tt.value, got, tt.want)
		}
	}
}

func TestNormalizeTurns(t *testing.T) {
	got := normalizeTurns([]Message{
		{Role: RoleUser, Content: "  "},
		{Role: RoleUser, Content: "Hurt my wrist"},
		{Role: RoleUser, Content: "on a fall"},
		{Role: RoleAssistant, Content: "Can you grip a ball?"},
		{Role: RoleAssistant, Content: ""},
		{Role: RoleUser, Content: "Barely"},
	})
	want := []Message{
		{Role: RoleUser, Content: "Hurt my wrist\n\non a fall"},
		{Role: RoleAssistant, Content: "Can you grip a ball?"},
		{Role: RoleUser, Content: "Barely"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d messages, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("message %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}
