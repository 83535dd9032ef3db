package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewOpenRouterProvider_RequiresKey(t *testing.T) {
	if _, err := NewOpenRouterProvider(OpenRouterConfig{Model: "meta-llama/llama-3-8b"}); err == nil {
		t.Fatal("expected error for empty API key")
	}
}

func TestOpenRouterProvider_PassesModelThrough(t *testing.T) {
	p, err := NewOpenRouterProvider(OpenRouterConfig{APIKey: "sk-or-test", Model: "mistral-7b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// friendly names belong to Together; OpenRouter IDs are used verbatim
	if p.ModelID() != "mistral-7b" {
		t.Errorf("model = %q", p.ModelID())
	}
}

func TestOpenRouterProvider_CustomBaseURL(t *testing.T) {
	var gotPath, gotAuth, gotModel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotAuth = r.URL.Path, r.Header.Get("Authorization")
		var body struct {
			Model string `json:"model"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		gotModel = body.Model

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletion(`{"type":"scale","question":"Rate the pain from 1 to 10","scale":"1-10"}`))
	}))
	defer server.Close()

	p, err := NewOpenRouterProvider(OpenRouterConfig{
		APIKey:  "sk-or-test",
		Model:   "google/gemini-2.0-flash-exp",
		BaseURL: server.URL + "/api/v1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := p.Generate(context.Background(), Request{
		Messages:  []Message{{Role: RoleUser, Content: "Jammed my finger blocking a shot"}},
		MaxTokens: 100,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/api/v1/chat/completions" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer sk-or-test" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotModel != "google/gemini-2.0-flash-exp" {
		t.Errorf("model sent = %q", gotModel)
	}
	if resp.Text == "" {
		t.Fatal("empty response text")
	}
}
