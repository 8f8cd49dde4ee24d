package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"docqa/config"
)

func TestChatClient_Generate(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("bad request: %v", err)
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Paris."}}]}`))
	}))
	defer srv.Close()

	c := NewChatClient(srv.URL, "", "test-model", 0, 5*time.Second)
	answer, err := c.Generate(context.Background(), "be brief", "capital of France?")
	if err != nil {
		t.Fatal(err)
	}
	if answer != "Paris." {
		t.Errorf("unexpected answer %q", answer)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "capital of France?" {
		t.Errorf("unexpected messages: %+v", got.Messages)
	}
	if got.Model != "test-model" {
		t.Errorf("unexpected model %q", got.Model)
	}
	if s := c.Stats(); s.TotalCalls != 1 || s.TotalOutputChars != len("Paris.") {
		t.Errorf("unexpected stats: %+v", s)
	}
}

func TestChatClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	}))
	defer srv.Close()

	c := NewChatClient(srv.URL, "bad", "m", 0, 5*time.Second)
	_, err := c.Generate(context.Background(), "", "hi")
	if err == nil || !strings.Contains(err.Error(), "invalid api key") {
		t.Fatalf("expected API error, got %v", err)
	}
}

func TestChatClient_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewChatClient(srv.URL, "", "m", 0, 5*time.Second)
	if _, err := c.Generate(context.Background(), "", "hi"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LLMConfig
		creds   config.Credentials
		wantErr bool
		model   string
	}{
		{"openai needs key", config.LLMConfig{Provider: "openai"}, config.Credentials{}, true, ""},
		{"openai default model", config.LLMConfig{Provider: "openai"}, config.Credentials{OpenAIAPIKey: "sk"}, false, "gpt-4o-mini"},
		{"ollama needs no key", config.LLMConfig{Provider: "ollama", Model: "qwen2"}, config.Credentials{}, false, "qwen2"},
		{"gemini needs key", config.LLMConfig{Provider: "gemini"}, config.Credentials{}, true, ""},
		{"unknown provider", config.LLMConfig{Provider: "acme"}, config.Credentials{}, true, ""},
		{"custom endpoint", config.LLMConfig{Provider: "acme", BaseURL: "http://localhost:9999/v1", Model: "m"}, config.Credentials{}, false, "m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(context.Background(), tt.cfg, tt.creds)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if l.ModelName() != tt.model {
				t.Errorf("expected model %q, got %q", tt.model, l.ModelName())
			}
		})
	}
}
