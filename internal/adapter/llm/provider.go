package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docqa/config"
	"docqa/internal/port"
)

var providers = map[string]struct {
	baseURL string
	model   string
}{
	"openai": {"https://api.openai.com/v1", "gpt-4o-mini"},
	"ollama": {"http://localhost:11434/v1", "llama3.2"},
	"gemini": {"", "gemini-1.5-flash"},
}

// New creates the language model named by cfg.Provider.
func New(ctx context.Context, cfg config.LLMConfig, creds config.Credentials) (port.LLM, error) {
	p, ok := providers[cfg.Provider]
	if !ok && cfg.BaseURL == "" {
		return nil, fmt.Errorf("unknown LLM provider: %s (set llm.base_url for custom endpoints)", cfg.Provider)
	}

	model := cfg.Model
	if model == "" {
		model = p.model
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	switch cfg.Provider {
	case "gemini":
		if creds.GeminiAPIKey == "" {
			return nil, errors.New("Gemini API key not set")
		}
		return NewGeminiLLM(ctx, creds.GeminiAPIKey, model, cfg.Temperature)
	case "openai":
		if creds.OpenAIAPIKey == "" && cfg.BaseURL == "" {
			return nil, errors.New("OpenAI API key not set")
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = p.baseURL
		}
		return NewChatClient(baseURL, creds.OpenAIAPIKey, model, cfg.Temperature, timeout), nil
	default:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = p.baseURL
		}
		return NewChatClient(baseURL, "", model, cfg.Temperature, timeout), nil
	}
}
