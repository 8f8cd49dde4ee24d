package port

import "context"

// LLM represents a language model for text generation.
type LLM interface {
	// Generate generates text for userPrompt. systemPrompt may be empty.
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}
