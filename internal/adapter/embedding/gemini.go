package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"docqa/config"
	"docqa/internal/port"
)

// geminiMaxBatch is the largest batch BatchEmbedContents accepts.
const geminiMaxBatch = 100

type GeminiEmbedder struct {
	client    *genai.Client
	modelName string
	batchSize int
	dimension int
}

type geminiOptions struct {
	Model     string `json:"model"`
	BatchSize int    `json:"batch_size"`
}

func newGemini(ctx context.Context, opts Options, creds config.Credentials) (port.Embedder, error) {
	o := geminiOptions{Model: "text-embedding-004", BatchSize: geminiMaxBatch}
	if err := opts.Decode(&o); err != nil {
		return nil, err
	}
	if creds.GeminiAPIKey == "" {
		return nil, errors.New("Gemini API key not set")
	}
	if o.BatchSize <= 0 || o.BatchSize > geminiMaxBatch {
		return nil, fmt.Errorf("batch_size must be in [1, %d], got %d", geminiMaxBatch, o.BatchSize)
	}

	cl, err := genai.NewClient(ctx, option.WithAPIKey(creds.GeminiAPIKey))
	if err != nil {
		return nil, err
	}
	return &GeminiEmbedder{
		client:    cl,
		modelName: o.Model,
		batchSize: o.BatchSize,
		dimension: knownDimensions[o.Model],
	}, nil
}

func (g *GeminiEmbedder) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func (g *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	em := g.client.EmbeddingModel(g.modelName)
	out := make([][]float32, 0, len(texts))

	for i := 0; i < len(texts); i += g.batchSize {
		end := min(i+g.batchSize, len(texts))

		batch := em.NewBatch()
		for _, t := range texts[i:end] {
			batch.AddContent(genai.Text(t))
		}

		resp, err := em.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("gemini batch embed: %w", err)
		}
		if len(resp.Embeddings) != end-i {
			return nil, fmt.Errorf("gemini returned %d embeddings for %d inputs", len(resp.Embeddings), end-i)
		}
		for _, e := range resp.Embeddings {
			if g.dimension == 0 {
				g.dimension = len(e.Values)
			}
			out = append(out, e.Values)
		}
	}
	return out, nil
}

func (g *GeminiEmbedder) Dimension() int {
	return g.dimension
}

func (g *GeminiEmbedder) ModelName() string {
	return g.modelName
}
