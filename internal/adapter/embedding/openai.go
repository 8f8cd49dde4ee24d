package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"docqa/config"
	"docqa/internal/port"
)

const (
	openAIBaseURL = "https://api.openai.com/v1"
	ollamaBaseURL = "http://localhost:11434/v1"
)

// OpenAIEmbedder talks to any server implementing the OpenAI /embeddings
// endpoint (OpenAI itself, Ollama, and compatible proxies).
type OpenAIEmbedder struct {
	apiKey    string
	model     string
	baseURL   string
	dimension int
	// requested is the explicit "dimension" option, sent as "dimensions".
	requested int
	batchSize int
	limiter   *rate.Limiter
	client    *http.Client
}

type openAIOptions struct {
	Model             string `json:"model"`
	BaseURL           string `json:"base_url"`
	Dimension         int    `json:"dimension"`
	TimeoutSecs       int    `json:"timeout_secs"`
	BatchSize         int    `json:"batch_size"`
	RequestsPerMinute int    `json:"requests_per_minute"`
}

type embeddingRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data  []embeddingData `json:"data"`
	Usage embeddingUsage  `json:"usage"`
	Error *apiError       `json:"error,omitempty"`
}

type embeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type embeddingUsage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// knownDimensions lists vector sizes for common models so Dimension can
// answer before the first request.
var knownDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
	"nomic-embed-text":       768,
	"mxbai-embed-large":      1024,
	"all-minilm":             384,
	"text-embedding-004":     768,
}

func newOpenAI(_ context.Context, opts Options, creds config.Credentials) (port.Embedder, error) {
	o := openAIOptions{Model: "text-embedding-3-small", BaseURL: openAIBaseURL}
	if err := opts.Decode(&o); err != nil {
		return nil, err
	}
	if creds.OpenAIAPIKey == "" {
		return nil, errors.New("OpenAI API key not set")
	}
	return newOpenAICompatible(creds.OpenAIAPIKey, o)
}

func newOllama(_ context.Context, opts Options, _ config.Credentials) (port.Embedder, error) {
	o := openAIOptions{Model: "all-minilm", BaseURL: ollamaBaseURL}
	if err := opts.Decode(&o); err != nil {
		return nil, err
	}
	return newOpenAICompatible("ollama", o)
}

// newOpenAICompatible creates an embedder for an OpenAI-style API.
func newOpenAICompatible(apiKey string, o openAIOptions) (*OpenAIEmbedder, error) {
	if o.Model == "" {
		return nil, errors.New("model must not be empty")
	}
	if o.Dimension < 0 || o.BatchSize < 0 || o.TimeoutSecs < 0 || o.RequestsPerMinute < 0 {
		return nil, errors.New("numeric options must not be negative")
	}

	dimension := o.Dimension
	if dimension == 0 {
		dimension = knownDimensions[o.Model]
	}
	batchSize := o.BatchSize
	if batchSize == 0 {
		batchSize = 64
	}
	timeout := time.Duration(o.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	var limiter *rate.Limiter
	if o.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(o.RequestsPerMinute)), 1)
	}

	return &OpenAIEmbedder{
		apiKey:    apiKey,
		model:     o.Model,
		baseURL:   strings.TrimRight(o.BaseURL, "/"),
		dimension: dimension,
		requested: o.Dimension,
		batchSize: batchSize,
		limiter:   limiter,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	allEmbeddings := make([][]float32, 0, len(texts))

	for i := 0; i < len(texts); i += e.batchSize {
		end := i + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[i:end]

		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		embeddings, err := e.embedBatch(ctx, batch)
		if err != nil {
			return nil, err
		}
		allEmbeddings = append(allEmbeddings, embeddings...)
	}

	return allEmbeddings, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := embeddingRequest{
		Input:      texts,
		Model:      e.model,
		Dimensions: e.requested,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, preview(body))
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		return nil, fmt.Errorf("failed to parse response (body: %s): %w", preview(body), err)
	}

	if embResp.Error != nil {
		return nil, fmt.Errorf("API error: %s", embResp.Error.Message)
	}

	embeddings := make([][]float32, len(texts))
	for _, data := range embResp.Data {
		if data.Index >= 0 && data.Index < len(embeddings) {
			embeddings[data.Index] = data.Embedding
		}
	}
	for i, v := range embeddings {
		if len(v) == 0 {
			return nil, fmt.Errorf("API returned no embedding for input %d", i)
		}
		if e.dimension == 0 {
			e.dimension = len(v)
		}
		if len(v) != e.dimension {
			return nil, fmt.Errorf("API returned %d-dimensional vector, expected %d", len(v), e.dimension)
		}
	}

	return embeddings, nil
}

func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
