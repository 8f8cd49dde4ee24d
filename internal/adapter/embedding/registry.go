package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"docqa/config"
	"docqa/internal/domain"
	"docqa/internal/port"
)

// DefaultBackend is used when no embedding class is configured.
const DefaultBackend = "ollama"

// Options is the open key/value mapping a backend is configured with.
// Each backend decodes it into its own typed struct.
type Options map[string]any

// Decode fills v from the options, rejecting unknown keys and wrong types.
func (o Options) Decode(v any) error {
	if len(o) == 0 {
		return nil
	}
	data, err := json.Marshal(map[string]any(o))
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}

// ParseOptions parses a JSON object given on the command line.
func ParseOptions(s string) (Options, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Options{}, nil
	}
	var opts Options
	if err := json.Unmarshal([]byte(s), &opts); err != nil {
		return nil, fmt.Errorf("embedding options must be a JSON object: %w", err)
	}
	if opts == nil {
		opts = Options{}
	}
	return opts, nil
}

// Factory builds an embedder from decoded options and explicit credentials.
type Factory func(ctx context.Context, opts Options, creds config.Credentials) (port.Embedder, error)

var registry = map[string]Factory{
	"ollama":  newOllama,
	"openai":  newOpenAI,
	"gemini":  newGemini,
	"hashing": newHashing,
}

// Names returns the registered backend names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create builds the named embedding backend.
func Create(ctx context.Context, name string, opts Options, creds config.Credentials) (port.Embedder, error) {
	if name == "" {
		name = DefaultBackend
	}
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %s)", domain.ErrUnknownEmbeddingBackend, name, strings.Join(Names(), ", "))
	}
	emb, err := factory(ctx, opts, creds)
	if err != nil {
		return nil, fmt.Errorf("create %s embedder: %w", name, err)
	}
	return emb, nil
}

type timeoutEmbedder struct {
	port.Embedder
	timeout time.Duration
}

// WithTimeout bounds every Embed call on emb by timeout.
func WithTimeout(emb port.Embedder, timeout time.Duration) port.Embedder {
	if timeout <= 0 {
		return emb
	}
	return &timeoutEmbedder{Embedder: emb, timeout: timeout}
}

func (e *timeoutEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.Embedder.Embed(ctx, texts)
}

// Close releases the wrapped embedder when it holds resources.
func (e *timeoutEmbedder) Close() error {
	if c, ok := e.Embedder.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
