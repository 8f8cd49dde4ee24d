package embedding

import (
	"context"
	"errors"
	"hash/fnv"
	"math"

	"docqa/config"
	"docqa/internal/adapter/analyzer"
	"docqa/internal/port"
)

// HashingEmbedder maps word tokens into a fixed number of buckets with a
// signed hash and L2-normalizes the result. It needs no model or network,
// and the same text always produces the same vector.
type HashingEmbedder struct {
	dimension int
	tokenizer *analyzer.Tokenizer
}

type hashingOptions struct {
	Dimension int `json:"dimension"`
}

func newHashing(_ context.Context, opts Options, _ config.Credentials) (port.Embedder, error) {
	o := hashingOptions{Dimension: 384}
	if err := opts.Decode(&o); err != nil {
		return nil, err
	}
	return NewHashingEmbedder(o.Dimension)
}

func NewHashingEmbedder(dimension int) (*HashingEmbedder, error) {
	if dimension <= 0 {
		return nil, errors.New("dimension must be positive")
	}
	return &HashingEmbedder{
		dimension: dimension,
		tokenizer: analyzer.NewTokenizer(),
	}, nil
}

func (e *HashingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.vector(text)
	}
	return out, nil
}

func (e *HashingEmbedder) vector(text string) []float32 {
	v := make([]float32, e.dimension)
	for _, tok := range e.tokenizer.Tokenize(text) {
		h := fnv.New64a()
		h.Write([]byte(tok))
		sum := h.Sum64()
		idx := int(sum % uint64(e.dimension))
		if sum>>63 == 1 {
			v[idx]--
		} else {
			v[idx]++
		}
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= scale
	}
	return v
}

func (e *HashingEmbedder) Dimension() int {
	return e.dimension
}

func (e *HashingEmbedder) ModelName() string {
	return "fnv-hashing"
}
