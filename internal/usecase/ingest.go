package usecase

import (
	"context"
	"fmt"
	"io"

	"docqa/internal/adapter/store"
	"docqa/internal/domain"
	"docqa/internal/port"
)

// EmbedderFactory creates the embedding backend for a run.
type EmbedderFactory func(ctx context.Context) (port.Embedder, error)

// IngestRequest describes one ingestion run.
type IngestRequest struct {
	Path       string
	Recursive  bool
	Types      []domain.SourceType
	StoreDir   string
	Store      store.Options
	Collection string
	Backend    string
	BatchSize  int
	// Progress, if set, is called after each stored batch.
	Progress func(done, total int)
}

// IngestResult reports what a run added.
type IngestResult struct {
	Added int
	Size  int
}

// IngestUseCase loads, splits, embeds and stores documents.
type IngestUseCase struct {
	producer    *Producer
	newEmbedder EmbedderFactory
	out         io.Writer
}

// NewIngestUseCase creates a new ingest use case.
func NewIngestUseCase(producer *Producer, newEmbedder EmbedderFactory, out io.Writer) *IngestUseCase {
	if out == nil {
		out = io.Discard
	}
	return &IngestUseCase{
		producer:    producer,
		newEmbedder: newEmbedder,
		out:         out,
	}
}

// Ingest runs the pipeline. The store is opened and the embedder built
// before any file is read, so a bad store directory or backend fails fast.
func (u *IngestUseCase) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	st, err := store.Open(req.StoreDir, req.Store)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	emb, err := u.newEmbedder(ctx)
	if err != nil {
		return nil, err
	}
	if c, ok := emb.(io.Closer); ok {
		defer c.Close()
	}

	chunks, err := u.producer.Produce(req.Path, req.Recursive, req.Types)
	if err != nil {
		return nil, err
	}

	coll, err := st.Collection(req.Collection, req.Backend, emb)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(u.out, "Embedding %d chunks with %s (%s)\n", len(chunks), req.Backend, emb.ModelName())
	added, err := coll.Insert(ctx, chunks, req.BatchSize, req.Progress)
	if err != nil {
		return nil, fmt.Errorf("insert into collection %s after %d chunks: %w", req.Collection, added, err)
	}

	size, err := coll.Size()
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(u.out, "Added %d embedded chunks to collection %s.\n", added, req.Collection)
	fmt.Fprintf(u.out, "Collection %s contains %d elements.\n", req.Collection, size)

	return &IngestResult{Added: added, Size: size}, nil
}
