package usecase

import (
	"fmt"
	"io"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"docqa/internal/adapter/fs"
	"docqa/internal/domain"
	"docqa/internal/logger"
)

// Producer turns a file or directory into ordered, provenance-tagged chunks.
type Producer struct {
	sources  *SourceRegistry
	excludes []string
	out      io.Writer
}

// NewProducer creates a producer writing progress lines to out.
func NewProducer(sources *SourceRegistry, excludes []string, out io.Writer) *Producer {
	if out == nil {
		out = io.Discard
	}
	return &Producer{
		sources:  sources,
		excludes: excludes,
		out:      out,
	}
}

// Produce loads and splits everything selected at path. The first loader
// or splitter failure aborts the whole run with an *IngestionError.
func (p *Producer) Produce(path string, recursive bool, requested []domain.SourceType) ([]domain.Chunk, error) {
	kind, err := fs.Classify(path)
	if err != nil {
		return nil, err
	}

	types, err := p.sources.ResolveTypes(path, kind, requested)
	if err != nil {
		return nil, err
	}

	var chunks []domain.Chunk
	for _, t := range types {
		src, _ := p.sources.Lookup(t)
		fmt.Fprintf(p.out, "Detected file type: %s (%s)\n", t, kind)
		fmt.Fprintf(p.out, "Using %s for %s files\n", src.LoaderName, t)

		var docs []domain.Document
		if kind == domain.PathFile {
			docs, err = p.loadFile(src, path)
		} else {
			docs, err = p.loadDir(src, path, recursive)
		}
		if err != nil {
			return nil, err
		}

		typeChunks, err := src.Splitter.Split(docs)
		if err != nil {
			return nil, &domain.IngestionError{Path: path, Err: fmt.Errorf("split %s documents: %w", t, err)}
		}
		fmt.Fprintf(p.out, "Split %d %s documents into %d chunks\n", len(docs), t, len(typeChunks))
		logger.Debug("produced chunks", "type", t, "documents", len(docs), "chunks", len(typeChunks))

		chunks = append(chunks, typeChunks...)
	}

	return chunks, nil
}

func (p *Producer) loadFile(src Source, path string) ([]domain.Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &domain.IngestionError{Path: path, Err: err}
	}
	fmt.Fprintf(p.out, "Loading %s\n", abs)
	docs, err := src.Loader.Load(abs)
	if err != nil {
		return nil, &domain.IngestionError{Path: path, Err: err}
	}
	return docs, nil
}

func (p *Producer) loadDir(src Source, dir string, recursive bool) ([]domain.Document, error) {
	pattern := fs.PatternFor(string(src.Type), recursive)
	walker := fs.NewWalker([]string{pattern}, p.excludes, recursive)

	files, err := walker.Walk(dir)
	if err != nil {
		return nil, &domain.IngestionError{Path: dir, Err: fmt.Errorf("failed to walk directory: %w", err)}
	}
	fmt.Fprintf(p.out, "Loading %d files matching %s from %s\n", len(files), pattern, dir)

	// Files load concurrently; results keep walk order.
	loaded := make([][]domain.Document, len(files))
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, f := range files {
		g.Go(func() error {
			fileDocs, err := src.Loader.Load(f.Path)
			if err != nil {
				return &domain.IngestionError{Path: f.Path, Err: err}
			}
			loaded[i] = fileDocs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var docs []domain.Document
	for _, fileDocs := range loaded {
		docs = append(docs, fileDocs...)
	}
	return docs, nil
}
