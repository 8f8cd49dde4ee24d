package usecase

import (
	"fmt"
	"path/filepath"
	"strings"

	"docqa/internal/adapter/chunker"
	"docqa/internal/adapter/loader"
	"docqa/internal/domain"
	"docqa/internal/port"
)

// Source binds a file type to the loader and splitter that handle it.
type Source struct {
	Type       domain.SourceType
	LoaderName string
	Loader     port.Loader
	Splitter   port.Splitter
}

// SourceRegistry is the single table of supported file types. Its order
// is the order in which directory types are processed.
type SourceRegistry struct {
	sources []Source
}

// NewSourceRegistry builds the registry for txt, pdf, py, go, md, docx and
// html files.
func NewSourceRegistry(chunkSize, overlap int) (*SourceRegistry, error) {
	text, err := chunker.NewTextSplitter(chunkSize, overlap)
	if err != nil {
		return nil, err
	}
	python, err := chunker.NewCodeSplitter("python", chunkSize, overlap)
	if err != nil {
		return nil, err
	}
	golang, err := chunker.NewCodeSplitter("go", chunkSize, overlap)
	if err != nil {
		return nil, err
	}
	markdown, err := chunker.NewCodeSplitter("markdown", chunkSize, overlap)
	if err != nil {
		return nil, err
	}

	docx, err := loader.NewDocconvLoader(domain.SourceDocx)
	if err != nil {
		return nil, err
	}
	html, err := loader.NewDocconvLoader(domain.SourceHTML)
	if err != nil {
		return nil, err
	}

	return &SourceRegistry{sources: []Source{
		{domain.SourceText, "TextLoader", loader.NewTextLoader(domain.SourceText), text},
		{domain.SourcePDF, "PDFLoader", loader.NewPDFLoader(), text},
		{domain.SourcePython, "PythonLoader", loader.NewTextLoader(domain.SourcePython), python},
		{domain.SourceGo, "GoLoader", loader.NewTextLoader(domain.SourceGo), golang},
		{domain.SourceMarkdown, "MarkdownLoader", loader.NewTextLoader(domain.SourceMarkdown), markdown},
		{domain.SourceDocx, "DocxLoader", docx, text},
		{domain.SourceHTML, "HTMLLoader", html, text},
	}}, nil
}

// Lookup returns the source registered for t.
func (r *SourceRegistry) Lookup(t domain.SourceType) (Source, bool) {
	for _, s := range r.sources {
		if s.Type == t {
			return s, true
		}
	}
	return Source{}, false
}

// Types returns the registered types in registry order.
func (r *SourceRegistry) Types() []domain.SourceType {
	types := make([]domain.SourceType, len(r.sources))
	for i, s := range r.sources {
		types[i] = s.Type
	}
	return types
}

// typeForExtension infers a type from a file name, case-insensitively.
func (r *SourceRegistry) typeForExtension(path string) (domain.SourceType, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	t := domain.SourceType(ext)
	if _, ok := r.Lookup(t); !ok {
		return "", r.unsupported(ext)
	}
	return t, nil
}

func (r *SourceRegistry) unsupported(name string) error {
	known := make([]string, len(r.sources))
	for i, s := range r.sources {
		known[i] = string(s.Type)
	}
	if name == "" {
		name = "(none)"
	}
	return fmt.Errorf("%w %q (supported: %s)", domain.ErrUnsupportedType, name, strings.Join(known, ", "))
}
