package port

import "docqa/internal/domain"

type FileWalker interface {
	Walk(root string) ([]FileInfo, error)
}

type FileInfo struct {
	Path    string
	ModTime int64
	Size    int64
}

// Loader reads one file into documents.
type Loader interface {
	Load(path string) ([]domain.Document, error)
}

// Splitter cuts documents into chunks.
type Splitter interface {
	Split(docs []domain.Document) ([]domain.Chunk, error)
}
