package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPath             = errors.New("invalid path")
	ErrAmbiguousType           = errors.New("cannot load multiple types from a single file")
	ErrUnsupportedType         = errors.New("unsupported file type")
	ErrNoTypeSpecified         = errors.New("must specify at least one file type to load from a directory")
	ErrStoreNotFound           = errors.New("store not found")
	ErrCollectionNotFound      = errors.New("collection not found")
	ErrUnknownEmbeddingBackend = errors.New("unknown embedding backend")
	ErrIngestion               = errors.New("ingestion failed")
	ErrBackendMismatch         = errors.New("collection was created with a different embedding backend")
	ErrDimensionMismatch       = errors.New("vector dimension mismatch")
	ErrSchemaTooNew            = errors.New("store was written by a newer schema version")
)

// IngestionError reports a loader or splitter failure for a specific path.
type IngestionError struct {
	Path string
	Err  error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingesting %s: %v", e.Path, e.Err)
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}

// Is makes every IngestionError match ErrIngestion.
func (e *IngestionError) Is(target error) bool {
	return target == ErrIngestion
}
