package port

import (
	"context"

	"docqa/internal/domain"
)

// Searcher returns the k chunks closest to a query, best first.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error)
}
