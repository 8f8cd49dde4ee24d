package usecase

import (
	"context"

	"docqa/internal/adapter/retriever"
	"docqa/internal/domain"
	"docqa/internal/port"
)

// RetrieveUseCase handles search and retrieval operations.
type RetrieveUseCase struct {
	searcher          port.Searcher
	mmrReranker       *retriever.MMRReranker // nil disables reranking
	minScoreThreshold float64                // Filter results below this score (0 = disabled)
}

// NewRetrieveUseCase creates a new retrieve use case.
func NewRetrieveUseCase(
	searcher port.Searcher,
	mmrReranker *retriever.MMRReranker,
	minScoreThreshold float64,
) *RetrieveUseCase {
	return &RetrieveUseCase{
		searcher:          searcher,
		mmrReranker:       mmrReranker,
		minScoreThreshold: minScoreThreshold,
	}
}

// Retrieve returns up to topK chunks for the query, best first.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, query string, topK int) ([]domain.ScoredChunk, error) {
	if u.mmrReranker == nil {
		results, err := u.searcher.Search(ctx, query, topK)
		if err != nil {
			return nil, err
		}
		return u.filterByThreshold(results), nil
	}

	candidates, err := u.searcher.Search(ctx, query, topK*2)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	return u.filterByThreshold(u.mmrReranker.Rerank(candidates, topK)), nil
}

// filterByThreshold removes results below the minimum score threshold.
func (u *RetrieveUseCase) filterByThreshold(results []domain.ScoredChunk) []domain.ScoredChunk {
	if u.minScoreThreshold <= 0 {
		return results
	}
	filtered := make([]domain.ScoredChunk, 0, len(results))
	for _, r := range results {
		if r.Score >= u.minScoreThreshold {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// ScoredChunkResult is a simplified result for CLI output.
type ScoredChunkResult struct {
	Path  string  `json:"path"`
	Page  int     `json:"page,omitempty"`
	Start int     `json:"start"`
	End   int     `json:"end"`
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}

// ToResults converts scored chunks for display.
func ToResults(chunks []domain.ScoredChunk) []ScoredChunkResult {
	out := make([]ScoredChunkResult, len(chunks))
	for i, c := range chunks {
		out[i] = ScoredChunkResult{
			Path:  c.Chunk.Source,
			Page:  c.Chunk.Page,
			Start: c.Chunk.Start,
			End:   c.Chunk.End,
			Score: c.Score,
			Text:  c.Chunk.Text,
		}
	}
	return out
}
