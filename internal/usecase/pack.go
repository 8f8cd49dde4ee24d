package usecase

import (
	"fmt"
	"sort"

	"docqa/internal/adapter/analyzer"
	"docqa/internal/domain"
)

// PackUseCase handles context packing operations.
type PackUseCase struct {
	tokenizer *analyzer.Tokenizer
}

// NewPackUseCase creates a new pack use case.
func NewPackUseCase(tokenizer *analyzer.Tokenizer) *PackUseCase {
	return &PackUseCase{tokenizer: tokenizer}
}

// Pack selects chunks in score order until the token budget is used,
// skipping any chunk that would not fit, then merges overlapping or
// adjacent chunks of the same document into single snippets.
func (u *PackUseCase) Pack(query string, chunks []domain.ScoredChunk, budget int) domain.PackedContext {
	packed := domain.PackedContext{
		Query:        query,
		BudgetTokens: budget,
		Snippets:     []domain.Snippet{},
	}
	if len(chunks) == 0 {
		return packed
	}

	ordered := make([]domain.ScoredChunk, len(chunks))
	copy(ordered, chunks)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Score > ordered[j].Score
	})

	// Greedy selection until budget is exhausted
	selected := make([]domain.ScoredChunk, 0, len(ordered))
	usedTokens := 0
	for _, c := range ordered {
		tokens := u.tokenizer.CountTokens(c.Chunk.Text)
		if usedTokens+tokens > budget {
			continue // Skip if it would exceed budget
		}
		selected = append(selected, c)
		usedTokens += tokens
	}

	merged := mergeAdjacentChunks(selected)

	usedTokens = 0
	for _, sc := range merged {
		packed.Snippets = append(packed.Snippets, domain.Snippet{
			Path:  sc.Chunk.Source,
			Page:  sc.Chunk.Page,
			Range: fmt.Sprintf("bytes %d-%d", sc.Chunk.Start, sc.Chunk.End),
			Score: sc.Score,
			Text:  sc.Chunk.Text,
		})
		usedTokens += u.tokenizer.CountTokens(sc.Chunk.Text)
	}
	packed.UsedTokens = usedTokens

	return packed
}

// mergeAdjacentChunks joins chunks of the same document and page whose byte
// ranges touch or overlap. The result keeps the best score of each group
// and is ordered by score.
func mergeAdjacentChunks(chunks []domain.ScoredChunk) []domain.ScoredChunk {
	if len(chunks) <= 1 {
		return chunks
	}

	type docKey struct {
		source string
		page   int
	}

	byDoc := make(map[docKey][]domain.ScoredChunk)
	var keys []docKey
	for _, c := range chunks {
		k := docKey{c.Chunk.Source, c.Chunk.Page}
		if _, ok := byDoc[k]; !ok {
			keys = append(keys, k)
		}
		byDoc[k] = append(byDoc[k], c)
	}

	result := make([]domain.ScoredChunk, 0, len(chunks))

	for _, k := range keys {
		docChunks := byDoc[k]
		sort.Slice(docChunks, func(i, j int) bool {
			return docChunks[i].Chunk.Start < docChunks[j].Chunk.Start
		})

		merged := docChunks[0]
		for _, next := range docChunks[1:] {
			if next.Chunk.Start > merged.Chunk.End {
				result = append(result, merged)
				merged = next
				continue
			}
			if next.Chunk.End > merged.Chunk.End {
				merged.Chunk.Text += next.Chunk.Text[merged.Chunk.End-next.Chunk.Start:]
				merged.Chunk.End = next.Chunk.End
			}
			merged.Score = max(merged.Score, next.Score)
		}
		result = append(result, merged)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Score > result[j].Score
	})
	return result
}
