package retriever

import (
	"docqa/internal/adapter/analyzer"
	"docqa/internal/domain"
)

// MMRReranker implements Maximal Marginal Relevance for result diversification.
// Chunk similarity is the Jaccard index of their word tokens.
type MMRReranker struct {
	lambda       float64
	dedupJaccard float64
	tokenizer    *analyzer.Tokenizer
}

// NewMMRReranker creates a new MMR reranker. Candidates whose similarity to
// an already selected chunk exceeds dedupJaccard are dropped.
func NewMMRReranker(lambda, dedupJaccard float64, tokenizer *analyzer.Tokenizer) *MMRReranker {
	return &MMRReranker{
		lambda:       lambda,
		dedupJaccard: dedupJaccard,
		tokenizer:    tokenizer,
	}
}

// Rerank applies MMR to diversify the results.
// MMR(c) = λ * relevance(c) - (1-λ) * max_similarity(c, selected)
func (r *MMRReranker) Rerank(candidates []domain.ScoredChunk, k int) []domain.ScoredChunk {
	if len(candidates) == 0 {
		return nil
	}

	if k > len(candidates) {
		k = len(candidates)
	}

	// Normalize scores to [0, 1] for fair comparison
	maxScore := candidates[0].Score
	for _, c := range candidates {
		if c.Score > maxScore {
			maxScore = c.Score
		}
	}
	if maxScore <= 0 {
		maxScore = 1
	}

	type candidate struct {
		chunk  domain.ScoredChunk
		tokens map[string]struct{}
	}

	remaining := make([]candidate, len(candidates))
	for i, c := range candidates {
		remaining[i] = candidate{chunk: c, tokens: tokenSet(r.tokenizer.Tokenize(c.Chunk.Text))}
	}
	selected := make([]candidate, 0, k)

	for len(selected) < k && len(remaining) > 0 {
		bestIdx := -1
		bestMMR := -1e9

		for i, cand := range remaining {
			relevance := cand.chunk.Score / maxScore

			maxSim := 0.0
			for _, sel := range selected {
				if sim := jaccard(cand.tokens, sel.tokens); sim > maxSim {
					maxSim = sim
				}
			}

			if maxSim > r.dedupJaccard {
				continue
			}

			if mmr := r.lambda*relevance - (1-r.lambda)*maxSim; mmr > bestMMR {
				bestMMR = mmr
				bestIdx = i
			}
		}

		if bestIdx == -1 {
			// All remaining candidates are too similar, stop
			break
		}

		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	out := make([]domain.ScoredChunk, len(selected))
	for i, s := range selected {
		out[i] = s.chunk
	}
	return out
}

func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// jaccard computes the Jaccard similarity between two token sets.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	intersection := 0
	for t := range a {
		if _, exists := b[t]; exists {
			intersection++
		}
	}

	return float64(intersection) / float64(len(a)+len(b)-intersection)
}
