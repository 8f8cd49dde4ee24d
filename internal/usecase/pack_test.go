package usecase

import (
	"strings"
	"testing"

	"docqa/internal/adapter/analyzer"
	"docqa/internal/domain"
)

func chunkAt(source string, start int, text string, score float64) domain.ScoredChunk {
	return domain.ScoredChunk{
		Chunk: domain.Chunk{Source: source, Start: start, End: start + len(text), Text: text},
		Score: score,
	}
}

func TestPackBudget(t *testing.T) {
	tokenizer := analyzer.NewTokenizer()
	packUC := NewPackUseCase(tokenizer)

	long := strings.Repeat("word ", 200)
	chunks := []domain.ScoredChunk{
		chunkAt("a.txt", 0, "This is a short chunk of text", 0.9),
		chunkAt("b.txt", 0, long, 0.95),
		chunkAt("c.txt", 0, "Another short chunk for testing purposes", 0.5),
	}

	packed := packUC.Pack("query", chunks, 50)

	if packed.UsedTokens > packed.BudgetTokens {
		t.Errorf("used tokens %d exceed budget %d", packed.UsedTokens, packed.BudgetTokens)
	}
	if len(packed.Snippets) != 2 {
		t.Fatalf("expected the long chunk to be skipped, got %d snippets", len(packed.Snippets))
	}
	if packed.Snippets[0].Path != "a.txt" || packed.Snippets[1].Path != "c.txt" {
		t.Errorf("expected score order a.txt, c.txt; got %s, %s", packed.Snippets[0].Path, packed.Snippets[1].Path)
	}
}

func TestPackEmpty(t *testing.T) {
	packed := NewPackUseCase(analyzer.NewTokenizer()).Pack("query", nil, 100)
	if packed.Snippets == nil || len(packed.Snippets) != 0 {
		t.Errorf("expected empty, non-nil snippets, got %v", packed.Snippets)
	}
	if packed.UsedTokens != 0 {
		t.Errorf("expected 0 used tokens, got %d", packed.UsedTokens)
	}
}

func TestPackMergesOverlappingChunks(t *testing.T) {
	doc := "alpha beta gamma delta epsilon zeta eta theta"
	// [0,22) and [17,38) overlap by "delta"; [39,45) is separate.
	chunks := []domain.ScoredChunk{
		chunkAt("doc.txt", 17, doc[17:38], 0.8),
		chunkAt("doc.txt", 0, doc[0:22], 0.6),
		chunkAt("doc.txt", 39, doc[39:], 0.9),
		chunkAt("other.txt", 0, "unrelated", 0.1),
	}

	packed := NewPackUseCase(analyzer.NewTokenizer()).Pack("q", chunks, 1000)

	if len(packed.Snippets) != 3 {
		t.Fatalf("expected 3 snippets, got %d: %+v", len(packed.Snippets), packed.Snippets)
	}
	if packed.Snippets[0].Text != doc[39:] {
		t.Errorf("expected best snippet first, got %q", packed.Snippets[0].Text)
	}
	merged := packed.Snippets[1]
	if merged.Text != doc[0:38] {
		t.Errorf("expected merged text %q, got %q", doc[0:38], merged.Text)
	}
	if merged.Score != 0.8 {
		t.Errorf("merged snippet should keep the best score, got %f", merged.Score)
	}
	if merged.Range != "bytes 0-38" {
		t.Errorf("unexpected range %q", merged.Range)
	}
}

func TestPackDifferentPagesNotMerged(t *testing.T) {
	a := chunkAt("notes.pdf", 0, "page one text", 0.5)
	a.Chunk.Page = 1
	b := chunkAt("notes.pdf", 0, "page two text", 0.4)
	b.Chunk.Page = 2

	packed := NewPackUseCase(analyzer.NewTokenizer()).Pack("q", []domain.ScoredChunk{a, b}, 1000)
	if len(packed.Snippets) != 2 {
		t.Fatalf("expected 2 snippets, got %d", len(packed.Snippets))
	}
}
