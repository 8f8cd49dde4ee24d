package chunker

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"docqa/internal/domain"
)

// reassemble rebuilds a document from its chunks by dropping the overlapping
// prefix of every chunk after the first.
func reassemble(chunks []domain.Chunk) string {
	var b strings.Builder
	prevEnd := 0
	for i, c := range chunks {
		if i == 0 {
			b.WriteString(c.Text)
		} else {
			b.WriteString(c.Text[prevEnd-c.Start:])
		}
		prevEnd = c.End
	}
	return b.String()
}

func checkChunks(t *testing.T, text string, chunks []domain.Chunk, size, overlap int) {
	t.Helper()

	if got := reassemble(chunks); got != text {
		t.Fatalf("reassembled text differs from original (len %d vs %d)", len(got), len(text))
	}
	for i, c := range chunks {
		if len(c.Text) > size {
			t.Errorf("chunk %d has %d bytes, max %d", i, len(c.Text), size)
		}
		if c.Text != text[c.Start:c.End] {
			t.Errorf("chunk %d is not the substring [%d,%d)", i, c.Start, c.End)
		}
		if !utf8.ValidString(c.Text) {
			t.Errorf("chunk %d splits a rune", i)
		}
		if c.Index != i {
			t.Errorf("chunk %d has index %d", i, c.Index)
		}
		if i > 0 {
			prev := chunks[i-1]
			if c.Start <= prev.Start || c.End <= prev.End {
				t.Errorf("chunk %d does not advance: [%d,%d) after [%d,%d)", i, c.Start, c.End, prev.Start, prev.End)
			}
			if shared := prev.End - c.Start; shared > overlap {
				t.Errorf("chunks %d and %d share %d bytes, max %d", i-1, i, shared, overlap)
			}
		}
	}
}

func TestTextSplitter_RoundTrip(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "Paragraph %d talks about retrieval and chunking of long documents.\n", i)
		if i%5 == 4 {
			b.WriteString("\n")
		}
	}
	text := b.String()

	tests := []struct {
		name    string
		size    int
		overlap int
	}{
		{"default", 1000, 100},
		{"small", 120, 20},
		{"no overlap", 200, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewTextSplitter(tt.size, tt.overlap)
			if err != nil {
				t.Fatal(err)
			}
			chunks, err := s.Split([]domain.Document{{Path: "notes.txt", Type: domain.SourceText, Text: text}})
			if err != nil {
				t.Fatal(err)
			}
			if len(chunks) < 2 {
				t.Fatalf("expected several chunks, got %d", len(chunks))
			}
			checkChunks(t, text, chunks, tt.size, tt.overlap)
		})
	}
}

func TestTextSplitter_ShortDocument(t *testing.T) {
	s, _ := NewTextSplitter(1000, 100)
	text := "Hello world, this is a short note."

	chunks, err := s.Split([]domain.Document{{Path: "a.txt", Type: domain.SourceText, Text: text}})
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != text {
		t.Errorf("expected whole text, got %q", chunks[0].Text)
	}
	if chunks[0].Source != "a.txt" || chunks[0].Type != domain.SourceText {
		t.Errorf("provenance lost: %+v", chunks[0])
	}
}

func TestTextSplitter_EmptyInput(t *testing.T) {
	s, _ := NewTextSplitter(1000, 100)

	chunks, err := s.Split([]domain.Document{
		{Path: "empty.txt", Type: domain.SourceText, Text: ""},
		{Path: "blank.txt", Type: domain.SourceText, Text: "  \n\n\t "},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks, got %d", len(chunks))
	}

	chunks, err = s.Split(nil)
	if err != nil || len(chunks) != 0 {
		t.Errorf("expected no chunks and no error, got %d, %v", len(chunks), err)
	}
}

func TestTextSplitter_MultibyteHardCut(t *testing.T) {
	// No whitespace at all forces hard cuts.
	text := strings.Repeat("é日", 400)

	s, err := NewTextSplitter(101, 10)
	if err != nil {
		t.Fatal(err)
	}
	chunks, err := s.Split([]domain.Document{{Path: "u.txt", Type: domain.SourceText, Text: text}})
	if err != nil {
		t.Fatal(err)
	}
	checkChunks(t, text, chunks, 101, 10)
}

func TestTextSplitter_KeepsPageProvenance(t *testing.T) {
	s, _ := NewTextSplitter(50, 5)
	docs := []domain.Document{
		{Path: "notes.pdf", Page: 1, Type: domain.SourcePDF, Text: strings.Repeat("first page words ", 10)},
		{Path: "notes.pdf", Page: 2, Type: domain.SourcePDF, Text: strings.Repeat("second page words ", 10)},
	}

	chunks, err := s.Split(docs)
	if err != nil {
		t.Fatal(err)
	}

	seenPage2 := false
	for _, c := range chunks {
		if c.Page == 2 {
			seenPage2 = true
			if !strings.Contains(docs[1].Text, c.Text) {
				t.Errorf("page 2 chunk not from page 2: %q", c.Text)
			}
		} else if seenPage2 {
			t.Error("chunks out of document order")
		}
	}
	if !seenPage2 {
		t.Error("expected chunks for page 2")
	}
}

func TestNewSplitter_InvalidArgs(t *testing.T) {
	if _, err := NewTextSplitter(100, -1); err == nil {
		t.Error("expected error for negative overlap")
	}
	if _, err := NewTextSplitter(100, 100); err == nil {
		t.Error("expected error for overlap equal to size")
	}
	if _, err := NewCodeSplitter("cobol", 100, 10); err == nil {
		t.Error("expected error for unknown language")
	}
}

func pythonFunction(i int) string {
	return fmt.Sprintf("def handler_%d(value):\n", i) +
		strings.Repeat("    value = compute(value)\n", 14) +
		"    return value\n\n"
}

func TestPythonSplitter_KeepsFunctionsWhole(t *testing.T) {
	funcs := []string{pythonFunction(1), pythonFunction(2), pythonFunction(3)}
	text := strings.Join(funcs, "")
	if len(text) <= 1000 {
		t.Fatalf("test input too small: %d bytes", len(text))
	}

	s, err := NewCodeSplitter("python", 1000, 100)
	if err != nil {
		t.Fatal(err)
	}
	chunks, err := s.Split([]domain.Document{{Path: "app.py", Type: domain.SourcePython, Text: text}})
	if err != nil {
		t.Fatal(err)
	}
	checkChunks(t, text, chunks, 1000, 100)

	for i, fn := range funcs {
		found := false
		for _, c := range chunks {
			if strings.Contains(c.Text, fn) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("function %d is split across chunks", i+1)
		}
	}
}

func TestGoSplitter_KeepsFunctionsWhole(t *testing.T) {
	var funcs []string
	for i := 1; i <= 3; i++ {
		funcs = append(funcs, fmt.Sprintf("// step%d advances the state.\nfunc step%d(v int) int {\n", i, i)+
			strings.Repeat("\tv = compute(v)\n", 22)+
			"\treturn v\n}\n\n")
	}
	text := "package steps\n\n" + strings.Join(funcs, "")

	s, err := NewCodeSplitter("go", 1000, 100)
	if err != nil {
		t.Fatal(err)
	}
	chunks, err := s.Split([]domain.Document{{Path: "steps.go", Type: domain.SourceGo, Text: text}})
	if err != nil {
		t.Fatal(err)
	}
	checkChunks(t, text, chunks, 1000, 100)

	for i, fn := range funcs {
		found := false
		for _, c := range chunks {
			if strings.Contains(c.Text, strings.TrimSpace(fn)) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("function %d is split across chunks", i+1)
		}
	}
}

func TestGoSplitter_InvalidSourceFallsBack(t *testing.T) {
	text := strings.Repeat("this is not go code {\n", 100)

	s, _ := NewCodeSplitter("go", 200, 20)
	chunks, err := s.Split([]domain.Document{{Path: "broken.go", Type: domain.SourceGo, Text: text}})
	if err != nil {
		t.Fatal(err)
	}
	checkChunks(t, text, chunks, 200, 20)
}

func TestMarkdownSplitter_PrefersHeadings(t *testing.T) {
	section := func(title string) string {
		return "## " + title + "\n\n" + strings.Repeat("Some prose about "+title+".\n", 8)
	}
	text := "# Guide\n\n" + section("Install") + "\n" + section("Usage") + "\n" + section("Config")

	s, err := NewCodeSplitter("markdown", 300, 30)
	if err != nil {
		t.Fatal(err)
	}
	chunks, err := s.Split([]domain.Document{{Path: "README.md", Type: domain.SourceMarkdown, Text: text}})
	if err != nil {
		t.Fatal(err)
	}
	checkChunks(t, text, chunks, 300, 30)
}
