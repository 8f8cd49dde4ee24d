package chunker

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"docqa/internal/domain"
	"docqa/internal/logger"
)

var (
	textSeparators     = []string{"\n\n", "\n", " "}
	markdownSeparators = []string{"\n# ", "\n## ", "\n### ", "\n#### ", "\n```\n", "\n\n", "\n", " "}
	pythonSeparators   = []string{"\nclass ", "\ndef ", "\n\tdef ", "\n    def ", "\n\n", "\n", " "}
	goSeparators       = []string{"\nfunc ", "\nvar ", "\nconst ", "\ntype ", "\nif ", "\nfor ", "\nswitch ", "\ncase ", "\n\n", "\n", " "}
)

// RecursiveSplitter cuts documents into chunks of at most chunkSize bytes
// with up to overlap bytes shared by consecutive chunks. Every chunk is an
// exact substring of its document.
//
// Cut points are chosen in order of preference: declaration boundaries
// from the language parser (if any), then each separator in turn, then a
// hard cut on a rune boundary.
type RecursiveSplitter struct {
	chunkSize  int
	overlap    int
	separators []string
	parser     LanguageParser
}

// NewTextSplitter creates a splitter that prefers paragraph, line and word breaks.
func NewTextSplitter(chunkSize, overlap int) (*RecursiveSplitter, error) {
	return newRecursiveSplitter(chunkSize, overlap, textSeparators, nil)
}

// NewCodeSplitter creates a splitter for the given language
// ("python", "go" or "markdown").
func NewCodeSplitter(language string, chunkSize, overlap int) (*RecursiveSplitter, error) {
	switch language {
	case "python":
		return newRecursiveSplitter(chunkSize, overlap, pythonSeparators, NewPythonParser())
	case "go":
		return newRecursiveSplitter(chunkSize, overlap, goSeparators, NewGoParser())
	case "markdown":
		return newRecursiveSplitter(chunkSize, overlap, markdownSeparators, nil)
	default:
		return nil, fmt.Errorf("no splitter for language %q", language)
	}
}

func newRecursiveSplitter(chunkSize, overlap int, separators []string, parser LanguageParser) (*RecursiveSplitter, error) {
	if overlap < 0 {
		return nil, fmt.Errorf("chunk overlap must not be negative, got %d", overlap)
	}
	if chunkSize-overlap < utf8.UTFMax {
		return nil, fmt.Errorf("chunk size %d too small for overlap %d", chunkSize, overlap)
	}
	return &RecursiveSplitter{
		chunkSize:  chunkSize,
		overlap:    overlap,
		separators: separators,
		parser:     parser,
	}, nil
}

// Split chunks each document in order, keeping provenance.
func (s *RecursiveSplitter) Split(docs []domain.Document) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	for _, doc := range docs {
		for i, sp := range s.spans(doc.Text) {
			chunks = append(chunks, domain.Chunk{
				Source: doc.Path,
				Page:   doc.Page,
				Type:   doc.Type,
				Index:  i,
				Start:  sp.start,
				End:    sp.end,
				Text:   doc.Text[sp.start:sp.end],
			})
		}
	}
	return chunks, nil
}

type span struct {
	start, end int
}

func (s *RecursiveSplitter) spans(text string) []span {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	boundaries := s.unitBoundaries(text)

	var out []span
	pos, prevEnd := 0, 0
	for {
		end := s.cutPoint(text, pos, prevEnd, boundaries)
		out = append(out, span{pos, end})
		if end >= len(text) {
			return out
		}
		pos = s.nextStart(text, pos, end)
		prevEnd = end
	}
}

// cutPoint picks the end of the chunk starting at pos. The result is
// always greater than floor so that every chunk adds new text.
func (s *RecursiveSplitter) cutPoint(text string, pos, floor int, boundaries []int) int {
	limit := pos + s.chunkSize
	if limit >= len(text) {
		return len(text)
	}

	if b := lastBoundary(boundaries, floor, limit); b > 0 {
		return b
	}

	minFill := pos + s.chunkSize/2
	best := -1
	for _, sep := range s.separators {
		cut := lastCut(text, pos, limit, sep)
		if cut <= floor {
			continue
		}
		if cut >= minFill {
			return cut
		}
		if cut > best {
			best = cut
		}
	}
	if best > 0 {
		return best
	}

	end := limit
	for end > floor+1 && !utf8.RuneStart(text[end]) {
		end--
	}
	return end
}

// nextStart returns where the chunk after [pos, end) begins, stepping back
// by at most the configured overlap and never starting mid-word or mid-rune.
func (s *RecursiveSplitter) nextStart(text string, pos, end int) int {
	if s.overlap == 0 {
		return end
	}
	start := end - s.overlap
	if start <= pos {
		return end
	}
	for start < end && !utf8.RuneStart(text[start]) {
		start++
	}
	if !isSpace(text[start-1]) {
		if i := strings.IndexAny(text[start:end], " \t\n"); i >= 0 && start+i+1 < end {
			start += i + 1
		}
	}
	if start <= pos || start >= end {
		return end
	}
	return start
}

// unitBoundaries returns byte offsets where top-level declarations begin.
func (s *RecursiveSplitter) unitBoundaries(text string) []int {
	if s.parser == nil {
		return nil
	}

	units, err := s.parser.Parse(text)
	if err != nil {
		logger.Debug("falling back to separator splitting", "language", s.parser.Language(), "error", err)
		return nil
	}

	lineStarts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lineStarts = append(lineStarts, i+1)
		}
	}

	var offsets []int
	for _, u := range units {
		if u.StartLine < 2 || u.StartLine > len(lineStarts) {
			continue
		}
		offsets = append(offsets, lineStarts[u.StartLine-1])
	}
	sort.Ints(offsets)
	return offsets
}

// lastBoundary returns the largest boundary b with floor < b <= limit, or 0.
func lastBoundary(boundaries []int, floor, limit int) int {
	i := sort.SearchInts(boundaries, limit+1)
	if i == 0 {
		return 0
	}
	if b := boundaries[i-1]; b > floor {
		return b
	}
	return 0
}

// lastCut finds the last occurrence of sep in text[pos:limit] and returns
// the offset just after its leading newlines (or after the whole separator
// when it has none), or -1.
func lastCut(text string, pos, limit int, sep string) int {
	idx := strings.LastIndex(text[pos:limit], sep)
	if idx < 0 {
		return -1
	}
	k := len(sep) - len(strings.TrimLeft(sep, "\n"))
	if k == 0 {
		k = len(sep)
	}
	return pos + idx + k
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
