package domain

import "time"

// SourceType identifies a kind of input file. Its value doubles as the
// file extension (without the dot) used to match files of that type.
type SourceType string

const (
	SourceText     SourceType = "txt"
	SourcePDF      SourceType = "pdf"
	SourcePython   SourceType = "py"
	SourceGo       SourceType = "go"
	SourceMarkdown SourceType = "md"
	SourceDocx     SourceType = "docx"
	SourceHTML     SourceType = "html"
)

// PathKind is the result of classifying a filesystem path.
type PathKind int

const (
	PathFile PathKind = iota + 1
	PathDir
)

func (k PathKind) String() string {
	switch k {
	case PathFile:
		return "file"
	case PathDir:
		return "dir"
	default:
		return "unknown"
	}
}

// Document is raw content loaded from one file (or one PDF page).
type Document struct {
	Path string
	Page int // 1-based page number for paged formats, 0 otherwise
	Type SourceType
	Text string
}

// Chunk is a contiguous byte range [Start, End) of a document's text.
type Chunk struct {
	ID     string     `json:"id"`
	Source string     `json:"source"`
	Page   int        `json:"page,omitempty"`
	Type   SourceType `json:"type"`
	Index  int        `json:"index"`
	Start  int        `json:"start"`
	End    int        `json:"end"`
	Text   string     `json:"text"`
}

// EmbeddedChunk is a chunk together with its vector.
type EmbeddedChunk struct {
	Chunk
	Vector []float32 `json:"vector"`
}

type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// CollectionInfo summarizes a stored collection.
type CollectionInfo struct {
	Name      string    `json:"name"`
	Size      int       `json:"size"`
	Backend   string    `json:"backend"`
	Model     string    `json:"model"`
	Dimension int       `json:"dimension"`
	CreatedAt time.Time `json:"created_at"`
}

// Snippet is a piece of retrieved text handed to the language model.
type Snippet struct {
	Path  string  `json:"path"`
	Page  int     `json:"page,omitempty"`
	Range string  `json:"range"`
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}

// PackedContext is the retrieved context that fits a token budget.
type PackedContext struct {
	Query        string    `json:"query"`
	BudgetTokens int       `json:"budget_tokens"`
	UsedTokens   int       `json:"used_tokens"`
	Snippets     []Snippet `json:"snippets"`
}
