package loader

import (
	"fmt"
	"os"
	"unicode/utf8"

	"docqa/internal/domain"
)

// TextLoader reads a whole file as one UTF-8 document. It serves plain
// text as well as source code.
type TextLoader struct {
	sourceType domain.SourceType
}

func NewTextLoader(sourceType domain.SourceType) *TextLoader {
	return &TextLoader{sourceType: sourceType}
}

func (l *TextLoader) Load(path string) ([]domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	// A leading BOM is common in files saved by Windows editors.
	data = trimBOM(data)

	if !utf8.Valid(data) {
		return nil, fmt.Errorf("unsupported encoding: %s is not valid UTF-8", path)
	}

	return []domain.Document{{
		Path: path,
		Type: l.sourceType,
		Text: string(data),
	}}, nil
}

func trimBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}
