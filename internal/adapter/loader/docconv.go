package loader

import (
	"fmt"
	"os"
	"strings"

	"code.sajari.com/docconv"

	"docqa/internal/domain"
	"docqa/internal/logger"
	"docqa/internal/port"
)

var _ port.Loader = (*DocconvLoader)(nil)

const docxMimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// DocconvLoader extracts plain text from office and web documents.
// Both formats are parsed in process; no external converter is needed.
type DocconvLoader struct {
	sourceType domain.SourceType
}

func NewDocconvLoader(sourceType domain.SourceType) (*DocconvLoader, error) {
	switch sourceType {
	case domain.SourceDocx, domain.SourceHTML:
		return &DocconvLoader{sourceType: sourceType}, nil
	default:
		return nil, fmt.Errorf("no document converter for %s files", sourceType)
	}
}

func (l *DocconvLoader) Load(path string) ([]domain.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	var text string
	switch l.sourceType {
	case domain.SourceHTML:
		text = docconv.HTMLToText(f)
	default:
		res, err := docconv.Convert(f, docxMimeType, false)
		if err != nil {
			return nil, fmt.Errorf("failed to convert %s: %w", path, err)
		}
		text = res.Body
	}

	if strings.TrimSpace(text) == "" {
		logger.Warn("document has no extractable text", "path", path, "type", l.sourceType)
		return nil, nil
	}

	return []domain.Document{{
		Path: path,
		Type: l.sourceType,
		Text: text,
	}}, nil
}
