package loader

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"docqa/internal/domain"
)

// PDFLoader emits one document per page with extractable text.
type PDFLoader struct{}

func NewPDFLoader() *PDFLoader {
	return &PDFLoader{}
}

func (l *PDFLoader) Load(path string) (docs []domain.Document, err error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	// The pdf package panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			docs = nil
			err = fmt.Errorf("malformed PDF %s: %v", path, r)
		}
	}()

	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		docs = append(docs, domain.Document{
			Path: path,
			Page: i,
			Type: domain.SourcePDF,
			Text: text,
		})
	}

	return docs, nil
}
