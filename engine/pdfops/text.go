package pdfops

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/drummonds/gopdfapi/engine/apierr"
)

// TextResult is the plain text of a document.
type TextResult struct {
	Text  string `json:"text"`
	Pages int    `json:"pages"`
}

// ExtractText returns the plain text of every page that can be decoded.
func (e *Engine) ExtractText(data []byte) (result *TextResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			Logger.Error("Panic recovered while extracting text", "panic", r)
			result, err = nil, fmt.Errorf("%w: %v", apierr.ErrPDFLoad, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apierr.ErrPDFLoad, err)
	}

	var sb strings.Builder
	numPages := reader.NumPage()
	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			Logger.Warn("Unable to extract text from page", "page", pageNum, "error", err)
			continue
		}
		if sb.Len() > 0 && text != "" {
			sb.WriteString("\n")
		}
		sb.WriteString(text)
	}

	return &TextResult{Text: sb.String(), Pages: numPages}, nil
}
