package common

import (
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// ExtractPDFText returns the text layer of a PDF document, one line per
// non-blank line of extracted text. Scanned pages without a text layer
// contribute nothing.
func ExtractPDFText(r io.ReaderAt, size int64) (text string, err error) {
	// the parser panics on some malformed cross-reference tables
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("malformed PDF: %v", p)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract PDF text: %w", err)
	}
	content, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("failed to extract PDF text: %w", err)
	}
	return cleanLines(string(content)), nil
}
