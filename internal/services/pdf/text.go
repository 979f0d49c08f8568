// Package pdf reads the embedded text layer of a PDF and renders its pages to
// bitmaps for the barcode and OCR strategies.
//
// Text extraction uses the ledongthuc/pdf library: a pure Go implementation,
// no CGO required. Rasterization uses MuPDF through go-fitz.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TextReader returns the embedded text of a PDF.
type TextReader interface {
	ReadText(ctx context.Context, data []byte) (string, error)
}

// TextLayer is the ledongthuc/pdf backed TextReader.
type TextLayer struct{}

// NewTextLayer creates a text-layer reader.
func NewTextLayer() *TextLayer {
	return &TextLayer{}
}

// ReadText extracts the text of every page, one page per block.
//
// Go Pattern: We accept []byte instead of a filename because the data comes
// from an HTTP upload or download (in memory). The pdf library needs an
// io.ReaderAt for random access, which bytes.Reader provides.
func (TextLayer) ReadText(ctx context.Context, data []byte) (text string, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf text layer: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var all strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// Image-only pages have nothing to give; keep going.
			continue
		}
		if all.Len() > 0 {
			all.WriteString("\n")
		}
		all.WriteString(strings.TrimSpace(pageText))
	}
	return all.String(), nil
}

// ValidatePDF checks if the data looks like a PDF by checking the magic bytes.
func ValidatePDF(data []byte) bool {
	// PDF files start with "%PDF-"
	return len(data) >= 5 && string(data[:5]) == "%PDF-"
}
