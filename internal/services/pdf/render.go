package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// DefaultDPI is the resolution used when a caller does not pick one.
const DefaultDPI = 300

// Page is one rendered page. Number is 1-based.
type Page struct {
	Number int
	Image  image.Image
}

// RenderOptions controls a single Render call.
type RenderOptions struct {
	DPI      float64
	MaxPages int // 0 = every page
}

// Rasterizer renders PDF pages to bitmaps.
type Rasterizer interface {
	Render(ctx context.Context, data []byte, opts RenderOptions) ([]Page, error)
}

// FitzRasterizer renders pages with MuPDF via go-fitz. The page size in pixels
// is the page geometry in points scaled by dpi/72.
type FitzRasterizer struct{}

// NewRasterizer creates a MuPDF backed rasterizer.
func NewRasterizer() *FitzRasterizer {
	return &FitzRasterizer{}
}

// Render opens the document from memory and renders pages in order.
// A go-fitz Document is not safe for concurrent use, so each call opens its own.
func (FitzRasterizer) Render(ctx context.Context, data []byte, opts RenderOptions) ([]Page, error) {
	if opts.DPI <= 0 {
		opts.DPI = DefaultDPI
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	count := doc.NumPage()
	if count == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}
	if opts.MaxPages > 0 && count > opts.MaxPages {
		log.Printf("⚠️  Rendering only the first %d of %d pages", opts.MaxPages, count)
		count = opts.MaxPages
	}

	pages := make([]Page, 0, count)
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := doc.ImageDPI(i, opts.DPI)
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", i+1, err)
		}
		pages = append(pages, Page{Number: i + 1, Image: img})
	}
	return pages, nil
}

// PageCount reads the page tree with pdfcpu without rendering anything.
// It is stricter than MuPDF, so callers treat an error as "unknown" rather
// than as a broken file.
func PageCount(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	n, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("pdfcpu page count: %w", err)
	}
	return n, nil
}
