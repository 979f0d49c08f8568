// Package extraction finds the access key in a PDF by running recognition
// strategies from cheapest to most expensive and stopping at the first hit:
//
//  1. the embedded text layer
//  2. QR then Code 128 on every page at 0, 90, 180 and 270 degrees
//  3. OCR on the same surfaces, when enabled
//
// Only keys that pass accesskey validation are ever returned.
package extraction

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/Shimizu-Technology/nfe-key-api/internal/accesskey"
	"github.com/Shimizu-Technology/nfe-key-api/internal/domain"
	"github.com/Shimizu-Technology/nfe-key-api/internal/services/pdf"
)

// Options are per-call settings. They travel with the call so concurrent
// requests can use different values.
type Options struct {
	OCREnabled bool
	DPI        float64 // 0 = pdf.DefaultDPI
	MaxPages   int     // 0 = every page
}

// Outcome is a found key plus where it was found. Page and Rotation are zero
// for the text layer.
type Outcome struct {
	Key      accesskey.AccessKey
	Strategy string
	Page     int
	Rotation Rotation
}

// Orchestrator owns the strategy order. It holds no per-request state and is
// safe for concurrent use as long as its collaborators are.
type Orchestrator struct {
	text     pdf.TextReader
	raster   pdf.Rasterizer
	barcodes []SurfaceStrategy
	ocr      SurfaceStrategy
	metrics  *Metrics
}

// Config wires the collaborators. OCR may be nil, in which case the OCR stage
// never runs regardless of Options.
type Config struct {
	Text       pdf.TextReader
	Rasterizer pdf.Rasterizer
	Barcodes   []SurfaceStrategy // tried in order on each surface
	OCR        SurfaceStrategy
	Metrics    *Metrics
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(cfg Config) *Orchestrator {
	return &Orchestrator{
		text:     cfg.Text,
		raster:   cfg.Rasterizer,
		barcodes: cfg.Barcodes,
		ocr:      cfg.OCR,
		metrics:  cfg.Metrics,
	}
}

// OCRAvailable reports whether an OCR strategy is wired.
func (o *Orchestrator) OCRAvailable() bool {
	return o.ocr != nil
}

// ExtractKey runs the cascade on data.
//
// Errors:
//   - domain.KindRasterization when the pages cannot be rendered
//   - domain.KindExtractionMiss when every enabled strategy missed
//   - the context error when ctx is done
func (o *Orchestrator) ExtractKey(ctx context.Context, data []byte, opts Options) (out *Outcome, err error) {
	start := time.Now()
	defer func() {
		result := "error"
		switch {
		case out != nil:
			result = out.Strategy
		case domain.IsKind(err, domain.KindExtractionMiss):
			result = "miss"
		}
		o.metrics.observeDuration(result, time.Since(start))
	}()

	// Stage 1: text layer
	if k, ok := o.readText(ctx, data); ok {
		log.Printf("🔍 Key found in text layer")
		return &Outcome{Key: k, Strategy: StrategyText}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 2: rasterize; rotations are expanded page by page in each stage
	pages, err := o.raster.Render(ctx, data, pdf.RenderOptions{DPI: opts.DPI, MaxPages: opts.MaxPages})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, domain.RasterizationError("failed to render PDF", err)
	}

	// Stage 3: barcodes
	out, err = o.cascade(ctx, pages, o.barcodes)
	if out != nil || err != nil {
		return out, err
	}

	// Stage 4: OCR
	ocrRan := opts.OCREnabled && o.ocr != nil
	if ocrRan {
		out, err = o.cascade(ctx, pages, []SurfaceStrategy{o.ocr})
		if out != nil || err != nil {
			return out, err
		}
	}

	return nil, domain.ExtractionMiss(missMessage(ocrRan))
}

func (o *Orchestrator) readText(ctx context.Context, data []byte) (k accesskey.AccessKey, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️  text layer panicked: %v", r)
			k, ok = "", false
		}
		o.metrics.observeAttempt(StrategyText, ok)
	}()

	text, err := o.text.ReadText(ctx, data)
	if err != nil {
		log.Printf("⚠️  No usable text layer: %v", err)
		return "", false
	}
	return accesskey.FromText(text)
}

// cascade tries every strategy on every surface: pages in order, then
// rotations, then strategies. A page is expanded only when reached and its
// surfaces are dropped before the next page.
func (o *Orchestrator) cascade(ctx context.Context, pages []pdf.Page, strategies []SurfaceStrategy) (*Outcome, error) {
	for _, page := range pages {
		surfaces, err := ExpandPage(ctx, page)
		if err != nil {
			return nil, err
		}
		if out, err := o.trySurfaces(ctx, surfaces, strategies); out != nil || err != nil {
			return out, err
		}
	}
	return nil, nil
}

func (o *Orchestrator) trySurfaces(ctx context.Context, surfaces []Surface, strategies []SurfaceStrategy) (*Outcome, error) {
	for _, s := range surfaces {
		for _, st := range strategies {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			res := attempt(ctx, st, s)
			o.metrics.observeAttempt(st.Name(), res.Found)
			if res.Found {
				log.Printf("🔍 Key found by %s on page %d at %d°", st.Name(), s.Page, s.Rotation)
				return &Outcome{Key: res.Key, Strategy: st.Name(), Page: s.Page, Rotation: s.Rotation}, nil
			}
		}
	}
	return nil, nil
}

func missMessage(ocrRan bool) string {
	tried := []string{"text", "QR", "Code128"}
	if ocrRan {
		tried = append(tried, "OCR")
	}
	return "key not found in " + strings.Join(tried, "/")
}
