package extraction

import (
	"github.com/Shimizu-Technology/nfe-key-api/internal/services/barcode"
	"github.com/Shimizu-Technology/nfe-key-api/internal/services/ocr"
	"github.com/Shimizu-Technology/nfe-key-api/internal/services/pdf"
)

// EngineConfig selects the production engines.
type EngineConfig struct {
	Tesseract   string // empty disables OCR
	TessdataDir string
	Language    string
	Metrics     *Metrics
}

// NewDefault wires the ledongthuc text layer, the MuPDF rasterizer, the
// gozxing decoders and, when a binary is configured, tesseract.
func NewDefault(cfg EngineConfig) *Orchestrator {
	var ocrStrategy SurfaceStrategy
	if cfg.Tesseract != "" {
		lang := cfg.Language
		if lang == "" {
			lang = "por"
		}
		ocrStrategy = OCRStrategy{
			Engine:   ocr.NewTesseract(ocr.Config{Tesseract: cfg.Tesseract, TessdataDir: cfg.TessdataDir}),
			Language: lang,
		}
	}

	return NewOrchestrator(Config{
		Text:       pdf.NewTextLayer(),
		Rasterizer: pdf.NewRasterizer(),
		Barcodes: []SurfaceStrategy{
			QRStrategy{Decoder: barcode.NewQR()},
			Code128Strategy{Decoder: barcode.NewCode128()},
		},
		OCR:     ocrStrategy,
		Metrics: cfg.Metrics,
	})
}
