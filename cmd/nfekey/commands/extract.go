package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Shimizu-Technology/nfe-key-api/internal/config"
	"github.com/Shimizu-Technology/nfe-key-api/internal/models"
	"github.com/Shimizu-Technology/nfe-key-api/internal/services/extraction"
	"github.com/Shimizu-Technology/nfe-key-api/internal/services/pdf"
)

var (
	extractNoOCR   bool
	extractDPI     float64
	extractTimeout time.Duration
)

var extractCmd = &cobra.Command{
	Use:   "extract <file.pdf>",
	Short: "Find the access key in a local PDF",
	Long: `Run the extraction cascade (text layer, QR, Code 128, OCR) on a PDF file.

OCR and the render DPI default to the USE_OCR and RENDER_DPI settings.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().BoolVar(&extractNoOCR, "no-ocr", false, "skip the OCR stage")
	extractCmd.Flags().Float64Var(&extractDPI, "dpi", 0, "render resolution (0 = RENDER_DPI)")
	extractCmd.Flags().DurationVar(&extractTimeout, "timeout", 5*time.Minute, "give up after this long")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	if !pdf.ValidatePDF(data) {
		return fmt.Errorf("%s does not look like a PDF", args[0])
	}

	tesseract := ""
	if cfg.UseOCR && !extractNoOCR {
		tesseract = cfg.TesseractPath
	}
	orch := extraction.NewDefault(extraction.EngineConfig{
		Tesseract:   tesseract,
		TessdataDir: cfg.TessdataDir,
		Language:    cfg.TesseractLang,
	})

	opts := extraction.Options{
		OCREnabled: tesseract != "",
		DPI:        cfg.RenderDPI,
		MaxPages:   cfg.MaxPages,
	}
	if extractDPI > 0 {
		opts.DPI = extractDPI
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), extractTimeout)
	defer cancel()

	out, err := orch.ExtractKey(ctx, data, opts)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), models.ExtractKeyResponse{
			OK:       true,
			Key:      out.Key.String(),
			Strategy: out.Strategy,
			Page:     out.Page,
			Rotation: int(out.Rotation),
		})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, out.Key)
	if out.Page > 0 {
		fmt.Fprintf(w, "found by %s on page %d at %d°\n", out.Strategy, out.Page, out.Rotation)
	} else {
		fmt.Fprintf(w, "found by %s\n", out.Strategy)
	}
	return nil
}
