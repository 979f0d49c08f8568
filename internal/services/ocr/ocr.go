// Package ocr runs optical character recognition on rendered page images.
//
// We shell out to the tesseract CLI rather than linking libtesseract: the
// binary is easy to install in the container image and a stuck process can be
// killed through the request context.
package ocr

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
)

// Digits is the whitelist used when only the access key matters.
const Digits = "0123456789"

// Engine recognizes text in an image.
type Engine interface {
	Recognize(ctx context.Context, img image.Image, lang, whitelist string) (string, error)
}

// Config locates the tesseract binary and its language data.
type Config struct {
	Tesseract   string // binary name or absolute path; if empty -> "tesseract"
	TessdataDir string
	PSM         int // page segmentation mode; 0 leaves tesseract's default
}

// Tesseract is the CLI backed Engine.
type Tesseract struct {
	cfg    Config
	runner Runner
}

// NewTesseract creates a tesseract engine.
func NewTesseract(cfg Config) *Tesseract {
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	return &Tesseract{cfg: cfg, runner: execRunner{}}
}

// Binary returns the configured tesseract path.
func (t *Tesseract) Binary() string {
	return t.cfg.Tesseract
}

// Recognize writes img to a temporary PNG and runs
// tesseract <file> stdout -l <lang> [-c tessedit_char_whitelist=<whitelist>].
func (t *Tesseract) Recognize(ctx context.Context, img image.Image, lang, whitelist string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "nfe-ocr-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, "surface.png")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return "", fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	out, errb, err := t.runner.Run(ctx, t.cfg.Tesseract, t.args(path, lang, whitelist)...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512))
	}
	return string(out), nil
}

func (t *Tesseract) args(path, lang, whitelist string) []string {
	args := []string{path, "stdout"}
	if lang != "" {
		args = append(args, "-l", lang)
	}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	if t.cfg.PSM > 0 {
		args = append(args, "--psm", fmt.Sprintf("%d", t.cfg.PSM))
	}
	if whitelist != "" {
		args = append(args, "-c", "tessedit_char_whitelist="+whitelist)
	}
	return args
}
