// Package invoice implements the process use case: take a key or a PDF URL,
// find and validate the key, fetch the registry record and normalize it.
package invoice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/Shimizu-Technology/nfe-key-api/internal/accesskey"
	"github.com/Shimizu-Technology/nfe-key-api/internal/domain"
	"github.com/Shimizu-Technology/nfe-key-api/internal/models"
	"github.com/Shimizu-Technology/nfe-key-api/internal/services/extraction"
	"github.com/Shimizu-Technology/nfe-key-api/internal/services/registry"
)

// SourceInput marks a key supplied by the caller rather than extracted.
const SourceInput = "input"

// KeyExtractor is satisfied by *extraction.Orchestrator.
type KeyExtractor interface {
	ExtractKey(ctx context.Context, data []byte, opts extraction.Options) (*extraction.Outcome, error)
}

// RecordFetcher is satisfied by *registry.Client.
type RecordFetcher interface {
	Fetch(ctx context.Context, cfg registry.Config, key accesskey.AccessKey) (*registry.Response, error)
}

// Request is one process call. Empty registry fields fall back to the
// server defaults; a nil OCREnabled uses the server setting.
type Request struct {
	Key        string
	PDFURL     string
	Registry   registry.Config
	OCREnabled *bool
}

// Result is the normalized record plus the raw registry document.
type Result struct {
	Key    accesskey.AccessKey
	Record models.InvoiceRecord
	Raw    json.RawMessage
	Source string // SourceInput or the extraction strategy
}

// Config holds the server-wide defaults.
type Config struct {
	Registry     registry.Config
	Extraction   extraction.Options
	MaxPDFBytes  int64
	FetchTimeout time.Duration
}

// Processor runs process requests. It is stateless between calls.
type Processor struct {
	extractor KeyExtractor
	fetcher   RecordFetcher
	http      *http.Client
	cfg       Config
}

// NewProcessor creates a processor.
func NewProcessor(ext KeyExtractor, fetcher RecordFetcher, cfg Config) *Processor {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	return &Processor{
		extractor: ext,
		fetcher:   fetcher,
		http:      &http.Client{Timeout: cfg.FetchTimeout},
		cfg:       cfg,
	}
}

// Process resolves the key and fetches its registry record.
func (p *Processor) Process(ctx context.Context, req Request) (*Result, error) {
	reg := p.registryConfig(req.Registry)
	if reg.BaseURL == "" || reg.Token == "" {
		return nil, domain.InputError("registry base URL and token are required")
	}

	key, source, err := p.resolveKey(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := p.fetcher.Fetch(ctx, reg, key)
	if err != nil {
		return nil, err
	}

	raw := json.RawMessage(resp.Body)
	if !json.Valid(resp.Body) {
		// Keep the response embeddable in our own JSON.
		quoted, _ := json.Marshal(string(resp.Body))
		raw = quoted
	}

	return &Result{
		Key:    key,
		Record: registry.MapRecord(resp.Body, key),
		Raw:    raw,
		Source: source,
	}, nil
}

func (p *Processor) registryConfig(in registry.Config) registry.Config {
	out := in
	if out.BaseURL == "" {
		out.BaseURL = p.cfg.Registry.BaseURL
	}
	if out.Token == "" {
		out.Token = p.cfg.Registry.Token
	}
	if out.PathTemplate == "" {
		out.PathTemplate = p.cfg.Registry.PathTemplate
	}
	return out
}

// resolveKey validates a caller key, or downloads the PDF and extracts one.
func (p *Processor) resolveKey(ctx context.Context, req Request) (accesskey.AccessKey, string, error) {
	if accesskey.OnlyDigits(req.Key) != "" {
		key, err := accesskey.Parse(req.Key)
		if err != nil {
			return "", "", err
		}
		return key, SourceInput, nil
	}

	if req.PDFURL == "" {
		return "", "", domain.InputError("send either 'chave' or 'pdfUrl'")
	}

	data, err := p.downloadPDF(ctx, req.PDFURL)
	if err != nil {
		return "", "", err
	}

	opts := p.cfg.Extraction
	if req.OCREnabled != nil {
		opts.OCREnabled = *req.OCREnabled
	}
	out, err := p.extractor.ExtractKey(ctx, data, opts)
	if err != nil {
		return "", "", err
	}
	return out.Key, out.Strategy, nil
}

func (p *Processor) downloadPDF(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.NewError(domain.KindInput, "invalid pdfUrl", err)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, domain.UpstreamError("failed to download PDF", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 250))
		return nil, domain.UpstreamError(
			fmt.Sprintf("failed to download PDF (%d): %s", resp.StatusCode, snippet), resp.StatusCode, nil)
	}

	limit := p.cfg.MaxPDFBytes
	if limit <= 0 {
		limit = 30 << 20
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, domain.UpstreamError("failed to read PDF", resp.StatusCode, err)
	}
	if int64(len(data)) > limit {
		return nil, domain.InputError(fmt.Sprintf("PDF exceeds %d MB", limit>>20))
	}
	log.Printf("📥 Downloaded PDF (%d bytes)", len(data))
	return data, nil
}
