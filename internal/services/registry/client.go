// Package registry fetches invoice records from the remote registry (SERPRO
// or a compatible API) and normalizes them into models.InvoiceRecord.
package registry

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Shimizu-Technology/nfe-key-api/internal/accesskey"
	"github.com/Shimizu-Technology/nfe-key-api/internal/domain"
)

// DefaultPathTemplate places the key as the last path segment.
const DefaultPathTemplate = "nfe/:chave"

// maxErrorBody is how much of a failed response body ends up in the error.
const maxErrorBody = 250

// maxBody caps a successful response.
const maxBody = 10 << 20

// Config describes one registry endpoint. It may come from the request or
// from the server defaults.
type Config struct {
	BaseURL      string
	Token        string
	PathTemplate string // ":chave" or "{chave}" is replaced by the key
}

// URL builds the lookup URL for key.
func (c Config) URL(key accesskey.AccessKey) string {
	tpl := c.PathTemplate
	if tpl == "" {
		tpl = DefaultPathTemplate
	}
	path := strings.NewReplacer(":chave", key.String(), "{chave}", key.String()).Replace(tpl)
	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// Response is a successful registry answer.
type Response struct {
	StatusCode int
	Body       []byte
}

// Client performs registry lookups. It does not retry.
type Client struct {
	http *http.Client
}

// NewClient creates a registry client with the given request timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{Timeout: timeout},
	}
}

// Fetch GETs the record for key.
func (c *Client) Fetch(ctx context.Context, cfg Config, key accesskey.AccessKey) (*Response, error) {
	url := cfg.URL(key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.NewError(domain.KindInput, "invalid registry URL", err)
	}
	req.Header.Set("Authorization", "Bearer "+cfg.Token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "NFeKeyAPI/1.0")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domain.UpstreamError("registry request failed", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Printf("⚠️  Registry returned %d for %s", resp.StatusCode, key)
		return nil, domain.UpstreamError(
			fmt.Sprintf("registry %d: %s", resp.StatusCode, snippet), resp.StatusCode, nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, domain.UpstreamError("failed to read registry response", resp.StatusCode, err)
	}
	log.Printf("✅ Registry lookup for %s took %dms", key, time.Since(start).Milliseconds())
	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}
