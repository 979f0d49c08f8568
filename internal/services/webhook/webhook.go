// Package webhook posts job outcomes to the callback_url given with an
// asynchronous process request.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/Shimizu-Technology/nfe-key-api/internal/models"
)

// SignatureHeader carries hex(HMAC-SHA256(body, secret)).
const SignatureHeader = "X-Webhook-Signature"

// Service delivers callbacks. Each delivery is attempted once.
type Service struct {
	secret string
	client *http.Client
}

// New creates a webhook service. An empty secret disables signing.
func New(secret string) *Service {
	return &Service{
		secret: secret,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SignPayload creates an HMAC-SHA256 signature for a payload.
func SignPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Deliver POSTs payload to url. A non-2xx answer is an error.
func (s *Service) Deliver(ctx context.Context, url string, payload models.WebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "NFeKeyAPI-Webhook/1.0")
	if s.secret != "" {
		req.Header.Set(SignatureHeader, SignPayload(body, s.secret))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("callback answered HTTP %d", resp.StatusCode)
	}
	log.Printf("✅ Webhook delivered: %s → %s", payload.Event, url)
	return nil
}
