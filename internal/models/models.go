// Package models defines the data structures used throughout the application.
//
// Go Pattern: Models are plain structs with JSON tags for serialization.
// Request/response DTOs live next to the canonical invoice record so the
// HTTP contract is visible in one place.
package models

import (
	"encoding/json"
	"time"

	"github.com/Shimizu-Technology/nfe-key-api/internal/domain"
)

// InvoiceRecord is the canonical, flat view of an invoice returned by the
// registry. Every field is optional: a nil pointer means the upstream payload
// did not carry it (or named it differently).
//
// The JSON names match the dashboard format the first clients were built on, so
// existing consumers keep working.
type InvoiceRecord struct {
	Key            *string `json:"chave_acesso"`
	Number         *string `json:"numero,omitempty"`
	Series         *string `json:"serie,omitempty"`
	EmittedAt      *string `json:"data_emissao,omitempty"`
	IssuerTaxID    *string `json:"cnpj_emitente,omitempty"`
	IssuerName     *string `json:"nome_emitente,omitempty"`
	RecipientTaxID *string `json:"cnpj_destinatario,omitempty"`
	RecipientName  *string `json:"nome_destinatario,omitempty"`
	TotalValue     *string `json:"valor_total,omitempty"`
	Model          *string `json:"modelo,omitempty"`
	UF             *string `json:"uf,omitempty"`
}

// --- Request/Response DTOs ---

// ExtractKeyResponse is returned by POST /api/v1/extract-key.
type ExtractKeyResponse struct {
	OK       bool   `json:"ok"`
	Key      string `json:"chave"`
	Strategy string `json:"strategy"`           // "text", "qr", "code128", "ocr"
	Page     int    `json:"page,omitempty"`     // 1-based; zero for the text layer
	Rotation int    `json:"rotation,omitempty"` // degrees clockwise
}

// ProcessRequest is the JSON body for POST /api/v1/process.
//
// Field names follow the first public contract (camelCase, SERPRO naming);
// callback_url and use_ocr were added later and use the API's snake_case.
type ProcessRequest struct {
	PDFURL       string `json:"pdfUrl"`
	Key          string `json:"chave"`
	BaseURL      string `json:"serproBaseUrl"`
	Token        string `json:"serproToken"`
	PathTemplate string `json:"serproPathTemplate"`
	CallbackURL  string `json:"callback_url,omitempty" binding:"omitempty,url"`
	UseOCR       *bool  `json:"use_ocr,omitempty"`
}

// ProcessResponse is returned by a synchronous POST /api/v1/process.
type ProcessResponse struct {
	OK     bool            `json:"ok"`
	Key    string          `json:"chave"`
	Source string          `json:"source"` // "input" or the extraction strategy name
	NFe    InvoiceRecord   `json:"nfe"`
	Raw    json.RawMessage `json:"raw"`
}

// JobAcceptedResponse is returned when POST /api/v1/process runs asynchronously.
type JobAcceptedResponse struct {
	OK    bool   `json:"ok"`
	JobID string `json:"job_id"`
	State string `json:"state"`
}

// ValidateRequest is the JSON body for POST /api/v1/validate.
type ValidateRequest struct {
	Key string `json:"chave" binding:"required"`
}

// KeyCheck mirrors accesskey.Check in the API contract.
type KeyCheck struct {
	Rule   string `json:"rule"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// ValidateResponse reports the outcome of each rule.
type ValidateResponse struct {
	Valid  bool       `json:"valid"`
	Key    string     `json:"chave"`
	Checks []KeyCheck `json:"checks"`
}

// TokenResponse is returned by POST /api/v1/auth/token.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// WebhookPayload is the body POSTed to a job's callback URL.
type WebhookPayload struct {
	Event     string           `json:"event"` // "process.completed" or "process.failed"
	JobID     string           `json:"job_id"`
	Data      *ProcessResponse `json:"data,omitempty"`
	Error     *ErrorResponse   `json:"error,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// ErrorResponse is a standard error format for all API errors.
// OK is always false; it keeps the {ok, error} shape of the v0 API.
type ErrorResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// ErrorFrom builds the error body for a classified error.
func ErrorFrom(err error) ErrorResponse {
	return ErrorResponse{
		Error:   string(domain.KindOf(err)),
		Message: err.Error(),
		Code:    domain.HTTPStatus(err),
	}
}

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	OCREnabled bool   `json:"ocr_enabled"`
	OCREngine  string `json:"ocr_engine"`
	Workers    int    `json:"workers"`
	QueueSize  int    `json:"queue_size"`
}
