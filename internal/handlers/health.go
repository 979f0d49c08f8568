// Package handlers contains HTTP handler functions for the API.
//
// Go Pattern: Handlers in Gin receive a *gin.Context which provides request
// data, response methods and middleware values (c.Get/c.Set). Related
// handlers hang off one Handler struct that holds their dependencies.
package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/nfe-key-api/internal/domain"
	"github.com/Shimizu-Technology/nfe-key-api/internal/middleware"
	"github.com/Shimizu-Technology/nfe-key-api/internal/models"
	"github.com/Shimizu-Technology/nfe-key-api/internal/services/extraction"
	"github.com/Shimizu-Technology/nfe-key-api/internal/services/invoice"
	"github.com/Shimizu-Technology/nfe-key-api/internal/services/worker"
)

// KeyExtractor is satisfied by *extraction.Orchestrator.
type KeyExtractor interface {
	ExtractKey(ctx context.Context, data []byte, opts extraction.Options) (*extraction.Outcome, error)
	OCRAvailable() bool
}

// InvoiceProcessor is satisfied by *invoice.Processor.
type InvoiceProcessor interface {
	Process(ctx context.Context, req invoice.Request) (*invoice.Result, error)
}

// JobQueue is satisfied by *worker.Pool.
type JobQueue interface {
	Submit(job worker.Job) error
	WorkerCount() int
	QueueSize() int
}

// Deps are the handler dependencies.
type Deps struct {
	Extractor      KeyExtractor
	Processor      InvoiceProcessor
	Jobs           JobQueue
	Extraction     extraction.Options // server defaults
	MaxUploadBytes int64
	OCREngine      string // tesseract binary, reported by /health
	JWTSecret      string
	Version        string
}

// Handler holds shared dependencies for all HTTP handlers.
type Handler struct {
	Deps
}

// NewHandler creates a new handler with all dependencies.
func NewHandler(deps Deps) *Handler {
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = 30 << 20
	}
	if deps.Version == "" {
		deps.Version = "dev"
	}
	return &Handler{Deps: deps}
}

// HealthCheck returns the API health status.
// GET /api/v1/health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:     "ok",
		Version:    h.Version,
		OCREnabled: h.Extraction.OCREnabled && h.Extractor.OCRAvailable(),
		OCREngine:  h.OCREngine,
		Workers:    h.Jobs.WorkerCount(),
		QueueSize:  h.Jobs.QueueSize(),
	})
}

// respondError writes the standard error body for a classified error.
func respondError(c *gin.Context, err error) {
	body := models.ErrorFrom(err)
	if domain.KindOf(err) == domain.KindInternal {
		log.Printf("❌ [%s] %s %s: %v", middleware.GetRequestID(c), c.Request.Method, c.FullPath(), err)
		body.Message = "Internal error"
	}
	c.JSON(body.Code, body)
}

func badRequest(c *gin.Context, msg string) {
	respondError(c, domain.InputError(msg))
}
