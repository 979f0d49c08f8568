// process.go handles the process endpoint: key or PDF URL in, registry
// record out. With a callback_url the work is queued and the outcome is
// POSTed to the callback later.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Shimizu-Technology/nfe-key-api/internal/models"
	"github.com/Shimizu-Technology/nfe-key-api/internal/services/invoice"
	"github.com/Shimizu-Technology/nfe-key-api/internal/services/registry"
	"github.com/Shimizu-Technology/nfe-key-api/internal/services/worker"
)

// Process resolves a key and fetches its registry record.
// POST /api/v1/process
func (h *Handler) Process(c *gin.Context) {
	var req models.ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON body: "+err.Error())
		return
	}

	ireq := invoice.Request{
		Key:    req.Key,
		PDFURL: req.PDFURL,
		Registry: registry.Config{
			BaseURL:      req.BaseURL,
			Token:        req.Token,
			PathTemplate: req.PathTemplate,
		},
		OCREnabled: req.UseOCR,
	}

	if req.CallbackURL != "" {
		h.enqueue(c, ireq, req.CallbackURL)
		return
	}

	res, err := h.Processor.Process(c.Request.Context(), ireq)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res.Response())
}

func (h *Handler) enqueue(c *gin.Context, req invoice.Request, callbackURL string) {
	job := worker.Job{
		ID:          uuid.New().String(),
		Request:     req,
		CallbackURL: callbackURL,
		CreatedAt:   time.Now(),
	}

	if err := h.Jobs.Submit(job); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, worker.ErrQueueFull) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, models.ErrorResponse{
			Error:   "queue_full",
			Message: err.Error(),
			Code:    status,
		})
		return
	}

	c.JSON(http.StatusAccepted, models.JobAcceptedResponse{
		OK:    true,
		JobID: job.ID,
		State: "queued",
	})
}
