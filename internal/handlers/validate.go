package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/nfe-key-api/internal/accesskey"
	"github.com/Shimizu-Technology/nfe-key-api/internal/models"
)

// ValidateKey reports every rule for a caller-supplied key. An invalid key is
// still a 200; the body says which rule failed.
// POST /api/v1/validate
func (h *Handler) ValidateKey(c *gin.Context) {
	var req models.ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "JSON body with 'chave' is required")
		return
	}

	resp := models.ValidateResponse{
		Valid: true,
		Key:   accesskey.OnlyDigits(req.Key),
	}
	for _, check := range accesskey.Inspect(req.Key) {
		resp.Checks = append(resp.Checks, models.KeyCheck{
			Rule:   check.Rule,
			Passed: check.Passed,
			Detail: check.Detail,
		})
		if !check.Passed {
			resp.Valid = false
		}
	}

	c.JSON(http.StatusOK, resp)
}
