// auth.go exchanges an API key for a short-lived JWT so browser clients do
// not have to hold the key.
package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/nfe-key-api/internal/middleware"
	"github.com/Shimizu-Technology/nfe-key-api/internal/models"
)

// IssueToken returns a JWT for the API key that authenticated the request.
// POST /api/v1/auth/token
func (h *Handler) IssueToken(c *gin.Context) {
	token, expiresAt, err := middleware.GenerateJWT(middleware.GetClientID(c), h.JWTSecret, middleware.TokenTTL)
	if err != nil {
		log.Printf("❌ Failed to sign token: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "token_error",
			Message: "Failed to issue token",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, models.TokenResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC(),
	})
}
