// Package middleware provides HTTP middleware for the API.
//
// Go Pattern: Middleware in Gin is a gin.HandlerFunc that calls c.Next() to
// continue the chain, or c.Abort() to stop processing.
package middleware

import (
	"crypto/sha256"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/Shimizu-Technology/nfe-key-api/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const clientContextKey contextKey = "client_id"

// APIKeys checks raw API keys against the configured bcrypt hashes. A key
// that verified once is remembered by its SHA-256 digest, and later requests
// skip the bcrypt comparison.
type APIKeys struct {
	hashes [][]byte

	mu       sync.RWMutex
	verified map[string]struct{} // SHA-256 hex of keys that matched
}

// NewAPIKeys creates a verifier for the given bcrypt hashes.
func NewAPIKeys(hashes []string) *APIKeys {
	k := &APIKeys{verified: make(map[string]struct{})}
	for _, h := range hashes {
		k.hashes = append(k.hashes, []byte(h))
	}
	return k
}

// Verify reports whether raw matches one of the hashes.
func (k *APIKeys) Verify(raw string) bool {
	if raw == "" {
		return false
	}
	digest := HashAPIKey(raw)

	k.mu.RLock()
	_, ok := k.verified[digest]
	k.mu.RUnlock()
	if ok {
		return true
	}

	for _, h := range k.hashes {
		if bcrypt.CompareHashAndPassword(h, []byte(raw)) == nil {
			k.mu.Lock()
			k.verified[digest] = struct{}{}
			k.mu.Unlock()
			return true
		}
	}
	return false
}

// HashKey returns the bcrypt hash to put in API_KEY_HASHES for raw.
func HashKey(raw string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// APIKeyAuth returns middleware that validates the X-API-Key header.
func APIKeyAuth(keys *APIKeys) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawKey := c.GetHeader("X-API-Key")
		if rawKey == "" {
			unauthorized(c, "Missing X-API-Key header")
			return
		}
		if !keys.Verify(rawKey) {
			unauthorized(c, "Invalid API key")
			return
		}

		c.Set(string(clientContextKey), apiKeyClient(rawKey))
		c.Next()
	}
}

// GetClientID returns the authenticated client set by the auth middleware:
// "key:<digest prefix>" or "jwt:<subject>". Empty when unauthenticated.
func GetClientID(c *gin.Context) string {
	return c.GetString(string(clientContextKey))
}

// HashAPIKey creates a SHA-256 hash of an API key.
func HashAPIKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", hash)
}

func apiKeyClient(rawKey string) string {
	return "key:" + HashAPIKey(rawKey)[:12]
}

func unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, models.ErrorResponse{
		Error:   "unauthorized",
		Message: msg,
		Code:    http.StatusUnauthorized,
	})
	c.Abort()
}
