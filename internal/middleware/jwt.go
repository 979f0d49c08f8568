// jwt.go issues and checks the short-lived tokens handed out by
// POST /api/v1/auth/token in exchange for an API key.
package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is how long an issued token stays valid.
const TokenTTL = 24 * time.Hour

// JWTClaims carries only the registered claims; Subject names the client.
type JWTClaims struct {
	jwt.RegisteredClaims
}

// GenerateJWT creates a signed HS256 token for subject.
func GenerateJWT(subject, secret string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   subject,
			Issuer:    "nfe-key-api",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseJWT validates and parses a JWT token string.
func ParseJWT(tokenString, secret string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}

// DualAuth accepts EITHER an API key OR a Bearer token.
func DualAuth(keys *APIKeys, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Try API key first
		if rawKey := c.GetHeader("X-API-Key"); rawKey != "" && keys.Verify(rawKey) {
			c.Set(string(clientContextKey), apiKeyClient(rawKey))
			c.Next()
			return
		}

		// Try JWT token
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			claims, err := ParseJWT(strings.TrimPrefix(authHeader, "Bearer "), jwtSecret)
			if err == nil && claims.Subject != "" {
				c.Set(string(clientContextKey), "jwt:"+claims.Subject)
				c.Next()
				return
			}
		}

		unauthorized(c, "Provide a valid X-API-Key header or Authorization: Bearer <token>")
	}
}
