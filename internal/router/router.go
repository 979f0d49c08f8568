// Package router sets up all HTTP routes for the API.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Shimizu-Technology/nfe-key-api/internal/handlers"
	"github.com/Shimizu-Technology/nfe-key-api/internal/middleware"
)

// Options configures authentication and rate limiting.
type Options struct {
	APIKeys        *middleware.APIKeys
	JWTSecret      string
	RateLimit      int // requests per hour per client
	AllowedOrigins []string
	Gatherer       prometheus.Gatherer // nil = default registry
}

// Setup creates and configures the Gin router with all routes.
func Setup(h *handlers.Handler, opts Options) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS(opts.AllowedOrigins))

	rateLimiter := middleware.NewRateLimiter(opts.RateLimit)
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	// --- Public Routes ---
	r.GET("/api/v1/health", h.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	r.GET("/api/docs", h.ServeSwaggerUI)
	r.GET("/api/docs/openapi.yaml", h.ServeOpenAPISpec)

	// --- API key only ---
	r.POST("/api/v1/auth/token", middleware.APIKeyAuth(opts.APIKeys), rateLimiter.RateLimit(), h.IssueToken)

	// --- API key OR JWT ---
	auth := []gin.HandlerFunc{middleware.DualAuth(opts.APIKeys, opts.JWTSecret), rateLimiter.RateLimit()}

	protected := r.Group("/api/v1", auth...)
	{
		protected.POST("/extract-key", h.ExtractKey)
		protected.POST("/validate", h.ValidateKey)
		protected.POST("/process", h.Process)
	}

	// Root aliases kept for clients of the first version of the API.
	legacy := r.Group("/", auth...)
	{
		legacy.POST("/extract-key", h.ExtractKey)
		legacy.POST("/process", h.Process)
	}

	return r
}
