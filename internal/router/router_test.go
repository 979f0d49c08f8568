package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"github.com/Shimizu-Technology/nfe-key-api/internal/handlers"
	"github.com/Shimizu-Technology/nfe-key-api/internal/middleware"
	"github.com/Shimizu-Technology/nfe-key-api/internal/services/extraction"
	"github.com/Shimizu-Technology/nfe-key-api/internal/services/worker"
)

func testRouter(t *testing.T, reg *prometheus.Registry) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte("nfe_test"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	orch := extraction.NewOrchestrator(extraction.Config{})
	pool := worker.NewPool(1, 1, nil, nil)
	h := handlers.NewHandler(handlers.Deps{Extractor: orch, Jobs: pool})

	return Setup(h, Options{
		APIKeys:        middleware.NewAPIKeys([]string{string(hash)}),
		JWTSecret:      "secret",
		RateLimit:      100,
		AllowedOrigins: []string{"http://localhost:5173"},
		Gatherer:       reg,
	})
}

func TestRoutes(t *testing.T) {
	r := testRouter(t, prometheus.NewRegistry())

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		apiKey     string
		wantStatus int
	}{
		{"health is public", http.MethodGet, "/api/v1/health", "", "", http.StatusOK},
		{"docs are public", http.MethodGet, "/api/docs/openapi.yaml", "", "", http.StatusOK},
		{"metrics are public", http.MethodGet, "/metrics", "", "", http.StatusOK},
		{"validate needs auth", http.MethodPost, "/api/v1/validate", `{"chave":"1"}`, "", http.StatusUnauthorized},
		{"validate with key", http.MethodPost, "/api/v1/validate", `{"chave":"1"}`, "nfe_test", http.StatusOK},
		{"legacy alias needs auth", http.MethodPost, "/process", `{}`, "", http.StatusUnauthorized},
		{"token needs an API key", http.MethodPost, "/api/v1/auth/token", "", "", http.StatusUnauthorized},
		{"token with API key", http.MethodPost, "/api/v1/auth/token", "", "nfe_test", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.apiKey != "" {
				req.Header.Set("X-API-Key", tt.apiKey)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
		})
	}
}

func TestMetricsExposeExtractionSeries(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := extraction.NewMetrics(reg)
	m.Attempts.WithLabelValues(extraction.StrategyQR, "miss").Inc()

	w := httptest.NewRecorder()
	testRouter(t, reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `nfe_extraction_attempts_total{outcome="miss",strategy="qr"} 1`)
}
