// Package config handles application configuration.
//
// Go Pattern: Configuration via environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present, so local
// development does not need exported variables.
package config

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultJWTSecret is only acceptable outside release mode.
const DefaultJWTSecret = "dev-jwt-secret-change-in-production"

// Config holds all application configuration.
type Config struct {
	// Server settings
	Port    string
	GinMode string // "debug", "release", or "test"

	// Extraction defaults; a request may override UseOCR
	UseOCR      bool
	RenderDPI   float64
	MaxPages    int // 0 = every page
	MaxUploadMB int

	// OCR
	TesseractPath string
	TesseractLang string
	TessdataDir   string

	// Registry defaults, used when a request leaves them empty
	RegistryBaseURL      string
	RegistryToken        string
	RegistryPathTemplate string
	RegistryTimeout      time.Duration
	PDFFetchTimeout      time.Duration

	// Auth
	JWTSecret    string
	APIKeyHashes []string // bcrypt hashes of accepted API keys

	// Worker settings
	WorkerCount  int
	JobQueueSize int

	// Rate limiting
	DefaultRateLimit int // Requests per hour per client

	// CORS
	AllowedOrigins []string

	// Callback signing
	WebhookSecret string
}

// Load reads configuration from the environment (and .env) with defaults.
func Load() (*Config, error) {
	// A missing .env is fine; real deployments set variables directly.
	_ = godotenv.Load()

	cfg := &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		UseOCR:      getEnvBool("USE_OCR", true),
		RenderDPI:   getEnvFloat("RENDER_DPI", 300),
		MaxPages:    getEnvInt("MAX_PAGES", 0),
		MaxUploadMB: getEnvInt("MAX_UPLOAD_MB", 30),

		TesseractPath: getEnv("TESSERACT_PATH", findTesseract()),
		TesseractLang: getEnv("TESSERACT_LANG", "por"),
		TessdataDir:   getEnv("TESSDATA_DIR", ""),

		RegistryBaseURL:      getEnv("REGISTRY_BASE_URL", ""),
		RegistryToken:        getEnv("REGISTRY_TOKEN", ""),
		RegistryPathTemplate: getEnv("REGISTRY_PATH_TEMPLATE", ""),
		RegistryTimeout:      time.Duration(getEnvInt("REGISTRY_TIMEOUT_SECONDS", 30)) * time.Second,
		PDFFetchTimeout:      time.Duration(getEnvInt("PDF_FETCH_TIMEOUT_SECONDS", 30)) * time.Second,

		JWTSecret:    getEnv("JWT_SECRET", DefaultJWTSecret),
		APIKeyHashes: getEnvList("API_KEY_HASHES"),

		WorkerCount:  getEnvInt("WORKER_COUNT", 2),
		JobQueueSize: getEnvInt("JOB_QUEUE_SIZE", 50),

		DefaultRateLimit: getEnvInt("DEFAULT_RATE_LIMIT", 120),

		AllowedOrigins: []string{
			getEnv("CORS_ORIGIN", "http://localhost:5173"),
		},

		WebhookSecret: getEnv("WEBHOOK_SECRET", ""),
	}

	if cfg.RenderDPI <= 0 {
		return nil, fmt.Errorf("RENDER_DPI must be positive, got %v", cfg.RenderDPI)
	}
	if cfg.MaxUploadMB <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", cfg.MaxUploadMB)
	}

	// OCR without a binary would fail on every request that reaches stage 4.
	if cfg.UseOCR && cfg.TesseractPath == "" {
		return nil, fmt.Errorf("tesseract not found; set TESSERACT_PATH or USE_OCR=false")
	}

	if cfg.GinMode == "release" && cfg.JWTSecret == DefaultJWTSecret {
		return nil, fmt.Errorf("JWT_SECRET must be set in production; refusing to start with default secret")
	}
	if cfg.GinMode == "release" && len(cfg.APIKeyHashes) == 0 {
		return nil, fmt.Errorf("API_KEY_HASHES must be set in production; generate one with `nfekey hash-key`")
	}

	return cfg, nil
}

// MaxUploadBytes is the upload and download cap in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// getEnv reads an environment variable with a fallback default.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getEnvInt reads an integer environment variable with a fallback.
func getEnvInt(key string, fallback int) int {
	str := getEnv(key, "")
	if str == "" {
		return fallback
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return fallback
	}
	return val
}

func getEnvFloat(key string, fallback float64) float64 {
	str := getEnv(key, "")
	if str == "" {
		return fallback
	}
	val, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return fallback
	}
	return val
}

// getEnvBool accepts anything strconv.ParseBool does ("true", "1", "false", ...).
func getEnvBool(key string, fallback bool) bool {
	str := getEnv(key, "")
	if str == "" {
		return fallback
	}
	val, err := strconv.ParseBool(str)
	if err != nil {
		return fallback
	}
	return val
}

// getEnvList splits a comma-separated variable, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// findTesseract checks PATH and common install locations.
func findTesseract() string {
	if p, err := exec.LookPath("tesseract"); err == nil {
		return p
	}
	paths := []string{
		"/usr/bin/tesseract",
		"/usr/local/bin/tesseract",
		"/opt/homebrew/bin/tesseract",
		"/home/linuxbrew/.linuxbrew/bin/tesseract",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
