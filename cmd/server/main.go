// Package main is the entry point for the NF-e Key API server.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Shimizu-Technology/nfe-key-api/internal/config"
	"github.com/Shimizu-Technology/nfe-key-api/internal/handlers"
	"github.com/Shimizu-Technology/nfe-key-api/internal/middleware"
	"github.com/Shimizu-Technology/nfe-key-api/internal/router"
	"github.com/Shimizu-Technology/nfe-key-api/internal/services/extraction"
	"github.com/Shimizu-Technology/nfe-key-api/internal/services/invoice"
	"github.com/Shimizu-Technology/nfe-key-api/internal/services/registry"
	"github.com/Shimizu-Technology/nfe-key-api/internal/services/webhook"
	"github.com/Shimizu-Technology/nfe-key-api/internal/services/worker"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("🚀 NF-e Key API %s starting...", Version)

	// Step 1: Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	log.Printf("📋 Config loaded: port=%s, workers=%d, gin_mode=%s, dpi=%.0f", cfg.Port, cfg.WorkerCount, cfg.GinMode, cfg.RenderDPI)
	os.Setenv("GIN_MODE", cfg.GinMode)

	// Step 2: Create Services
	tesseract := ""
	if cfg.UseOCR {
		tesseract = cfg.TesseractPath
		log.Printf("🔧 tesseract path: %s (lang %s)", tesseract, cfg.TesseractLang)
	} else {
		log.Println("⚠️  OCR disabled (USE_OCR=false); requests cannot turn it back on")
	}

	orchestrator := extraction.NewDefault(extraction.EngineConfig{
		Tesseract:   tesseract,
		TessdataDir: cfg.TessdataDir,
		Language:    cfg.TesseractLang,
		Metrics:     extraction.NewMetrics(prometheus.DefaultRegisterer),
	})

	extractionDefaults := extraction.Options{
		OCREnabled: cfg.UseOCR,
		DPI:        cfg.RenderDPI,
		MaxPages:   cfg.MaxPages,
	}

	processor := invoice.NewProcessor(orchestrator, registry.NewClient(cfg.RegistryTimeout), invoice.Config{
		Registry: registry.Config{
			BaseURL:      cfg.RegistryBaseURL,
			Token:        cfg.RegistryToken,
			PathTemplate: cfg.RegistryPathTemplate,
		},
		Extraction:   extractionDefaults,
		MaxPDFBytes:  cfg.MaxUploadBytes(),
		FetchTimeout: cfg.PDFFetchTimeout,
	})
	if cfg.RegistryBaseURL == "" {
		log.Println("⚠️  No REGISTRY_BASE_URL set; /process requires serproBaseUrl and serproToken per request")
	}

	webhookService := webhook.New(cfg.WebhookSecret)
	if cfg.WebhookSecret == "" {
		log.Println("⚠️  WEBHOOK_SECRET not set; callbacks are unsigned")
	}

	// Step 3: Create and Start Worker Pool
	wp := worker.NewPool(cfg.WorkerCount, cfg.JobQueueSize, processor, webhookService)
	wp.Start()
	defer wp.Stop()

	if len(cfg.APIKeyHashes) == 0 {
		log.Println("⚠️  No API_KEY_HASHES configured; every protected route will answer 401")
	}

	// Step 4: Setup HTTP Router
	h := handlers.NewHandler(handlers.Deps{
		Extractor:      orchestrator,
		Processor:      processor,
		Jobs:           wp,
		Extraction:     extractionDefaults,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		OCREngine:      tesseract,
		JWTSecret:      cfg.JWTSecret,
		Version:        Version,
	})
	r := router.Setup(h, router.Options{
		APIKeys:        middleware.NewAPIKeys(cfg.APIKeyHashes),
		JWTSecret:      cfg.JWTSecret,
		RateLimit:      cfg.DefaultRateLimit,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	// Step 5: Start the HTTP Server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // OCR over many pages is slow
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("🌐 Server listening on http://localhost:%s", cfg.Port)
		log.Printf("📖 Health check: http://localhost:%s/api/v1/health", cfg.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	// Step 6: Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Printf("🛑 Received signal %v, shutting down gracefully...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("⚠️  Server forced to shutdown: %v", err)
	}

	log.Println("👋 Server stopped. Goodbye!")
}
