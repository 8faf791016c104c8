/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the invoice engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (env vars, optional config.env)
  2. Parse command-line flags (override config)
  3. Initialize logger and SQLite store
  4. Create API handler with dependencies
  5. Configure HTTP router and start the batch retry scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: HTTP_PORT or 8080)
  -db      SQLite database path (default: DB_PATH or ./data/invoice.db)
           Use ":memory:" for in-memory database

ENVIRONMENT:
  See config/config.go. RECEIPT_SUBMIT_URL enables forwarding of split
  receipts to the accounting system; without it receipts are recorded in
  the local ledger only.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the retry scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  # Run with file database
  ./server -db="./data/invoice.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Forward receipts, JSON logs
  APP_ENV=production RECEIPT_SUBMIT_URL=http://books.local/receipts ./server

SEE ALSO:
  - api/server.go: Router configuration
  - api/scheduler.go: Batch retry scheduler
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/warp/invoice-engine/api"
	"github.com/warp/invoice-engine/billing"
	"github.com/warp/invoice-engine/config"
	"github.com/warp/invoice-engine/logging"
	"github.com/warp/invoice-engine/receipts"
	"github.com/warp/invoice-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("loading config")
	}

	// Flags
	port := flag.Int("port", cfg.HTTP.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DB.Path, "SQLite database path")
	flag.Parse()
	cfg.HTTP.Port = *port
	cfg.DB.Path = *dbPath

	logger := logging.New(logging.Config{Env: cfg.App.Env, Level: cfg.Log.Level})

	// Initialize store
	if cfg.DB.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DB.Path), 0o755); err != nil {
			logger.Fatal().Err(err).Str("path", cfg.DB.Path).Msg("creating data directory")
		}
	}
	store, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer store.Close()

	// Initialize handler
	handler := api.NewHandler(store)
	handler.Logger = logger
	handler.Documents = billing.DocumentValidator{SalesmanRequired: cfg.Billing.SalesmanRequired}
	if cfg.Receipts.SubmitURL != "" {
		handler.Submitter = receipts.NewHTTPSubmitter(cfg.Receipts.SubmitURL, cfg.Receipts.SubmitTimeout)
		logger.Info().Str("url", cfg.Receipts.SubmitURL).Msg("forwarding receipts")
	} else {
		logger.Info().Msg("no receipt endpoint configured, recording to local ledger only")
	}

	// Create router
	router := api.NewRouter(handler, api.RouterOptions{
		CORSOrigins:        cfg.HTTP.CORSOrigins,
		RateLimitPerMinute: cfg.HTTP.RateLimitPerMinute,
		DemoScenarios:      cfg.App.Env != "production",
	})

	// Retry unfinished receipt batches in the background
	scheduler := api.NewRetryScheduler(store, handler)
	scheduler.Enabled = cfg.Receipts.RetryEnabled
	scheduler.CheckInterval = cfg.Receipts.RetryInterval
	scheduler.Start()

	// Create server
	server := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().Str("addr", server.Addr).Str("env", cfg.App.Env).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	logger.Info().Msg("server stopped")
}
