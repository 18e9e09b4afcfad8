package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/copylens/analyzer"
	"github.com/copylens/analyzer/api"
	"github.com/copylens/analyzer/db"
	"github.com/copylens/analyzer/storage"
	"github.com/copylens/analyzer/tracing"
)

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt parses an integer environment variable, logging and falling back
// to the default on bad input.
func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("invalid integer env value, using default", "key", key, "provided", raw, "default", defaultValue)
		return defaultValue
	}
	return value
}

func main() {
	// Load .env for local development; missing file is fine.
	_ = godotenv.Load()

	// Setup structured logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("copylens service initializing", "version", "1.0.0")

	// Initialize tracing
	tp, err := tracing.InitTracer(context.Background(), "copylens-analyzer")
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Error("error shutting down tracer", "error", err)
			}
		}()
		logger.Info("tracing initialized successfully")
	}

	// Default values
	defaultPort := getEnv("PORT", "8080")
	defaultNLPURL := getEnv("NLP_URL", "")
	defaultOllamaURL := getEnv("OLLAMA_URL", "http://localhost:11434")
	defaultOllamaModel := getEnv("OLLAMA_MODEL", "llama3.1")
	defaultUserAgent := getEnv("USER_AGENT", analyzer.DefaultConfig().UserAgent)
	workers := getEnvInt("WORKERS", 4)
	queueSize := getEnvInt("QUEUE_SIZE", 64)

	// Command-line flags (override environment variables)
	port := flag.String("port", defaultPort, "Server port")
	nlpURL := flag.String("nlp-url", defaultNLPURL, "NLP model service base URL (empty disables the model path)")
	ollamaURL := flag.String("ollama-url", defaultOllamaURL, "Ollama base URL")
	ollamaModel := flag.String("ollama-model", defaultOllamaModel, "Ollama model for rewrites")
	enableRewrite := flag.Bool("enable-rewrite", getEnv("ENABLE_REWRITE", "") == "true", "Enable generative rewrites")
	disableCORS := flag.Bool("disable-cors", false, "Disable CORS")
	flag.Parse()

	// Database configuration. DB_DSN takes precedence; otherwise build a
	// PostgreSQL DSN from the usual parts.
	dbDriver := getEnv("DB_DRIVER", "postgres")
	dbDSN := getEnv("DB_DSN", "")
	if dbDSN == "" {
		dbHost := getEnv("DB_HOST", "")
		if dbHost == "" {
			logger.Error("DB_DSN or DB_HOST environment variable is required")
			os.Exit(1)
		}
		dbPort := getEnv("DB_PORT", "5432")
		dbUser := getEnv("DB_USER", "copylens")
		dbPassword := getEnv("DB_PASSWORD", "copylens_dev_pass")
		dbName := getEnv("DB_NAME", "copylens")
		dbDSN = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", dbHost, dbPort, dbUser, dbPassword, dbName)
		logger.Info("using PostgreSQL database", "host", dbHost, "port", dbPort, "database", dbName)
	}

	// Snapshot storage: local filesystem by default, S3 when configured.
	var store storage.Store
	storageBackend := getEnv("STORAGE_BACKEND", "fs")
	storagePath := getEnv("STORAGE_BASE_PATH", "./storage")
	if storageBackend == "s3" {
		store, err = storage.NewS3Storage(context.Background(), storage.S3Config{
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Bucket:          getEnv("S3_BUCKET", ""),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			UsePathStyle:    getEnv("S3_USE_PATH_STYLE", "") == "true",
		})
		if err != nil {
			logger.Error("failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		logger.Info("using S3 snapshot storage", "bucket", getEnv("S3_BUCKET", ""))
	}

	// Create server configuration
	config := api.Config{
		Addr:     ":" + *port,
		DBConfig: db.Config{Driver: dbDriver, DSN: dbDSN},
		AnalyzerConfig: analyzer.Config{
			HTTPTimeout: 10 * time.Second,
			UserAgent:   defaultUserAgent,
			NLPBaseURL:  *nlpURL,
		},
		StorageConfig: storage.Config{BasePath: storagePath},
		Store:         store,
		OllamaBaseURL: *ollamaURL,
		OllamaModel:   *ollamaModel,
		EnableRewrite: *enableRewrite,
		Workers:       workers,
		QueueSize:     queueSize,
		CORSEnabled:   !*disableCORS,
	}

	// Create server
	server, err := api.NewServer(config)
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	// Start server in a goroutine
	go func() {
		logger.Info("copylens service starting",
			"port", *port,
			"db_driver", dbDriver,
			"storage_backend", storageBackend,
			"nlp_url", *nlpURL,
			"ollama_url", *ollamaURL,
			"ollama_model", *ollamaModel,
			"rewrite_enabled", *enableRewrite,
			"workers", workers,
		)

		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	logger.Info("shutting down gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
