package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port     string
	LogLevel slog.Level

	// Auth
	BookflowAPIKey string

	// Image store connection (optional)
	ImagestoreURL       string
	ImagestoreAPIKey    string
	MaxConcurrentImages int

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job and document state
	JobTTL      time.Duration
	DocumentTTL time.Duration

	// Rendering defaults
	FontSize      float64
	RefColor      string
	RefHoverColor string

	// Saved highlights database
	HighlightsDB string

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port:     envOr("PORT", "8090"),
		LogLevel: envLevel("LOG_LEVEL", slog.LevelInfo),

		BookflowAPIKey: os.Getenv("BOOKFLOW_API_KEY"),

		ImagestoreURL:       os.Getenv("IMAGESTORE_URL"),
		ImagestoreAPIKey:    os.Getenv("IMAGESTORE_API_KEY"),
		MaxConcurrentImages: envInt("MAX_CONCURRENT_IMAGES", 8),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL:      envDuration("JOB_TTL", 1*time.Hour),
		DocumentTTL: envDuration("DOCUMENT_TTL", 24*time.Hour),

		FontSize:      envFloat("FONT_SIZE", 24),
		RefColor:      envOr("REF_COLOR", "#2a6df4"),
		RefHoverColor: envOr("REF_HOVER_COLOR", "#174bb8"),

		HighlightsDB: envOr("HIGHLIGHTS_DB", "bookflow.db"),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxConcurrentImages <= 0 {
		cfg.MaxConcurrentImages = 8
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.DocumentTTL <= 0 {
		cfg.DocumentTTL = 24 * time.Hour
	}
	if cfg.FontSize <= 0 {
		cfg.FontSize = 24
	}

	return cfg
}

func (c Config) Validate() error {
	if c.BookflowAPIKey == "" {
		return fmt.Errorf("BOOKFLOW_API_KEY is required")
	}
	if c.ImagestoreAPIKey != "" && c.ImagestoreURL == "" {
		return fmt.Errorf("IMAGESTORE_URL is required when IMAGESTORE_API_KEY is set")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envLevel(key string, fallback slog.Level) slog.Level {
	if v := os.Getenv(key); v != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(strings.TrimSpace(v))); err == nil {
			return level
		}
	}
	return fallback
}
