package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "WORKER_COUNT", "FONT_SIZE", "LOG_LEVEL", "DOCUMENT_TTL", "BOOKFLOW_API_KEY"} {
		t.Setenv(key, "")
	}
	cfg := Load()

	if cfg.Port != "8090" {
		t.Errorf("expected default port 8090, got %q", cfg.Port)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.WorkerCount)
	}
	if cfg.FontSize != 24 {
		t.Errorf("expected font size 24, got %v", cfg.FontSize)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("expected info level, got %v", cfg.LogLevel)
	}
	if cfg.DocumentTTL != 24*time.Hour {
		t.Errorf("expected 24h document ttl, got %v", cfg.DocumentTTL)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error without BOOKFLOW_API_KEY")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BOOKFLOW_API_KEY", "k")
	t.Setenv("WORKER_COUNT", "-2")
	t.Setenv("FONT_SIZE", "18.5")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("JOB_TTL", "not-a-duration")
	t.Setenv("PDF_FALLBACK_PDFTOTEXT", "false")
	cfg := Load()

	if cfg.WorkerCount != 4 {
		t.Errorf("expected invalid worker count to fall back to 4, got %d", cfg.WorkerCount)
	}
	if cfg.FontSize != 18.5 {
		t.Errorf("expected font size 18.5, got %v", cfg.FontSize)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", cfg.LogLevel)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("expected default job ttl, got %v", cfg.JobTTL)
	}
	if cfg.PDFFallbackPdftotext {
		t.Error("expected pdftotext fallback disabled")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}

	t.Setenv("IMAGESTORE_API_KEY", "img")
	t.Setenv("IMAGESTORE_URL", "")
	if err := Load().Validate(); err == nil {
		t.Error("expected error for image store key without url")
	}
}
