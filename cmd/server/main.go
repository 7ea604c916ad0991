package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/bookflow/internal/api"
	"github.com/dgallion1/bookflow/internal/config"
	"github.com/dgallion1/bookflow/internal/highlights"
	"github.com/dgallion1/bookflow/internal/imagestore"
	"github.com/dgallion1/bookflow/internal/metrics"
	"github.com/dgallion1/bookflow/internal/pipeline"
)

func main() {
	cfg := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize stores and clients.
	store, err := highlights.Open(cfg.HighlightsDB)
	if err != nil {
		log.Error("open highlights db", "path", cfg.HighlightsDB, "error", err)
		os.Exit(1)
	}

	var images pipeline.ImageResolver
	var imageClient *imagestore.Client
	if cfg.ImagestoreURL != "" {
		imageClient = imagestore.NewClient(cfg.ImagestoreURL, cfg.ImagestoreAPIKey)
		images = imageClient
	} else {
		log.Info("no image store configured, external images stay unresolved")
	}

	m := metrics.New()

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, images, pipeline.NewLibrary(cfg.DocumentTTL), m, log)
	orch.OnEvict(func(docID string) {
		if _, err := store.DeleteDocument(context.Background(), docID); err != nil {
			log.Error("delete highlights of expired document", "doc_id", docID, "error", err)
		}
	})
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, store, m, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if imageClient != nil {
			imageClient.Close()
		}
		store.Close()
	}()

	log.Info("starting bookflow", "port", cfg.Port, "workers", cfg.WorkerCount)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
