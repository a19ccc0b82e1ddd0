package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/calkg/calkg/internal/api"
	"github.com/calkg/calkg/internal/config"
	"github.com/calkg/calkg/internal/graphstore"
	"github.com/calkg/calkg/internal/llm"
	"github.com/calkg/calkg/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	claude := llm.NewClaude(cfg.AnthropicAPIKey, cfg.AnthropicModel, llm.NewStats(time.Hour))

	graphs, err := graphstore.Open(cfg.DBPath)
	if err != nil {
		log.Error("open graph store", "error", err)
		os.Exit(1)
	}

	orch := pipeline.NewOrchestrator(cfg, claude, graphs, log)
	orch.Start(ctx)

	srv := api.NewServer(orch, claude, log, cfg)

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

		claude.Close()
		graphs.Close()
	}()

	log.Info("starting calkg", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
