package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"docsum/internal/config"
	"docsum/internal/extract"
	"docsum/internal/ollama"
	"docsum/internal/pipeline"
	"docsum/internal/prompt"
	"docsum/internal/scheduler"
	"docsum/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	start := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err != nil {
		log.InfoContext(ctx, ".env file is not loaded",
			"error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.ErrorContext(ctx, "Failed to load config",
			"error", err)

		return
	}
	log.InfoContext(ctx, "Config is loaded",
		"ollamaURL", cfg.OllamaURL,
		"addr", cfg.Addr,
		"maxPromptChars", cfg.MaxPromptChars)

	client := ollama.NewClient(cfg.OllamaURL, ollama.Options{
		ProbeTimeout:    cfg.ProbeTimeout,
		GenerateTimeout: cfg.GenerateTimeout,
		Temperature:     cfg.Temperature,
		TopP:            cfg.TopP,
	}, log)

	pipe := pipeline.New(
		client,
		extract.NewPDFExtractor(log),
		prompt.NewBuilder(cfg.MaxPromptChars, log),
		client,
		log,
	)

	catalog := server.NewCatalog(client)
	if models := catalog.Refresh(ctx); len(models) == 0 {
		log.WarnContext(ctx, "Backend advertises no models at startup",
			"ollamaURL", cfg.OllamaURL)
	} else {
		log.InfoContext(ctx, "Model catalog is initialized",
			"modelCount", len(models))
	}

	srv := server.New(pipe, client, catalog, server.Config{
		DefaultModel:   cfg.DefaultModel,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}, log)

	sched := scheduler.New(ctx, cfg.ModelRefreshSpec, catalog, log)
	if err = sched.Start(); err != nil {
		log.ErrorContext(ctx, "Failed to start scheduler",
			"error", err,
			"spec", cfg.ModelRefreshSpec)

		return
	}
	defer sched.Stop()
	log.InfoContext(ctx, "Scheduler is started",
		"spec", cfg.ModelRefreshSpec)

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Handler(),
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.ErrorContext(ctx, "HTTP server failed",
				"error", err,
				"addr", cfg.Addr)
			cancel()
		}
	}()
	log.InfoContext(ctx, "HTTP server is started",
		"addr", cfg.Addr)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-c:
		log.InfoContext(ctx, "Shutdown signal is received",
			"signal", sig.String())
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		shutdownTimeout,
	)
	defer shutdownCancel()

	if err = httpServer.Shutdown(shutdownCtx); err != nil {
		log.ErrorContext(shutdownCtx, "Failed to shut down HTTP server",
			"error", err)
	}

	log.InfoContext(shutdownCtx, "Exiting...",
		"uptimeSeconds", time.Since(start).Seconds())
}
