package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	"github.com/GreenhouseOperations/packingslip-parser/internal/common"
	"github.com/GreenhouseOperations/packingslip-parser/internal/export"
	"github.com/GreenhouseOperations/packingslip-parser/internal/llm/gemini"
	"github.com/GreenhouseOperations/packingslip-parser/internal/pdftext"
	"github.com/GreenhouseOperations/packingslip-parser/internal/pipeline"
	"github.com/GreenhouseOperations/packingslip-parser/internal/server"
	"github.com/GreenhouseOperations/packingslip-parser/internal/slip"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("config invalid", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	extractor := gemini.NewClient(gemini.Config{
		APIKey:          cfg.Extract.APIKey,
		BaseURL:         cfg.Extract.BaseURL,
		Model:           cfg.Extract.Model,
		Temperature:     cfg.Extract.Temperature,
		MaxOutputTokens: cfg.Extract.MaxOutputTokens,
		Timeout:         cfg.Extract.Timeout,
		RateLimitRPM:    cfg.Extract.RateLimitRPM,
	}, logger)

	orch := pipeline.NewOrchestrator(logger, pipeline.Config{
		BatchSize:        cfg.Pipeline.BatchSize,
		MaxParseRetries:  cfg.Pipeline.MaxParseRetries,
		RecordAttempts:   cfg.Pipeline.RecordAttempts,
		MaxBatchParallel: cfg.Pipeline.MaxBatchParallel,
	}, extractor, slip.NewValidator(), slip.NewDeriver(cfg.Derive.PackagesPerUnit, cfg.Derive.PackageWeightKg))

	h := server.NewHandler(logger, cfg.Server,
		pdftext.NewExtractor(logger), orch, export.NewAssembler(logger))

	srv := &http.Server{
		Addr:        cfg.Server.ListenAddr,
		Handler:     h.Routes(),
		ReadTimeout: cfg.Server.ReadTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", "error", err)
		}
	}()

	logger.Info("serving", "addr", cfg.Server.ListenAddr, "model", cfg.Extract.Model)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("listen", "error", err)
		os.Exit(1)
	}
	logger.Info("stopped")
}
