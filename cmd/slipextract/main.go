// slipextract runs a single collaborator extraction over a text file and
// prints the candidate records it proposes. Operability tool for prompt and
// key debugging; no validation is applied.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/GreenhouseOperations/packingslip-parser/internal/common"
	"github.com/GreenhouseOperations/packingslip-parser/internal/llm"
	"github.com/GreenhouseOperations/packingslip-parser/internal/llm/gemini"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		logger.Error("usage: slipextract <text-file>")
		os.Exit(2)
	}
	text, err := os.ReadFile(os.Args[1])
	if err != nil {
		logger.Error("read input", "path", os.Args[1], "error", err)
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	if cfg.Extract.APIKey == "" {
		logger.Error("GEMINI_API_KEY env var is required")
		os.Exit(2)
	}

	client := gemini.NewClient(gemini.Config{
		APIKey:          cfg.Extract.APIKey,
		BaseURL:         cfg.Extract.BaseURL,
		Model:           cfg.Extract.Model,
		Temperature:     cfg.Extract.Temperature,
		MaxOutputTokens: cfg.Extract.MaxOutputTokens,
		Timeout:         cfg.Extract.Timeout,
		RateLimitRPM:    cfg.Extract.RateLimitRPM,
	}, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	records, _, err := client.ExtractRecords(ctx, llm.ExtractRequest{
		Pages: []llm.PageText{{Number: 1, Text: string(text)}},
	})
	if err != nil {
		logger.Error("extract", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		logger.Error("encode output", "error", err)
		os.Exit(1)
	}
}
