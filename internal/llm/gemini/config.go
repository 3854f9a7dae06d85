package gemini

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"
)

// Config for the Gemini client.
type Config struct {
	APIKey          string        // if empty, falls back to env GEMINI_API_KEY
	BaseURL         string        // default https://generativelanguage.googleapis.com/v1beta
	Model           string        // e.g., "gemini-2.5-flash-lite"
	Temperature     float32       // 0..2
	MaxOutputTokens int           // per generateContent call
	Timeout         time.Duration // per-call deadline
	RateLimitRPM    int           // free-tier flash-lite allows 15 requests/minute
}

type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	log     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash-lite"
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = 4000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if cfg.RateLimitRPM <= 0 {
		cfg.RateLimitRPM = 15
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RateLimitRPM)), 1),
		log:     logger,
	}
}
