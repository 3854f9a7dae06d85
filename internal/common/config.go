package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Extract  ExtractConfig
	Pipeline PipelineConfig
	Derive   DeriveConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	ListenAddr      string
	MaxUploadBytes  int64
	ReadTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// ExtractConfig holds extraction-collaborator (Gemini) configuration
type ExtractConfig struct {
	BaseURL         string
	APIKey          string
	Model           string
	Temperature     float32
	MaxOutputTokens int
	Timeout         time.Duration
	RateLimitRPM    int
}

// PipelineConfig holds orchestrator retry/batching configuration
type PipelineConfig struct {
	BatchSize        int
	MaxParseRetries  int
	RecordAttempts   int
	MaxBatchParallel int
}

// DeriveConfig holds the package/weight multipliers applied to validated records.
// These are business policy, not physics; keep them tunable.
type DeriveConfig struct {
	PackagesPerUnit int
	PackageWeightKg float64
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:      getEnv("LISTEN_ADDR", ":"+getEnv("PORT", "8080")),
			MaxUploadBytes:  getEnvAsInt64("MAX_UPLOAD_BYTES", 32<<20),
			ReadTimeout:     getEnvAsDuration("READ_TIMEOUT", 5*time.Minute),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Extract: ExtractConfig{
			BaseURL:         getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			APIKey:          getEnv("GEMINI_API_KEY", ""),
			Model:           getEnv("GEMINI_MODEL", "gemini-2.5-flash-lite"),
			Temperature:     getEnvAsFloat32("GEMINI_TEMPERATURE", 0.1),
			MaxOutputTokens: getEnvAsInt("GEMINI_MAX_OUTPUT_TOKENS", 4000),
			Timeout:         getEnvAsDuration("GEMINI_TIMEOUT", 45*time.Second),
			RateLimitRPM:    getEnvAsInt("GEMINI_RATE_LIMIT_RPM", 15),
		},
		Pipeline: PipelineConfig{
			BatchSize:        getEnvAsInt("EXTRACT_BATCH_SIZE", 10),
			MaxParseRetries:  getEnvAsInt("EXTRACT_PARSE_RETRIES", 2),
			RecordAttempts:   getEnvAsInt("EXTRACT_RECORD_ATTEMPTS", 2),
			MaxBatchParallel: getEnvAsInt("EXTRACT_BATCH_PARALLEL", 2),
		},
		Derive: DeriveConfig{
			PackagesPerUnit: getEnvAsInt("PACKAGES_PER_UNIT", 2),
			PackageWeightKg: getEnvAsFloat64("PACKAGE_WEIGHT_KG", 4.5),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// ValidateConfig validates the loaded configuration
func (c *Config) Validate() error {
	if c.Extract.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "GEMINI_API_KEY is required", ErrInvalidInput)
	}
	if c.Server.ListenAddr == "" {
		return NewAppError("CONFIG_ERROR", "LISTEN_ADDR is required", ErrInvalidInput)
	}
	if c.Pipeline.BatchSize <= 0 {
		return NewAppError("CONFIG_ERROR", "EXTRACT_BATCH_SIZE must be positive", ErrInvalidInput)
	}
	if c.Derive.PackagesPerUnit < 0 || c.Derive.PackageWeightKg < 0 {
		return NewAppError("CONFIG_ERROR", "derivation multipliers must be non-negative", ErrInvalidInput)
	}
	return nil
}
