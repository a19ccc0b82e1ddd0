package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Claude analysis
	AnthropicAPIKey string
	AnthropicModel  string

	// Worker pools
	WorkerCount          int
	MaxQueueSize         int
	MaxConcurrentExtract int

	// Retry policy for model calls
	MaxRetries int
	RetryDelay time.Duration

	// Section matching
	MatchBatchSize int

	// Extraction
	MinSectionChars int
	MaxExcerptChars int

	// Connection analysis
	MaxPairSamples int
	SamplerSeed    uint64

	// Upload limits
	MaxUploadBytes int64

	// Storage
	DataDir string
	DBPath  string

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("CALKG_API_KEY"),

		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),

		WorkerCount:          envInt("WORKER_COUNT", 2),
		MaxQueueSize:         envInt("MAX_QUEUE_SIZE", 100),
		MaxConcurrentExtract: envInt("MAX_CONCURRENT_EXTRACT", 8),

		MaxRetries: envInt("MAX_RETRIES", 3),
		RetryDelay: envDuration("RETRY_DELAY", 2*time.Second),

		MatchBatchSize: envInt("MATCH_BATCH_SIZE", 30),

		MinSectionChars: envInt("MIN_SECTION_CHARS", 200),
		MaxExcerptChars: envInt("MAX_EXCERPT_CHARS", 16000),

		MaxPairSamples: envInt("MAX_PAIR_SAMPLES", 1000),
		SamplerSeed:    uint64(envInt64("SAMPLER_SEED", 1)),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		DataDir: envOr("DATA_DIR", "data"),
		DBPath:  envOr("DB_PATH", "data/graphs.db"),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxConcurrentExtract <= 0 {
		cfg.MaxConcurrentExtract = 8
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.MatchBatchSize <= 0 {
		cfg.MatchBatchSize = 30
	}
	if cfg.MinSectionChars <= 0 {
		cfg.MinSectionChars = 200
	}
	if cfg.MaxExcerptChars <= 0 {
		cfg.MaxExcerptChars = 16000
	}
	if cfg.MaxPairSamples <= 0 {
		cfg.MaxPairSamples = 1000
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("CALKG_API_KEY is required")
	}
	if c.AnthropicAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required")
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
