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
	ReportgenAPIKey string

	// OpenAI generation
	OpenAIAPIKey string
	ContentModel string

	// Artifact locations
	OutputDir string
	AssetDir  string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Section fan-out
	TopFanout    int
	NestedFanout int

	// External call limits
	MaxConcurrentCalls int
	MaxAttempts        int
	InitialBackoff     time.Duration
	CallTimeout        time.Duration

	// Request limits
	MaxBodyBytes int64

	// Job state
	JobTTL time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		ReportgenAPIKey: os.Getenv("REPORTGEN_API_KEY"),

		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		ContentModel: envOr("CONTENT_MODEL", "gpt-4o"),

		OutputDir: envOr("OUTPUT_DIR", "output"),
		AssetDir:  envOr("ASSET_DIR", "output/assets"),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 50),

		TopFanout:    envInt("TOP_FANOUT", 10),
		NestedFanout: envInt("NESTED_FANOUT", 3),

		MaxConcurrentCalls: envInt("MAX_CONCURRENT_CALLS", 10),
		MaxAttempts:        envInt("MAX_ATTEMPTS", 3),
		InitialBackoff:     envDuration("INITIAL_BACKOFF", 1*time.Second),
		CallTimeout:        envDuration("CALL_TIMEOUT", 60*time.Second),

		MaxBodyBytes: envInt64("MAX_BODY_BYTES", 1048576), // 1MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 50
	}
	if cfg.TopFanout <= 0 {
		cfg.TopFanout = 10
	}
	if cfg.NestedFanout <= 0 {
		cfg.NestedFanout = 3
	}
	if cfg.MaxConcurrentCalls <= 0 {
		cfg.MaxConcurrentCalls = 10
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 1 * time.Second
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 60 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1048576
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.ReportgenAPIKey == "" {
		return fmt.Errorf("REPORTGEN_API_KEY is required")
	}
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
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

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
