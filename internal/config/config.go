package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Merge service
	MergeAPIURL string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int // concurrent merge uploads

	// Cache (surfaces and merge results)
	CacheTTL time.Duration

	// Observability
	OTLPEndpoint string

	// Persistence
	DatasetDBPath string // empty = in-memory store
	TokenFile     string // empty = in-memory token store
	TokenSecret   string

	// Uploads
	UploadRate     float64
	UploadBurst    int
	MaxUploadBytes int64

	// Charts
	ChartWidth       int
	ChartHeight      int
	TopNProjects     int
	MaxXLabels       int
	DefaultRangeDays int
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		MergeAPIURL: strings.TrimRight(getEnv("MERGE_API_URL", "http://localhost:8000"), "/"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 30*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 2),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 200*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 4),

		CacheTTL: getEnvDuration("CACHE_TTL", 10*time.Minute),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		DatasetDBPath: getEnv("DATASET_DB_PATH", ""),
		TokenFile:     getEnv("TOKEN_FILE", ""),
		TokenSecret:   getEnv("TOKEN_SECRET", "timesheet-charts-dev-secret-change-me"),

		UploadRate:     getEnvFloat("UPLOAD_RATE", 2),
		UploadBurst:    getEnvInt("UPLOAD_BURST", 5),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 20<<20)),

		ChartWidth:       getEnvInt("CHART_WIDTH", 960),
		ChartHeight:      getEnvInt("CHART_HEIGHT", 320),
		TopNProjects:     getEnvInt("TOP_N_PROJECTS", 8),
		MaxXLabels:       getEnvInt("MAX_X_LABELS", 12),
		DefaultRangeDays: getEnvInt("DEFAULT_RANGE_DAYS", 30),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
