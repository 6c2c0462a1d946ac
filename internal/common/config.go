package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Vision   VisionConfig
	Fact     FactConfig
	Pipeline PipelineConfig
	Watch    WatchSettings
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// VisionConfig holds the vision OCR call configuration
type VisionConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Prompt      string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// FactConfig holds the current-job extraction call configuration
type FactConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	CacheTTL    time.Duration
}

// PipelineConfig holds orchestrator behavior knobs
type PipelineConfig struct {
	TransportRetries int           // extra attempts after a TRANSPORT_ERROR
	RetryDelay       time.Duration // fixed delay between attempts
	RatePerSecond    float64       // outbound call rate limit; <=0 disables
	RateBurst        int
	Workers          int
	QueueSize        int
}

// WatchSettings holds daemon directory-watch configuration
type WatchSettings struct {
	Root     string
	Debounce time.Duration
}

// DefaultVisionPrompt is the fixed OCR instruction sent with every screenshot.
const DefaultVisionPrompt = "I am creating an audio version of this image for someone who cannot see it. Please extract and list all the text and numbers."

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	apiKey := getEnv("OPENAI_API_KEY", "")
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("JOBWATCH_DB", "jobwatch.db"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Vision: VisionConfig{
			Model:       getEnv("OPENAI_VISION_MODEL", "gpt-4o"),
			APIKey:      apiKey,
			BaseURL:     getEnv("OPENAI_BASE_URL", ""),
			Prompt:      getEnv("VISION_PROMPT", DefaultVisionPrompt),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.1),
			MaxTokens:   getEnvAsInt("VISION_MAX_TOKENS", 1000),
			Timeout:     getEnvAsDuration("VISION_TIMEOUT", 60*time.Second),
		},
		Fact: FactConfig{
			Model:       getEnv("OPENAI_FACT_MODEL", "gpt-4o-mini"),
			APIKey:      apiKey,
			BaseURL:     getEnv("OPENAI_BASE_URL", ""),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.1),
			MaxTokens:   getEnvAsInt("FACT_MAX_TOKENS", 300),
			Timeout:     getEnvAsDuration("FACT_TIMEOUT", 30*time.Second),
			CacheTTL:    getEnvAsDuration("FACT_CACHE_TTL", 1*time.Hour),
		},
		Pipeline: PipelineConfig{
			TransportRetries: getEnvAsInt("TRANSPORT_RETRIES", 1),
			RetryDelay:       getEnvAsDuration("RETRY_DELAY", 2*time.Second),
			RatePerSecond:    float64(getEnvAsFloat32("OPENAI_RATE_PER_SECOND", 2)),
			RateBurst:        getEnvAsInt("OPENAI_RATE_BURST", 4),
			Workers:          getEnvAsInt("WORKERS", 4),
			QueueSize:        getEnvAsInt("QUEUE_SIZE", 256),
		},
		Watch: WatchSettings{
			Root:     getEnv("WATCH_DIR", ""),
			Debounce: getEnvAsDuration("WATCH_DEBOUNCE", 500*time.Millisecond),
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

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "JOBWATCH_DB is required", ErrInvalidInput)
	}
	if c.Vision.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	if c.Pipeline.TransportRetries < 0 {
		return NewAppError("CONFIG_ERROR", "TRANSPORT_RETRIES must be >= 0", ErrInvalidInput)
	}
	return nil
}
