package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server ServerConfig
	Loader LoaderConfig
	LLM    LLMConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr string
}

// LoaderConfig holds document loading configuration
type LoaderConfig struct {
	RenderDPI int // rasterization DPI for PDF pages
	MaxPages  int // 0 = no limit
}

// LLMConfig holds remote model configuration
type LLMConfig struct {
	APIKey     string
	BaseURL    string
	OCRModel   string
	ParseModel string
	Timeout    time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	addr := getEnv("HTTP_ADDR", "")
	if addr == "" {
		addr = ":" + getEnv("PORT", "8080")
	}
	return &Config{
		Server: ServerConfig{
			Addr: addr,
		},
		Loader: LoaderConfig{
			RenderDPI: getEnvAsInt("RENDER_DPI", 200),
			MaxPages:  getEnvAsInt("MAX_PAGES", 0),
		},
		LLM: LLMConfig{
			APIKey:     getEnv("OPENAI_API_KEY", ""),
			BaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			OCRModel:   getEnv("OCR_MODEL", "gpt-4o-mini"),
			ParseModel: getEnv("PARSE_MODEL", "gpt-4o-mini"),
			Timeout:    getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks preconditions that block all processing.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return NewAppError(CodePrecondition, "OPENAI_API_KEY is required", ErrMissingCredential)
	}
	if c.Server.Addr == "" {
		return NewAppError(CodePrecondition, "HTTP_ADDR is required", ErrInvalidInput)
	}
	return nil
}
