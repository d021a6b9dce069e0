// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

// Config is the environment-derived process configuration.
type Config struct {
	Port      string
	DataDir   string
	LogDir    string
	DebugMode bool

	// LLM
	LLMProvider     string
	AnthropicAPIKey string
	LLMModel        string
	LLMMaxTokens    int
	LLMBaseURL      string

	StorageDriver      string
	RateLimitPerMinute int

	// Export
	ChromeBin      string
	ExportAuthor   string
	PDFConcurrency int

	// Passphrase for secrets persisted in config.json.
	ConfigSecret string
}

// Load reads the environment, after an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		DataDir:            getEnv("DATA_DIR", "data"),
		LogDir:             getEnv("LOG_DIR", "logs"),
		DebugMode:          getEnvBool("DEBUG_MODE", true),
		LLMProvider:        getEnv("LLM_PROVIDER", "anthropic"),
		AnthropicAPIKey:    getEnv("ANTHROPIC_API_KEY", ""),
		LLMModel:           getEnv("LLM_MODEL", "claude-sonnet-4-20250514"),
		LLMMaxTokens:       getEnvInt("LLM_MAX_TOKENS", 8192),
		LLMBaseURL:         getEnv("LLM_BASE_URL", ""),
		StorageDriver:      strings.ToLower(getEnv("STORAGE_DRIVER", StorageFile)),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		ChromeBin:          getEnv("CHROME_BIN", ""),
		ExportAuthor:       getEnv("EXPORT_AUTHOR", ""),
		PDFConcurrency:     getEnvInt("PDF_CONCURRENCY", 2),
		ConfigSecret:       getEnv("CONFIG_SECRET", "curriculum-designer"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageFile, StorageSQLite:
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q (want %q or %q)", c.StorageDriver, StorageFile, StorageSQLite)
	}
	if c.LLMMaxTokens <= 0 {
		return fmt.Errorf("LLM_MAX_TOKENS must be positive, got %d", c.LLMMaxTokens)
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive, got %d", c.RateLimitPerMinute)
	}
	if c.PDFConcurrency <= 0 {
		c.PDFConcurrency = 1
	}
	return nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.DataDir, c.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
