// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/freightwatch/internal/domain"
	"github.com/aristath/freightwatch/internal/utils"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	MarketplaceURL   string // Base URL of the marketplace API
	TelegramBotToken string // Empty = notifications go to the log only
	Operators        []domain.Operator

	RenewalInterval       time.Duration // Period of the renewal job; also its first delay
	ResponsesInterval     time.Duration // Period of the response-watch job
	ResponsesInitialDelay time.Duration // Delay before the first response-watch (bootstrap) run
	HTTPTimeout           time.Duration // Bound on every outbound marketplace call
	CleanupInterval       time.Duration // Period of the client data cache cleanup
	CityDirectoryRefresh  bool          // Refresh the city dictionary from the marketplace at startup

	DataDir  string // Directory for the client data cache database (always absolute)
	LogLevel string
	Port     int
	DevMode  bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir, err := filepath.Abs(getEnv("DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		MarketplaceURL:        strings.TrimRight(getEnv("ATI_BASE_URL", "https://api.ati.su"), "/"),
		TelegramBotToken:      getEnv("TELEGRAM_BOT_TOKEN", ""),
		Operators:             loadOperators(getEnv("OPERATORS", "alexander,igor")),
		RenewalInterval:       time.Duration(getEnvAsInt("UPDATE_INTERVAL_MINUTES", 60)) * time.Minute,
		ResponsesInterval:     time.Duration(getEnvAsInt("RESPONSES_CHECK_MINUTES", 3)) * time.Minute,
		ResponsesInitialDelay: time.Duration(getEnvAsInt("RESPONSES_INITIAL_DELAY_SECONDS", 30)) * time.Second,
		HTTPTimeout:           time.Duration(getEnvAsInt("HTTP_TIMEOUT_SECONDS", 15)) * time.Second,
		CleanupInterval:       24 * time.Hour,
		CityDirectoryRefresh:  getEnvAsBool("CITY_DIRECTORY_REFRESH", true),
		DataDir:               dataDir,
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		Port:                  getEnvAsInt("GO_PORT", 8001),
		DevMode:               getEnvAsBool("DEV_MODE", false),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if len(c.Operators) == 0 {
		return fmt.Errorf("at least one operator must be configured")
	}

	seen := make(map[string]bool, len(c.Operators))
	for _, op := range c.Operators {
		if op.Key == "" {
			return fmt.Errorf("operator key must not be empty")
		}
		if seen[op.Key] {
			return fmt.Errorf("duplicate operator key %q", op.Key)
		}
		seen[op.Key] = true
	}

	if c.RenewalInterval <= 0 || c.ResponsesInterval <= 0 {
		return fmt.Errorf("job intervals must be positive")
	}
	if c.ResponsesInitialDelay < 0 {
		return fmt.Errorf("initial delay must not be negative")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP timeout must be positive")
	}

	// Note: tokens are optional so the service can start without credentials;
	// calls for such operators simply fail as transport/application errors.
	return nil
}

// OperatorKeys returns the configured operator keys in configuration order
func (c *Config) OperatorKeys() []string {
	keys := make([]string, 0, len(c.Operators))
	for _, op := range c.Operators {
		keys = append(keys, op.Key)
	}
	return keys
}

// loadOperators reads OPERATOR_<KEY>_* variables for every key in the list
func loadOperators(list string) []domain.Operator {
	var operators []domain.Operator
	for _, raw := range utils.ParseCSV(list) {
		key := strings.ToLower(raw)
		prefix := "OPERATOR_" + strings.ToUpper(key) + "_"
		operators = append(operators, domain.Operator{
			Key:       key,
			Name:      getEnv(prefix+"NAME", displayName(key)),
			Token:     getEnv(prefix+"ACCESS_TOKEN", ""),
			ContactID: getEnvAsInt64(prefix+"CONTACT_ID", 0),
			ChatID:    getEnvAsInt64(prefix+"CHAT_ID", 0),
		})
	}
	return operators
}

func displayName(key string) string {
	return strings.ToUpper(key[:1]) + key[1:]
}

// Helper functions
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
