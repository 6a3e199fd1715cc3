package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"diadesorte/database"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// HTTP configuration
	HTTPAddr string

	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// Upstream results API
	CaixaAPIURL            string
	CaixaRequestsPerSecond float64

	// Cache and messaging
	RedisURL    string // empty keeps the latest draw and last batch in memory
	NATSServers string // NATS server addresses (comma-separated), empty disables forwarding

	// Discord notifications
	DiscordToken     string
	DiscordChannelID string // Channel announcing new contests

	// Scheduled history refresh
	HistoryRefreshCron  string
	HistoryRefreshLimit int

	// Generation tuning
	MaxQuantity         int
	MaxAttempts         int
	TriggerMax          int
	TriggerMinPresent   int
	AbsenceGapThreshold int
	LuckyMonthMethod    string
	GenerationWorkers   int

	// Logging
	LogLevel  string
	LogFormat string // "text" or "json"

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelServiceName          string
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelExportIntervalMillis int

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			// In test environment, use a default test config instead of panicking
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// DiscordEnabled reports whether contest announcements are configured
func (c *Config) DiscordEnabled() bool {
	return c.DiscordToken != "" && c.DiscordChannelID != ""
}

// load loads configuration from environment variables, reading .env first when present
func load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	config := &Config{
		// HTTP
		HTTPAddr: getEnvWithDefault("HTTP_ADDR", ":8080"),

		// Database
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		// Upstream
		CaixaAPIURL:            getEnvWithDefault("CAIXA_API_URL", "https://servicebus2.caixa.gov.br/portaldeloterias/api/diadesorte"),
		CaixaRequestsPerSecond: getEnvFloat("CAIXA_REQUESTS_PER_SECOND", 2),

		// Cache and messaging
		RedisURL:    os.Getenv("REDIS_URL"),
		NATSServers: os.Getenv("NATS_SERVERS"),

		// Discord
		DiscordToken:     os.Getenv("DISCORD_TOKEN"),
		DiscordChannelID: os.Getenv("DISCORD_CHANNEL_ID"),

		// Dia de Sorte draws Tuesday, Thursday and Saturday at 20h (Brasilia)
		HistoryRefreshCron:  getEnvWithDefault("HISTORY_REFRESH_CRON", "30 21 * * 2,4,6"),
		HistoryRefreshLimit: getEnvInt("HISTORY_REFRESH_LIMIT", 10),

		// Generation
		MaxQuantity:         getEnvInt("MAX_QUANTITY", 100),
		MaxAttempts:         getEnvInt("MAX_ATTEMPTS", 1000),
		TriggerMax:          getEnvInt("TRIGGER_MAX", 3),
		TriggerMinPresent:   getEnvInt("TRIGGER_MIN_PRESENT", 1),
		AbsenceGapThreshold: getEnvInt("ABSENCE_GAP_THRESHOLD", 8),
		LuckyMonthMethod:    getEnvWithDefault("LUCKY_MONTH_METHOD", "temperatura"),
		GenerationWorkers:   getEnvInt("GENERATION_WORKERS", 0),

		// Logging
		LogLevel:  getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvWithDefault("LOG_FORMAT", "text"),

		// OpenTelemetry
		OTelEnabled:              getEnvBool("OTEL_ENABLED", false),
		OTelServiceName:          getEnvWithDefault("OTEL_SERVICE_NAME", "diadesorte"),
		OTelExporterType:         getEnvWithDefault("OTEL_EXPORTER_TYPE", "console"),
		OTelOTLPEndpoint:         getEnvWithDefault("OTEL_OTLP_ENDPOINT", "otel-collector:4317"),
		OTelExportIntervalMillis: getEnvInt("OTEL_EXPORT_INTERVAL_MS", 30000),

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if err := config.validate(); err != nil {
			return nil, err
		}
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	// If DatabaseName is provided, ensure it's not empty
	if c.DatabaseName != "" && strings.TrimSpace(c.DatabaseName) == "" {
		return fmt.Errorf("DATABASE_NAME cannot be empty when provided")
	}
	if c.MaxQuantity <= 0 {
		return fmt.Errorf("MAX_QUANTITY must be positive, got %d", c.MaxQuantity)
	}
	if c.CaixaRequestsPerSecond <= 0 {
		return fmt.Errorf("CAIXA_REQUESTS_PER_SECOND must be positive, got %v", c.CaixaRequestsPerSecond)
	}
	if c.TriggerMinPresent > c.TriggerMax {
		return fmt.Errorf("TRIGGER_MIN_PRESENT (%d) cannot exceed TRIGGER_MAX (%d)", c.TriggerMinPresent, c.TriggerMax)
	}
	switch c.LuckyMonthMethod {
	case "temperatura", "moda":
	default:
		return fmt.Errorf("LUCKY_MONTH_METHOD must be temperatura or moda, got %q", c.LuckyMonthMethod)
	}
	return nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:              "test",
		HTTPAddr:                 ":0",
		CaixaRequestsPerSecond:   100,
		HistoryRefreshCron:       "30 21 * * 2,4,6",
		HistoryRefreshLimit:      10,
		MaxQuantity:              100,
		MaxAttempts:              1000,
		TriggerMax:               3,
		TriggerMinPresent:        1,
		AbsenceGapThreshold:      8,
		LuckyMonthMethod:         "temperatura",
		LogLevel:                 "debug",
		LogFormat:                "text",
		OTelServiceName:          "diadesorte-test",
		OTelExporterType:         "none",
		OTelExportIntervalMillis: 1000,
	}
}
