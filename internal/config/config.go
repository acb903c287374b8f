package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Email     EmailConfig
	Scheduler SchedulerConfig
	LogLevel  string
	Env       string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// EmailConfig holds delivery API client configuration
type EmailConfig struct {
	BaseURL          string
	RequestTimeout   time.Duration
	MaxRetries       int
	RetryDelay       time.Duration
	BreakerThreshold int
	BreakerReset     time.Duration
}

// SchedulerConfig holds the cadences and processing knobs of the core engine
type SchedulerConfig struct {
	CheckInterval   time.Duration // materialiser cadence, from BIRTHDAY_CHECK_CRON
	ProcessInterval time.Duration // due-processor cadence
	MessageHour     int           // local wall-clock send hour
	MessageMinute   int           // local wall-clock send minute
	LeaseDuration   time.Duration
	BatchLimit      int
	MaxRetries      int // per-record terminal failure budget
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			User:     getEnv("POSTGRES_USER", "birthdays"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			DBName:   getEnv("POSTGRES_DB", "birthdays_db"),
		},
		Email: EmailConfig{
			BaseURL:          getEnv("EMAIL_SERVICE_URL", ""),
			RequestTimeout:   getEnvAsMillis("EMAIL_SERVICE_TIMEOUT", 10000),
			MaxRetries:       getEnvAsInt("EMAIL_SERVICE_MAX_RETRIES", 3),
			RetryDelay:       getEnvAsMillis("EMAIL_SERVICE_RETRY_DELAY", 2000),
			BreakerThreshold: getEnvAsInt("CIRCUIT_BREAKER_THRESHOLD", 5),
			BreakerReset:     getEnvAsMillis("CIRCUIT_BREAKER_RESET_MS", 60000),
		},
		Scheduler: SchedulerConfig{
			CheckInterval:   intervalFromCron(getEnv("BIRTHDAY_CHECK_CRON", "*/5 * * * *"), 5*time.Minute),
			ProcessInterval: getEnvAsMillis("MESSAGE_PROCESS_INTERVAL", 60000),
			MessageHour:     getEnvAsInt("BIRTHDAY_MESSAGE_HOUR", 9),
			MessageMinute:   getEnvAsInt("BIRTHDAY_MESSAGE_MINUTE", 0),
			LeaseDuration:   getEnvAsMillis("MESSAGE_LEASE_DURATION", 300000),
			BatchLimit:      getEnvAsInt("MESSAGE_BATCH_LIMIT", 100),
			MaxRetries:      getEnvAsInt("MESSAGE_MAX_RETRIES", 3),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Env:      getEnv("ENV", "development"),
	}

	// Validate required fields
	if config.Database.Password == "" {
		return nil, fmt.Errorf("POSTGRES_PASSWORD is required")
	}
	if config.Email.BaseURL == "" {
		return nil, fmt.Errorf("EMAIL_SERVICE_URL is required")
	}
	if config.Scheduler.MessageHour < 0 || config.Scheduler.MessageHour > 23 {
		return nil, fmt.Errorf("BIRTHDAY_MESSAGE_HOUR must be between 0 and 23")
	}
	if config.Scheduler.MessageMinute < 0 || config.Scheduler.MessageMinute > 59 {
		return nil, fmt.Errorf("BIRTHDAY_MESSAGE_MINUTE must be between 0 and 59")
	}

	return config, nil
}

// GetDatabaseDSN returns PostgreSQL connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// intervalFromCron converts a "*/N * * * *" cron expression into a minute
// interval. The engine only needs a cadence, not full cron semantics; anything
// the minimal parser does not understand falls back to def.
func intervalFromCron(expr string, def time.Duration) time.Duration {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return def
	}
	minute := fields[0]
	if minute == "*" {
		return time.Minute
	}
	if strings.HasPrefix(minute, "*/") {
		if n, err := strconv.Atoi(minute[2:]); err == nil && n > 0 {
			return time.Duration(n) * time.Minute
		}
	}
	return def
}

// getEnv gets environment variable or returns default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets environment variable as integer or returns default
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsMillis gets environment variable as a millisecond duration
func getEnvAsMillis(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultValue)) * time.Millisecond
}
