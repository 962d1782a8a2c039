package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"spendview/internal/catalog"
)

type Config struct {
	// HTTP Server
	Port     string
	LogLevel string

	// Database. Host and name are fixed; credentials come from the user on every pass.
	DBDriver         string
	DBHost           string
	DBPort           int
	DBName           string
	DBSSLMode        string
	SQLiteDBPath     string
	DBConnectTimeout time.Duration
	QueryTimeout     time.Duration

	// AMQP audit events (optional)
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string

	// Audit worker
	AMQPQueue            string
	AMQPPrefetch         int
	AuditSummaryInterval time.Duration

	// Google Sheets export (optional)
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	// Security
	RateLimitPerMinute int
	TrustedProxies     []string
}

func Load() *Config {
	cfg := &Config{
		Port:     getEnv("PORT", "8081"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBDriver:         getEnv("DB_DRIVER", "mysql"),
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBPort:           getEnvInt("DB_PORT", 0),
		DBName:           getEnv("DB_NAME", "analyze_personal_expenses"),
		DBSSLMode:        getEnv("DB_SSLMODE", ""),
		SQLiteDBPath:     getEnv("SQLITE_DB_PATH", "./data/spendview.db"),
		DBConnectTimeout: getEnvDuration("DB_CONNECT_TIMEOUT", 10*time.Second),
		QueryTimeout:     getEnvDuration("QUERY_TIMEOUT", 30*time.Second),

		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "spendview"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "query.executed"),

		AMQPQueue:            getEnv("AMQP_QUEUE", "spendview.audit"),
		AMQPPrefetch:         getEnvInt("AMQP_PREFETCH", 10),
		AuditSummaryInterval: getEnvDuration("AUDIT_SUMMARY_INTERVAL", 5*time.Minute),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Spendview"),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		TrustedProxies:     getEnvList("TRUSTED_PROXIES"),
	}

	if cfg.DBPort == 0 {
		cfg.DBPort = defaultPort(cfg.DBDriver)
	}

	return cfg
}

// Dialect returns the SQL dialect for DBDriver. Call Validate first.
func (c *Config) Dialect() catalog.Dialect {
	d, _ := catalog.ParseDialect(c.DBDriver)
	return d
}

// SheetsEnabled reports whether the Google Sheets export is configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate database
	dialect, err := catalog.ParseDialect(c.DBDriver)
	if err != nil {
		errors = append(errors, fmt.Sprintf("invalid database driver '%s': must be one of %v", c.DBDriver, catalog.Dialects))
	}
	if err == nil && dialect == catalog.SQLite {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using the sqlite driver")
		}
	} else if err == nil {
		if c.DBHost == "" {
			errors = append(errors, "database host cannot be empty")
		}
		if c.DBName == "" {
			errors = append(errors, "database name cannot be empty")
		}
		if c.DBPort < 1 || c.DBPort > 65535 {
			errors = append(errors, fmt.Sprintf("invalid database port %d: must be between 1 and 65535", c.DBPort))
		}
	}

	if c.DBConnectTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid connect timeout %v: must be at least 1 second", c.DBConnectTimeout))
	}
	if c.QueryTimeout < 0 {
		errors = append(errors, fmt.Sprintf("invalid query timeout %v: must not be negative", c.QueryTimeout))
	} else if c.QueryTimeout > 10*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid query timeout %v: must be at most 10 minutes", c.QueryTimeout))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}
	if c.AMQPPrefetch < 0 {
		errors = append(errors, fmt.Sprintf("invalid AMQP prefetch %d: must not be negative", c.AMQPPrefetch))
	}
	if c.AuditSummaryInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid audit summary interval %v: must be at least 1 second", c.AuditSummaryInterval))
	}

	// Validate Google Sheets configuration if export is enabled
	if c.SheetsEnabled() {
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when GOOGLE_SPREADSHEET_ID is set")
		}

		hasFile := c.GoogleServiceAccountFile != ""
		hasJSON := c.GoogleServiceAccountJSON != ""
		if !hasFile && !hasJSON {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for the sheets export")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 per minute", c.RateLimitPerMinute))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func defaultPort(driver string) int {
	d, err := catalog.ParseDialect(driver)
	if err != nil {
		return 0
	}
	switch d {
	case catalog.Postgres:
		return 5432
	case catalog.MySQL:
		return 3306
	}
	return 0
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
