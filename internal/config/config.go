package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration loaded from environment variables.
// Command-line flags override the values after Load.
type Config struct {
	InputPath             string
	OutputPath            string
	JoinedPath            string
	APIBaseURL            string
	CompanyID             string
	PageSize              int
	Pages                 int
	HTTPTimeout           time.Duration
	Strict                bool
	XLSXPath              string
	DatabaseURL           string
	SpreadsheetID         string
	GoogleCredentialsJSON string
	WatchInterval         time.Duration
	LogLevel              string
}

const (
	DefaultJoinedPath  = "latest_agent_holdings_with_details.csv"
	DefaultSummaryPath = "total_shares_and_summed_percentage_by_country_sorted.csv"
	DefaultAPIBaseURL  = "https://iu.api.savr.com"
	DefaultCompanyID   = "01934971-ebc2-719e-9ebe-90b0749f7de6"
)

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		InputPath:             envOrDefault("INPUT_PATH", DefaultJoinedPath),
		OutputPath:            envOrDefault("OUTPUT_PATH", DefaultSummaryPath),
		JoinedPath:            envOrDefault("JOINED_PATH", DefaultJoinedPath),
		APIBaseURL:            envOrDefault("API_BASE_URL", DefaultAPIBaseURL),
		CompanyID:             envOrDefault("COMPANY_ID", DefaultCompanyID),
		PageSize:              envOrDefaultInt("PAGE_SIZE", 25),
		Pages:                 envOrDefaultInt("PAGES", 2),
		HTTPTimeout:           envOrDefaultDuration("HTTP_TIMEOUT", 30*time.Second),
		Strict:                envOrDefaultBool("STRICT", false),
		XLSXPath:              envOrDefault("XLSX_PATH", ""),
		DatabaseURL:           envOrDefault("DATABASE_URL", ""),
		SpreadsheetID:         envOrDefault("GOOGLE_SPREADSHEET_ID", ""),
		GoogleCredentialsJSON: envOrDefault("GOOGLE_CREDENTIALS_JSON", ""),
		WatchInterval:         envOrDefaultDuration("WATCH_INTERVAL", 24*time.Hour),
		LogLevel:              envOrDefault("LOG_LEVEL", "info"),
	}
}

// Validate reports settings that would make a fetch impossible.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.APIBaseURL) == "" {
		errs = append(errs, errors.New("API base URL is required"))
	}
	if strings.TrimSpace(c.CompanyID) == "" {
		errs = append(errs, errors.New("company id is required"))
	}
	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("page size must be positive, got %d", c.PageSize))
	}
	if c.Pages < 0 {
		errs = append(errs, fmt.Errorf("pages must be zero (follow all) or positive, got %d", c.Pages))
	}
	if c.SpreadsheetID != "" && c.GoogleCredentialsJSON == "" {
		errs = append(errs, errors.New("google credentials are required when a spreadsheet id is set"))
	}
	return errors.Join(errs...)
}

// SlogLevel maps LogLevel to a slog level, falling back to info.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		slog.Warn("invalid log level, using info", "value", c.LogLevel)
		return slog.LevelInfo
	}
	return level
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			slog.Warn("invalid boolean env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return b
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}
