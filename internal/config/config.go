package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"invoiceaudit/internal/logger"
)

// Config carries every tunable of an audit run. All values come from the
// environment (optionally via a .env file loaded in main); nothing in the
// pipeline invents a tolerance or locale on its own.
type Config struct {
	// Matching
	AmountTolerance   decimal.Decimal // absolute amount tolerance (currency rounding)
	DateToleranceDays int             // allowed day difference for date agreement
	VendorMinScore    int             // minimum fuzzy similarity score (0-100) for vendor agreement
	DuplicateScope    string          // "batch" or "source"

	// Extraction
	DateLocale      string   // "dmy" or "mdy": resolves ambiguous numeric dates
	ExtraDateLayout []string // additional Go date layouts accepted by the extractor

	// Text acquisition
	Engine       string   // "auto", "native", "tesseract", "vision"
	OCRLanguages []string // tesseract language codes
	OCRDPI       float64  // rasterization DPI for OCR

	// Batch
	Workers int

	// Logging
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	tolerance, err := decimal.NewFromString(getEnv("MATCH_AMOUNT_TOLERANCE", "0.01"))
	if err != nil {
		return nil, fmt.Errorf("invalid MATCH_AMOUNT_TOLERANCE: %w", err)
	}

	dpi, err := strconv.ParseFloat(getEnv("OCR_DPI", "300"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid OCR_DPI: %w", err)
	}

	config := &Config{
		AmountTolerance:   tolerance,
		DateToleranceDays: getEnvInt("MATCH_DATE_TOLERANCE_DAYS", 0),
		VendorMinScore:    getEnvInt("MATCH_VENDOR_MIN_SCORE", 70),
		DuplicateScope:    getEnv("DUPLICATE_SCOPE", "batch"),
		DateLocale:        getEnv("DATE_LOCALE", "dmy"),
		ExtraDateLayout:   getEnvList("DATE_FORMATS"),
		Engine:            getEnv("OCR_ENGINE", "auto"),
		OCRLanguages:      getEnvList("OCR_LANGUAGES"),
		OCRDPI:            dpi,
		Workers:           getEnvInt("BATCH_WORKERS", 4),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:     getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:         getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.AmountTolerance.IsNegative() {
		return fmt.Errorf("MATCH_AMOUNT_TOLERANCE must not be negative")
	}
	if c.DateToleranceDays < 0 {
		return fmt.Errorf("MATCH_DATE_TOLERANCE_DAYS must not be negative")
	}
	if c.VendorMinScore < 0 || c.VendorMinScore > 100 {
		return fmt.Errorf("MATCH_VENDOR_MIN_SCORE must be in [0,100]")
	}
	switch c.DuplicateScope {
	case "batch", "source":
	default:
		return fmt.Errorf("DUPLICATE_SCOPE must be 'batch' or 'source', got %q", c.DuplicateScope)
	}
	switch c.DateLocale {
	case "dmy", "mdy":
	default:
		return fmt.Errorf("DATE_LOCALE must be 'dmy' or 'mdy', got %q", c.DateLocale)
	}
	switch c.Engine {
	case "auto", "native", "tesseract", "vision":
	default:
		return fmt.Errorf("OCR_ENGINE must be one of auto, native, tesseract, vision, got %q", c.Engine)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("BATCH_WORKERS must be positive")
	}
	if c.OCRDPI < 72 || c.OCRDPI > 1200 {
		return fmt.Errorf("OCR_DPI must be in [72,1200]")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
