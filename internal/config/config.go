package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"medscan/internal/logger"
)

type Config struct {
	// Gemini Configuration
	GeminiAPIKey string
	GeminiModel  string

	// OCR Configuration
	OCREngine    string   // "vision" or "tesseract"
	OCRLanguages []string // language hints, fixed at startup

	// Pipeline Configuration
	PageWorkers   int // concurrent page tasks; 0 means one per page
	TranscriptCap int // characters of transcript sent to the model
	ImportWidthPx int // fixed width imported PDF pages are scaled to
	JPEGQuality   int // encoding quality for artifact pages and model attachments
	DefaultOwner  string

	// Store Configuration
	StorePath string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		OCREngine:     getEnv("OCR_ENGINE", "vision"),
		OCRLanguages:  splitEnv("OCR_LANGUAGES", "en"),
		PageWorkers:   getIntEnv("PAGE_WORKERS", 0),
		TranscriptCap: getIntEnv("TRANSCRIPT_CAP", 25000),
		ImportWidthPx: getIntEnv("IMPORT_WIDTH_PX", 1200),
		JPEGQuality:   getIntEnv("JPEG_QUALITY", 90),
		DefaultOwner:  getEnv("MEDSCAN_OWNER", ""),
		StorePath:     getEnv("MEDSCAN_STORE", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "console"),
		LogTimeFormat: getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:     getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.OCREngine {
	case "vision", "tesseract":
	default:
		return fmt.Errorf("OCR_ENGINE must be \"vision\" or \"tesseract\", got %q", c.OCREngine)
	}
	if c.TranscriptCap <= 0 {
		return fmt.Errorf("TRANSCRIPT_CAP must be positive")
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("JPEG_QUALITY must be between 1 and 100")
	}
	if c.PageWorkers < 0 {
		return fmt.Errorf("PAGE_WORKERS must not be negative")
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

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func splitEnv(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
