package common

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	LLM     LLMConfig
	PDF     PDFConfig
	Server  ServerConfig
	Journal JournalConfig
	Log     LogConfig
}

// LLMConfig holds model provider configuration
type LLMConfig struct {
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
}

// PDFConfig selects how report text is pulled out of PDFs
type PDFConfig struct {
	Method    string // fitz | pdftotext | native
	Pdftotext string
	MaxPages  int
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr    string
	GRPCAddr    string
	MaxUploadMB int
	Timeout     time.Duration
}

// JournalConfig points at the optional run journal database
type JournalConfig struct {
	DSN string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level slog.Level
}

// LoadConfig loads configuration from environment variables. A .env file in the
// working directory is read first if present; real environment values win.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		LLM: LLMConfig{
			BaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			Model:   getEnv("OPENROUTER_MODEL", "mistralai/mistral-7b-instruct"),
			APIKey:  getEnv("OPENROUTER_API_KEY", ""),
			Timeout: getEnvAsDuration("OPENROUTER_TIMEOUT", 120*time.Second),
		},
		PDF: PDFConfig{
			Method:    getEnv("PDF_EXTRACTOR", "fitz"),
			Pdftotext: getEnv("PDFTOTEXT_BIN", "pdftotext"),
			MaxPages:  getEnvAsInt("PDF_MAX_PAGES", 0),
		},
		Server: ServerConfig{
			HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
			GRPCAddr:    getEnv("GRPC_ADDR", ":9090"),
			MaxUploadMB: getEnvAsInt("MAX_UPLOAD_MB", 32),
			Timeout:     getEnvAsDuration("HTTP_TIMEOUT", 3*time.Minute),
		},
		Journal: JournalConfig{
			DSN: getEnv("RUN_DB_URL", ""),
		},
		Log: LogConfig{
			Level: getEnvAsLevel("LOG_LEVEL", slog.LevelInfo),
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

func getEnvAsLevel(key string, defaultValue slog.Level) slog.Level {
	if value := os.Getenv(key); value != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(strings.ToUpper(value))); err == nil {
			return lvl
		}
	}
	return defaultValue
}

// MaxUploadBytes is the per-file upload limit.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}

// Validate checks the settings that would otherwise fail late and confusingly.
// The API key is deliberately not required here: a missing key surfaces as a
// provider error on the first model call.
func (c *Config) Validate() error {
	switch c.PDF.Method {
	case "fitz", "pdftotext", "native":
	default:
		return NewAppError("CONFIG_ERROR", "PDF_EXTRACTOR must be one of fitz, pdftotext, native", ErrInvalidInput)
	}
	if c.Server.MaxUploadMB <= 0 {
		return NewAppError("CONFIG_ERROR", "MAX_UPLOAD_MB must be positive", ErrInvalidInput)
	}
	if strings.TrimSpace(c.LLM.BaseURL) == "" {
		return NewAppError("CONFIG_ERROR", "OPENROUTER_BASE_URL is required", ErrInvalidInput)
	}
	return nil
}

// NewLogger builds the JSON slog logger used by every binary.
func NewLogger(cfg LogConfig) *slog.Logger {
	return NewLoggerTo(os.Stdout, cfg)
}

// NewLoggerTo is NewLogger writing to w; the CLI logs to stderr so stdout
// stays clean for command output.
func NewLoggerTo(w io.Writer, cfg LogConfig) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.Level}))
}
