package openrouter

import (
	"log/slog"
	"net/http"
	"time"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "mistralai/mistral-7b-instruct"
)

// Config for the OpenRouter client. The API key is always passed in; the
// client never reads the environment itself.
type Config struct {
	APIKey  string
	BaseURL string        // default https://openrouter.ai/api/v1
	Model   string        // default mistralai/mistral-7b-instruct
	Timeout time.Duration // http client timeout
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Model returns the model name requests are sent with.
func (c *Client) Model() string {
	return c.cfg.Model
}
