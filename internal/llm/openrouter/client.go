package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/glr-generator/internal/common"
	"github.com/joseph-ayodele/glr-generator/internal/llm"
)

var _ llm.Client = (*Client)(nil)

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// Complete sends prompt as a single user message and returns the content of
// the first choice. Failures come back as *llm.CallError with the raw body.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	log := common.LoggerFrom(ctx, c.logger)
	start := time.Now()

	log.Info("llm.complete.start",
		"model", c.cfg.Model,
		"prompt_len", len(prompt),
	)

	body := chatRequest{
		Model:    c.cfg.Model,
		Messages: []message{{Role: "user", Content: prompt}},
	}
	headers := map[string]string{
		"Authorization": "Bearer " + c.cfg.APIKey,
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, status, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, log)
	if err != nil {
		log.Error("llm.complete.http_error",
			"status", status, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}

	if err := llm.ValidateChatCompletion(raw); err != nil {
		log.Error("llm.complete.schema_validation_failed",
			"error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", &llm.CallError{Status: status, Body: string(raw), Cause: err}
	}

	var cc chatResponse
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", &llm.CallError{Status: status, Body: string(raw), Cause: fmt.Errorf("decode response: %w", err)}
	}
	content := cc.Choices[0].Message.Content

	log.Info("llm.complete.ok",
		"model", c.cfg.Model,
		"reply_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}
