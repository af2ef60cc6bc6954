package llm

import (
	"context"
	"fmt"

	"github.com/joseph-ayodele/glr-generator/internal/common"
)

// Client sends one prompt to a language model and returns its text reply.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CallError is returned when the provider answers with a non-2xx status or an
// unusable body. Body is the raw provider response.
type CallError struct {
	Status int
	Body   string
	Cause  error
}

func (e *CallError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("model call failed: status %d: %s", e.Status, e.Body)
	}
	if e.Cause != nil {
		return fmt.Sprintf("model call failed: %v", e.Cause)
	}
	return "model call failed"
}

func (e *CallError) Unwrap() []error {
	if e.Cause != nil {
		return []error{common.ErrModelCall, e.Cause}
	}
	return []error{common.ErrModelCall}
}
