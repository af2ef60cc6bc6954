package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/joseph-ayodele/glr-generator/internal/common"
	"github.com/joseph-ayodele/glr-generator/internal/llm"
)

type errorBody struct {
	Error          string `json:"error"`
	Message        string `json:"message"`
	RequestID      string `json:"request_id,omitempty"`
	ProviderStatus int    `json:"provider_status,omitempty"`
	ProviderBody   string `json:"provider_body,omitempty"`
}

// statusFor maps pipeline errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrTemplateUnknown):
		return http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrModelCall):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// outcomeFor names an error for the generations metric.
func outcomeFor(err error) string {
	switch statusFor(err) {
	case http.StatusBadRequest:
		return "invalid_upload"
	case http.StatusUnprocessableEntity:
		return "unknown_template"
	case http.StatusBadGateway:
		return "model_error"
	default:
		return "error"
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := errorBody{
		Error:     common.ErrorCode(err),
		Message:   err.Error(),
		RequestID: common.RequestIDFromContext(r.Context()),
	}
	if body.Error == "" {
		body.Error = http.StatusText(status)
	}

	var callErr *llm.CallError
	if errors.As(err, &callErr) {
		body.ProviderStatus = callErr.Status
		body.ProviderBody = callErr.Body
	}
	if status == http.StatusInternalServerError {
		// internals stay in the log
		body.Message = "internal error"
	}

	log := common.LoggerFrom(r.Context(), s.logger)
	if status >= 500 {
		log.Error("http.request.failed", "status", status, "error", err)
	} else {
		log.Warn("http.request.rejected", "status", status, "error", err)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
