package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrTemplateUnknown = errors.New("template format not recognized")
	ErrModelCall       = errors.New("model call failed")
	ErrInternal        = errors.New("internal error")
)

// Error codes carried by AppError.
const (
	CodeInvalidUpload   = "INVALID_UPLOAD"
	CodeUnknownTemplate = "UNKNOWN_TEMPLATE"
	CodeModelCall       = "MODEL_CALL_FAILED"
	CodeDocument        = "DOCUMENT_ERROR"
	CodeReport          = "REPORT_ERROR"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// ErrorCode returns the code of the outermost AppError in err's chain, or "".
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
