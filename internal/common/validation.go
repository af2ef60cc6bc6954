package common

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/joseph-ayodele/glr-generator/constants"
)

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
}

// Upload is a named file handed to us by a user.
type Upload struct {
	Name string
	Data []byte
}

// Validator provides validation utilities
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		errors: make([]ValidationError, 0),
	}
}

// Field validates a field and collects errors
func (v *Validator) Field(fieldName string, value interface{}, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors
func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// ErrorMessage returns a combined error message as string
func (v *Validator) ErrorMessage() string {
	if !v.HasErrors() {
		return ""
	}

	var messages []string
	for _, err := range v.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// Err returns an AppError wrapping ErrInvalidInput, or nil when everything passed.
func (v *Validator) Err() error {
	if !v.HasErrors() {
		return nil
	}
	return NewAppError(CodeInvalidUpload, v.ErrorMessage(), ErrInvalidInput)
}

// ValidationRule represents a single validation rule
type ValidationRule func(fieldName string, value interface{}) *ValidationError

// Required rejects nil values, blank strings and empty uploads.
func Required(fieldName string, value interface{}) *ValidationError {
	if value == nil {
		return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
	}

	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
		}
	case []byte:
		if len(v) == 0 {
			return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
		}
	case Upload:
		if len(v.Data) == 0 {
			return &ValidationError{Field: fieldName, Value: v.Name, Message: "is required"}
		}
	}
	return nil
}

// MaxBytes limits the size of an upload.
func MaxBytes(limit int64) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		u, ok := value.(Upload)
		if !ok || limit <= 0 {
			return nil
		}
		if int64(len(u.Data)) > limit {
			return &ValidationError{
				Field:   fieldName,
				Value:   u.Name,
				Message: fmt.Sprintf("must be at most %d bytes", limit),
			}
		}
		return nil
	}
}

// Format checks the upload name's extension maps to the wanted format (constants.DOCX / constants.PDF).
// Uploads without a name are let through; content sniffing still applies.
func Format(format string) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		u, ok := value.(Upload)
		if !ok || u.Name == "" {
			return nil
		}
		if constants.MapExtToFormat(filepath.Ext(u.Name)) != format {
			return &ValidationError{
				Field:   fieldName,
				Value:   u.Name,
				Message: fmt.Sprintf("must be a .%s file", strings.ToLower(format)),
			}
		}
		return nil
	}
}

// Content sniffs the upload bytes and requires the given MIME type.
func Content(mimeType string) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		u, ok := value.(Upload)
		if !ok || len(u.Data) == 0 {
			return nil
		}
		detected := mimetype.Detect(u.Data)
		if !detected.Is(mimeType) {
			return &ValidationError{
				Field:   fieldName,
				Value:   u.Name,
				Message: fmt.Sprintf("content looks like %s, want %s", detected.String(), mimeType),
			}
		}
		return nil
	}
}

// ValidateUploads applies the standard rules to a template/report pair. A nil
// report skips the report checks (template-only operations such as detection).
func ValidateUploads(template Upload, report *Upload, maxBytes int64) error {
	v := NewValidator()
	v.Field("template", template, Required, MaxBytes(maxBytes), Format(constants.DOCX), Content(constants.MIMEDocx))
	if report != nil {
		v.Field("report", *report, Required, MaxBytes(maxBytes), Format(constants.PDF), Content(constants.MIMEPDF))
	}
	return v.Err()
}
