package entity

import (
	"time"

	"github.com/google/uuid"
)

// Run represents one generation run for data transfer between layers.
// It never carries report text or extracted values.
type Run struct {
	ID              uuid.UUID  `json:"id"`
	TemplateName    string     `json:"template_name"`
	ReportName      string     `json:"report_name"`
	Variant         *string    `json:"variant,omitempty"`
	Status          string     `json:"status"`
	ErrorMessage    *string    `json:"error_message,omitempty"`
	ModelName       *string    `json:"model_name,omitempty"`
	FieldsExtracted int        `json:"fields_extracted"`
	TokensReplaced  int        `json:"tokens_replaced"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
}
