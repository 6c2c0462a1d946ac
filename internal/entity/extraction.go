package entity

import (
	"time"

	"github.com/d-melnychenko/jobwatch/constants"
)

// TokenUsage holds the token counts reported by the vision service for one
// call. Consumed by cost reporting only; zero values mean "not reported".
type TokenUsage struct {
	Input  int `json:"input"`
	Output int `json:"output"`
	Total  int `json:"total"`
}

// ExtractionRecord is one OCR attempt and its outcome, immutable once written.
// RawText is non-empty iff Status == SUCCESS; failures carry a Diagnostic
// string instead so repeated failures on the same subject stay auditable.
type ExtractionRecord struct {
	ID          int64                      `json:"id"`
	SubjectRef  string                     `json:"subject_ref"`
	RequestedAt time.Time                  `json:"requested_at"`
	Status      constants.ExtractionStatus `json:"status"`
	RawText     string                     `json:"raw_text,omitempty"`
	Diagnostic  string                     `json:"diagnostic,omitempty"`
	TokenUsage  TokenUsage                 `json:"token_usage"`
}
