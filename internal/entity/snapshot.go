package entity

import (
	"strings"
	"time"
)

// JobSnapshot is one structured employment fact derived from one successful
// extraction. Company/Position/Period keep the display casing the model
// produced; comparison always goes through NormalizeField.
type JobSnapshot struct {
	ID           int64     `json:"id"`
	ExtractionID int64     `json:"extraction_id"`
	SubjectRef   string    `json:"subject_ref"`
	DerivedAt    time.Time `json:"derived_at"`
	Found        bool      `json:"found"`
	Company      string    `json:"company,omitempty"`
	Position     string    `json:"position,omitempty"`
	Period       string    `json:"period,omitempty"`
	IsCurrent    bool      `json:"is_current"`
	ParseError   string    `json:"parse_error,omitempty"`
	RawResponse  string    `json:"raw_response,omitempty"`
}

// NormalizeField returns the trimmed, case-folded form of a free-text field.
// Used only for equality comparison, never for display.
func NormalizeField(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
