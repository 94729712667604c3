package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a report job. Transitions follow the
// fixed order queued -> processing -> validation -> creating_violations ->
// completed, with failed reachable from any non-terminal state.
type JobStatus string

const (
	JobStatusQueued             JobStatus = "queued"
	JobStatusProcessing         JobStatus = "processing"
	JobStatusValidation         JobStatus = "validation"
	JobStatusCreatingViolations JobStatus = "creating_violations"
	JobStatusCompleted          JobStatus = "completed"
	JobStatusFailed             JobStatus = "failed"
)

// SourceAttribution identifies where a submitted report came from.
// Name is required whenever an attribution is supplied at all.
type SourceAttribution struct {
	Name       string  `json:"name" validate:"required"`
	URL        *string `json:"url,omitempty" validate:"omitempty,url"`
	ReportDate *string `json:"report_date,omitempty"`
}

// FailedViolation pairs a candidate that could not be saved with the reason.
// Entries come from both the validation stage and the persistence stage and
// are never removed from a job's record.
type FailedViolation struct {
	Violation Violation `json:"violation"`
	Error     string    `json:"error"`
}

// ReportJob represents one row of the report_jobs table. The nested results
// object exposed to API clients is flattened into independent columns so the
// pipeline stages can PATCH disjoint subsets without rewriting siblings.
type ReportJob struct {
	ID                      uuid.UUID          `json:"id"`
	ReportText              string             `json:"report_text"`
	SourceURL               *SourceAttribution `json:"source_url,omitempty"` // Nullable JSONB
	SubmittedBy             string             `json:"submitted_by"`
	Status                  JobStatus          `json:"status"`
	Progress                int                `json:"progress"`
	EstimatedProcessingTime string             `json:"estimated_processing_time"`
	ErrorMessage            *string            `json:"error_message,omitempty"` // Nullable TEXT
	ParsedViolationsCount   int                `json:"parsed_violations_count"`
	CreatedViolationsCount  int                `json:"created_violations_count"`
	ViolationIDs            []uuid.UUID        `json:"violation_ids,omitempty"`     // Nullable JSONB
	FailedViolations        []FailedViolation  `json:"failed_violations,omitempty"` // Nullable JSONB
	CreatedAt               time.Time          `json:"created_at,omitempty"`
	UpdatedAt               time.Time          `json:"updated_at,omitempty"`
}

// processingWordsPerMinute is the assumed extraction throughput used for the
// display-only time estimate shown to polling clients.
const processingWordsPerMinute = 200

// EstimateProcessingTime derives the display string stored on a job at
// creation from the word count of the report text. It is never recomputed.
// The unit is always plural ("1 minutes") to match the stored historical rows.
func EstimateProcessingTime(reportText string) string {
	words := len(strings.Fields(reportText))
	minutes := (words + processingWordsPerMinute - 1) / processingWordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d minutes", minutes)
}
