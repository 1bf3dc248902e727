// Package model defines the core data types and structures used throughout the meter export system.
package model

import (
	"fmt"
	"strings"
	"time"
)

// JobStatus represents the current status of an export job.
type JobStatus string

// ExportFormat represents the serialization format of an export artifact.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type ExportFormat string

const (
	// JobStatusPending indicates a job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusInProgress indicates a job is currently being processed.
	JobStatusInProgress JobStatus = "in_progress"
	// JobStatusCompleted indicates a job has finished successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates a job has failed to complete.
	JobStatusFailed JobStatus = "failed"

	// FormatCSV serializes readings as comma-separated values.
	FormatCSV ExportFormat = "csv"
	// FormatJSON serializes readings as a single JSON document.
	FormatJSON ExportFormat = "json"
	// FormatXML serializes readings as a pretty-printed XML document.
	FormatXML ExportFormat = "xml"
)

// Job-level error codes persisted on FAILED jobs.
const (
	// ErrCodeMeterNotFound indicates the meter id failed the generator precondition check.
	ErrCodeMeterNotFound = "METER_NOT_FOUND"
	// ErrCodeUnsupportedFormat indicates the stored format has no registered serializer.
	ErrCodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	// ErrCodeExportFailed is the catch-all for serialization and storage failures.
	ErrCodeExportFailed = "EXPORT_FAILED"
)

// Valid returns true if the JobStatus is valid.
func (s JobStatus) Valid() bool {
	return s == JobStatusPending || s == JobStatusInProgress ||
		s == JobStatusCompleted || s == JobStatusFailed
}

// Terminal returns true if no further transitions can occur from this status.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Valid returns true if the ExportFormat is valid.
func (f ExportFormat) Valid() bool {
	return f == FormatCSV || f == FormatJSON || f == FormatXML
}

// Ext returns the uncompressed file extension for the format.
func (f ExportFormat) Ext() string {
	return string(f)
}

// ContentType returns the media type served for artifacts of this format.
func (f ExportFormat) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/json"
	case FormatXML:
		return "application/xml"
	default:
		return "application/octet-stream"
	}
}

// UnmarshalText implements encoding.TextUnmarshaler for ExportFormat to allow env and JSON parsing.
func (f *ExportFormat) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	if v == "" {
		// Omitted format defaults to CSV at submission time.
		*f = ""
		return nil
	}
	ef := ExportFormat(v)
	if !ef.Valid() {
		return fmt.Errorf("invalid export format: %q", v)
	}
	*f = ef
	return nil
}

// ExportJob represents one export request tracked from submission to terminal outcome.
//
// Artifact fields (FilePath, RecordCount, FileSizeBytes) are set only once the
// job is COMPLETED; error fields (ErrorCode, ErrorMessage) only once FAILED.
// Exactly one of the two groups is ever populated.
type ExportJob struct {
	ID            string       `json:"id"                        db:"id"`
	MeterID       string       `json:"meter_id"                  db:"meter_id"`
	StartTime     time.Time    `json:"start_datetime"            db:"start_datetime"`
	EndTime       time.Time    `json:"end_datetime"              db:"end_datetime"`
	Format        ExportFormat `json:"format"                    db:"format"`
	Status        JobStatus    `json:"status"                    db:"status"`
	Progress      int          `json:"progress"                  db:"progress"`
	FilePath      *string      `json:"file_path,omitempty"       db:"file_path"`
	RecordCount   *int         `json:"record_count,omitempty"    db:"record_count"`
	FileSizeBytes *int64       `json:"file_size_bytes,omitempty" db:"file_size_bytes"`
	ErrorCode     *string      `json:"error_code,omitempty"      db:"error_code"`
	ErrorMessage  *string      `json:"error_message,omitempty"   db:"error_message"`
	CreatedAt     time.Time    `json:"created_at"                db:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"                db:"updated_at"`
}

// JobListOptions holds filters and pagination for listing a meter's jobs.
type JobListOptions struct {
	MeterID string
	Limit   int
	Offset  int
}

// JobPage is one pagination window over a meter's jobs plus the total match count.
// Total reflects all matching jobs regardless of the window.
type JobPage struct {
	Jobs  []*ExportJob
	Total int
}
