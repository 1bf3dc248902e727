package model

import "time"

// FileInfo describes a finished artifact, attached to COMPLETED job views.
type FileInfo struct {
	Filename      string       `json:"filename"`
	DownloadURL   string       `json:"download_url"`
	FileSizeBytes int64        `json:"file_size_bytes"`
	RecordCount   int          `json:"record_count"`
	ExportPeriod  ExportPeriod `json:"export_period"`
}

// ExportPeriod is the originally requested time range.
type ExportPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ErrorInfo describes a failure, attached to FAILED job views.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}

// JobStatusView is the client-facing status of a job.
//
// Progress is attached only while the job is IN_PROGRESS; PENDING jobs report
// no progress field even though the stored value is zero. That convention is
// held as an invariant.
type JobStatusView struct {
	JobID     string     `json:"job_id"`
	Status    JobStatus  `json:"status"`
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Progress  *int       `json:"progress_percentage,omitempty"`
	FileInfo  *FileInfo  `json:"file_info,omitempty"`
	Error     *ErrorInfo `json:"error,omitempty"`
}

// SubmitView is the response to a successful submission.
type SubmitView struct {
	JobID   string    `json:"job_id"`
	Status  JobStatus `json:"status"`
	Message string    `json:"message"`
}

// HistoryItem is one entry in a meter's export history.
type HistoryItem struct {
	JobID     string       `json:"job_id"`
	MeterID   string       `json:"meter_id"`
	Status    JobStatus    `json:"status"`
	Format    ExportFormat `json:"format"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	StartTime time.Time    `json:"start_datetime"`
	EndTime   time.Time    `json:"end_datetime"`
	FileInfo  *FileInfo    `json:"file_info,omitempty"`
}

// HistoryView is a pagination window over a meter's export history.
// TotalExports counts all of the meter's jobs regardless of the window.
type HistoryView struct {
	MeterID      string        `json:"meter_id"`
	TotalExports int           `json:"total_exports"`
	Exports      []HistoryItem `json:"exports"`
}
