package testutil

import (
	"time"

	"github.com/gridpoint/meter-export/internal/domain/model"
)

// ExportRequestBuilder provides a fluent interface for building
// CreateExportRequest objects for testing.
type ExportRequestBuilder struct {
	req *model.CreateExportRequest
}

// NewExportRequest creates a new ExportRequestBuilder with sensible defaults:
// a known meter and a one-day window ending an hour ago.
func NewExportRequest() *ExportRequestBuilder {
	end := time.Now().Add(-time.Hour).Truncate(time.Minute)
	return &ExportRequestBuilder{
		req: &model.CreateExportRequest{
			MeterID:   "1001",
			StartTime: end.Add(-24 * time.Hour),
			EndTime:   end,
			Format:    model.FormatCSV,
		},
	}
}

// WithMeterID sets the meter id.
func (b *ExportRequestBuilder) WithMeterID(meterID string) *ExportRequestBuilder {
	b.req.MeterID = meterID
	return b
}

// WithWindow sets the export window.
func (b *ExportRequestBuilder) WithWindow(start, end time.Time) *ExportRequestBuilder {
	b.req.StartTime = start
	b.req.EndTime = end
	return b
}

// WithFormat sets the export format.
func (b *ExportRequestBuilder) WithFormat(format model.ExportFormat) *ExportRequestBuilder {
	b.req.Format = format
	return b
}

// Build returns the constructed CreateExportRequest.
func (b *ExportRequestBuilder) Build() *model.CreateExportRequest {
	return b.req
}

// JobBuilder provides a fluent interface for building ExportJob rows for testing.
type JobBuilder struct {
	job *model.ExportJob
}

// NewJob creates a new JobBuilder with a pending CSV job.
func NewJob() *JobBuilder {
	now := time.Now().UTC().Truncate(time.Second)
	return &JobBuilder{
		job: &model.ExportJob{
			ID:        "11111111-2222-3333-4444-555555555555",
			MeterID:   "1001",
			StartTime: now.Add(-25 * time.Hour),
			EndTime:   now.Add(-time.Hour),
			Format:    model.FormatCSV,
			Status:    model.JobStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// WithID sets the job id.
func (b *JobBuilder) WithID(id string) *JobBuilder {
	b.job.ID = id
	return b
}

// WithMeterID sets the meter id.
func (b *JobBuilder) WithMeterID(meterID string) *JobBuilder {
	b.job.MeterID = meterID
	return b
}

// WithFormat sets the export format.
func (b *JobBuilder) WithFormat(format model.ExportFormat) *JobBuilder {
	b.job.Format = format
	return b
}

// WithStatus sets the job status.
func (b *JobBuilder) WithStatus(status model.JobStatus) *JobBuilder {
	b.job.Status = status
	return b
}

// WithProgress sets the stored progress percentage.
func (b *JobBuilder) WithProgress(pct int) *JobBuilder {
	b.job.Progress = pct
	return b
}

// Completed marks the job completed with artifact details.
func (b *JobBuilder) Completed(filePath string, records int, size int64) *JobBuilder {
	b.job.Status = model.JobStatusCompleted
	b.job.Progress = 100
	b.job.FilePath = &filePath
	b.job.RecordCount = &records
	b.job.FileSizeBytes = &size
	return b
}

// Failed marks the job failed with an error code and message.
func (b *JobBuilder) Failed(code, message string) *JobBuilder {
	b.job.Status = model.JobStatusFailed
	b.job.ErrorCode = &code
	b.job.ErrorMessage = &message
	return b
}

// Build returns the constructed ExportJob.
func (b *JobBuilder) Build() *model.ExportJob {
	return b.job
}
