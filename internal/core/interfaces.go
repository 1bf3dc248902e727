// Package core provides the ports between the service layer and its adapters.
package core

import (
	"context"
	"io"
	"time"

	"github.com/gridpoint/meter-export/internal/domain/model"
)

// This file contains repository and adapter interface definitions (ports in
// hexagonal architecture). Service implementations should depend on these
// interfaces, not concrete implementations.

// CreateJobParams groups parameters for JobRepository.Create.
type CreateJobParams struct {
	MeterID   string
	StartTime time.Time
	EndTime   time.Time
	Format    model.ExportFormat
}

// CompleteJobParams groups the artifact fields committed with the COMPLETED transition.
type CompleteJobParams struct {
	FilePath      string
	RecordCount   int
	FileSizeBytes int64
}

// FailJobParams groups the error fields committed with the FAILED transition.
type FailJobParams struct {
	Code    string
	Message string
}

// JobRepository defines the interface for export job data operations.
//
// MarkInProgress, Complete and Fail are conditional updates keyed on the
// job's prior status; they return false when the transition did not apply
// (e.g. a duplicate delivery racing a terminal commit). Terminal transitions
// therefore happen exactly once per job.
type JobRepository interface {
	Create(ctx context.Context, params CreateJobParams) (*model.ExportJob, error)
	GetByID(ctx context.Context, id string) (*model.ExportJob, error)
	MarkInProgress(ctx context.Context, id string) (bool, error)
	// SetProgress persists a progress percentage. The stored value never
	// decreases and is only written while the job is IN_PROGRESS.
	SetProgress(ctx context.Context, id string, pct int) error
	Complete(ctx context.Context, id string, params CompleteJobParams) (bool, error)
	Fail(ctx context.Context, id string, params FailJobParams) (bool, error)
	ListByMeter(ctx context.Context, opts model.JobListOptions) (*model.JobPage, error)
}

// Task is one delivery envelope on the task transport.
type Task struct {
	JobID   string `json:"job_id"`
	Attempt int    `json:"attempt"`
}

// TaskQueue defines the at-least-once task transport between submission and
// the worker pool. Duplicate delivery is expected; consumers must be
// idempotent.
type TaskQueue interface {
	// Enqueue schedules processing for a job id.
	Enqueue(ctx context.Context, jobID string) error
	// Dequeue blocks up to the transport's configured timeout and returns
	// the next task, or (nil, nil) when none arrived in time.
	Dequeue(ctx context.Context) (*Task, error)
	// Retry redelivers a failed task according to the transport's retry
	// policy. It returns false when attempts are exhausted and the task was
	// dead-lettered instead.
	Retry(ctx context.Context, task Task) (bool, error)
	Health(ctx context.Context) error
}

// GenerateParams groups parameters for ReadingGenerator.Generate.
type GenerateParams struct {
	MeterID string
	Start   time.Time
	End     time.Time
}

// ReadingGenerator produces the metering time series for an export.
// Readings are chronologically ascending, one per sampling interval.
type ReadingGenerator interface {
	// Validate reports whether the meter id is known to the generator.
	Validate(ctx context.Context, meterID string) (bool, error)
	Generate(ctx context.Context, params GenerateParams) ([]model.Reading, error)
}

// ArtifactSpec identifies an artifact by its deterministic inputs.
type ArtifactSpec struct {
	MeterID string
	Start   time.Time
	End     time.Time
	Format  model.ExportFormat
}

// ArtifactWriter is a streaming, compressing writer for one artifact.
// Nothing is visible at the final path until Commit succeeds.
type ArtifactWriter interface {
	io.Writer
	// Commit finalizes the artifact and returns its compressed size in bytes.
	Commit() (int64, error)
	// Abort discards any partial output. Safe to call after Commit (no-op).
	Abort() error
}

// ArtifactStore persists compressed export artifacts under deterministic names.
type ArtifactStore interface {
	ArtifactName(spec ArtifactSpec) string
	Create(name string) (ArtifactWriter, error)
	// Open returns the raw compressed byte stream and its size.
	Open(name string) (io.ReadCloser, int64, error)
	// OpenDecompressed returns the artifact decompressed on the fly.
	OpenDecompressed(name string) (io.ReadCloser, error)
	Exists(name string) bool
}
