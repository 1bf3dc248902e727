// Package service contains the business logic between the transport layer and
// the data adapters.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/gridpoint/meter-export/internal/core"
	"github.com/gridpoint/meter-export/internal/domain/model"
	apperrors "github.com/gridpoint/meter-export/internal/errors"
	"github.com/gridpoint/meter-export/internal/observability/metrics"
	"github.com/gridpoint/meter-export/internal/observability/statsd"
)

// DownloadPath is the URL path under which artifacts are served.
const DownloadPath = "/api/export/download/"

// ExportServiceConfig groups the non-dependency settings of the service.
type ExportServiceConfig struct {
	// Bounds limits the requested export window.
	Bounds model.RangeBounds
	// BaseURL prefixes download links in status responses, e.g.
	// "http://localhost:8080". Empty yields relative links.
	BaseURL string
}

// ExportServiceOptions groups dependencies for ExportService.
type ExportServiceOptions struct {
	Repo    core.JobRepository // Required: job repository
	Queue   core.TaskQueue     // Required: task transport
	Store   core.ArtifactStore // Required: artifact storage
	Config  ExportServiceConfig
	Logger  *slog.Logger     // Optional: structured logger
	Metrics statsd.Sink      // Optional: metric sink
	Now     func() time.Time // Optional: clock override for tests
}

// ExportService is the client-facing façade over the export job lifecycle:
// submission, status, artifact retrieval and history.
type ExportService struct {
	repo    core.JobRepository
	queue   core.TaskQueue
	store   core.ArtifactStore
	config  ExportServiceConfig
	logger  *slog.Logger
	metrics statsd.Sink
	now     func() time.Time
}

// NewExportService constructs a new ExportService.
func NewExportService(opts ExportServiceOptions) (*ExportService, error) {
	if opts.Repo == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Queue == nil {
		return nil, errors.New("TaskQueue is required")
	}
	if opts.Store == nil {
		return nil, errors.New("ArtifactStore is required")
	}
	if opts.Config.Bounds.Min <= 0 || opts.Config.Bounds.Max < opts.Config.Bounds.Min {
		return nil, errors.New("range bounds are invalid")
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "export_service")
	}

	return &ExportService{
		repo:    opts.Repo,
		queue:   opts.Queue,
		store:   opts.Store,
		config:  opts.Config,
		logger:  logger,
		metrics: opts.Metrics,
		now:     now,
	}, nil
}

// MustNewExportService constructs a new ExportService and panics on error.
func MustNewExportService(opts ExportServiceOptions) *ExportService {
	svc, err := NewExportService(opts)
	if err != nil {
		panic(fmt.Sprintf("failed to create ExportService: %v", err))
	}
	return svc
}

// Submit validates a request, persists a PENDING job and schedules it for
// processing. The job row is durable before the task is enqueued, so a
// transport hiccup can never lose an accepted submission unrecorded.
func (s *ExportService) Submit(
	ctx context.Context,
	req *model.CreateExportRequest,
) (*model.SubmitView, error) {
	req.Normalize()
	if err := req.Validate(s.now(), s.config.Bounds); err != nil {
		return nil, err
	}

	job, err := s.repo.Create(ctx, core.CreateJobParams{
		MeterID:   req.MeterID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Format:    req.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("create export job: %w", err)
	}

	if err := s.queue.Enqueue(ctx, job.ID); err != nil {
		// The job row exists but will never be picked up; fail it so the
		// client sees a terminal status instead of a job stuck in PENDING.
		if _, failErr := s.repo.Fail(ctx, job.ID, core.FailJobParams{
			Code:    model.ErrCodeExportFailed,
			Message: "failed to schedule export job",
		}); failErr != nil && s.logger != nil {
			s.logger.ErrorContext(ctx, "failed to mark unscheduled job failed",
				"job_id", job.ID, "error", failErr)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "schedule export job")
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "export job submitted",
			"job_id", job.ID,
			"meter_id", job.MeterID,
			"format", job.Format,
		)
	}
	metrics.EmitSubmission(s.metrics, string(job.Format))

	return &model.SubmitView{
		JobID:   job.ID,
		Status:  job.Status,
		Message: "Export job created. Use the job_id to check status.",
	}, nil
}

// Status returns the client-facing view of a job.
func (s *ExportService) Status(ctx context.Context, jobID string) (*model.JobStatusView, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("get export job: %w", err)
	}

	view := &model.JobStatusView{
		JobID:     job.ID,
		Status:    job.Status,
		Message:   statusMessage(job.Status),
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}

	switch job.Status {
	case model.JobStatusInProgress:
		// PENDING jobs report no progress field even though the stored
		// value is zero.
		pct := job.Progress
		view.Progress = &pct
	case model.JobStatusCompleted:
		view.FileInfo = s.fileInfo(job)
	case model.JobStatusFailed:
		view.Error = errorInfo(job)
	case model.JobStatusPending:
	}

	return view, nil
}

// ArtifactDownload is an open artifact stream plus the headers needed to
// serve it. The body is the raw gzip byte stream; Filename carries the
// uncompressed name since clients decode transparently via Content-Encoding.
type ArtifactDownload struct {
	Body            io.ReadCloser
	Filename        string
	ContentType     string
	ContentLength   int64
	ContentEncoding string
}

// Artifact opens the finished artifact of a COMPLETED job for download.
// Any other status yields a not-ready error; a missing file on a COMPLETED
// job yields not-found.
func (s *ExportService) Artifact(ctx context.Context, jobID string) (*ArtifactDownload, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("get export job: %w", err)
	}

	switch job.Status {
	case model.JobStatusCompleted:
	case model.JobStatusFailed:
		return nil, apperrors.NotReadyf(
			"export job %s failed; no artifact was produced", jobID)
	default:
		return nil, apperrors.NotReadyf(
			"export job %s is not completed yet (status: %s)", jobID, job.Status)
	}

	if job.FilePath == nil {
		return nil, apperrors.Internalf("export job %s has no artifact path", jobID)
	}
	name := path.Base(*job.FilePath)

	if !s.store.Exists(name) {
		// Completed job without its artifact means storage and the job
		// store disagree; surface as missing and leave a trail.
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "artifact missing for completed job",
				"job_id", jobID, "artifact", name)
		}
		return nil, apperrors.NotFoundf("artifact for export job %s not found", jobID)
	}

	body, size, err := s.store.Open(name)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "open artifact")
	}

	metrics.EmitDownload(s.metrics, string(job.Format))

	return &ArtifactDownload{
		Body:            body,
		Filename:        strings.TrimSuffix(name, ".gz"),
		ContentType:     job.Format.ContentType(),
		ContentLength:   size,
		ContentEncoding: "gzip",
	}, nil
}

// History returns one pagination window over a meter's export jobs, newest
// first, plus the meter's total job count.
func (s *ExportService) History(
	ctx context.Context,
	meterID string,
	limit, offset int,
) (*model.HistoryView, error) {
	if strings.TrimSpace(meterID) == "" {
		return nil, apperrors.ValidationField("meter_id", "meter_id is required")
	}
	if offset < 0 {
		return nil, apperrors.ValidationField("offset", "offset cannot be negative")
	}

	page, err := s.repo.ListByMeter(ctx, model.JobListOptions{
		MeterID: meterID,
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list export jobs: %w", err)
	}

	items := make([]model.HistoryItem, 0, len(page.Jobs))
	for _, job := range page.Jobs {
		item := model.HistoryItem{
			JobID:     job.ID,
			MeterID:   job.MeterID,
			Status:    job.Status,
			Format:    job.Format,
			CreatedAt: job.CreatedAt,
			UpdatedAt: job.UpdatedAt,
			StartTime: job.StartTime,
			EndTime:   job.EndTime,
		}
		if job.Status == model.JobStatusCompleted {
			item.FileInfo = s.fileInfo(job)
		}
		items = append(items, item)
	}

	return &model.HistoryView{
		MeterID:      meterID,
		TotalExports: page.Total,
		Exports:      items,
	}, nil
}

func (s *ExportService) fileInfo(job *model.ExportJob) *model.FileInfo {
	if job.FilePath == nil {
		return nil
	}

	info := &model.FileInfo{
		Filename:    path.Base(*job.FilePath),
		DownloadURL: strings.TrimSuffix(s.config.BaseURL, "/") + DownloadPath + job.ID,
		ExportPeriod: model.ExportPeriod{
			Start: job.StartTime,
			End:   job.EndTime,
		},
	}
	if job.RecordCount != nil {
		info.RecordCount = *job.RecordCount
	}
	if job.FileSizeBytes != nil {
		info.FileSizeBytes = *job.FileSizeBytes
	}
	return info
}

// errorInfo maps a FAILED job's stored error onto the client descriptor.
// Details always names the meter, whatever the stored message says.
func errorInfo(job *model.ExportJob) *model.ErrorInfo {
	info := &model.ErrorInfo{
		Code:    model.ErrCodeExportFailed,
		Message: "Export processing failed",
		Details: fmt.Sprintf("Export failed for meter %s", job.MeterID),
	}
	if job.ErrorCode != nil && *job.ErrorCode != "" {
		info.Code = *job.ErrorCode
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		info.Message = *job.ErrorMessage
	}
	return info
}

// statusMessage maps a status to its human-readable message.
func statusMessage(status model.JobStatus) string {
	switch status {
	case model.JobStatusPending, model.JobStatusInProgress:
		return "Job is being processed"
	case model.JobStatusCompleted:
		return "Export completed successfully"
	case model.JobStatusFailed:
		return "Export failed"
	default:
		return string(status)
	}
}
