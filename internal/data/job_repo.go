// Package data provides the persistence and transport adapters for the meter
// export system.
package data

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/gridpoint/meter-export/internal/core"
	apperrors "github.com/gridpoint/meter-export/internal/errors"
	"github.com/gridpoint/meter-export/internal/domain/model"
)

// RepoConfig holds configuration options for the job repository.
type RepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// JobRepo provides database operations for export job management.
type JobRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

var _ core.JobRepository = (*JobRepo)(nil)

// NewJobRepo creates a new JobRepo instance with the given database connection and configuration.
func NewJobRepo(db *sql.DB, cfg RepoConfig) *JobRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}

	return &JobRepo{
		DB:           db,
		timeProvider: tp,
		logger:       cfg.Logger,
	}
}

const jobColumns = `
  id,
  meter_id,
  start_datetime,
  end_datetime,
  format,
  status,
  progress,
  file_path,
  record_count,
  file_size_bytes,
  error_code,
  error_message,
  created_at,
  updated_at
`

func scanJob(row interface{ Scan(...any) error }) (*model.ExportJob, error) {
	var job model.ExportJob
	err := row.Scan(
		&job.ID,
		&job.MeterID,
		&job.StartTime,
		&job.EndTime,
		&job.Format,
		&job.Status,
		&job.Progress,
		&job.FilePath,
		&job.RecordCount,
		&job.FileSizeBytes,
		&job.ErrorCode,
		&job.ErrorMessage,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// Create inserts a new export job in PENDING state with progress 0 and
// returns the stored record. The identifier is generated here and never reused.
func (r *JobRepo) Create(
	ctx context.Context,
	params core.CreateJobParams,
) (*model.ExportJob, error) {
	if strings.TrimSpace(params.MeterID) == "" {
		return nil, apperrors.Validation("meter id is required")
	}
	if !params.Format.Valid() {
		return nil, apperrors.Validation("invalid export format")
	}

	now := r.timeProvider.Now().UTC()
	id := uuid.New().String()

	row := r.DB.QueryRowContext(ctx, `
		INSERT INTO jobs (id, meter_id, start_datetime, end_datetime, format, status, progress, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 'pending', 0, $6, $6)
		RETURNING `+jobColumns,
		id, params.MeterID, params.StartTime, params.EndTime, params.Format, now)

	job, err := scanJob(row)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", apperrors.MapDBError(err))
	}

	if r.logger != nil {
		r.logger.DebugContext(ctx, "job created",
			"id", job.ID,
			"meter_id", job.MeterID,
			"format", job.Format,
		)
	}

	return job, nil
}

// GetByID fetches a job by identifier. Returns a NotFound AppError when absent.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.ExportJob, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)

	job, err := scanJob(row)
	if err != nil {
		mapped := apperrors.MapDBError(err)
		if apperrors.IsNotFound(mapped) {
			return nil, apperrors.NotFoundf("job %s not found", id)
		}
		return nil, fmt.Errorf("get job %s: %w", id, mapped)
	}
	return job, nil
}

// MarkInProgress transitions a job to IN_PROGRESS with progress 0 before any
// work happens, so a crashed attempt is detectable as a stale IN_PROGRESS row.
// The update is a no-op on terminal jobs; the boolean reports whether it applied.
func (r *JobRepo) MarkInProgress(ctx context.Context, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE jobs
		SET status = 'in_progress', progress = 0, updated_at = $2
		WHERE id = $1 AND status IN ('pending', 'in_progress')`,
		id, r.timeProvider.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("mark job %s in progress: %w", id, apperrors.MapDBError(err))
	}
	return rowsAffected(res)
}

// SetProgress persists a progress percentage for a running job. GREATEST keeps
// the stored value monotone even when updates land out of order under
// concurrent duplicate deliveries.
func (r *JobRepo) SetProgress(ctx context.Context, id string, pct int) error {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}

	_, err := r.DB.ExecContext(ctx, `
		UPDATE jobs
		SET progress = GREATEST(progress, $2), updated_at = $3
		WHERE id = $1 AND status = 'in_progress'`,
		id, pct, r.timeProvider.Now().UTC())
	if err != nil {
		return fmt.Errorf("set job %s progress: %w", id, apperrors.MapDBError(err))
	}
	return nil
}

// Complete commits the COMPLETED terminal state together with the artifact
// fields in a single update. The status guard makes the terminal transition
// exactly-once: a racing duplicate attempt finds a terminal row and no-ops.
func (r *JobRepo) Complete(
	ctx context.Context,
	id string,
	params core.CompleteJobParams,
) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE jobs
		SET status = 'completed',
		    progress = 100,
		    file_path = $2,
		    record_count = $3,
		    file_size_bytes = $4,
		    updated_at = $5
		WHERE id = $1 AND status IN ('pending', 'in_progress')`,
		id, params.FilePath, params.RecordCount, params.FileSizeBytes,
		r.timeProvider.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("complete job %s: %w", id, apperrors.MapDBError(err))
	}
	return rowsAffected(res)
}

// Fail commits the FAILED terminal state with the error fields. Same
// exactly-once guard as Complete.
func (r *JobRepo) Fail(
	ctx context.Context,
	id string,
	params core.FailJobParams,
) (bool, error) {
	code := params.Code
	if code == "" {
		code = model.ErrCodeExportFailed
	}

	res, err := r.DB.ExecContext(ctx, `
		UPDATE jobs
		SET status = 'failed',
		    error_code = $2,
		    error_message = $3,
		    updated_at = $4
		WHERE id = $1 AND status IN ('pending', 'in_progress')`,
		id, code, params.Message, r.timeProvider.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("fail job %s: %w", id, apperrors.MapDBError(err))
	}
	return rowsAffected(res)
}

// ListByMeter returns one pagination window of a meter's jobs ordered by
// creation time descending, plus the total match count independent of the
// window. Read-committed: the window can shift if jobs are submitted between
// calls.
func (r *JobRepo) ListByMeter(
	ctx context.Context,
	opts model.JobListOptions,
) (*model.JobPage, error) {
	if opts.MeterID == "" {
		return nil, apperrors.Validation("meter id is required")
	}
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	if opts.Limit > 1000 {
		opts.Limit = 1000
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	query := `
		SELECT ` + jobColumns + `, COUNT(*) OVER() AS total_count
		FROM jobs
		WHERE meter_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, opts.MeterID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("query jobs by meter: %w", apperrors.MapDBError(err))
	}
	defer rows.Close()

	page := &model.JobPage{}
	for rows.Next() {
		var job model.ExportJob
		if scanErr := rows.Scan(
			&job.ID,
			&job.MeterID,
			&job.StartTime,
			&job.EndTime,
			&job.Format,
			&job.Status,
			&job.Progress,
			&job.FilePath,
			&job.RecordCount,
			&job.FileSizeBytes,
			&job.ErrorCode,
			&job.ErrorMessage,
			&job.CreatedAt,
			&job.UpdatedAt,
			&page.Total,
		); scanErr != nil {
			return nil, fmt.Errorf("scan job row: %w", scanErr)
		}
		page.Jobs = append(page.Jobs, &job)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate job rows: %w", rowsErr)
	}

	// An empty window past the end still needs the real total.
	if len(page.Jobs) == 0 {
		if countErr := r.DB.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM jobs WHERE meter_id = $1`, opts.MeterID,
		).Scan(&page.Total); countErr != nil {
			return nil, fmt.Errorf("count jobs by meter: %w", apperrors.MapDBError(countErr))
		}
	}

	return page, nil
}

func rowsAffected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
