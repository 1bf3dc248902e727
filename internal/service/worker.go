package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gridpoint/meter-export/internal/core"
	"github.com/gridpoint/meter-export/internal/domain/model"
	apperrors "github.com/gridpoint/meter-export/internal/errors"
	"github.com/gridpoint/meter-export/internal/export"
	"github.com/gridpoint/meter-export/internal/observability/metrics"
	"github.com/gridpoint/meter-export/internal/observability/statsd"
)

// Progress percentage bands: generation claims the first 10%, serialization
// maps its fractional progress onto the remaining 90. 100 is reserved for the
// COMPLETED transition itself.
const (
	progressGenerated    = 10
	progressSerializeMax = 99
)

// WorkerOptions groups dependencies for Worker.
type WorkerOptions struct {
	Repo      core.JobRepository    // Required: job repository
	Queue     core.TaskQueue        // Required: task transport
	Store     core.ArtifactStore    // Required: artifact storage
	Generator core.ReadingGenerator // Required: reading source
	Logger    *slog.Logger          // Optional: structured logger
	Metrics   statsd.Sink           // Optional: metric sink
}

// Worker consumes export tasks from the transport and drives each job from
// PENDING to a terminal status. Processing is idempotent: the transport
// delivers at least once, and duplicate deliveries of finished jobs become
// no-ops.
type Worker struct {
	repo      core.JobRepository
	queue     core.TaskQueue
	store     core.ArtifactStore
	generator core.ReadingGenerator
	logger    *slog.Logger
	metrics   statsd.Sink
}

// NewWorker constructs a new Worker.
func NewWorker(opts WorkerOptions) (*Worker, error) {
	if opts.Repo == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Queue == nil {
		return nil, errors.New("TaskQueue is required")
	}
	if opts.Store == nil {
		return nil, errors.New("ArtifactStore is required")
	}
	if opts.Generator == nil {
		return nil, errors.New("ReadingGenerator is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "export_worker")
	}

	return &Worker{
		repo:      opts.Repo,
		queue:     opts.Queue,
		store:     opts.Store,
		generator: opts.Generator,
		logger:    logger,
		metrics:   opts.Metrics,
	}, nil
}

// MustNewWorker constructs a new Worker and panics on error.
func MustNewWorker(opts WorkerOptions) *Worker {
	w, err := NewWorker(opts)
	if err != nil {
		panic(fmt.Sprintf("failed to create Worker: %v", err))
	}
	return w
}

// Run consumes tasks until the context is canceled. Dequeue timeouts loop
// silently; processing errors are logged and the task is handed back to the
// transport's retry policy.
func (w *Worker) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		task, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if w.logger != nil {
				w.logger.ErrorContext(ctx, "dequeue failed", "error", err)
			}
			// Back off briefly so a dead transport does not spin the loop.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}
		if task == nil {
			continue
		}

		if err := w.Process(ctx, task.JobID); err != nil {
			if w.logger != nil {
				w.logger.ErrorContext(ctx, "export task failed",
					"job_id", task.JobID,
					"attempt", task.Attempt,
					"error", err,
				)
			}
			requeued, retryErr := w.queue.Retry(ctx, *task)
			if retryErr != nil && w.logger != nil {
				w.logger.ErrorContext(ctx, "task retry failed",
					"job_id", task.JobID, "error", retryErr)
			}
			if !requeued && w.logger != nil {
				w.logger.WarnContext(ctx, "export task exhausted retries",
					"job_id", task.JobID, "attempt", task.Attempt)
			}
		}
	}
}

// Process runs the export pipeline for one job id. It returns nil for
// deliveries that require no work (unknown job, already-terminal job). All
// other failures return non-nil after recording the outcome, handing the
// delivery back to the transport's retry policy; redelivery of a job that
// reached FAILED no-ops on the terminal guard.
func (w *Worker) Process(ctx context.Context, jobID string) error {
	started := time.Now()

	job, err := w.repo.GetByID(ctx, jobID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			// A task can outlive its job row. Nothing to do.
			if w.logger != nil {
				w.logger.WarnContext(ctx, "task references unknown job", "job_id", jobID)
			}
			return nil
		}
		return fmt.Errorf("load job %s: %w", jobID, err)
	}

	if job.Status.Terminal() {
		// Duplicate delivery after a terminal commit.
		if w.logger != nil {
			w.logger.DebugContext(ctx, "skipping finished job",
				"job_id", jobID, "status", job.Status)
		}
		w.emit(job, "dequeue", metrics.ResultNoop, 0, 0)
		return nil
	}

	claimed, err := w.repo.MarkInProgress(ctx, jobID)
	if err != nil {
		return fmt.Errorf("mark job %s in progress: %w", jobID, err)
	}
	if !claimed {
		// Lost the race to a terminal transition between load and claim.
		w.emit(job, "claim", metrics.ResultNoop, 0, 0)
		return nil
	}

	if w.logger != nil {
		w.logger.InfoContext(ctx, "processing export job",
			"job_id", jobID,
			"meter_id", job.MeterID,
			"format", job.Format,
		)
	}

	known, err := w.generator.Validate(ctx, job.MeterID)
	if err != nil {
		return w.fail(ctx, job, model.ErrCodeExportFailed,
			fmt.Sprintf("meter validation failed: %v", err))
	}
	if !known {
		return w.fail(ctx, job, model.ErrCodeMeterNotFound,
			fmt.Sprintf("Meter %s not found", job.MeterID))
	}

	serializer, err := export.ForFormat(job.Format)
	if err != nil {
		return w.fail(ctx, job, model.ErrCodeUnsupportedFormat,
			fmt.Sprintf("Unsupported export format: %s", job.Format))
	}

	readings, err := w.generator.Generate(ctx, core.GenerateParams{
		MeterID: job.MeterID,
		Start:   job.StartTime,
		End:     job.EndTime,
	})
	if err != nil {
		return w.fail(ctx, job, model.ErrCodeExportFailed,
			fmt.Sprintf("reading generation failed: %v", err))
	}
	w.setProgress(ctx, jobID, progressGenerated)

	name := w.store.ArtifactName(core.ArtifactSpec{
		MeterID: job.MeterID,
		Start:   job.StartTime,
		End:     job.EndTime,
		Format:  job.Format,
	})

	writer, err := w.store.Create(name)
	if err != nil {
		return w.fail(ctx, job, model.ErrCodeExportFailed,
			fmt.Sprintf("artifact creation failed: %v", err))
	}

	count, err := serializer.Serialize(readings, writer, func(fraction float64) {
		w.setProgress(ctx, jobID, serializationProgress(fraction))
	})
	if err != nil {
		if abortErr := writer.Abort(); abortErr != nil && w.logger != nil {
			w.logger.WarnContext(ctx, "artifact abort failed",
				"job_id", jobID, "error", abortErr)
		}
		return w.fail(ctx, job, model.ErrCodeExportFailed,
			fmt.Sprintf("serialization failed: %v", err))
	}

	size, err := writer.Commit()
	if err != nil {
		return w.fail(ctx, job, model.ErrCodeExportFailed,
			fmt.Sprintf("artifact commit failed: %v", err))
	}

	committed, err := w.repo.Complete(ctx, jobID, core.CompleteJobParams{
		FilePath:      name,
		RecordCount:   count,
		FileSizeBytes: size,
	})
	if err != nil {
		return fmt.Errorf("complete job %s: %w", jobID, err)
	}
	if !committed {
		w.emit(job, "complete", metrics.ResultNoop, 0, 0)
		return nil
	}

	if w.logger != nil {
		w.logger.InfoContext(ctx, "export job completed",
			"job_id", jobID,
			"records", count,
			"file_size_bytes", size,
			"duration_ms", time.Since(started).Milliseconds(),
		)
	}
	w.emit(job, "complete", metrics.ResultSuccess, time.Since(started), count)

	return nil
}

// fail persists a terminal FAILED status and returns the failure so the
// transport's retry policy sees it too. A redelivery finds the terminal row
// and no-ops, so surfacing the error costs nothing beyond the transport's
// bookkeeping. A lost race against another terminal commit returns nil.
func (w *Worker) fail(ctx context.Context, job *model.ExportJob, code, message string) error {
	committed, err := w.repo.Fail(ctx, job.ID, core.FailJobParams{
		Code:    code,
		Message: message,
	})
	if err != nil {
		return fmt.Errorf("fail job %s: %w", job.ID, err)
	}
	if !committed {
		w.emit(job, "fail", metrics.ResultNoop, 0, 0)
		return nil
	}

	if w.logger != nil {
		w.logger.WarnContext(ctx, "export job failed",
			"job_id", job.ID,
			"error_code", code,
			"error_message", message,
		)
	}
	w.emit(job, "fail", metrics.ResultError, 0, 0)

	return fmt.Errorf("job %s failed (%s): %s", job.ID, code, message)
}

// setProgress persists a progress update. Progress writes are advisory; a
// failure is logged and processing continues.
func (w *Worker) setProgress(ctx context.Context, jobID string, pct int) {
	if err := w.repo.SetProgress(ctx, jobID, pct); err != nil && w.logger != nil {
		w.logger.DebugContext(ctx, "progress update failed",
			"job_id", jobID, "progress", pct, "error", err)
	}
}

func (w *Worker) emit(job *model.ExportJob, transition, result string, d time.Duration, records int) {
	metrics.EmitExportLifecycle(w.metrics, metrics.ExportMetric{
		Format:     string(job.Format),
		Transition: transition,
		Result:     result,
		Duration:   d,
		Records:    records,
	})
}

// serializationProgress maps a serializer's [0,1) fraction onto the
// percentage band above generation, capped below 100.
func serializationProgress(fraction float64) int {
	pct := progressGenerated + int(fraction*90)
	if pct > progressSerializeMax {
		pct = progressSerializeMax
	}
	if pct < progressGenerated {
		pct = progressGenerated
	}
	return pct
}
