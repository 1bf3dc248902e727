package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/gridpoint/meter-export/internal/core"
	"github.com/gridpoint/meter-export/internal/domain/model"
	apperrors "github.com/gridpoint/meter-export/internal/errors"
	"github.com/gridpoint/meter-export/internal/mocks"
	"github.com/gridpoint/meter-export/internal/testutil"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type exportMocks struct {
	repo  *mocks.MockJobRepository
	queue *mocks.MockTaskQueue
	store *mocks.MockArtifactStore
}

func newTestExportService(t *testing.T) (*ExportService, exportMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)

	m := exportMocks{
		repo:  mocks.NewMockJobRepository(ctrl),
		queue: mocks.NewMockTaskQueue(ctrl),
		store: mocks.NewMockArtifactStore(ctrl),
	}

	svc, err := NewExportService(ExportServiceOptions{
		Repo:  m.repo,
		Queue: m.queue,
		Store: m.store,
		Config: ExportServiceConfig{
			Bounds:  model.RangeBounds{Min: time.Minute, Max: 365 * 24 * time.Hour},
			BaseURL: "http://localhost:8080",
		},
		Now: func() time.Time { return testNow },
	})
	require.NoError(t, err)

	return svc, m
}

func TestSubmitCreatesPendingJobThenEnqueues(t *testing.T) {
	svc, m := newTestExportService(t)

	req := testutil.NewExportRequest().
		WithWindow(testNow.Add(-24*time.Hour), testNow.Add(-time.Hour)).
		Build()

	created := testutil.NewJob().WithID("job-1").Build()

	var enqueuedAfterCreate bool
	m.repo.EXPECT().
		Create(gomock.Any(), core.CreateJobParams{
			MeterID:   req.MeterID,
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
			Format:    model.FormatCSV,
		}).
		DoAndReturn(func(context.Context, core.CreateJobParams) (*model.ExportJob, error) {
			enqueuedAfterCreate = true
			return created, nil
		})
	m.queue.EXPECT().
		Enqueue(gomock.Any(), "job-1").
		DoAndReturn(func(context.Context, string) error {
			assert.True(t, enqueuedAfterCreate, "job row must be durable before the task is enqueued")
			return nil
		})

	view, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "job-1", view.JobID)
	assert.Equal(t, model.JobStatusPending, view.Status)
	assert.NotEmpty(t, view.Message)
}

func TestSubmitDefaultsFormatToCSV(t *testing.T) {
	svc, m := newTestExportService(t)

	req := testutil.NewExportRequest().
		WithWindow(testNow.Add(-2*time.Hour), testNow.Add(-time.Hour)).
		WithFormat("").
		Build()

	m.repo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params core.CreateJobParams) (*model.ExportJob, error) {
			assert.Equal(t, model.FormatCSV, params.Format)
			return testutil.NewJob().Build(), nil
		})
	m.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(nil)

	_, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
}

func TestSubmitRejectsInvalidRequestListingAllViolations(t *testing.T) {
	svc, _ := newTestExportService(t)

	// Every field violated at once.
	req := &model.CreateExportRequest{
		MeterID:   "",
		StartTime: testNow.Add(time.Hour), // future
		EndTime:   testNow.Add(time.Hour), // not after start
		Format:    model.FormatCSV,
	}

	_, err := svc.Submit(context.Background(), req)
	require.Error(t, err)

	verr, ok := apperrors.AsValidationErrors(err)
	require.True(t, ok)
	assert.ElementsMatch(t,
		[]string{"meter_id", "start_datetime", "end_datetime"},
		verr.Fields())
}

func TestSubmitRejectsOutOfBoundsRange(t *testing.T) {
	svc, _ := newTestExportService(t)

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
	}{
		{
			name:  "below minimum",
			start: testNow.Add(-time.Hour),
			end:   testNow.Add(-time.Hour).Add(30 * time.Second),
		},
		{
			name:  "above maximum",
			start: testNow.Add(-367 * 24 * time.Hour),
			end:   testNow.Add(-time.Hour),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewExportRequest().WithWindow(tt.start, tt.end).Build()
			_, err := svc.Submit(context.Background(), req)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
		})
	}
}

func TestSubmitFailsJobWhenEnqueueFails(t *testing.T) {
	svc, m := newTestExportService(t)

	req := testutil.NewExportRequest().
		WithWindow(testNow.Add(-2*time.Hour), testNow.Add(-time.Hour)).
		Build()

	m.repo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		Return(testutil.NewJob().WithID("job-1").Build(), nil)
	m.queue.EXPECT().Enqueue(gomock.Any(), "job-1").Return(errors.New("redis down"))
	m.repo.EXPECT().
		Fail(gomock.Any(), "job-1", gomock.Any()).
		Return(true, nil)

	_, err := svc.Submit(context.Background(), req)
	require.Error(t, err)
	assert.True(t, apperrors.IsInternal(err))
}

func TestStatusPendingHidesProgress(t *testing.T) {
	svc, m := newTestExportService(t)

	job := testutil.NewJob().WithStatus(model.JobStatusPending).WithProgress(0).Build()
	m.repo.EXPECT().GetByID(gomock.Any(), job.ID).Return(job, nil)

	view, err := svc.Status(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusPending, view.Status)
	assert.Nil(t, view.Progress, "pending jobs report no progress field")
	assert.Nil(t, view.FileInfo)
	assert.Nil(t, view.Error)
	assert.Equal(t, "Job is being processed", view.Message)
}

func TestStatusInProgressReportsProgress(t *testing.T) {
	svc, m := newTestExportService(t)

	job := testutil.NewJob().WithStatus(model.JobStatusInProgress).WithProgress(46).Build()
	m.repo.EXPECT().GetByID(gomock.Any(), job.ID).Return(job, nil)

	view, err := svc.Status(context.Background(), job.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Progress)
	assert.Equal(t, 46, *view.Progress)
}

func TestStatusCompletedIncludesFileInfo(t *testing.T) {
	svc, m := newTestExportService(t)

	job := testutil.NewJob().
		WithID("job-9").
		Completed("meter_1001_20260101_20260102.csv.gz", 1441, 9000).
		Build()
	m.repo.EXPECT().GetByID(gomock.Any(), job.ID).Return(job, nil)

	view, err := svc.Status(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, "Export completed successfully", view.Message)
	require.NotNil(t, view.FileInfo)
	assert.Equal(t, "meter_1001_20260101_20260102.csv.gz", view.FileInfo.Filename)
	assert.Equal(t, "http://localhost:8080/api/export/download/job-9", view.FileInfo.DownloadURL)
	assert.Equal(t, 1441, view.FileInfo.RecordCount)
	assert.Equal(t, int64(9000), view.FileInfo.FileSizeBytes)
	assert.Equal(t, job.StartTime, view.FileInfo.ExportPeriod.Start)
	assert.Equal(t, job.EndTime, view.FileInfo.ExportPeriod.End)
	assert.Nil(t, view.Progress, "terminal jobs report no progress field")
}

func TestStatusFailedIncludesErrorInfo(t *testing.T) {
	svc, m := newTestExportService(t)

	job := testutil.NewJob().
		Failed(model.ErrCodeMeterNotFound, "Meter 9999 not found").
		Build()
	m.repo.EXPECT().GetByID(gomock.Any(), job.ID).Return(job, nil)

	view, err := svc.Status(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, "Export failed", view.Message)
	require.NotNil(t, view.Error)
	assert.Equal(t, model.ErrCodeMeterNotFound, view.Error.Code)
	assert.Equal(t, "Meter 9999 not found", view.Error.Message)
	assert.Equal(t, "Export failed for meter 1001", view.Error.Details)
}

func TestStatusFailedDetailsNameTheMeter(t *testing.T) {
	svc, m := newTestExportService(t)

	// Worker messages for generic failures never mention the meter, so the
	// details field has to.
	job := testutil.NewJob().
		WithMeterID("7777").
		Failed(model.ErrCodeExportFailed, "serialization failed: disk full").
		Build()
	m.repo.EXPECT().GetByID(gomock.Any(), job.ID).Return(job, nil)

	view, err := svc.Status(context.Background(), job.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Error)
	assert.Equal(t, model.ErrCodeExportFailed, view.Error.Code)
	assert.Equal(t, "serialization failed: disk full", view.Error.Message)
	assert.Equal(t, "Export failed for meter 7777", view.Error.Details)
}

func TestStatusUnknownJob(t *testing.T) {
	svc, m := newTestExportService(t)

	m.repo.EXPECT().
		GetByID(gomock.Any(), "nope").
		Return(nil, apperrors.NotFound("job not found"))

	_, err := svc.Status(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestArtifactNotReadyBeforeCompletion(t *testing.T) {
	svc, m := newTestExportService(t)

	for _, status := range []model.JobStatus{model.JobStatusPending, model.JobStatusInProgress} {
		job := testutil.NewJob().WithStatus(status).Build()
		m.repo.EXPECT().GetByID(gomock.Any(), job.ID).Return(job, nil)

		_, err := svc.Artifact(context.Background(), job.ID)
		require.Error(t, err)
		assert.True(t, apperrors.IsNotReady(err), "status %s must map to not-ready", status)
	}
}

func TestArtifactFailedJobIsNotReady(t *testing.T) {
	svc, m := newTestExportService(t)

	job := testutil.NewJob().Failed(model.ErrCodeExportFailed, "boom").Build()
	m.repo.EXPECT().GetByID(gomock.Any(), job.ID).Return(job, nil)

	_, err := svc.Artifact(context.Background(), job.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotReady(err), "a failed job will never produce an artifact")
}

func TestArtifactMissingFileIsNotFound(t *testing.T) {
	svc, m := newTestExportService(t)

	job := testutil.NewJob().Completed("gone.csv.gz", 10, 100).Build()
	m.repo.EXPECT().GetByID(gomock.Any(), job.ID).Return(job, nil)
	m.store.EXPECT().Exists("gone.csv.gz").Return(false)

	_, err := svc.Artifact(context.Background(), job.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestArtifactDownload(t *testing.T) {
	svc, m := newTestExportService(t)

	job := testutil.NewJob().
		WithFormat(model.FormatJSON).
		Completed("meter_1001_20260101_20260102.json.gz", 10, 321).
		Build()
	m.repo.EXPECT().GetByID(gomock.Any(), job.ID).Return(job, nil)
	m.store.EXPECT().Exists("meter_1001_20260101_20260102.json.gz").Return(true)
	m.store.EXPECT().
		Open("meter_1001_20260101_20260102.json.gz").
		Return(io.NopCloser(strings.NewReader("gzip-bytes")), int64(321), nil)

	download, err := svc.Artifact(context.Background(), job.ID)
	require.NoError(t, err)
	defer func() { require.NoError(t, download.Body.Close()) }()

	assert.Equal(t, "meter_1001_20260101_20260102.json", download.Filename)
	assert.Equal(t, "application/json", download.ContentType)
	assert.Equal(t, "gzip", download.ContentEncoding)
	assert.Equal(t, int64(321), download.ContentLength)
}

func TestHistoryPaginates(t *testing.T) {
	svc, m := newTestExportService(t)

	jobs := []*model.ExportJob{
		testutil.NewJob().WithID("newer").Completed("a.csv.gz", 5, 50).Build(),
		testutil.NewJob().WithID("older").Build(),
	}
	m.repo.EXPECT().
		ListByMeter(gomock.Any(), model.JobListOptions{MeterID: "1001", Limit: 10, Offset: 5}).
		Return(&model.JobPage{Jobs: jobs, Total: 42}, nil)

	view, err := svc.History(context.Background(), "1001", 10, 5)
	require.NoError(t, err)
	assert.Equal(t, "1001", view.MeterID)
	assert.Equal(t, 42, view.TotalExports)
	require.Len(t, view.Exports, 2)
	assert.Equal(t, "newer", view.Exports[0].JobID)
	require.NotNil(t, view.Exports[0].FileInfo)
	assert.Nil(t, view.Exports[1].FileInfo, "only completed jobs carry file info")
}

func TestHistoryValidation(t *testing.T) {
	svc, _ := newTestExportService(t)

	_, err := svc.History(context.Background(), "  ", 10, 0)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.History(context.Background(), "1001", 10, -1)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}
