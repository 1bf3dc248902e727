package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/gridpoint/meter-export/internal/errors"
)

var (
	validateNow    = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	validateBounds = RangeBounds{Min: time.Minute, Max: 366 * 24 * time.Hour}
)

func validRequest() CreateExportRequest {
	return CreateExportRequest{
		MeterID:   "1001",
		StartTime: validateNow.Add(-24 * time.Hour),
		EndTime:   validateNow.Add(-time.Hour),
		Format:    FormatCSV,
	}
}

func violationFields(t *testing.T, err error) []string {
	t.Helper()
	verrs, ok := apperrors.AsValidationErrors(err)
	require.True(t, ok, "expected ValidationErrors, got %v", err)

	return verrs.Fields()
}

func TestValidateAcceptsGoodRequest(t *testing.T) {
	req := validRequest()
	require.NoError(t, req.Validate(validateNow, validateBounds))
}

func TestValidateReportsAllViolationsAtOnce(t *testing.T) {
	req := CreateExportRequest{Format: FormatCSV}
	err := req.Validate(validateNow, validateBounds)
	assert.ElementsMatch(t,
		[]string{"meter_id", "start_datetime", "end_datetime"},
		violationFields(t, err))
}

func TestValidateRejectsFutureStart(t *testing.T) {
	req := validRequest()
	req.StartTime = validateNow.Add(time.Hour)
	req.EndTime = validateNow.Add(2 * time.Hour)
	assert.Contains(t, violationFields(t, req.Validate(validateNow, validateBounds)), "start_datetime")
}

func TestValidateRejectsEndBeforeStart(t *testing.T) {
	req := validRequest()
	req.EndTime = req.StartTime.Add(-time.Hour)
	assert.Contains(t, violationFields(t, req.Validate(validateNow, validateBounds)), "end_datetime")
}

func TestValidateEnforcesRangeBounds(t *testing.T) {
	tests := []struct {
		name  string
		width time.Duration
	}{
		{"below minimum", 30 * time.Second},
		{"above maximum", 367 * 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			req.StartTime = validateNow.Add(-tt.width - time.Hour)
			req.EndTime = req.StartTime.Add(tt.width)
			assert.Contains(t,
				violationFields(t, req.Validate(validateNow, validateBounds)),
				"end_datetime")
		})
	}
}

func TestValidateRejectsInvalidFormat(t *testing.T) {
	req := validRequest()
	req.Format = ExportFormat("parquet")
	assert.Contains(t, violationFields(t, req.Validate(validateNow, validateBounds)), "format")
}

func TestNormalizeDefaultsFormat(t *testing.T) {
	req := CreateExportRequest{MeterID: "1001"}
	req.Normalize()
	assert.Equal(t, FormatCSV, req.Format)

	req.Format = FormatJSON
	req.Normalize()
	assert.Equal(t, FormatJSON, req.Format, "explicit format survives")
}
