package model

import (
	"time"

	apperrors "github.com/gridpoint/meter-export/internal/errors"
)

// CreateExportRequest represents a request to create a new export job.
type CreateExportRequest struct {
	MeterID   string       `json:"meter_id"`
	StartTime time.Time    `json:"start_datetime"`
	EndTime   time.Time    `json:"end_datetime"`
	Format    ExportFormat `json:"format,omitempty"`
}

// Normalize fills defaults for omitted fields. An empty format means CSV.
func (r *CreateExportRequest) Normalize() {
	if r.Format == "" {
		r.Format = FormatCSV
	}
}

// RangeBounds holds the configured limits on the export window.
type RangeBounds struct {
	Min time.Duration
	Max time.Duration
}

// Validate checks every field and returns a ValidationErrors listing all
// violations at once, so callers can correct a request in a single round trip.
// Returns nil when the request is valid.
func (r *CreateExportRequest) Validate(now time.Time, bounds RangeBounds) error {
	var violations []*apperrors.AppError

	if r.MeterID == "" {
		violations = append(violations,
			apperrors.ValidationField("meter_id", "meter_id is required"))
	}
	if r.StartTime.IsZero() {
		violations = append(violations,
			apperrors.ValidationField("start_datetime", "start_datetime is required"))
	} else if r.StartTime.After(now) {
		violations = append(violations,
			apperrors.ValidationField("start_datetime", "start_datetime must be in the past"))
	}

	switch {
	case r.EndTime.IsZero():
		violations = append(violations,
			apperrors.ValidationField("end_datetime", "end_datetime is required"))
	case !r.StartTime.IsZero() && !r.EndTime.After(r.StartTime):
		violations = append(violations,
			apperrors.ValidationField("end_datetime", "end_datetime must be after start_datetime"))
	default:
		if !r.StartTime.IsZero() {
			width := r.EndTime.Sub(r.StartTime)
			if width < bounds.Min {
				violations = append(violations, apperrors.ValidationField(
					"end_datetime",
					"date range must be at least "+bounds.Min.String()))
			}
			if bounds.Max > 0 && width > bounds.Max {
				violations = append(violations, apperrors.ValidationField(
					"end_datetime",
					"date range cannot exceed "+bounds.Max.String()))
			}
		}
	}

	if !r.Format.Valid() {
		violations = append(violations,
			apperrors.ValidationField("format", "format must be one of csv, json, xml"))
	}

	if len(violations) == 0 {
		return nil
	}
	return apperrors.NewValidationErrors(violations)
}
