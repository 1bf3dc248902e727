package export

import (
	"io"

	apperrors "github.com/gridpoint/meter-export/internal/errors"
	"github.com/gridpoint/meter-export/internal/domain/model"
)

// progressCadence is how many records pass between progress callbacks for the
// record-oriented formats. Reporting on every record would amplify store
// writes for no observable benefit.
const progressCadence = 100

// ProgressFunc receives the serializer's fractional progress in [0,1).
// Implementations must tolerate coarse, format-dependent cadences; only
// monotonicity is promised.
type ProgressFunc func(fraction float64)

// Serializer turns an ordered reading sequence into one output format.
// Implementations write through the provided sink (which performs streaming
// compression) and return the number of records written.
type Serializer interface {
	Format() model.ExportFormat
	Serialize(readings []model.Reading, w io.Writer, progress ProgressFunc) (int, error)
}

// ForFormat returns the serializer for a format. The submission handler
// rejects unknown formats, so hitting the error here means a job record was
// corrupted or written by a newer version; the worker fails such jobs with
// UNSUPPORTED_FORMAT.
func ForFormat(format model.ExportFormat) (Serializer, error) {
	switch format {
	case model.FormatCSV:
		return &CSVSerializer{}, nil
	case model.FormatJSON:
		return &JSONSerializer{}, nil
	case model.FormatXML:
		return &XMLSerializer{}, nil
	default:
		return nil, apperrors.Validation("unsupported export format: " + string(format))
	}
}

func reportEvery(progress ProgressFunc, idx, total int) {
	if progress == nil || total == 0 {
		return
	}
	if idx%progressCadence == 0 {
		progress(float64(idx) / float64(total))
	}
}
