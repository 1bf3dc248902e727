package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gridpoint/meter-export/internal/domain/model"
)

// jsonDocument is the exported JSON envelope: a metadata section and the full
// ordered reading sequence.
type jsonDocument struct {
	Metadata jsonMetadata    `json:"metadata"`
	Data     []model.Reading `json:"data"`
}

type jsonMetadata struct {
	ExportDate   string `json:"export_date"`
	TotalRecords int    `json:"total_records"`
	Format       string `json:"format"`
}

// JSONSerializer writes the whole sequence as a single indented document.
// JSON's structure prevents cheap partial flushing without buffering the
// full document, so progress is reported once near the end rather than at a
// per-record cadence.
type JSONSerializer struct{}

var _ Serializer = (*JSONSerializer)(nil)

// Format returns the JSON format tag.
func (s *JSONSerializer) Format() model.ExportFormat {
	return model.FormatJSON
}

// Serialize writes the readings as one JSON document and returns the record count.
func (s *JSONSerializer) Serialize(
	readings []model.Reading,
	w io.Writer,
	progress ProgressFunc,
) (int, error) {
	doc := jsonDocument{
		Metadata: jsonMetadata{
			ExportDate:   time.Now().UTC().Format("2006-01-02T15:04:05Z"),
			TotalRecords: len(readings),
			Format:       string(model.FormatJSON),
		},
		Data: readings,
	}
	// A zero-record export still serializes an empty array, not null.
	if doc.Data == nil {
		doc.Data = []model.Reading{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return 0, fmt.Errorf("encode json document: %w", err)
	}

	if progress != nil {
		progress(0.95)
	}

	return len(readings), nil
}
