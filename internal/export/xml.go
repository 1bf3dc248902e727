package export

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gridpoint/meter-export/internal/domain/model"
)

// XMLSerializer writes a pretty-printed document: a root element with a
// metadata child and a readings child holding one element per record, each
// reading's fields rendered as child elements of matching name.
//
// Element names come from the reading's ordered field list, which
// encoding/xml cannot express without per-field struct types, so the
// document is emitted by hand with escaped text content.
type XMLSerializer struct{}

var _ Serializer = (*XMLSerializer)(nil)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

// Format returns the XML format tag.
func (s *XMLSerializer) Format() model.ExportFormat {
	return model.FormatXML
}

// Serialize writes the readings as pretty-printed XML and returns the record
// count. Progress is reported every 100 records, plus once near the end.
func (s *XMLSerializer) Serialize(
	readings []model.Reading,
	w io.Writer,
	progress ProgressFunc,
) (int, error) {
	var buf bytes.Buffer
	buf.WriteString(xmlHeader)
	buf.WriteString("<meter_export>\n")

	buf.WriteString("  <metadata>\n")
	writeElement(&buf, "    ", "export_date", time.Now().UTC().Format("2006-01-02T15:04:05Z"))
	writeElement(&buf, "    ", "total_records", strconv.Itoa(len(readings)))
	buf.WriteString("  </metadata>\n")

	buf.WriteString("  <readings>\n")
	for i, reading := range readings {
		buf.WriteString("    <reading>\n")
		for _, f := range reading.Fields() {
			writeElement(&buf, "      ", f.Name, f.Value)
		}
		buf.WriteString("    </reading>\n")
		reportEvery(progress, i, len(readings))

		// Flush per reading so a year of minutes is not held in memory twice.
		if buf.Len() > 0 {
			if _, err := buf.WriteTo(w); err != nil {
				return 0, fmt.Errorf("write xml reading %d: %w", i, err)
			}
			buf.Reset()
		}
	}
	buf.WriteString("  </readings>\n")
	buf.WriteString("</meter_export>\n")

	if _, err := buf.WriteTo(w); err != nil {
		return 0, fmt.Errorf("write xml document: %w", err)
	}

	if progress != nil {
		progress(0.95)
	}

	return len(readings), nil
}

func writeElement(buf *bytes.Buffer, indent, name, value string) {
	buf.WriteString(indent)
	buf.WriteByte('<')
	buf.WriteString(name)
	buf.WriteByte('>')
	// xml.EscapeText cannot fail on a bytes.Buffer.
	_ = xml.EscapeText(buf, []byte(value))
	buf.WriteString("</")
	buf.WriteString(name)
	buf.WriteString(">\n")
}
