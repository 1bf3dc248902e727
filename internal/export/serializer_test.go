package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridpoint/meter-export/internal/domain/model"
)

func sampleReadings(n int) []model.Reading {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	readings := make([]model.Reading, 0, n)
	for i := range n {
		readings = append(readings, model.Reading{
			Timestamp: start.Add(time.Duration(i) * time.Minute),
			MeterID:   "1001",
			EnergyKWh: 0.033,
			PowerKW:   1.984,
			VoltageV:  229.7,
			CurrentA:  8.64,
		})
	}
	return readings
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		format  model.ExportFormat
		wantErr bool
	}{
		{format: model.FormatCSV},
		{format: model.FormatJSON},
		{format: model.FormatXML},
		{format: model.ExportFormat("parquet"), wantErr: true},
		{format: model.ExportFormat(""), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			s, err := ForFormat(tt.format)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.format, s.Format())
		})
	}
}

func TestCSVSerializer(t *testing.T) {
	var buf bytes.Buffer
	s := &CSVSerializer{}

	count, err := s.Serialize(sampleReadings(3), &buf, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4, "header plus one row per reading")

	assert.Equal(t, model.FieldNames(), records[0])
	assert.Equal(t, "2026-03-01T00:00:00Z", records[1][0])
	assert.Equal(t, "2026-03-01T00:02:00Z", records[3][0])
	assert.Equal(t, "1001", records[1][1])
	assert.Equal(t, "0.033", records[1][2])
	assert.Equal(t, "1.984", records[1][3])
	assert.Equal(t, "229.7", records[1][4])
	assert.Equal(t, "8.64", records[1][5])
}

func TestCSVSerializerEmpty(t *testing.T) {
	var buf bytes.Buffer
	s := &CSVSerializer{}

	count, err := s.Serialize(nil, &buf, nil)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, buf.Len(), "an empty export writes no header")
}

func TestJSONSerializer(t *testing.T) {
	var buf bytes.Buffer
	s := &JSONSerializer{}

	count, err := s.Serialize(sampleReadings(2), &buf, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	var doc struct {
		Metadata struct {
			ExportDate   string `json:"export_date"`
			TotalRecords int    `json:"total_records"`
			Format       string `json:"format"`
		} `json:"metadata"`
		Data []model.Reading `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, 2, doc.Metadata.TotalRecords)
	assert.Equal(t, "json", doc.Metadata.Format)
	assert.NotEmpty(t, doc.Metadata.ExportDate)
	require.Len(t, doc.Data, 2)
	assert.Equal(t, "1001", doc.Data[0].MeterID)
	assert.True(t, doc.Data[1].Timestamp.After(doc.Data[0].Timestamp))
}

func TestJSONSerializerEmpty(t *testing.T) {
	var buf bytes.Buffer
	s := &JSONSerializer{}

	count, err := s.Serialize(nil, &buf, nil)
	require.NoError(t, err)
	assert.Zero(t, count)

	out := buf.String()
	assert.Contains(t, out, `"total_records": 0`)
	assert.Contains(t, out, `"data": []`, "zero records serialize as an empty array, not null")
}

func TestXMLSerializer(t *testing.T) {
	var buf bytes.Buffer
	s := &XMLSerializer{}

	count, err := s.Serialize(sampleReadings(2), &buf, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, xml.Header[:len(xml.Header)-1]) ||
		strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, out, "<meter_export>")
	assert.Contains(t, out, "<total_records>2</total_records>")
	assert.Contains(t, out, "<timestamp>2026-03-01T00:00:00Z</timestamp>")
	assert.Contains(t, out, "<meter_id>1001</meter_id>")
	assert.Equal(t, 2, strings.Count(out, "<reading>"))

	// The document must be well-formed.
	var doc struct {
		XMLName  xml.Name `xml:"meter_export"`
		Metadata struct {
			TotalRecords int `xml:"total_records"`
		} `xml:"metadata"`
		Readings struct {
			Reading []struct {
				Timestamp string `xml:"timestamp"`
				MeterID   string `xml:"meter_id"`
			} `xml:"reading"`
		} `xml:"readings"`
	}
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, 2, doc.Metadata.TotalRecords)
	require.Len(t, doc.Readings.Reading, 2)
	assert.Equal(t, "1001", doc.Readings.Reading[0].MeterID)
}

func TestXMLSerializerEscapesValues(t *testing.T) {
	var buf bytes.Buffer
	s := &XMLSerializer{}

	readings := sampleReadings(1)
	readings[0].MeterID = `<&">`

	_, err := s.Serialize(readings, &buf, nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "&lt;&amp;&#34;&gt;")
}

func TestXMLSerializerEmpty(t *testing.T) {
	var buf bytes.Buffer
	s := &XMLSerializer{}

	count, err := s.Serialize(nil, &buf, nil)
	require.NoError(t, err)
	assert.Zero(t, count)

	out := buf.String()
	assert.Contains(t, out, "<total_records>0</total_records>")
	assert.Contains(t, out, "<readings>")
	assert.NotContains(t, out, "<reading>")
}

func TestSerializerProgressCadence(t *testing.T) {
	tests := []struct {
		name       string
		serializer Serializer
		records    int
		// minimum number of callbacks expected
		minCalls int
	}{
		{name: "csv per 100", serializer: &CSVSerializer{}, records: 250, minCalls: 3},
		{name: "json single", serializer: &JSONSerializer{}, records: 250, minCalls: 1},
		{name: "xml per 100", serializer: &XMLSerializer{}, records: 250, minCalls: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fractions []float64
			var buf bytes.Buffer

			_, err := tt.serializer.Serialize(sampleReadings(tt.records), &buf, func(f float64) {
				fractions = append(fractions, f)
			})
			require.NoError(t, err)
			assert.GreaterOrEqual(t, len(fractions), tt.minCalls)

			last := -1.0
			for _, f := range fractions {
				assert.GreaterOrEqual(t, f, last, "progress must be monotone")
				assert.Less(t, f, 1.0)
				last = f
			}
		})
	}
}
