package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStatusValid(t *testing.T) {
	for _, s := range []JobStatus{JobStatusPending, JobStatusInProgress, JobStatusCompleted, JobStatusFailed} {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, JobStatus("queued").Valid())
	assert.False(t, JobStatus("").Valid())
}

func TestJobStatusTerminal(t *testing.T) {
	assert.False(t, JobStatusPending.Terminal())
	assert.False(t, JobStatusInProgress.Terminal())
	assert.True(t, JobStatusCompleted.Terminal())
	assert.True(t, JobStatusFailed.Terminal())
}

func TestExportFormatValid(t *testing.T) {
	assert.True(t, FormatCSV.Valid())
	assert.True(t, FormatJSON.Valid())
	assert.True(t, FormatXML.Valid())
	assert.False(t, ExportFormat("parquet").Valid())
	assert.False(t, ExportFormat("").Valid())
}

func TestExportFormatContentType(t *testing.T) {
	assert.Equal(t, "text/csv", FormatCSV.ContentType())
	assert.Equal(t, "application/json", FormatJSON.ContentType())
	assert.Equal(t, "application/xml", FormatXML.ContentType())
	assert.Equal(t, "application/octet-stream", ExportFormat("bin").ContentType())
}

func TestExportFormatExt(t *testing.T) {
	assert.Equal(t, "csv", FormatCSV.Ext())
	assert.Equal(t, "json", FormatJSON.Ext())
	assert.Equal(t, "xml", FormatXML.Ext())
}

func TestExportFormatUnmarshalText(t *testing.T) {
	var f ExportFormat

	require.NoError(t, f.UnmarshalText([]byte("  XML ")))
	assert.Equal(t, FormatXML, f)

	require.NoError(t, f.UnmarshalText([]byte("")))
	assert.Equal(t, ExportFormat(""), f, "omitted format stays empty until Normalize")

	err := f.UnmarshalText([]byte("parquet"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parquet")
}
