package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServices(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[ServiceMode]bool
		wantErr bool
	}{
		{
			name:  "single service",
			input: "http",
			want:  map[ServiceMode]bool{ServiceModeHTTP: true},
		},
		{
			name:  "both services",
			input: "http,worker",
			want:  map[ServiceMode]bool{ServiceModeHTTP: true, ServiceModeWorker: true},
		},
		{
			name:  "whitespace tolerated",
			input: " worker , http ",
			want:  map[ServiceMode]bool{ServiceModeHTTP: true, ServiceModeWorker: true},
		},
		{
			name:  "duplicates collapse",
			input: "worker,worker",
			want:  map[ServiceMode]bool{ServiceModeWorker: true},
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
		{
			name:    "only separators",
			input:   " , ,",
			wantErr: true,
		},
		{
			name:    "unknown service",
			input:   "http,cron",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseServices(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAppConfigServiceFlags(t *testing.T) {
	cfg := AppConfig{Services: "http"}
	assert.True(t, cfg.IsHTTPServerEnabled())
	assert.False(t, cfg.IsWorkerEnabled())

	cfg.Services = "worker"
	assert.False(t, cfg.IsHTTPServerEnabled())
	assert.True(t, cfg.IsWorkerEnabled())

	cfg.Services = "bogus"
	assert.False(t, cfg.IsHTTPServerEnabled())
	assert.False(t, cfg.IsWorkerEnabled())
}

func TestExportConfigSanitize(t *testing.T) {
	cfg := ExportConfig{MinRange: -1, MaxRange: 0, SampleInterval: 0}
	cfg.Sanitize()

	assert.Equal(t, time.Minute, cfg.MinRange)
	assert.Equal(t, 365*24*time.Hour, cfg.MaxRange)
	assert.Equal(t, time.Minute, cfg.SampleInterval)

	// Max below min collapses to the default max.
	cfg = ExportConfig{MinRange: 48 * time.Hour, MaxRange: time.Hour, SampleInterval: time.Second}
	cfg.Sanitize()
	assert.Equal(t, 365*24*time.Hour, cfg.MaxRange)
}

func TestWorkerConfigSanitize(t *testing.T) {
	cfg := WorkerConfig{Count: 0, DequeueTimeout: -time.Second}
	cfg.Sanitize()

	assert.Equal(t, 1, cfg.Count)
	assert.Equal(t, 5*time.Second, cfg.DequeueTimeout)
}

func TestQueueConfigSanitize(t *testing.T) {
	cfg := QueueConfig{Key: "   ", MaxAttempts: 0}
	cfg.Sanitize()

	assert.Equal(t, "meter-export:jobs", cfg.Key)
	assert.Equal(t, 1, cfg.MaxAttempts)
}
