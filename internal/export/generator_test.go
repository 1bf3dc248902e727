package export

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridpoint/meter-export/internal/core"
)

func TestSyntheticGeneratorValidate(t *testing.T) {
	g := NewSyntheticGenerator(time.Minute)

	tests := []struct {
		name    string
		meterID string
		want    bool
	}{
		{name: "numeric id", meterID: "1001", want: true},
		{name: "digit prefix", meterID: "42-west", want: true},
		{name: "alphabetic id", meterID: "unknown-meter", want: false},
		{name: "empty id", meterID: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.Validate(context.Background(), tt.meterID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSyntheticGeneratorGenerate(t *testing.T) {
	g := NewSyntheticGenerator(time.Minute)
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	readings, err := g.Generate(context.Background(), core.GenerateParams{
		MeterID: "1001",
		Start:   start,
		End:     end,
	})
	require.NoError(t, err)

	// One reading per minute, start through end inclusive.
	require.Len(t, readings, 61)
	assert.Equal(t, start, readings[0].Timestamp)
	assert.Equal(t, end, readings[len(readings)-1].Timestamp)

	for i, r := range readings {
		if i > 0 {
			assert.Equal(t, time.Minute, r.Timestamp.Sub(readings[i-1].Timestamp),
				"readings must be evenly spaced")
		}
		assert.Equal(t, "1001", r.MeterID)
		assert.Greater(t, r.VoltageV, 220.0)
		assert.Less(t, r.VoltageV, 240.0)
		assert.Positive(t, r.PowerKW)
		assert.Positive(t, r.CurrentA)
		assert.Positive(t, r.EnergyKWh)
	}
}

func TestSyntheticGeneratorGenerateSingleSample(t *testing.T) {
	g := NewSyntheticGenerator(time.Minute)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	readings, err := g.Generate(context.Background(), core.GenerateParams{
		MeterID: "7",
		Start:   at,
		End:     at,
	})
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, at, readings[0].Timestamp)
}

func TestSyntheticGeneratorGenerateCanceled(t *testing.T) {
	g := NewSyntheticGenerator(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err := g.Generate(ctx, core.GenerateParams{
		MeterID: "1001",
		Start:   start,
		End:     start.Add(24 * time.Hour),
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewSyntheticGeneratorDefaultsInterval(t *testing.T) {
	g := NewSyntheticGenerator(0)
	assert.Equal(t, time.Minute, g.Interval())
}
