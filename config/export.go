package config

import "time"

// ExportConfig contains export pipeline configuration.
//
// Range bounds are enforced at submission time, not by the worker:
// a job that made it into the store is considered well-formed.
type ExportConfig struct {
	// Directory is where finished gzip artifacts are written.
	Directory string `env:"DIRECTORY" envDefault:"/var/lib/meter-export"`

	// MinRange is the smallest accepted export window.
	MinRange time.Duration `env:"MIN_RANGE" envDefault:"1m"`

	// MaxRange is the largest accepted export window.
	MaxRange time.Duration `env:"MAX_RANGE" envDefault:"8760h"` // 365 days

	// SampleInterval is the spacing between consecutive readings
	// produced by the data generator.
	SampleInterval time.Duration `env:"SAMPLE_INTERVAL" envDefault:"1m"`
}

// Sanitize applies guardrails to export configuration values.
func (c *ExportConfig) Sanitize() {
	if c.MinRange <= 0 {
		c.MinRange = time.Minute
	}
	if c.MaxRange <= 0 || c.MaxRange < c.MinRange {
		c.MaxRange = 365 * 24 * time.Hour
	}
	if c.SampleInterval <= 0 {
		c.SampleInterval = time.Minute
	}
}
