package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP API server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeWorker runs the export worker pool.
	ServiceModeWorker ServiceMode = "worker"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{ServiceModeHTTP, ServiceModeWorker}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	parts := strings.Split(servicesStr, ",")
	for _, part := range parts {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeWorker:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: http, worker)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// WorkerConfig contains export worker configuration.
type WorkerConfig struct {
	// Count is the number of concurrent worker goroutines pulling from the queue.
	Count int `env:"COUNT" envDefault:"2"`

	// DequeueTimeout is how long a single blocking dequeue waits before
	// re-checking for shutdown.
	DequeueTimeout time.Duration `env:"DEQUEUE_TIMEOUT" envDefault:"5s"`
}

// Sanitize applies guardrails to worker configuration values.
func (c *WorkerConfig) Sanitize() {
	if c.Count < 1 {
		c.Count = 1
	}
	if c.DequeueTimeout <= 0 {
		c.DequeueTimeout = 5 * time.Second
	}
}

// QueueConfig contains task queue configuration.
type QueueConfig struct {
	// Key is the Redis list key jobs are delivered on.
	Key string `env:"KEY" envDefault:"meter-export:jobs"`

	// MaxAttempts bounds transport-level redelivery of a failed task.
	// Exhausted tasks land on the dead-letter list (Key + ":dead").
	MaxAttempts int `env:"MAX_ATTEMPTS" envDefault:"3"`
}

// Sanitize applies guardrails to queue configuration values.
func (c *QueueConfig) Sanitize() {
	if strings.TrimSpace(c.Key) == "" {
		c.Key = "meter-export:jobs"
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
}
