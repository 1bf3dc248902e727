// Package metrics provides standardised metric emission helpers for the
// export job lifecycle.
package metrics

import (
	"time"

	"github.com/gridpoint/meter-export/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// ExportMetric captures details about an export job lifecycle event.
type ExportMetric struct {
	Format     string
	Transition string
	Result     string
	Duration   time.Duration
	Records    int
}

// EmitExportLifecycle emits counters and timings for one job lifecycle event.
func EmitExportLifecycle(sink statsd.Sink, in ExportMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"format":     in.Format,
		"transition": in.Transition,
		"result":     in.Result,
	}

	sink.Count("export.transition", 1, tags)

	if in.Duration > 0 {
		sink.Timing("export.duration", in.Duration, cloneTags(tags))
	}
	if in.Records > 0 {
		sink.Count("export.records", int64(in.Records), cloneTags(tags))
	}
}

// EmitSubmission counts one accepted submission by format.
func EmitSubmission(sink statsd.Sink, format string) {
	if sink == nil {
		return
	}
	sink.Count("export.submitted", 1, map[string]string{"format": format})
}

// EmitDownload counts one artifact download by format.
func EmitDownload(sink statsd.Sink, format string) {
	if sink == nil {
		return
	}
	sink.Count("export.downloaded", 1, map[string]string{"format": format})
}

func cloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
