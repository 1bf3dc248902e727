package httpx

import (
	"context"
	"log/slog"
	"net/http"
)

// HealthCheck is one named dependency probe run by the health endpoint.
type HealthCheck struct {
	Name  string
	Check func(context.Context) error
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// healthHandler probes every wired dependency and reports 200 when all pass,
// 503 with the failing checks marked when any dependency is unreachable.
func healthHandler(checks []HealthCheck, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok"}
		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
		}

		code := http.StatusOK
		for _, c := range checks {
			if err := c.Check(r.Context()); err != nil {
				resp.Status = "degraded"
				resp.Checks[c.Name] = "unavailable"
				code = http.StatusServiceUnavailable
				if logger != nil {
					logger.WarnContext(r.Context(), "health check failed",
						"check", c.Name, "error", err)
				}
				continue
			}
			resp.Checks[c.Name] = "ok"
		}

		if r.Method == http.MethodHead {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(code)
			return
		}
		WriteJSON(w, code, resp)
	}
}

// serviceDescription is the discovery document served at the root path.
var serviceDescription = map[string]any{
	"service": "Meter Data Export Service",
	"version": "1.0.0",
	"endpoints": map[string]string{
		"create_export": "POST /api/export",
		"job_status":    "GET /api/export/status/{job_id}",
		"download":      "GET /api/export/download/{job_id}",
		"history":       "GET /api/export/history/{meter_id}",
		"health":        "GET /healthz",
	},
}

// rootHandler describes the service and its endpoints.
func rootHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		WriteError(w, ErrorParams{
			Code:    http.StatusNotFound,
			ErrCode: "not_found",
			Err:     errNotFound,
		})
		return
	}
	WriteJSON(w, http.StatusOK, serviceDescription)
}
