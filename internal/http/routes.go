package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gridpoint/meter-export/internal/service"
)

var errNotFound = errors.New("resource not found")

// RouterServices holds the services needed by the HTTP router.
type RouterServices struct {
	Export       *service.ExportService
	HealthChecks []HealthCheck // Dependency probes behind /healthz (optional)
	Logger       *slog.Logger  // Logger for request logging and panic recovery (optional)
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	exportHandlers := &ExportHandlers{Svc: services.Export, Logger: services.Logger}
	registerExportRoutes(mux, exportHandlers)

	health := healthHandler(services.HealthChecks, services.Logger)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)
	mux.Handle("GET /", http.HandlerFunc(rootHandler))

	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var handler http.Handler = mux
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler
}

func registerExportRoutes(mux *http.ServeMux, h *ExportHandlers) {
	mux.Handle("POST /api/export", http.HandlerFunc(h.CreateExport))
	mux.Handle("GET /api/export/status/{job_id}", http.HandlerFunc(h.GetStatus))
	mux.Handle("GET /api/export/download/{job_id}", http.HandlerFunc(h.Download))
	mux.Handle("GET /api/export/history/{meter_id}", http.HandlerFunc(h.GetHistory))
}
