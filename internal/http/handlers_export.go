// Package httpx provides HTTP handlers and utilities for the meter export API.
package httpx

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gridpoint/meter-export/internal/domain/model"
	"github.com/gridpoint/meter-export/internal/service"
)

// ExportHandlers provides HTTP handlers for export job operations.
type ExportHandlers struct {
	Svc    *service.ExportService
	Logger *slog.Logger
}

// CreateExport handles POST /api/export: validate, persist a PENDING job and
// schedule it. Responds 202 since the export itself happens asynchronously.
func (h *ExportHandlers) CreateExport(w http.ResponseWriter, r *http.Request) {
	var req model.CreateExportRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	view, err := h.Svc.Submit(r.Context(), &req)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusAccepted, view)
}

// GetStatus handles GET /api/export/status/{job_id}.
func (h *ExportHandlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")
	if jobID == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_path",
			Err:     errors.New("job id is required"),
		})
		return
	}

	view, err := h.Svc.Status(r.Context(), jobID)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, view)
}

// Download handles GET /api/export/download/{job_id}. The artifact is served
// as its stored gzip byte stream with Content-Encoding set, so clients
// receive the decompressed document transparently.
func (h *ExportHandlers) Download(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")
	if jobID == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_path",
			Err:     errors.New("job id is required"),
		})
		return
	}

	download, err := h.Svc.Artifact(r.Context(), jobID)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	defer func() {
		if closeErr := download.Body.Close(); closeErr != nil && h.Logger != nil {
			h.Logger.Debug("artifact close failed", "job_id", jobID, "error", closeErr)
		}
	}()

	w.Header().Set("Content-Type", download.ContentType)
	w.Header().Set("Content-Encoding", download.ContentEncoding)
	w.Header().Set("Content-Length", strconv.FormatInt(download.ContentLength, 10))
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", download.Filename))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, download.Body); err != nil && h.Logger != nil {
		// Mid-stream failures cannot change the status code anymore.
		h.Logger.Debug("artifact stream interrupted", "job_id", jobID, "error", err)
	}
}

// GetHistory handles GET /api/export/history/{meter_id} with limit/offset
// pagination.
func (h *ExportHandlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	meterID := r.PathValue("meter_id")
	if meterID == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_path",
			Err:     errors.New("meter id is required"),
		})
		return
	}

	limit := parseIntQuery(r, "limit", 0)
	offset := parseIntQuery(r, "offset", 0)

	view, err := h.Svc.History(r.Context(), meterID, limit, offset)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, view)
}

// parseIntQuery extracts an integer query parameter, falling back to a
// default on absence or garbage.
func parseIntQuery(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
