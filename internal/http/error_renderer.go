package httpx

import (
	"net/http"

	apperrors "github.com/gridpoint/meter-export/internal/errors"
)

// fieldError is one per-field entry in a validation error response.
type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// validationResponse lists every violated field so clients can correct a
// request in one round trip.
type validationResponse struct {
	Error   string       `json:"error"`
	Message string       `json:"message"`
	Fields  []fieldError `json:"fields"`
}

// WriteAppError maps a service-layer error onto an HTTP status and writes the
// JSON error body.
func WriteAppError(w http.ResponseWriter, err error) {
	if verr, ok := apperrors.AsValidationErrors(err); ok {
		fields := make([]fieldError, 0, len(verr.Violations))
		for _, v := range verr.Violations {
			fields = append(fields, fieldError{Field: v.Field, Message: v.Message})
		}
		WriteJSON(w, http.StatusUnprocessableEntity, validationResponse{
			Error:   "validation_failed",
			Message: verr.Error(),
			Fields:  fields,
		})
		return
	}

	code := statusForError(err)
	WriteError(w, ErrorParams{
		Code:    code,
		ErrCode: errCodeForStatus(err),
		Err:     err,
	})
}

func statusForError(err error) int {
	switch {
	case apperrors.IsValidation(err):
		return http.StatusUnprocessableEntity
	case apperrors.IsNotFound(err):
		return http.StatusNotFound
	case apperrors.IsNotReady(err), apperrors.IsConflict(err):
		return http.StatusConflict
	case apperrors.IsTimeout(err):
		return http.StatusGatewayTimeout
	case apperrors.IsCanceled(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errCodeForStatus(err error) string {
	if code := apperrors.GetCode(err); code != "" {
		return string(code)
	}
	return string(apperrors.ErrCodeInternal)
}
