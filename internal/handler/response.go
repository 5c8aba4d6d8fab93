package handler

// RESPONSE HELPERS:
// Every handler sends JSON through these two functions, so every response —
// success or failure — has the same shape:
//
//	{"error": "forbidden", "message": "voting rights already used"}
//
// writeError is also the only place domain errors meet HTTP status codes.
// Services return apperror kinds; this maps them. Unknown errors collapse to
// a generic 500 — raw internal error text (SQL, file paths, SMTP chatter)
// never crosses the boundary.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/kuvote/internal/apperror"
	"github.com/sakif/kuvote/internal/service"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // machine-readable kind, e.g. "conflict"
	Message string `json:"message"` // human-readable description
}

// writeJSON sends a JSON response with the given status code.
// Headers and status must be written before the body — w.Write sends them.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already gone; logging is all that's left.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status and sends it.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		case errors.Is(err, apperror.ErrDependency):
			status = http.StatusInternalServerError
			errorType = "dependency_error"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// requesterFrom extracts the audit metadata from a request. RemoteAddr is
// the real client IP when chi's RealIP middleware runs first.
func requesterFrom(r *http.Request) service.Requester {
	return service.Requester{
		SourceIP: r.RemoteAddr,
		Client:   r.UserAgent(),
	}
}
