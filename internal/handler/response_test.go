package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/kuvote/internal/apperror"
)

func TestWriteError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"validation", apperror.ValidationFailed("email", "must end with @ku.th"), http.StatusBadRequest, "validation_error"},
		{"unauthorized", apperror.Unauthorized("incorrect vote PIN"), http.StatusUnauthorized, "unauthorized"},
		{"forbidden", apperror.Forbidden("voting rights already used"), http.StatusForbidden, "forbidden"},
		{"not found", apperror.NotFound("candidate"), http.StatusNotFound, "not_found"},
		{"conflict", apperror.Conflict("email already registered"), http.StatusConflict, "conflict"},
		{"dependency", apperror.Dependency("could not send mail", errors.New("smtp refused")), http.StatusInternalServerError, "dependency_error"},
		{"unknown", errors.New("sql: connection reset"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			writeError(rr, tt.err)

			assert.Equal(t, tt.wantStatus, rr.Code)

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.Equal(t, tt.wantError, body.Error)
		})
	}
}

// Raw internal error text must never reach the client.
func TestWriteError_HidesInternalDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, errors.New("dial tcp 10.0.0.5:5432: connection refused"))

	assert.NotContains(t, rr.Body.String(), "10.0.0.5")
	assert.Contains(t, rr.Body.String(), "internal_error")
}

// The Dependency mapping keeps the friendly message, not the wrapped cause.
func TestWriteError_DependencyKeepsMessage(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, apperror.Dependency("could not send verification mail, please try again later",
		errors.New("smtp: 550 relay denied")))

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "could not send verification mail, please try again later", body.Message)
	assert.NotContains(t, body.Message, "550")
}
