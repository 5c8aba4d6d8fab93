package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/kuvote/internal/service"
)

// AdminHandler serves the administrative endpoints. Exposure control
// (network placement, reverse-proxy auth) is a deployment concern; the
// handlers themselves carry no extra privileges beyond their routes.
type AdminHandler struct {
	admin  *service.AdminService
	logger *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(admin *service.AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, logger: logger}
}

// HandleDeleteUser removes a voter account, rebalancing the candidate tally
// if the voter had voted.
//
// HTTP: DELETE /admin/delete-user/{id}
func (h *AdminHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.admin.DeleteUser(r.Context(), id, requesterFrom(r)); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

// HandleAuditLog lists recent audit entries, newest first.
//
// HTTP: GET /admin/logs?limit=N (page size capped at 100)
func (h *AdminHandler) HandleAuditLog(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "validation_error",
				Message: "limit must be an integer",
			})
			return
		}
		limit = n
	}

	entries, err := h.admin.AuditTrail(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}
