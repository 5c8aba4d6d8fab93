package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/kuvote/internal/service"
)

// CandidateHandler serves ballot management and the read-only dashboard
// queries.
type CandidateHandler struct {
	candidates *service.CandidateService
	logger     *slog.Logger
}

// NewCandidateHandler creates a CandidateHandler.
func NewCandidateHandler(candidates *service.CandidateService, logger *slog.Logger) *CandidateHandler {
	return &CandidateHandler{candidates: candidates, logger: logger}
}

// HandleAddCandidate creates a ballot entry.
//
// HTTP: POST /candidate
// 201 + {candidateId}.
func (h *CandidateHandler) HandleAddCandidate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string   `json:"name"`
		Faculty  string   `json:"faculty"`
		Position string   `json:"position"`
		Policies []string `json:"policies"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "request body must be valid JSON",
		})
		return
	}

	candidate, err := h.candidates.AddCandidate(r.Context(), service.AddCandidateInput{
		Name:     body.Name,
		Faculty:  body.Faculty,
		Position: body.Position,
		Policies: body.Policies,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":     "candidate added",
		"candidateId": candidate.CandidateID,
	})
}

// HandleListCandidates returns the ballot in canonical order (ballot number
// ascending).
//
// HTTP: GET /candidates
func (h *CandidateHandler) HandleListCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.candidates.ListCandidates(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, candidates)
}

// HandleResults returns candidates ordered by tally, highest first.
//
// HTTP: GET /results
func (h *CandidateHandler) HandleResults(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.candidates.Results(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, candidates)
}

// HandleStats returns the dashboard aggregation.
//
// HTTP: GET /stats
func (h *CandidateHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.candidates.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
