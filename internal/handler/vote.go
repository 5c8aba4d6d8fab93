package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/kuvote/internal/auth"
	"github.com/sakif/kuvote/internal/service"
)

// VoteHandler serves the vote-casting endpoint.
type VoteHandler struct {
	voting *service.VotingService
	logger *slog.Logger
}

// NewVoteHandler creates a VoteHandler.
func NewVoteHandler(voting *service.VotingService, logger *slog.Logger) *VoteHandler {
	return &VoteHandler{voting: voting, logger: logger}
}

// HandleCastVote casts the caller's single vote.
//
// HTTP: POST /vote (bearer session)
//
// The body carries ONLY the PIN and the ballot number. The voter's identity
// comes from the session the middleware validated — an email field in the
// body would be an invitation to vote as someone else, so there isn't one.
//
// 200 success; 401 wrong PIN; 403 already voted; 404 unknown candidate.
func (h *VoteHandler) HandleCastVote(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "valid session token required",
		})
		return
	}

	var body struct {
		VotePin     string `json:"votePin"`
		CandidateID int64  `json:"candidateId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "request body must be valid JSON",
		})
		return
	}

	err := h.voting.CastVote(r.Context(), identity.UserID, body.VotePin, body.CandidateID, requesterFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "vote recorded"})
}
