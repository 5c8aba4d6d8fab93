package service

import (
	"context"
	"log/slog"

	"github.com/sakif/kuvote/internal/model"
	"github.com/sakif/kuvote/internal/repository"
)

// AdminService implements the administrative operations: removing a voter
// (with tally rebalancing) and reading the audit trail.
type AdminService struct {
	users      repository.UserRepository
	candidates repository.CandidateRepository
	auditLog   repository.AuditRepository
	audit      *Auditor
	logger     *slog.Logger
}

// NewAdminService creates an AdminService.
func NewAdminService(
	users repository.UserRepository,
	candidates repository.CandidateRepository,
	auditLog repository.AuditRepository,
	audit *Auditor,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		users:      users,
		candidates: candidates,
		auditLog:   auditLog,
		audit:      audit,
		logger:     logger,
	}
}

// DeleteUser removes a voter account.
//
// TALLY CONSISTENCY: if the user had voted, their candidate's tally must
// come down by one, or `candidate.votes == count(voters for candidate)`
// stops holding the moment a voter is deleted. The decrement happens before
// the delete so a failure leaves the user (and the invariant) in place.
func (s *AdminService) DeleteUser(ctx context.Context, id string, req Requester) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if user.HasVoted && user.VotedCandidate != nil {
		if err := s.candidates.AdjustVotes(ctx, *user.VotedCandidate, -1); err != nil {
			s.logger.Error("tally rebalance failed, user not deleted",
				slog.String("userID", id),
				slog.Int64("candidateID", *user.VotedCandidate),
				slog.String("error", err.Error()),
			)
			return err
		}
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}

	detail := map[string]any{"hadVoted": user.HasVoted}
	if user.VotedCandidate != nil {
		detail["candidateId"] = *user.VotedCandidate
	}
	s.audit.Record(ctx, model.AuditUserDeleted, user.Email, req, detail)
	s.logger.Info("user deleted",
		slog.String("userID", id),
		slog.Bool("hadVoted", user.HasVoted),
	)

	return nil
}

// AuditTrail returns the most recent audit entries, newest first.
func (s *AdminService) AuditTrail(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	return s.auditLog.List(ctx, limit)
}
