package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/kuvote/internal/apperror"
	"github.com/sakif/kuvote/internal/model"
	"github.com/sakif/kuvote/internal/repository"
)

const maxNameLength = 200

// CandidateService manages the ballot and the read-only dashboard queries.
type CandidateService struct {
	candidates repository.CandidateRepository
	stats      repository.StatsRepository
	logger     *slog.Logger
}

// NewCandidateService creates a CandidateService.
func NewCandidateService(
	candidates repository.CandidateRepository,
	stats repository.StatsRepository,
	logger *slog.Logger,
) *CandidateService {
	return &CandidateService{
		candidates: candidates,
		stats:      stats,
		logger:     logger,
	}
}

// AddCandidateInput is the already-parsed add-candidate command.
type AddCandidateInput struct {
	Name     string
	Faculty  string
	Position string
	Policies []string
}

// AddCandidate assigns the next ballot number and creates the candidate.
//
// The ballot number comes from the atomic counter, so two admins adding
// candidates at the same time get consecutive distinct numbers. A number is
// consumed even if the insert then fails — the sequence stays monotonic, not
// hole-free across failures, which is fine: numbers are never reused.
func (s *CandidateService) AddCandidate(ctx context.Context, in AddCandidateInput) (*model.Candidate, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "candidate name is required")
	}
	if len(name) > maxNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("candidate name must be %d characters or less", maxNameLength))
	}
	if strings.TrimSpace(in.Position) == "" {
		return nil, apperror.ValidationFailed("position", "position is required")
	}

	candidateID, err := s.candidates.NextCandidateID(ctx)
	if err != nil {
		return nil, fmt.Errorf("assigning ballot number: %w", err)
	}

	candidate := &model.Candidate{
		CandidateID: candidateID,
		Name:        name,
		Faculty:     strings.TrimSpace(in.Faculty),
		Position:    strings.TrimSpace(in.Position),
		Policies:    in.Policies,
	}
	if err := s.candidates.Create(ctx, candidate); err != nil {
		return nil, fmt.Errorf("creating candidate %d: %w", candidateID, err)
	}

	s.logger.Info("candidate added",
		slog.Int64("candidateID", candidateID),
		slog.String("name", name),
	)

	return candidate, nil
}

// ListCandidates returns the ballot in canonical order: ballot number
// ascending.
func (s *CandidateService) ListCandidates(ctx context.Context) ([]model.Candidate, error) {
	return s.candidates.List(ctx, repository.OrderByCandidateID)
}

// Results returns candidates by tally, highest first, for dashboards.
func (s *CandidateService) Results(ctx context.Context) ([]model.Candidate, error) {
	return s.candidates.List(ctx, repository.OrderByVotes)
}

// Stats returns the dashboard aggregation.
func (s *CandidateService) Stats(ctx context.Context) (*model.Stats, error) {
	return s.stats.Stats(ctx)
}
