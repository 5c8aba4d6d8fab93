// Package repository declares the storage interfaces the services depend on.
//
// Services receive these interfaces, never the concrete sqlite types — tests
// substitute in-memory fakes, and the store could move to another backend by
// changing one line in the server wiring.
package repository

import (
	"context"
	"time"

	"github.com/sakif/kuvote/internal/model"
)

// CandidateOrder selects the sort order for candidate listings.
type CandidateOrder int

const (
	// OrderByCandidateID is the canonical ballot order: 1, 2, 3...
	OrderByCandidateID CandidateOrder = iota
	// OrderByVotes is the dashboard order: highest tally first.
	OrderByVotes
)

// UserRepository persists voter accounts.
//
// MarkVerified and MarkVoted are CONDITIONAL writes, not read-then-write:
// they must only succeed when the flag is still unset at write time, and
// report a conflict otherwise. MarkVoted is the one place in the system that
// needs linearizable at-most-once semantics — two concurrent votes by the
// same user must never both succeed.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	MarkVerified(ctx context.Context, id string) error
	MarkVoted(ctx context.Context, id string, candidateID int64) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	Delete(ctx context.Context, id string) error
	// DeleteUnverifiedBefore removes unverified accounts created before the
	// cutoff and returns how many were removed. Stands in for the original
	// store's partial TTL index.
	DeleteUnverifiedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// CandidateRepository persists ballot entries and hands out ballot numbers.
type CandidateRepository interface {
	// NextCandidateID atomically increments the candidate counter and
	// returns the new value. Concurrent callers always receive distinct,
	// consecutive ids.
	NextCandidateID(ctx context.Context) (int64, error)
	Create(ctx context.Context, candidate *model.Candidate) error
	GetByCandidateID(ctx context.Context, candidateID int64) (*model.Candidate, error)
	List(ctx context.Context, order CandidateOrder) ([]model.Candidate, error)
	// AdjustVotes atomically adds delta to a candidate's tally (+1 on a
	// vote, -1 when an admin deletes a voter who had voted).
	AdjustVotes(ctx context.Context, candidateID, delta int64) error
}

// AuditRepository is the append-only log of security-relevant events.
type AuditRepository interface {
	Append(ctx context.Context, entry *model.AuditEntry) error
	// List returns the most recent entries, newest first, at most limit.
	List(ctx context.Context, limit int) ([]model.AuditEntry, error)
}

// StatsRepository aggregates over users and candidates for dashboards.
type StatsRepository interface {
	Stats(ctx context.Context) (*model.Stats, error)
}
