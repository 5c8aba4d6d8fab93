package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sakif/kuvote/internal/apperror"
	"github.com/sakif/kuvote/internal/model"
	"github.com/sakif/kuvote/internal/repository"
)

// CandidateStore implements repository.CandidateRepository over the
// candidates and counters tables.
type CandidateStore struct {
	conn *sql.DB
}

var _ repository.CandidateRepository = (*CandidateStore)(nil)

// counterName is the key of the single ballot-number counter row.
const counterName = "candidateId"

// NextCandidateID atomically hands out the next ballot number.
//
// Two statements inside one transaction:
//  1. upsert the counter row at 0 on first use
//  2. UPDATE ... RETURNING seq — increment and read back in a single
//     statement, so concurrent callers can never observe the same value
//
// If RETURNING yields no row the store is misconfigured (the upsert should
// make that impossible); that is a hard error, not something to retry.
func (s *CandidateStore) NextCandidateID(ctx context.Context) (int64, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: starting counter transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO counters (name, seq) VALUES (?, 0)
		 ON CONFLICT(name) DO NOTHING`,
		counterName,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: initialising counter: %w", err)
	}

	var seq int64
	err = tx.QueryRowContext(ctx,
		`UPDATE counters SET seq = seq + 1 WHERE name = ? RETURNING seq`,
		counterName,
	).Scan(&seq)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("sqlite: counter row %q missing after upsert", counterName)
		}
		return 0, fmt.Errorf("sqlite: incrementing counter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: committing counter transaction: %w", err)
	}

	return seq, nil
}

// Create inserts a candidate. The caller must have assigned CandidateID via
// NextCandidateID first; CreatedAt is filled in here.
func (s *CandidateStore) Create(ctx context.Context, candidate *model.Candidate) error {
	if candidate.CandidateID == 0 {
		return fmt.Errorf("sqlite: candidate has no ballot number")
	}

	candidate.CreatedAt = time.Now().UTC()
	if candidate.Policies == nil {
		candidate.Policies = []string{}
	}

	policies, err := json.Marshal(candidate.Policies)
	if err != nil {
		return fmt.Errorf("sqlite: encoding policies: %w", err)
	}

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO candidates (candidate_id, name, faculty, position, policies, votes, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?)`,
		candidate.CandidateID,
		candidate.Name,
		candidate.Faculty,
		candidate.Position,
		string(policies),
		candidate.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting candidate %d: %w", candidate.CandidateID, err)
	}

	return nil
}

// GetByCandidateID retrieves a candidate by ballot number.
func (s *CandidateStore) GetByCandidateID(ctx context.Context, candidateID int64) (*model.Candidate, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT candidate_id, name, faculty, position, policies, votes, created_at
		 FROM candidates WHERE candidate_id = ?`,
		candidateID,
	)

	c, err := scanCandidate(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("candidate")
		}
		return nil, fmt.Errorf("sqlite: getting candidate %d: %w", candidateID, err)
	}

	return c, nil
}

// List returns all candidates in the requested order.
func (s *CandidateStore) List(ctx context.Context, order repository.CandidateOrder) ([]model.Candidate, error) {
	orderBy := "candidate_id ASC"
	if order == repository.OrderByVotes {
		// Ballot number breaks ties so the dashboard order is stable.
		orderBy = "votes DESC, candidate_id ASC"
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT candidate_id, name, faculty, position, policies, votes, created_at
		 FROM candidates ORDER BY `+orderBy,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing candidates: %w", err)
	}
	defer rows.Close()

	candidates := []model.Candidate{}
	for rows.Next() {
		c, err := scanCandidate(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning candidate: %w", err)
		}
		candidates = append(candidates, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: listing candidates: %w", err)
	}

	return candidates, nil
}

// AdjustVotes atomically adds delta to a candidate's tally. The increment
// happens inside the UPDATE — never read-modify-write in Go.
func (s *CandidateStore) AdjustVotes(ctx context.Context, candidateID, delta int64) error {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE candidates SET votes = votes + ? WHERE candidate_id = ?`,
		delta, candidateID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: adjusting votes for candidate %d: %w", candidateID, err)
	}

	matched, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: adjusting votes for candidate %d: %w", candidateID, err)
	}
	if matched == 0 {
		return apperror.NotFound("candidate")
	}

	return nil
}

// scanCandidate reads one candidate row through any Scan-shaped function
// (sql.Row or sql.Rows), decoding the policies JSON column.
func scanCandidate(scan func(dest ...any) error) (*model.Candidate, error) {
	var c model.Candidate
	var policies string

	err := scan(
		&c.CandidateID,
		&c.Name,
		&c.Faculty,
		&c.Position,
		&policies,
		&c.Votes,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(policies), &c.Policies); err != nil {
		return nil, fmt.Errorf("decoding policies for candidate %s: %w",
			strconv.FormatInt(c.CandidateID, 10), err)
	}

	return &c, nil
}
