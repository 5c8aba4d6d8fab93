package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sakif/kuvote/internal/model"
	"github.com/sakif/kuvote/internal/repository"
)

// StatsStore implements repository.StatsRepository with read-only
// aggregations over the users and candidates tables.
type StatsStore struct {
	conn *sql.DB
}

var _ repository.StatsRepository = (*StatsStore)(nil)

// Stats aggregates the dashboard numbers in two queries. Votes are counted
// from the users table (the source of truth), not from the candidate
// tallies, so the dashboard doubles as a consistency check on them.
func (s *StatsStore) Stats(ctx context.Context) (*model.Stats, error) {
	var agg model.Stats

	err := s.conn.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE is_verified = 1),
			(SELECT COUNT(*) FROM users WHERE has_voted = 1),
			(SELECT COUNT(*) FROM candidates)
	`).Scan(&agg.TotalUsers, &agg.VerifiedUsers, &agg.VotesCast, &agg.CandidateCount)
	if err != nil {
		return nil, fmt.Errorf("sqlite: aggregating stats: %w", err)
	}

	rows, err := s.conn.QueryContext(ctx, `
		SELECT faculty, COUNT(*) FROM users
		WHERE has_voted = 1 GROUP BY faculty
	`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: aggregating faculty turnout: %w", err)
	}
	defer rows.Close()

	agg.VotesByFaculty = map[string]int64{}
	for rows.Next() {
		var faculty string
		var votes int64
		if err := rows.Scan(&faculty, &votes); err != nil {
			return nil, fmt.Errorf("sqlite: scanning faculty turnout: %w", err)
		}
		agg.VotesByFaculty[faculty] = votes
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: aggregating faculty turnout: %w", err)
	}

	return &agg, nil
}
