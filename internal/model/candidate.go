package model

import "time"

// Candidate represents one entry on the ballot.
//
// CandidateID is the human-facing ballot number: a dense sequence 1, 2, 3...
// handed out by the counter table, never reused and never derived from the
// database's own row id. Frontends, votes, and results all key on it.
//
// Votes is a denormalised tally. The source of truth is the set of users
// with VotedCandidate == CandidateID; the voting engine keeps the two in
// step by only ever touching Votes through atomic increments (and the one
// decrement on admin user deletion).
type Candidate struct {
	CandidateID int64     `json:"candidateId"`
	Name        string    `json:"name"`
	Faculty     string    `json:"faculty"`
	Position    string    `json:"position"`
	Policies    []string  `json:"policies"`
	Votes       int64     `json:"votes"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Stats is the read-only aggregation served to dashboards.
type Stats struct {
	TotalUsers     int64            `json:"totalUsers"`
	VerifiedUsers  int64            `json:"verifiedUsers"`
	VotesCast      int64            `json:"votesCast"`
	CandidateCount int64            `json:"candidateCount"`
	VotesByFaculty map[string]int64 `json:"votesByFaculty"`
}
