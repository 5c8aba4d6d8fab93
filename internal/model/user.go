// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered voter account.
//
// The external identity is the email address (unique, stored trimmed and
// lower-cased — login must match whatever case the user types). We still
// generate our own internal string ID (xid) so tokens and admin routes never
// carry the email around as a key.
//
// TWO SECRETS PER USER:
// LoginPasswordHash authenticates the session; VotePinHash authorises the
// single vote-casting action. They are hashed independently (bcrypt salts
// each hash on its own) and are never interchangeable.
//
// WHY VotedCandidate *int64?
// A user who has not voted has no candidate — nil models that honestly.
// The invariant is: HasVoted == true implies VotedCandidate != nil.
type User struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	Faculty           string    `json:"faculty"`
	LoginPasswordHash string    `json:"-"` // never serialized
	VotePinHash       string    `json:"-"` // never serialized
	IsVerified        bool      `json:"isVerified"`
	HasVoted          bool      `json:"hasVoted"`
	VotedCandidate    *int64    `json:"votedCandidate,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// UserSummary is the safe subset of User returned by the login endpoint.
// It deliberately omits the internal ID and both hashes.
type UserSummary struct {
	Email    string `json:"email"`
	Faculty  string `json:"faculty"`
	HasVoted bool   `json:"hasVoted"`
}

// Summary returns the login-response view of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{
		Email:    u.Email,
		Faculty:  u.Faculty,
		HasVoted: u.HasVoted,
	}
}
