// Package auth — credential hashing and verification.
//
// WHY BCRYPT?
// bcrypt is a password hashing function specifically designed to be slow.
// That slowness is a security feature: it makes brute-force attacks expensive.
//
// bcrypt automatically:
//   - Generates a random salt (two users with the same secret get different hashes)
//   - Embeds the salt in the output hash (no separate salt column needed)
//   - Controls the work factor via "cost" (higher = slower = harder to crack)
//
// This service hashes BOTH user secrets — the login password and the vote
// PIN. They go through identical machinery but are hashed in separate calls,
// so each gets its own salt and the two hashes can never be cross-checked.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor.
//
// Cost 12 takes roughly ~250ms on a modern server — negligible for a login
// or a single vote, brutal for an attacker grinding a stolen hash dump.
const defaultCost = 12

// ErrSecretMismatch is returned by Verify when the secret does not match the
// stored hash. Callers translate it to their own domain error ("incorrect
// password" vs "incorrect vote PIN").
var ErrSecretMismatch = errors.New("auth: secret does not match")

// PasswordService provides bcrypt hashing and verification.
//
// It's a struct (not free functions) so the cost can be injected in tests —
// cost 4 makes a test suite that registers many users tolerable.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost (12).
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest creates a PasswordService with a reduced bcrypt
// cost. Use cost 4 (the bcrypt minimum) in tests; never in production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes the given plaintext secret with bcrypt.
//
// The output is a self-contained string (salt and cost embedded) that is
// stored directly in the users table. Returns an error if the plaintext is
// longer than 72 bytes — bcrypt silently truncates beyond that, and we
// reject rather than surprise the caller.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: secret must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing secret: %w", err)
	}

	return string(hashed), nil
}

// Verify checks whether a plaintext secret matches a stored bcrypt hash.
//
// Returns nil on a match, ErrSecretMismatch on a wrong secret, and some
// other error only if the stored hash itself is malformed.
//
// bcrypt.CompareHashAndPassword is constant-time internally, so response
// timing does not reveal how much of the secret was right.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrSecretMismatch
		}
		return fmt.Errorf("auth: comparing secret hash: %w", err)
	}
	return nil
}
