package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/kuvote/internal/apperror"
	"github.com/sakif/kuvote/internal/model"
	"github.com/sakif/kuvote/internal/repository"
)

// UserStore implements repository.UserRepository over the users table.
type UserStore struct {
	conn *sql.DB
}

var _ repository.UserRepository = (*UserStore)(nil)

// Create inserts a new voter account. The caller provides the email (already
// normalized) and both hashes; ID and CreatedAt are filled in here.
//
// A UNIQUE violation on email is translated to apperror.ErrConflict so the
// service layer never has to know sqlite error strings.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	user.CreatedAt = time.Now().UTC()

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, faculty, login_password_hash, vote_pin_hash,
		                    is_verified, has_voted, voted_candidate, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.Faculty,
		user.LoginPasswordHash,
		user.VotePinHash,
		user.IsVerified,
		user.HasVoted,
		user.VotedCandidate,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("email already registered")
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Email, err)
	}

	return nil
}

// GetByEmail retrieves a user by their normalized email address.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getUser(ctx, `email = ?`, email)
}

// GetByID retrieves a user by their internal ID.
func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.getUser(ctx, `id = ?`, id)
}

func (s *UserStore) getUser(ctx context.Context, where string, arg any) (*model.User, error) {
	var u model.User
	var votedCandidate sql.NullInt64

	err := s.conn.QueryRowContext(ctx,
		`SELECT id, email, faculty, login_password_hash, vote_pin_hash,
		        is_verified, has_voted, voted_candidate, created_at
		 FROM users WHERE `+where,
		arg,
	).Scan(
		&u.ID,
		&u.Email,
		&u.Faculty,
		&u.LoginPasswordHash,
		&u.VotePinHash,
		&u.IsVerified,
		&u.HasVoted,
		&votedCandidate,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user")
		}
		return nil, fmt.Errorf("sqlite: getting user: %w", err)
	}

	if votedCandidate.Valid {
		u.VotedCandidate = &votedCandidate.Int64
	}

	return &u, nil
}

// MarkVerified flips is_verified from false to true.
//
// The WHERE clause makes the flip conditional: zero rows matched means the
// user either doesn't exist (expired and swept, most likely) or was already
// verified — the two cases produce distinct errors for the caller.
func (s *UserStore) MarkVerified(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE users SET is_verified = 1 WHERE id = ? AND is_verified = 0`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: marking user %s verified: %w", id, err)
	}

	matched, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: marking user %s verified: %w", id, err)
	}
	if matched == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err // not found
		}
		return apperror.ValidationFailed("token", "email already verified")
	}

	return nil
}

// MarkVoted records the user's vote with a single conditional write.
//
// THIS IS THE AT-MOST-ONCE GUARANTEE. Two concurrent requests can both read
// has_voted = 0, but only one UPDATE can match the `has_voted = 0` predicate;
// the loser matches zero rows and gets the conflict error. There is no
// read-then-write window to race through.
func (s *UserStore) MarkVoted(ctx context.Context, id string, candidateID int64) error {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE users SET has_voted = 1, voted_candidate = ?
		 WHERE id = ? AND has_voted = 0`,
		candidateID, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: marking user %s voted: %w", id, err)
	}

	matched, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: marking user %s voted: %w", id, err)
	}
	if matched == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err // not found
		}
		return apperror.Forbidden("voting rights already used")
	}

	return nil
}

// UpdatePasswordHash replaces the stored login password hash.
func (s *UserStore) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE users SET login_password_hash = ? WHERE id = ?`,
		hash, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating password hash for user %s: %w", id, err)
	}

	matched, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: updating password hash for user %s: %w", id, err)
	}
	if matched == 0 {
		return apperror.NotFound("user")
	}

	return nil
}

// Delete removes a user record. Tally rebalancing for voters is the admin
// service's job — this is a plain delete.
func (s *UserStore) Delete(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}

	matched, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}
	if matched == 0 {
		return apperror.NotFound("user")
	}

	return nil
}

// DeleteUnverifiedBefore removes unverified accounts created before cutoff.
// Called periodically by the sweeper; uses the partial index from migrate().
func (s *UserStore) DeleteUnverifiedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM users WHERE is_verified = 0 AND created_at < ?`,
		cutoff.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: expiring unverified users: %w", err)
	}

	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: expiring unverified users: %w", err)
	}
	return removed, nil
}

// isUniqueViolation reports whether err is a sqlite UNIQUE constraint error.
// modernc.org/sqlite wraps SQLITE_CONSTRAINT_UNIQUE in its own error type;
// matching on the message is the portable check.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
