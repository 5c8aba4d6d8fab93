// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes the store
//
// Handlers never touch the store; services never touch HTTP. Every service
// receives its collaborators as interfaces so tests can substitute fakes.
//
// This file is the registration workflow: create a pending account, send the
// verification mail, and — the one explicit compensation pattern in the
// system — delete the account again if delivery fails. An account that can
// never be verified must not be left behind.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/sakif/kuvote/internal/apperror"
	"github.com/sakif/kuvote/internal/auth"
	"github.com/sakif/kuvote/internal/mail"
	"github.com/sakif/kuvote/internal/model"
	"github.com/sakif/kuvote/internal/repository"
)

// UnverifiedTTL is how long an unverified account survives before the
// sweeper removes it. Coupled to auth.VerificationTTL: a verification link
// used after the sweep simply finds no user.
const UnverifiedTTL = 10 * time.Minute

// RegistrationService implements registration, email verification, and the
// unverified-account expiry sweep.
type RegistrationService struct {
	users       repository.UserRepository
	tokens      *auth.TokenService
	passwords   *auth.PasswordService
	mailer      mail.Mailer
	audit       *Auditor
	logger      *slog.Logger
	emailDomain string // required email suffix, e.g. "@ku.th"
	frontendURL string // base for links embedded in mails
}

// NewRegistrationService creates a RegistrationService.
func NewRegistrationService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	mailer mail.Mailer,
	audit *Auditor,
	logger *slog.Logger,
	emailDomain, frontendURL string,
) *RegistrationService {
	return &RegistrationService{
		users:       users,
		tokens:      tokens,
		passwords:   passwords,
		mailer:      mailer,
		audit:       audit,
		logger:      logger,
		emailDomain: emailDomain,
		frontendURL: frontendURL,
	}
}

// RegisterInput is the already-parsed registration command. The handler
// decodes JSON into this; the service owns all further validation.
type RegisterInput struct {
	Email         string
	Faculty       string
	LoginPassword string
	VotePin       string
}

// Register runs the registration workflow.
//
// ORDER MATTERS:
//  1. validate everything — nothing is written for bad input
//  2. duplicate check (a verified duplicate and a pending one produce
//     different 409 messages, so the user knows which state they are in)
//  3. hash both secrets independently
//  4. insert the account, unverified
//  5. issue the verification token and send the mail
//  6. COMPENSATE: any failure after the insert deletes the account before
//     the error returns — insertion is provisional until delivery succeeds
func (s *RegistrationService) Register(ctx context.Context, in RegisterInput, req Requester) error {
	email := NormalizeEmail(in.Email)

	if err := s.validateRegistration(email, in); err != nil {
		return err
	}

	// Duplicate check. The UNIQUE constraint in the store still backs this
	// up if two registrations for the same email race past the lookup.
	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if !existing.IsVerified {
			return apperror.Conflict("registration already pending for this email, check your inbox")
		}
		return apperror.Conflict("email already registered")
	case !errors.Is(err, apperror.ErrNotFound):
		return fmt.Errorf("checking existing user %s: %w", email, err)
	}

	// Two separate Hash calls — each bcrypt hash gets its own salt.
	passwordHash, err := s.passwords.Hash(in.LoginPassword)
	if err != nil {
		return fmt.Errorf("hashing login password: %w", err)
	}
	pinHash, err := s.passwords.Hash(in.VotePin)
	if err != nil {
		return fmt.Errorf("hashing vote PIN: %w", err)
	}

	user := &model.User{
		Email:             email,
		Faculty:           strings.TrimSpace(in.Faculty),
		LoginPasswordHash: passwordHash,
		VotePinHash:       pinHash,
		IsVerified:        false,
		HasVoted:          false,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return err
	}

	// Everything past this point must roll the insert back on failure.
	token, err := s.tokens.GenerateVerification(user.ID)
	if err != nil {
		return s.compensate(ctx, user, fmt.Errorf("issuing verification token: %w", err))
	}

	link := fmt.Sprintf("%s/verify-email/%s", strings.TrimRight(s.frontendURL, "/"), token)
	html := fmt.Sprintf(
		`<h2>Verify your email</h2><p><a href="%s">Confirm your KUVote registration</a></p>`,
		link,
	)
	if err := s.mailer.Send(ctx, email, "Verify your KUVote email", html); err != nil {
		return s.compensate(ctx, user, err)
	}

	s.logger.Info("user registered, verification mail sent",
		slog.String("userID", user.ID),
		slog.String("faculty", user.Faculty),
	)
	s.audit.Record(ctx, model.AuditRegister, email, req, map[string]string{
		"faculty": user.Faculty,
	})

	return nil
}

// compensate deletes the provisionally inserted account and wraps the cause
// as a dependency error. If the delete itself fails the sweeper will still
// remove the record once it passes the unverified TTL.
func (s *RegistrationService) compensate(ctx context.Context, user *model.User, cause error) error {
	if delErr := s.users.Delete(context.WithoutCancel(ctx), user.ID); delErr != nil {
		s.logger.Error("registration rollback failed, sweeper will collect the record",
			slog.String("userID", user.ID),
			slog.String("error", delErr.Error()),
		)
	} else {
		s.logger.Info("registration rolled back",
			slog.String("userID", user.ID),
			slog.String("cause", cause.Error()),
		)
	}

	return apperror.Dependency("registration failed, please try again later", cause)
}

// VerifyEmail consumes a verification token and flips the account to
// verified.
//
// All token failures collapse to one message — expired, malformed, and
// wrong-signature must be indistinguishable to the caller. A token whose
// account was already swept fails with "user not found".
func (s *RegistrationService) VerifyEmail(ctx context.Context, token string, req Requester) error {
	userID, err := s.tokens.ValidateVerification(token)
	if err != nil {
		return apperror.ValidationFailed("token", "verification link is invalid or has expired")
	}

	if err := s.users.MarkVerified(ctx, userID); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err == nil {
		s.audit.Record(ctx, model.AuditEmailVerified, user.Email, req, nil)
	}

	s.logger.Info("email verified", slog.String("userID", userID))
	return nil
}

// ExpireUnverified removes unverified accounts older than UnverifiedTTL.
// The server's sweeper goroutine calls this periodically.
func (s *RegistrationService) ExpireUnverified(ctx context.Context) (int64, error) {
	removed, err := s.users.DeleteUnverifiedBefore(ctx, time.Now().Add(-UnverifiedTTL))
	if err != nil {
		return 0, fmt.Errorf("expiring unverified users: %w", err)
	}
	if removed > 0 {
		s.logger.Info("expired unverified accounts", slog.Int64("removed", removed))
	}
	return removed, nil
}

func (s *RegistrationService) validateRegistration(email string, in RegisterInput) error {
	if email == "" {
		return apperror.ValidationFailed("email", "email is required")
	}
	if !strings.HasSuffix(email, s.emailDomain) {
		return apperror.ValidationFailed("email",
			fmt.Sprintf("a university email (%s) is required", s.emailDomain))
	}
	if strings.TrimSpace(in.Faculty) == "" {
		return apperror.ValidationFailed("faculty", "faculty is required")
	}
	if err := ValidateLoginPassword(in.LoginPassword); err != nil {
		return err
	}
	return ValidateVotePin(in.VotePin)
}

// NormalizeEmail trims and lower-cases an email address. Registration stores
// the normalized form; every lookup normalizes first, so "A@KU.TH" and
// "a@ku.th" are the same account.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateLoginPassword enforces the password policy: at least 8 characters
// with at least one lower-case and one upper-case letter.
func ValidateLoginPassword(password string) error {
	if len(password) < 8 ||
		!strings.ContainsFunc(password, unicode.IsLower) ||
		!strings.ContainsFunc(password, unicode.IsUpper) {
		return apperror.ValidationFailed("loginPassword",
			"login password must be at least 8 characters with upper and lower case letters")
	}
	return nil
}

// ValidateVotePin enforces the PIN policy: exactly 6 ASCII digits.
func ValidateVotePin(pin string) error {
	if len(pin) != 6 || strings.ContainsFunc(pin, func(r rune) bool { return r < '0' || r > '9' }) {
		return apperror.ValidationFailed("votePin", "vote PIN must be exactly 6 digits")
	}
	return nil
}
