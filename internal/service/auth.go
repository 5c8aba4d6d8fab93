package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/kuvote/internal/apperror"
	"github.com/sakif/kuvote/internal/auth"
	"github.com/sakif/kuvote/internal/mail"
	"github.com/sakif/kuvote/internal/model"
	"github.com/sakif/kuvote/internal/repository"
)

// AuthService handles login, password change, and the forgot/reset flow.
type AuthService struct {
	users       repository.UserRepository
	tokens      *auth.TokenService
	passwords   *auth.PasswordService
	mailer      mail.Mailer
	audit       *Auditor
	logger      *slog.Logger
	frontendURL string
}

// NewAuthService creates an AuthService.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	mailer mail.Mailer,
	audit *Auditor,
	logger *slog.Logger,
	frontendURL string,
) *AuthService {
	return &AuthService{
		users:       users,
		tokens:      tokens,
		passwords:   passwords,
		mailer:      mailer,
		audit:       audit,
		logger:      logger,
		frontendURL: frontendURL,
	}
}

// LoginResult bundles the session token with the safe user view.
type LoginResult struct {
	Token string            `json:"token"`
	User  model.UserSummary `json:"user"`
}

// Login authenticates email + password and mints a session token.
//
// Gate order: exists (404) → verified (403) → password (401). An unverified
// account cannot authenticate no matter how correct the password is — that
// is what keeps an unverified registration from ever reaching the voting
// engine through the session path.
func (s *AuthService) Login(ctx context.Context, email, password string, req Requester) (*LoginResult, error) {
	email = NormalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if !user.IsVerified {
		return nil, apperror.Forbidden("verify your email before logging in")
	}

	if err := s.passwords.Verify(user.LoginPasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrSecretMismatch) {
			s.audit.Record(ctx, model.AuditLoginFailed, email, req, nil)
			return nil, apperror.Unauthorized("incorrect password")
		}
		return nil, fmt.Errorf("verifying password for %s: %w", email, err)
	}

	token, err := s.tokens.GenerateSession(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("issuing session token for %s: %w", email, err)
	}

	s.audit.Record(ctx, model.AuditLoginSuccess, email, req, nil)
	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return &LoginResult{Token: token, User: user.Summary()}, nil
}

// ChangePassword verifies the current password and replaces it.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string, req Requester) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.passwords.Verify(user.LoginPasswordHash, current); err != nil {
		if errors.Is(err, auth.ErrSecretMismatch) {
			return apperror.ValidationFailed("currentPassword", "current password is incorrect")
		}
		return fmt.Errorf("verifying current password for user %s: %w", userID, err)
	}

	if err := ValidateLoginPassword(next); err != nil {
		return err
	}

	hash, err := s.passwords.Hash(next)
	if err != nil {
		return fmt.Errorf("hashing new password: %w", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return err
	}

	s.audit.Record(ctx, model.AuditPasswordChanged, user.Email, req, nil)
	s.logger.Info("password changed", slog.String("userID", userID))
	return nil
}

// ForgotPassword issues a reset link for the account, if it exists.
//
// NON-LEAKING BY DESIGN: the return value is identical whether or not the
// email is registered — a nil error and nothing else. Anyone could otherwise
// use this endpoint to enumerate who is registered to vote. The audit log
// still records real requests server-side.
//
// The reset token is signed with the server secret concatenated with the
// user's CURRENT password hash, so it dies the moment the password changes
// by any means (see auth.TokenService).
func (s *AuthService) ForgotPassword(ctx context.Context, email string, req Requester) error {
	email = NormalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil // indistinguishable from success
		}
		return fmt.Errorf("looking up %s for reset: %w", email, err)
	}

	token, err := s.tokens.GenerateReset(user.ID, user.LoginPasswordHash)
	if err != nil {
		return fmt.Errorf("issuing reset token for %s: %w", email, err)
	}

	link := fmt.Sprintf("%s/reset-password/%s/%s", strings.TrimRight(s.frontendURL, "/"), user.ID, token)
	html := fmt.Sprintf(
		`<h2>Reset your password</h2><p><a href="%s">Choose a new KUVote password</a></p>`,
		link,
	)
	if err := s.mailer.Send(ctx, email, "Reset your KUVote password", html); err != nil {
		return apperror.Dependency("could not send reset mail, please try again later", err)
	}

	s.audit.Record(ctx, model.AuditResetRequested, email, req, nil)
	return nil
}

// ResetPassword completes the forgot-password flow.
//
// The token is validated against the CURRENT hash — if the password changed
// since the token was issued, validation fails and the caller sees the same
// generic "invalid or expired" as for any other bad token.
func (s *AuthService) ResetPassword(ctx context.Context, userID, token, newPassword string, req Requester) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	tokenUserID, err := s.tokens.ValidateReset(token, user.LoginPasswordHash)
	if err != nil || tokenUserID != user.ID {
		return apperror.ValidationFailed("token", "reset link is invalid or has expired")
	}

	if err := ValidateLoginPassword(newPassword); err != nil {
		return err
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hashing reset password: %w", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return err
	}

	s.audit.Record(ctx, model.AuditPasswordReset, user.Email, req, nil)
	s.logger.Info("password reset completed", slog.String("userID", userID))
	return nil
}
