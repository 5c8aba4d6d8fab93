// Package auth provides JWT issuance and validation for the voting API.
//
// THREE TOKEN PURPOSES, ONE SERVICE:
// The system issues JWTs for three distinct jobs, each with its own lifetime:
//
//	verify  (10 min) — proves control of the registered email address
//	session (24 h)   — proves a successful login, sent as a bearer token
//	reset   (15 min) — authorises one password reset
//
// Every token carries a "purpose" claim and validation requires it to match,
// so a verification link can never be replayed as a session and vice versa.
//
// RESET TOKENS ARE BOUND TO THE PASSWORD HASH:
// Reset tokens are signed with serverSecret || currentPasswordHash instead of
// the server secret alone. Completing a reset changes the hash, which changes
// the signing key, which invalidates every other outstanding reset token for
// that account — single-use per credential generation, with no server-side
// token store.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "kuvote"

// Token lifetimes. The verification TTL is coupled to the unverified-record
// expiry: a token that outlives the swept record just fails later with
// "user not found", so the two only need to agree roughly.
const (
	VerificationTTL = 10 * time.Minute
	SessionTTL      = 24 * time.Hour
	ResetTTL        = 15 * time.Minute
)

// Purpose claim values.
const (
	purposeVerify  = "verify"
	purposeSession = "session"
	purposeReset   = "reset"
)

// ErrInvalidToken is the single error returned for every validation failure:
// expired, malformed, wrong signature, wrong purpose. Collapsing them is
// deliberate — the caller (and therefore the client) only learns "link
// expired or invalid", never which.
var ErrInvalidToken = errors.New("auth: invalid or expired token")

// TokenService issues and validates the three token kinds.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given server secret.
// The secret should be at least 32 bytes of random data in production.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the JWT payload. Subject carries the internal user ID; Purpose
// scopes the token to exactly one of the three flows; Email is only set on
// session tokens so handlers can audit-log without a user lookup.
type claims struct {
	Purpose string `json:"purpose"`
	Email   string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// GenerateVerification issues an email-verification token for the user.
func (s *TokenService) GenerateVerification(userID string) (string, error) {
	return s.generate(userID, "", purposeVerify, VerificationTTL, s.secret)
}

// ValidateVerification checks a verification token and returns the userID.
func (s *TokenService) ValidateVerification(tokenStr string) (string, error) {
	c, err := s.validate(tokenStr, purposeVerify, s.secret)
	if err != nil {
		return "", err
	}
	return c.Subject, nil
}

// GenerateSession issues a login session token carrying the user's email.
func (s *TokenService) GenerateSession(userID, email string) (string, error) {
	return s.generate(userID, email, purposeSession, SessionTTL, s.secret)
}

// ValidateSession checks a session token and returns (userID, email).
func (s *TokenService) ValidateSession(tokenStr string) (string, string, error) {
	c, err := s.validate(tokenStr, purposeSession, s.secret)
	if err != nil {
		return "", "", err
	}
	return c.Subject, c.Email, nil
}

// GenerateReset issues a password-reset token bound to the user's current
// password hash. The hash never appears in the token — it only feeds the
// signing key.
func (s *TokenService) GenerateReset(userID, passwordHash string) (string, error) {
	return s.generate(userID, "", purposeReset, ResetTTL, s.resetSecret(passwordHash))
}

// ValidateReset checks a reset token against the user's CURRENT password
// hash. A token issued before any intervening password change fails here,
// because the signing key moved with the hash.
func (s *TokenService) ValidateReset(tokenStr, passwordHash string) (string, error) {
	c, err := s.validate(tokenStr, purposeReset, s.resetSecret(passwordHash))
	if err != nil {
		return "", err
	}
	return c.Subject, nil
}

// resetSecret derives the per-credential-generation signing key.
func (s *TokenService) resetSecret(passwordHash string) []byte {
	key := make([]byte, 0, len(s.secret)+len(passwordHash))
	key = append(key, s.secret...)
	key = append(key, passwordHash...)
	return key
}

func (s *TokenService) generate(userID, email, purpose string, ttl time.Duration, key []byte) (string, error) {
	now := time.Now()

	c := claims{
		Purpose: purpose,
		Email:   email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("auth: signing %s token: %w", purpose, err)
	}

	return signed, nil
}

// validate parses and verifies a JWT, requiring HS256, our issuer, an expiry,
// a non-empty subject, and the expected purpose claim.
//
// Passing jwt.WithValidMethods pins the algorithm — without it an attacker
// could attempt an algorithm-confusion downgrade.
func (s *TokenService) validate(tokenStr, purpose string, key []byte) (*claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return key, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.Subject == "" || c.Purpose != purpose {
		return nil, ErrInvalidToken
	}

	return c, nil
}
