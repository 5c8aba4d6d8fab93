package auth

import (
	"errors"
	"testing"
)

const testSecret = "test-secret-at-least-16-chars!!"

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService(testSecret)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

func TestNewTokenService_ShortSecret(t *testing.T) {
	if _, err := NewTokenService("short"); err == nil {
		t.Fatal("NewTokenService() accepted a short secret")
	}
}

func TestSessionRoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.GenerateSession("user-1", "a@ku.th")
	if err != nil {
		t.Fatalf("GenerateSession() error = %v", err)
	}

	userID, email, err := ts.ValidateSession(token)
	if err != nil {
		t.Fatalf("ValidateSession() error = %v", err)
	}
	if userID != "user-1" {
		t.Errorf("userID = %q, want %q", userID, "user-1")
	}
	if email != "a@ku.th" {
		t.Errorf("email = %q, want %q", email, "a@ku.th")
	}
}

func TestVerificationRoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.GenerateVerification("user-2")
	if err != nil {
		t.Fatalf("GenerateVerification() error = %v", err)
	}

	userID, err := ts.ValidateVerification(token)
	if err != nil {
		t.Fatalf("ValidateVerification() error = %v", err)
	}
	if userID != "user-2" {
		t.Errorf("userID = %q, want %q", userID, "user-2")
	}
}

// PURPOSE SCOPING:
// A verification link must not work as a session and vice versa. Without the
// purpose claim, emailing someone a verification token would be equivalent
// to emailing them a logged-in session.
func TestPurposeScoping(t *testing.T) {
	ts := newTestTokenService(t)

	verifyToken, err := ts.GenerateVerification("user-3")
	if err != nil {
		t.Fatalf("GenerateVerification() error = %v", err)
	}
	if _, _, err := ts.ValidateSession(verifyToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateSession(verification token) error = %v, want ErrInvalidToken", err)
	}

	sessionToken, err := ts.GenerateSession("user-3", "b@ku.th")
	if err != nil {
		t.Fatalf("GenerateSession() error = %v", err)
	}
	if _, err := ts.ValidateVerification(sessionToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateVerification(session token) error = %v, want ErrInvalidToken", err)
	}
}

func TestResetTokenBoundToPasswordHash(t *testing.T) {
	ts := newTestTokenService(t)

	oldHash := "$2a$04$oldoldoldoldoldoldoldo"
	token, err := ts.GenerateReset("user-4", oldHash)
	if err != nil {
		t.Fatalf("GenerateReset() error = %v", err)
	}

	// Valid while the hash is unchanged.
	userID, err := ts.ValidateReset(token, oldHash)
	if err != nil {
		t.Fatalf("ValidateReset() with original hash error = %v", err)
	}
	if userID != "user-4" {
		t.Errorf("userID = %q, want %q", userID, "user-4")
	}

	// The password changed — same token, new hash, must fail. This is the
	// single-use-per-credential-generation property.
	newHash := "$2a$04$newnewnewnewnewnewnewne"
	if _, err := ts.ValidateReset(token, newHash); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateReset() after password change error = %v, want ErrInvalidToken", err)
	}
}

func TestResetTokenIsNotASession(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.GenerateReset("user-5", "somehash")
	if err != nil {
		t.Fatalf("GenerateReset() error = %v", err)
	}
	if _, _, err := ts.ValidateSession(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateSession(reset token) error = %v, want ErrInvalidToken", err)
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	ts := newTestTokenService(t)

	for _, bad := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, _, err := ts.ValidateSession(bad); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("ValidateSession(%q) error = %v, want ErrInvalidToken", bad, err)
		}
	}
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	ts := newTestTokenService(t)

	other, err := NewTokenService("completely-different-secret!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	token, err := other.GenerateSession("user-6", "c@ku.th")
	if err != nil {
		t.Fatalf("GenerateSession() error = %v", err)
	}

	if _, _, err := ts.ValidateSession(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateSession(foreign token) error = %v, want ErrInvalidToken", err)
	}
}
