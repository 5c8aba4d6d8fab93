package auth

import (
	"errors"
	"strings"
	"testing"
)

// All tests use cost 4 (bcrypt minimum) — the logic under test is identical
// at any cost, and cost 12 would make this file take seconds.

func TestHashAndVerify(t *testing.T) {
	ps := NewPasswordServiceForTest(4)

	hash, err := ps.Hash("Abcdef12")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "Abcdef12" {
		t.Fatal("Hash() returned the plaintext")
	}

	if err := ps.Verify(hash, "Abcdef12"); err != nil {
		t.Errorf("Verify() with correct secret error = %v", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	ps := NewPasswordServiceForTest(4)

	hash, err := ps.Hash("123456")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	err = ps.Verify(hash, "654321")
	if !errors.Is(err, ErrSecretMismatch) {
		t.Errorf("Verify() with wrong secret error = %v, want ErrSecretMismatch", err)
	}
}

func TestHashesAreSalted(t *testing.T) {
	ps := NewPasswordServiceForTest(4)

	// Same secret, two calls — salts must differ, so hashes must differ.
	// This is why a user's password hash and PIN hash can never be compared
	// even if the user picked the same value for both.
	h1, err := ps.Hash("123456")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	h2, err := ps.Hash("123456")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if h1 == h2 {
		t.Error("two hashes of the same secret are identical — salting is broken")
	}
}

func TestHashRejectsOverlongSecret(t *testing.T) {
	ps := NewPasswordServiceForTest(4)

	// bcrypt truncates at 72 bytes; we reject instead.
	_, err := ps.Hash(strings.Repeat("x", 73))
	if err == nil {
		t.Fatal("Hash() accepted a 73-byte secret")
	}
}
