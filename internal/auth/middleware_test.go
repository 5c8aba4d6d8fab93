package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequireSession(t *testing.T) {
	tokens, err := NewTokenService(testSecret)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	session, err := tokens.GenerateSession("user-1", "a@ku.th")
	if err != nil {
		t.Fatalf("GenerateSession: %v", err)
	}
	verification, err := tokens.GenerateVerification("user-1")
	if err != nil {
		t.Fatalf("GenerateVerification: %v", err)
	}

	var seen Identity
	protected := RequireSession(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"valid session token", "Bearer " + session, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"not a bearer header", session, http.StatusUnauthorized},
		{"empty bearer", "Bearer ", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		// A verification token is a valid JWT from the same secret, but the
		// wrong purpose — it must not open a session.
		{"verification token", "Bearer " + verification, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/vote", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()
			protected.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
		})
	}

	if seen.UserID != "user-1" || seen.Email != "a@ku.th" {
		t.Errorf("identity in context = %+v, want user-1/a@ku.th", seen)
	}
}

func TestIdentityFromContext_Absent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := IdentityFromContext(req.Context()); ok {
		t.Error("IdentityFromContext reported an identity on a bare context")
	}
}
