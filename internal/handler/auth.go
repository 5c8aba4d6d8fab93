package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/kuvote/internal/auth"
	"github.com/sakif/kuvote/internal/service"
)

// AuthHandler serves registration, email verification, login, and the
// password flows.
//
// Handlers only parse and respond. Every rule — validation, duplicate
// detection, the registration rollback, gate ordering — lives in the
// services; a handler that grew an if-statement about voting would be a
// layering bug.
type AuthHandler struct {
	registration *service.RegistrationService
	authn        *service.AuthService
	logger       *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(
	registration *service.RegistrationService,
	authn *service.AuthService,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		registration: registration,
		authn:        authn,
		logger:       logger,
	}
}

// HandleRegister creates a pending account and sends the verification mail.
//
// HTTP: POST /register/users
// 201 on success; 400 invalid input; 409 duplicate or pending; 500 when the
// mail could not be delivered (the account is rolled back first).
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email         string `json:"email"`
		Faculty       string `json:"faculty"`
		LoginPassword string `json:"loginPassword"`
		VotePin       string `json:"votePin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "request body must be valid JSON",
		})
		return
	}

	err := h.registration.Register(r.Context(), service.RegisterInput{
		Email:         body.Email,
		Faculty:       body.Faculty,
		LoginPassword: body.LoginPassword,
		VotePin:       body.VotePin,
	}, requesterFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}

	// No token, no id, no secrets — just the instruction.
	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "registration successful, please verify your email",
	})
}

// HandleVerifyEmail consumes a verification link.
//
// HTTP: GET /verify-email/{token}
// 400 for an expired/invalid/already-used link; 404 when the pending account
// was already swept.
func (h *AuthHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	if err := h.registration.VerifyEmail(r.Context(), token, requesterFrom(r)); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "email verified"})
}

// HandleLogin authenticates and returns a session token.
//
// HTTP: POST /login
// 200 + {token, user}; 404 unknown email; 403 unverified; 401 bad password.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email         string `json:"email"`
		LoginPassword string `json:"loginPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "request body must be valid JSON",
		})
		return
	}

	result, err := h.authn.Login(r.Context(), body.Email, body.LoginPassword, requesterFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleChangePassword replaces the logged-in user's password.
//
// HTTP: PUT /user/change-password (bearer session)
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		// RequireSession already guards this route; belt and braces.
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "valid session token required",
		})
		return
	}

	var body struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "request body must be valid JSON",
		})
		return
	}

	err := h.authn.ChangePassword(r.Context(), identity.UserID, body.CurrentPassword, body.NewPassword, requesterFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}

// HandleForgotPassword requests a reset link.
//
// HTTP: POST /forgot-password
// Always 200 for well-formed requests, whether or not the account exists —
// this endpoint must not reveal who is registered.
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "request body must be valid JSON",
		})
		return
	}

	if err := h.authn.ForgotPassword(r.Context(), body.Email, requesterFrom(r)); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "if that email is registered, a reset link has been sent",
	})
}

// HandleResetPassword completes a reset using the mailed token.
//
// HTTP: POST /reset-password/{userID}/{token}
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	token := chi.URLParam(r, "token")

	var body struct {
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "request body must be valid JSON",
		})
		return
	}

	err := h.authn.ResetPassword(r.Context(), userID, token, body.NewPassword, requesterFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "password reset"})
}
