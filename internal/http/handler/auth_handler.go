package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"travelwatch/internal/http/middleware"
	"travelwatch/internal/http/response"
	"travelwatch/internal/observability"
	"travelwatch/internal/security"
	"travelwatch/internal/service"
)

const oauthStateCookie = "oauth_state"

type AuthHandler struct {
	authSvc      service.AuthServiceInterface
	stateKey     string
	frontendURL  string
	cookieSecure bool
}

func NewAuthHandler(authSvc service.AuthServiceInterface, stateKey, frontendURL string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, stateKey: stateKey, frontendURL: frontendURL, cookieSecure: cookieSecure}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "signup", status, time.Since(start))
	}()

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "failure"
		observability.RecordAuthSignup(r.Context(), "failure")
		response.Error(w, r, http.StatusBadRequest, "BAD_INPUT", "invalid JSON body", nil)
		return
	}

	user, err := h.authSvc.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		status = "failure"
		observability.Audit(r, "auth.signup.failed", "reason", err.Error())
		observability.RecordAuthSignup(r.Context(), "failure")
		writeAuthError(w, r, err)
		return
	}
	observability.Audit(r, "auth.signup.success", "user_id", user.ID)
	observability.RecordAuthSignup(r.Context(), "success")
	response.JSON(w, r, http.StatusOK, map[string]string{"message": "User created successfully"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "login", status, time.Since(start))
	}()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "failure"
		observability.RecordAuthLogin(r.Context(), "local", "failure")
		response.Error(w, r, http.StatusBadRequest, "BAD_INPUT", "invalid JSON body", nil)
		return
	}

	result, err := h.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		status = "failure"
		observability.Audit(r, "auth.login.failed", "provider", "local")
		observability.RecordAuthLogin(r.Context(), "local", "failure")
		writeAuthError(w, r, err)
		return
	}
	observability.Audit(r, "auth.login.success", "user_id", result.User.ID, "provider", "local")
	observability.RecordAuthLogin(r.Context(), "local", "success")
	response.JSON(w, r, http.StatusOK, map[string]any{
		"message":    "Login successful",
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
	})
}

// Me returns the identity behind the presented bearer token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing token", nil)
		return
	}
	user, err := h.authSvc.CurrentUser(r.Context(), claims)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"user": user})
}

func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "google_login", status, time.Since(start))
	}()

	state, err := security.NewRandomString(24)
	if err != nil {
		status = "failure"
		observability.Audit(r, "auth.google.login.failed", "reason", "state_generation")
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to generate oauth state", nil)
		return
	}
	loginURL := h.authSvc.GoogleLoginURL(state)
	if loginURL == "" {
		status = "failure"
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "google auth is disabled", nil)
		return
	}
	signed := security.SignState(state, h.stateKey)
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    signed,
		Path:     "/auth/google",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300,
	})
	observability.Audit(r, "auth.google.login.redirect")
	http.Redirect(w, r, loginURL, http.StatusFound)
}

func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "google_callback", status, time.Since(start))
	}()

	queryState := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if queryState == "" || code == "" {
		status = "failure"
		observability.Audit(r, "auth.google.callback.failed", "reason", "missing_code_or_state")
		observability.RecordAuthLogin(r.Context(), "google", "failure")
		h.redirectFailure(w, r)
		return
	}
	stateCookie := ""
	if c, err := r.Cookie(oauthStateCookie); err == nil {
		stateCookie = c.Value
	}
	state, ok := security.VerifySignedState(stateCookie, h.stateKey)
	if !ok || state != queryState {
		status = "failure"
		observability.Audit(r, "auth.google.callback.failed", "reason", "invalid_state")
		observability.RecordAuthLogin(r.Context(), "google", "failure")
		h.redirectFailure(w, r)
		return
	}
	// One-time state: invalidate as soon as it verifies.
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: "", Path: "/auth/google", MaxAge: -1, HttpOnly: true, Secure: h.cookieSecure, SameSite: http.SameSiteLaxMode})

	result, err := h.authSvc.LoginWithGoogleCode(r.Context(), code)
	if err != nil {
		status = "failure"
		observability.Audit(r, "auth.google.callback.failed", "reason", "oauth_exchange", "error", err.Error())
		observability.RecordAuthLogin(r.Context(), "google", "failure")
		h.redirectFailure(w, r)
		return
	}
	observability.Audit(r, "auth.login.success", "user_id", result.User.ID, "provider", "google")
	observability.RecordAuthLogin(r.Context(), "google", "success")
	http.Redirect(w, r, h.frontendURL+"?token="+url.QueryEscape(result.Token), http.StatusFound)
}

// redirectFailure sends the user agent back to the frontend with a
// generic marker; provider error detail stays in the server logs.
func (h *AuthHandler) redirectFailure(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.frontendURL+"?error=authentication_failed", http.StatusFound)
}

func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		response.Error(w, r, http.StatusBadRequest, "BAD_INPUT", vErr.Message, nil)
	case errors.Is(err, service.ErrEmailTaken):
		response.Error(w, r, http.StatusBadRequest, "ALREADY_EXISTS", "User already exists", nil)
	case errors.Is(err, service.ErrUserNotFound):
		response.Error(w, r, http.StatusBadRequest, "NOT_FOUND", "User not found", nil)
	case errors.Is(err, service.ErrPasswordLoginUnavailable):
		response.Error(w, r, http.StatusBadRequest, "WRONG_METHOD", "Use Google login for this account", nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(w, r, http.StatusBadRequest, "BAD_CREDENTIALS", "Invalid password", nil)
	case errors.Is(err, context.DeadlineExceeded):
		response.Error(w, r, http.StatusServiceUnavailable, "UNAVAILABLE", "store unavailable, retry later", nil)
	default:
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
