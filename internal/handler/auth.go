package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mfaisal/fittrack/internal/model"
	"github.com/mfaisal/fittrack/internal/service"
)

// AuthHandler exposes the identity endpoints.
//
// HANDLER RESPONSIBILITIES:
//   - decode request JSON, call AuthService, encode the envelope
//   - own the session cookie: every operation that authenticates ends in
//     sendTokenResponse, every logout clears it
//
// Business rules (validation, anti-enumeration, token single-use) live in
// the service; HTTP concerns (cookies, status codes) live here.
type AuthHandler struct {
	svc *service.AuthService
	// cookieLifetime mirrors the JWT lifetime so the cookie and the
	// token inside it expire together.
	cookieLifetime time.Duration
	// secureCookie is true in production: the cookie only travels over
	// HTTPS there.
	secureCookie bool
	logger       *slog.Logger
}

func NewAuthHandler(svc *service.AuthService, cookieLifetime time.Duration, secureCookie bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:            svc,
		cookieLifetime: cookieLifetime,
		secureCookie:   secureCookie,
		logger:         logger,
	}
}

// sendTokenResponse sets the session cookie and writes the token
// envelope. The cookie is HttpOnly (JavaScript cannot read it) with
// SameSite=Lax; the body carries the same token for API clients that
// send it as a Bearer header instead.
func (h *AuthHandler) sendTokenResponse(w http.ResponseWriter, status int, result *service.AuthResult) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    result.Token,
		Path:     "/",
		MaxAge:   int(h.cookieLifetime.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, status, tokenResponse{Success: true, Token: result.Token})
}

// HandleRegister creates an account and logs it in.
//
// HTTP: POST /auth/register
// BODY: {"name":..., "email":..., "password":..., "role":..., "address":...}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
		Address  string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	result, err := h.svc.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     model.Role(req.Role),
		Address:  req.Address,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.sendTokenResponse(w, http.StatusOK, result)
}

// HandleLogin authenticates with email and password.
//
// HTTP: POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	result, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.sendTokenResponse(w, http.StatusOK, result)
}

// HandleLogout clears the session cookie.
//
// HTTP: GET /auth/logout
//
// Sessions are stateless JWTs, so "logout" means deleting the cookie.
// The token itself stays valid until its expiry, but without the cookie
// the browser can no longer present it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	writeData(w, http.StatusOK, map[string]any{})
}

// HandleMe returns the authenticated user's profile.
//
// HTTP: GET /auth/me
// Auth: Required
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	user, err := h.svc.GetUserByID(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, user)
}

// HandleUpdateDetails changes the logged-in user's name and email.
//
// HTTP: PUT /auth/update-details
// Auth: Required
func (h *AuthHandler) HandleUpdateDetails(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	user, err := h.svc.UpdateDetails(r.Context(), identity.UserID, req.Name, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, user)
}

// HandleUpdatePassword changes the logged-in user's password. The
// current password is re-checked by the service; success issues a fresh
// session token.
//
// HTTP: PUT /auth/update-password
// Auth: Required
func (h *AuthHandler) HandleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	result, err := h.svc.ChangePassword(r.Context(), identity.UserID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		writeError(w, err)
		return
	}
	h.sendTokenResponse(w, http.StatusOK, result)
}

// HandleRecoverPassword starts the password-reset flow.
//
// HTTP: POST /auth/recover-password
//
// The response is "Email sent" whether or not the address has an
// account — the service swallows the unknown-email case so this endpoint
// cannot be used to enumerate users. A genuine delivery failure still
// surfaces as a 500.
func (h *AuthHandler) HandleRecoverPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := h.svc.RequestPasswordReset(r.Context(), req.Email, requestBaseURL(r)); err != nil {
		h.logger.Error("password reset request failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Success: false, Error: "email could not be sent"})
		return
	}
	writeData(w, http.StatusOK, "Email sent")
}

// HandleCompleteRecoverPassword consumes a reset token and sets a new
// password.
//
// HTTP: PUT /auth/recover-password/{resetToken}
// BODY: {"password": "..."}
func (h *AuthHandler) HandleCompleteRecoverPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	result, err := h.svc.CompletePasswordReset(r.Context(), chi.URLParam(r, "resetToken"), req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	h.sendTokenResponse(w, http.StatusOK, result)
}

// requestBaseURL reconstructs the public base URL of this request for
// building the reset link mailed to the user.
func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
