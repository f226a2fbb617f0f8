package handler

// RESPONSE HELPERS:
// Every endpoint answers with the same envelope:
//
//	success: {"success": true, "data": ...}   or {"success": true, "token": "..."}
//	failure: {"success": false, "error": "human-readable message"}
//
// One envelope means the frontend parses every response the same way,
// whether it is a 200, a 404, or a 500.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mfaisal/fittrack/internal/apperror"
	"github.com/mfaisal/fittrack/internal/auth"
)

// dataResponse is the success envelope carrying a payload.
type dataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// tokenResponse is the success envelope for operations that establish a
// session. The token also travels in the cookie; the body copy is for
// non-browser clients that prefer the Authorization header.
type tokenResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

// errorResponse is the failure envelope.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// writeJSON sends a JSON response with the given status code. Headers
// must be set before the first body write — json.Encode writes.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			// Headers are already gone; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeData sends {"success":true,"data":...}.
func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, dataResponse{Success: true, Data: data})
}

// writeError maps a domain error to an HTTP status and sends the error
// envelope. This is the single place where apperror sentinels become
// status codes; the service layer never sees HTTP.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError

		switch {
		case errors.Is(err, apperror.ErrValidation),
			errors.Is(err, apperror.ErrInvalidReference):
			status = http.StatusBadRequest
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
		}

		writeJSON(w, status, errorResponse{Success: false, Error: appErr.Message})
		return
	}

	// Unknown error — generic 500. The raw message could leak SQL or
	// file paths, so it stays in the log, not the response.
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Success: false,
		Error:   "an internal error occurred",
	})
}

// writeBadRequest reports a malformed request body.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Success: false, Error: message})
}

// requireIdentity pulls the authenticated identity from the request
// context. RequireAuth guarantees it is there on protected routes; if a
// handler is ever mounted without the middleware, this answers 401
// instead of panicking.
func requireIdentity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Success: false, Error: "valid authentication required"})
	}
	return identity, ok
}
