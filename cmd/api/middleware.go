package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/akinfemi/lifeboard/internal/apperr"
	"github.com/akinfemi/lifeboard/internal/auth"
)

// context key type for storing auth claims in context
type authContextKey struct{}

// claimsFromContext extracts auth claims from the context, if present.
func claimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	v := ctx.Value(authContextKey{})
	if v == nil {
		return nil, false
	}
	c, ok := v.(*auth.Claims)
	return c, ok
}

// requireAuth enforces Bearer JWT authentication and attaches the verified
// claims to the request context for the handlers.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeUnauthenticated(w, "missing authorization header")
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
		if token == "" {
			writeUnauthenticated(w, "invalid token")
			return
		}

		claims, err := s.auth.VerifyToken(token)
		if err != nil {
			writeUnauthenticated(w, "unauthenticated: "+err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), authContextKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeUnauthenticated(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// writeJSON writes v as the JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a coded error to its HTTP status. Integrity faults are
// reported as internal errors: they are server-side data problems, never
// the caller's fault.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperr.CodeOf(err) {
	case apperr.CodeNotFound:
		status = http.StatusNotFound
	case apperr.CodeForbidden:
		status = http.StatusForbidden
	case apperr.CodeInvalidState, apperr.CodeConflict:
		status = http.StatusConflict
	case apperr.CodeIntegrity, apperr.CodeInternal:
		status = http.StatusInternalServerError
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		// do not leak store or consistency details to clients
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeBadRequest reports a malformed request body or missing field.
func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}
