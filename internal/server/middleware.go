package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/playperu/stepout/internal/stepout"
)

type ctxKey int

const ctxKeySession ctxKey = iota

const debugTokenHeader = "X-Debug-Token"

func sessionMiddleware(sessions *Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := sessions.Get(chi.URLParam(r, "id"))
			if err != nil {
				writeError(w, http.StatusNotFound, "session not found")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeySession, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// debugAuthMiddleware checks the X-Debug-Token header against a bcrypt hash.
func debugAuthMiddleware(hash []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(debugTokenHeader)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "debug token required")
				return
			}
			if err := bcrypt.CompareHashAndPassword(hash, []byte(token)); err != nil {
				writeError(w, http.StatusUnauthorized, "invalid debug token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func sessionFrom(r *http.Request) *stepout.Session {
	return r.Context().Value(ctxKeySession).(*stepout.Session)
}

// writeSessionError maps session errors to HTTP statuses.
func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, stepout.ErrInvalidTransition), errors.Is(err, stepout.ErrNoLocation),
		errors.Is(err, stepout.ErrAlreadySubscribed):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, stepout.ErrClosed):
		writeError(w, http.StatusGone, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
