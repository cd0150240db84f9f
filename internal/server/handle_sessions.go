package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/stepout/internal/stepout"
)

func handleCreateSession(sessions *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sessions.Create()
		w.Header().Set("Location", "/api/sessions/"+s.ID())
		writeJSON(w, http.StatusCreated, s.Snapshot())
	}
}

func handleGetSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, sessionFrom(r).Snapshot())
	}
}

func handleDeleteSession(sessions *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sessions.Delete(chi.URLParam(r, "id")); err != nil {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleIntent applies a user intent and returns the resulting snapshot.
func handleIntent(intent func(*stepout.Session) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sessionFrom(r)
		if err := intent(s); err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.Snapshot())
	}
}
