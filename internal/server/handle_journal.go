package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/stepout/internal/journal"
)

// JournalReader lists recorded milestones for a session.
type JournalReader interface {
	List(ctx context.Context, sessionID string) ([]journal.Entry, error)
}

// handleJournal serves the audit trail. It reads the journal directly, so
// entries stay available after the session is deleted.
func handleJournal(logger *slog.Logger, j JournalReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		entries, err := j.List(r.Context(), id)
		if err != nil {
			logger.Error("listing journal", "session_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}
