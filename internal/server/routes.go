package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/playperu/stepout/internal/stepout"
)

// Deps are the collaborators the API routes need.
type Deps struct {
	Logger   *slog.Logger
	Sessions *Registry
	Broker   *Broker
	Journal  JournalReader
	// DebugTokenHash is a bcrypt hash. Debug routes are not mounted when empty.
	DebugTokenHash string
	SPADir         string
}

func addRoutes(r chi.Router, d Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("StepOut API", "/openapi.json", "/docs"))

	r.Post("/api/sessions", handleCreateSession(d.Sessions))

	r.Route("/api/sessions/{id}", func(r chi.Router) {
		if d.Journal != nil {
			r.Get("/journal", handleJournal(d.Logger, d.Journal))
		}

		r.Group(func(r chi.Router) {
			r.Use(sessionMiddleware(d.Sessions))
			r.Get("/", handleGetSession())
			r.Delete("/", handleDeleteSession(d.Sessions))

			r.Post("/start", handleIntent((*stepout.Session).Start))
			r.Post("/panic", handleIntent((*stepout.Session).Panic))
			r.Post("/advance", handleIntent((*stepout.Session).Advance))
			r.Post("/reset", handleIntent((*stepout.Session).Reset))

			r.Post("/fixes", handleFix())
			r.Get("/ws", handlePositionStream(d.Logger, d.Sessions, d.Broker))
			r.Get("/events", handleEvents(d.Broker))

			if d.DebugTokenHash != "" {
				r.Route("/debug", func(r chi.Router) {
					r.Use(debugAuthMiddleware([]byte(d.DebugTokenHash)))
					r.Post("/teleport", handleTeleport())
					r.Post("/nudge", handleNudge())
					r.Post("/calibrate", handleCalibrate())
				})
			}
		})
	})

	if d.SPADir != "" {
		if info, err := os.Stat(d.SPADir); err == nil && info.IsDir() {
			d.Logger.Info("serving SPA", "dir", d.SPADir)
			r.NotFound(handleSPA(d.SPADir))
		}
	}
}
