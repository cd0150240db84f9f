package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/playperu/stepout/internal/journal"
	"github.com/playperu/stepout/internal/stepout"
)

type sessionPath struct {
	ID string `path:"id" json:"-" description:"Session ID."`
}

// HealthResponse documents the /healthz body: one status per dependency.
type HealthResponse map[string]struct {
	Status string `json:"status"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "StepOut API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Mission sessions for the StepOut outdoor companion.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/sessions
	createSession, _ := r.NewOperationContext(http.MethodPost, "/api/sessions")
	createSession.SetSummary("Create session")
	createSession.SetDescription("Starts a new session in the level 1 briefing.")
	createSession.AddRespStructure(stepout.Snapshot{}, openapi.WithHTTPStatus(http.StatusCreated))
	_ = r.AddOperation(createSession)

	// GET /api/sessions/{id}
	getSession, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{id}")
	getSession.AddReqStructure(sessionPath{})
	getSession.SetSummary("Get session")
	getSession.SetDescription("Returns the current snapshot.")
	getSession.AddRespStructure(stepout.Snapshot{}, openapi.WithHTTPStatus(http.StatusOK))
	getSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getSession)

	// DELETE /api/sessions/{id}
	deleteSession, _ := r.NewOperationContext(http.MethodDelete, "/api/sessions/{id}")
	deleteSession.AddReqStructure(sessionPath{})
	deleteSession.SetSummary("Close session")
	deleteSession.SetDescription("Stops the dwell timer, waits for narration and ends all streams.")
	deleteSession.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	deleteSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(deleteSession)

	intents := map[string]string{
		"start":   "Moves from briefing to active.",
		"panic":   "Abandons the active mission.",
		"advance": "Moves past a successful mission to the next level, or finishes after level 3.",
		"reset":   "Discards all progress, home included.",
	}
	for _, name := range []string{"start", "panic", "advance", "reset"} {
		op, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{id}/"+name)
		op.AddReqStructure(sessionPath{})
		op.SetSummary("Intent: " + name)
		op.SetDescription(intents[name])
		op.AddRespStructure(stepout.Snapshot{}, openapi.WithHTTPStatus(http.StatusOK))
		op.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
		op.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
		_ = r.AddOperation(op)
	}

	// POST /api/sessions/{id}/fixes
	postFix, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{id}/fixes")
	postFix.SetSummary("Push position fix")
	postFix.SetDescription("Reports one position fix, or the error the device hit instead. The first fix calibrates home.")
	postFix.AddReqStructure(struct {
		sessionPath
		FixRequest
	}{})
	postFix.AddRespStructure(stepout.Snapshot{}, openapi.WithHTTPStatus(http.StatusOK))
	postFix.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postFix.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postFix)

	// GET /api/sessions/{id}/ws
	getWS, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{id}/ws")
	getWS.AddReqStructure(sessionPath{})
	getWS.SetSummary("Position stream")
	getWS.SetDescription("WebSocket. The client sends PositionMessage frames; the server sends the snapshot, then every session event.")
	getWS.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getWS)

	// GET /api/sessions/{id}/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{id}/events")
	getEvents.AddReqStructure(sessionPath{})
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events: a snapshot event, then one event per transition named by its kind.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// GET /api/sessions/{id}/journal
	getJournal, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{id}/journal")
	getJournal.AddReqStructure(sessionPath{})
	getJournal.SetSummary("Mission journal")
	getJournal.SetDescription("Milestones recorded for the session, oldest first.")
	getJournal.AddRespStructure([]journal.Entry{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getJournal)

	// POST /api/sessions/{id}/debug/teleport
	teleport, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{id}/debug/teleport")
	teleport.SetSummary("Debug: teleport")
	teleport.SetDescription("Moves to the given coordinate, or to the mission target when the body is empty. Requires X-Debug-Token.")
	teleport.AddReqStructure(struct {
		sessionPath
		CoordinateRequest
	}{})
	teleport.AddRespStructure(DebugMoveResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	teleport.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	teleport.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(teleport)

	// POST /api/sessions/{id}/debug/nudge
	nudge, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{id}/debug/nudge")
	nudge.SetSummary("Debug: nudge")
	nudge.SetDescription("Shifts the current location about 11 m north or east. Requires X-Debug-Token.")
	nudge.AddReqStructure(struct {
		sessionPath
		NudgeRequest
	}{})
	nudge.AddRespStructure(DebugMoveResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	nudge.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	nudge.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	nudge.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(nudge)

	// POST /api/sessions/{id}/debug/calibrate
	calibrate, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{id}/debug/calibrate")
	calibrate.SetSummary("Debug: calibrate home")
	calibrate.SetDescription("Sets home and the current location when no fix ever arrives. Requires X-Debug-Token.")
	calibrate.AddReqStructure(struct {
		sessionPath
		CoordinateRequest
	}{})
	calibrate.AddRespStructure(DebugMoveResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	calibrate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	calibrate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(calibrate)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
