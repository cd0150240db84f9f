package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/playperu/stepout/internal/stepout"
)

type NudgeRequest struct {
	Direction stepout.Direction `json:"direction"`
}

// DebugMoveResponse reports where a debug move put the user.
type DebugMoveResponse struct {
	Location stepout.Coordinate `json:"location"`
	Snapshot stepout.Snapshot   `json:"snapshot"`
}

// handleTeleport moves to the given coordinate, or to the mission target
// when the body is empty.
func handleTeleport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sessionFrom(r)

		var req CoordinateRequest
		err := readJSON(r, &req)
		switch {
		case errors.Is(err, io.EOF):
			dest, err := s.Debug().TeleportToTarget()
			if err != nil {
				writeSessionError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, DebugMoveResponse{Location: dest, Snapshot: s.Snapshot()})
			return
		case err != nil:
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		dest, err := req.coordinate()
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := s.Debug().Teleport(dest); err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, DebugMoveResponse{Location: dest, Snapshot: s.Snapshot()})
	}
}

func handleNudge() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req NudgeRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Direction != stepout.North && req.Direction != stepout.East {
			writeError(w, http.StatusBadRequest, "direction must be north or east")
			return
		}

		s := sessionFrom(r)
		dest, err := s.Debug().Nudge(req.Direction)
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, DebugMoveResponse{Location: dest, Snapshot: s.Snapshot()})
	}
}

func handleCalibrate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CoordinateRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		c, err := req.coordinate()
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		s := sessionFrom(r)
		if err := s.Debug().Calibrate(c); err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, DebugMoveResponse{Location: c, Snapshot: s.Snapshot()})
	}
}
