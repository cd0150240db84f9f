package server

import (
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/playperu/stepout/internal/stepout"
)

// FixRequest is one position report, or the error the device hit instead.
type FixRequest struct {
	Lat   *float64 `json:"lat,omitempty"`
	Lng   *float64 `json:"lng,omitempty"`
	Error string   `json:"error,omitempty"`
}

// CoordinateRequest is a bare coordinate.
type CoordinateRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

func (c CoordinateRequest) coordinate() (stepout.Coordinate, error) {
	return parseCoordinate(c.Lat, c.Lng)
}

func parseCoordinate(lat, lng *float64) (stepout.Coordinate, error) {
	if lat == nil || lng == nil {
		return stepout.Coordinate{}, errors.New("lat and lng are required")
	}
	if math.IsNaN(*lat) || math.IsNaN(*lng) || math.Abs(*lat) > 90 || math.Abs(*lng) > 180 {
		return stepout.Coordinate{}, fmt.Errorf("coordinate out of range: %v,%v", *lat, *lng)
	}
	return stepout.Coordinate{Lat: *lat, Lng: *lng}, nil
}

func handleFix() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FixRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		s := sessionFrom(r)
		if req.Error != "" {
			if err := s.OnPositionError(errors.New(req.Error)); err != nil {
				writeSessionError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, s.Snapshot())
			return
		}

		c, err := parseCoordinate(req.Lat, req.Lng)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := s.OnFix(c); err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.Snapshot())
	}
}
