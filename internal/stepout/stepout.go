// Package stepout holds the mission engine: coordinates, the mission catalog,
// the per-session state machine and the display metrics derived from it.
// Transport and storage live elsewhere; nothing here does I/O except through
// the Narrator and Source interfaces.
package stepout

import "errors"

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrNoLocation        = errors.New("location unknown")
	ErrNotConfigured     = errors.New("not configured")
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Offset returns c shifted by the given degrees.
func (c Coordinate) Offset(dLat, dLng float64) Coordinate {
	return Coordinate{Lat: c.Lat + dLat, Lng: c.Lng + dLng}
}

type Level int

const (
	LevelFreshAir     Level = 1
	LevelNeighborhood Level = 2
	LevelSocialSpace  Level = 3
)

// LastLevel is the level whose success ends the day.
const LastLevel = LevelSocialSpace

func (l Level) Valid() bool {
	return l >= LevelFreshAir && l <= LevelSocialSpace
}

type Status string

const (
	// StatusIdle and StatusFailed are never produced by any transition.
	// They stay in the enum so clients written against it keep decoding.
	StatusIdle         Status = "idle"
	StatusBriefing     Status = "briefing"
	StatusActive       Status = "active"
	StatusSuccess      Status = "success"
	StatusFailed       Status = "failed"
	StatusPanic        Status = "panic"
	StatusCompletedAll Status = "completed_all"
)

// Mission is the immutable definition of one level.
type Mission struct {
	ID                      string      `json:"id" yaml:"id"`
	Level                   Level       `json:"level" yaml:"level"`
	Title                   string      `json:"title" yaml:"title"`
	Description             string      `json:"description" yaml:"description"`
	Target                  *Coordinate `json:"targetLocation,omitempty" yaml:"target,omitempty"`
	RadiusMeters            float64     `json:"radiusMeters" yaml:"radiusMeters"`
	RequiredDurationSeconds int         `json:"requiredDurationSeconds" yaml:"requiredDurationSeconds"`
	TimeWindowStart         string      `json:"timeWindowStart" yaml:"timeWindowStart"`
	TimeWindowEnd           string      `json:"timeWindowEnd" yaml:"timeWindowEnd"`
}

// UserState is the mutable part of a session. Callers only ever see copies.
type UserState struct {
	CurrentLocation *Coordinate  `json:"currentLocation"`
	HomeLocation    *Coordinate  `json:"homeLocation"`
	VisitedPath     []Coordinate `json:"visitedPath"`
	CurrentLevel    Level        `json:"currentLevel"`
	MissionStatus   Status       `json:"missionStatus"`
	Panic           bool         `json:"panic"`
	InZoneSince     *string      `json:"inZoneSince"`
	GhostTime       string       `json:"ghostTime"`
}

// ghostTime is a placeholder until multi-day pacing exists.
const ghostTime = "09:15"

func newUserState() UserState {
	return UserState{
		VisitedPath:   []Coordinate{},
		CurrentLevel:  LevelFreshAir,
		MissionStatus: StatusBriefing,
		GhostTime:     ghostTime,
	}
}

func (u UserState) clone() UserState {
	out := u
	if u.CurrentLocation != nil {
		c := *u.CurrentLocation
		out.CurrentLocation = &c
	}
	if u.HomeLocation != nil {
		h := *u.HomeLocation
		out.HomeLocation = &h
	}
	if u.InZoneSince != nil {
		s := *u.InZoneSince
		out.InZoneSince = &s
	}
	out.VisitedPath = append([]Coordinate(nil), u.VisitedPath...)
	if out.VisitedPath == nil {
		out.VisitedPath = []Coordinate{}
	}
	return out
}
