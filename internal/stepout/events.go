package stepout

import "time"

type EventKind string

const (
	EventSessionCreated EventKind = "session_created"
	EventHomeCalibrated EventKind = "home_calibrated"
	EventPosition       EventKind = "position"
	EventPositionError  EventKind = "position_error"
	EventMissionStarted EventKind = "mission_started"
	EventDwellStarted   EventKind = "dwell_started"
	EventDwellTick      EventKind = "dwell_tick"
	EventDwellCancelled EventKind = "dwell_cancelled"
	EventMissionSuccess EventKind = "mission_success"
	EventPanic          EventKind = "panic"
	EventLevelAdvanced  EventKind = "level_advanced"
	EventCompletedAll   EventKind = "completed_all"
	EventReset          EventKind = "reset"
	EventMessage        EventKind = "message"
	EventClosed         EventKind = "closed"
)

// Milestone reports whether the kind marks a step in the mission flow, as
// opposed to position and countdown chatter.
func (k EventKind) Milestone() bool {
	switch k {
	case EventPosition, EventDwellTick, EventMessage:
		return false
	}
	return true
}

// Snapshot is everything a client needs to render a session.
type Snapshot struct {
	SessionID         string    `json:"sessionId"`
	State             UserState `json:"state"`
	Mission           Mission   `json:"mission"`
	RemainingDistance *float64  `json:"remainingDistance"`
	ProgressPercent   float64   `json:"progressPercent"`
	DwellRemaining    int       `json:"dwellRemaining"`
	DwellRunning      bool      `json:"dwellRunning"`
	Message           string    `json:"message"`
}

// Event is emitted after every transition with the state it produced.
type Event struct {
	Kind     EventKind `json:"kind"`
	At       time.Time `json:"at"`
	Snapshot Snapshot  `json:"snapshot"`
}

// Observer receives session events outside the session lock.
type Observer interface {
	Observe(Event)
}

type ObserverFunc func(Event)

func (f ObserverFunc) Observe(ev Event) { f(ev) }
