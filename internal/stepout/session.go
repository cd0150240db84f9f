package stepout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrClosed = errors.New("session closed")
	// ErrAlreadySubscribed is returned by Watch when the session already has
	// a live position source.
	ErrAlreadySubscribed = errors.New("session already has a position source")
)

// pathHysteresisMeters is the movement needed before a fix extends the trail.
const pathHysteresisMeters = 5

const narrationTimeout = 10 * time.Second

const (
	initialMessage       = "Synchronizing space-time sequence..."
	positionErrorMessage = "GPS signal not found. Move somewhere with open sky."
)

// Session owns one user's mission run. Every transition takes the session
// lock, so fixes, dwell ticks and user intents are applied one at a time in
// arrival order.
type Session struct {
	id      string
	catalog Catalog
	logger  *slog.Logger
	now     func() time.Time

	narrator     Narrator
	newTicker    TickerFunc
	tickInterval time.Duration
	observers    []Observer

	mu      sync.Mutex
	state   UserState
	message string
	dwell   dwellTimer
	closed  bool
	sourced bool
	pending []Event

	// wg tracks narration requests and dwell ticker goroutines.
	wg sync.WaitGroup
}

type Option func(*Session)

func WithCatalog(c Catalog) Option { return func(s *Session) { s.catalog = c } }

func WithLogger(l *slog.Logger) Option { return func(s *Session) { s.logger = l } }

func WithNarrator(n Narrator) Option { return func(s *Session) { s.narrator = n } }

func WithClock(now func() time.Time) Option { return func(s *Session) { s.now = now } }

// WithTicker replaces the ticker that drives the dwell countdown.
func WithTicker(f TickerFunc) Option { return func(s *Session) { s.newTicker = f } }

func WithTickInterval(d time.Duration) Option { return func(s *Session) { s.tickInterval = d } }

func WithObserver(o Observer) Option {
	return func(s *Session) { s.observers = append(s.observers, o) }
}

// New creates a session in briefing for level 1 and asks for the first
// briefing message.
func New(id string, opts ...Option) *Session {
	s := &Session{
		id:           id,
		catalog:      DefaultCatalog(),
		logger:       slog.Default(),
		now:          time.Now,
		narrator:     unconfiguredNarrator{},
		newTicker:    NewTimeTicker,
		tickInterval: time.Second,
		state:        newUserState(),
		message:      initialMessage,
	}
	for _, o := range opts {
		o(s)
	}
	s.logger = s.logger.With("session_id", id)

	s.mu.Lock()
	s.record(EventSessionCreated)
	s.narrate(NarrationBriefing)
	s.flush()
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) Catalog() Catalog { return s.catalog }

// Snapshot returns a consistent copy of the session for display.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// OnFix ingests one position fix from the real positioning source.
func (s *Session) OnFix(c Coordinate) error {
	return s.apply(func() error {
		s.ingest(c)
		return nil
	})
}

// OnPositionError records a transient sensing failure. Position state is
// left alone; only the advisory message changes.
func (s *Session) OnPositionError(err error) error {
	return s.apply(func() error {
		s.logger.Warn("position error", "error", err)
		s.message = positionErrorMessage
		s.record(EventPositionError)
		return nil
	})
}

// attachSource claims the session's single position source slot.
func (s *Session) attachSource() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.closed:
		return ErrClosed
	case s.sourced:
		return ErrAlreadySubscribed
	}
	s.sourced = true
	return nil
}

func (s *Session) detachSource() {
	s.mu.Lock()
	s.sourced = false
	s.mu.Unlock()
}

// Tick advances a running dwell countdown by one step. It is a no-op when no
// countdown is running.
func (s *Session) Tick() {
	s.mu.Lock()
	if s.closed || !s.dwell.running {
		s.mu.Unlock()
		return
	}
	s.tick()
	s.flush()
}

func (s *Session) Start() error {
	return s.apply(func() error {
		if s.state.MissionStatus != StatusBriefing {
			return fmt.Errorf("start from %s: %w", s.state.MissionStatus, ErrInvalidTransition)
		}
		s.state.MissionStatus = StatusActive
		s.logger.Info("mission started", "level", s.state.CurrentLevel)
		s.record(EventMissionStarted)
		s.evaluate()
		return nil
	})
}

// Panic abandons the active mission. The session stays in panic until Reset.
func (s *Session) Panic() error {
	return s.apply(func() error {
		if s.state.MissionStatus != StatusActive {
			return fmt.Errorf("panic from %s: %w", s.state.MissionStatus, ErrInvalidTransition)
		}
		s.stopDwell()
		s.state.Panic = true
		s.state.MissionStatus = StatusPanic
		s.logger.Info("panic triggered", "level", s.state.CurrentLevel)
		s.record(EventPanic)
		s.narrate(NarrationPanic)
		return nil
	})
}

// Advance moves past a successful mission: to the next level's briefing, or
// to completed_all after the last level.
func (s *Session) Advance() error {
	return s.apply(func() error {
		if s.state.MissionStatus != StatusSuccess {
			return fmt.Errorf("advance from %s: %w", s.state.MissionStatus, ErrInvalidTransition)
		}
		s.stopDwell()

		if s.state.CurrentLevel >= LastLevel {
			s.state.MissionStatus = StatusCompletedAll
			s.logger.Info("all missions completed")
			s.record(EventCompletedAll)
			return nil
		}

		s.state.CurrentLevel++
		s.state.MissionStatus = StatusBriefing
		s.state.Panic = false
		s.state.VisitedPath = []Coordinate{}
		if s.state.HomeLocation != nil {
			s.state.VisitedPath = []Coordinate{*s.state.HomeLocation}
		}
		s.logger.Info("level advanced", "level", s.state.CurrentLevel)
		s.record(EventLevelAdvanced)
		s.narrate(NarrationBriefing)
		return nil
	})
}

// Reset discards everything, home included, and starts over at level 1.
func (s *Session) Reset() error {
	return s.apply(func() error {
		s.stopDwell()
		s.state = newUserState()
		s.message = initialMessage
		s.logger.Info("session reset")
		s.record(EventReset)
		s.narrate(NarrationBriefing)
		return nil
	})
}

// Close stops the dwell timer and waits for in-flight narration. Later
// calls on the session are ignored or return ErrClosed.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.stopDwell()
	s.record(EventClosed)
	s.closed = true
	s.flush()

	s.wg.Wait()
}

// apply runs fn under the lock and then notifies observers.
func (s *Session) apply(fn func() error) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	err := fn()
	s.flush()
	return err
}

// flush releases the lock and hands queued events to observers. Must be
// called with s.mu held.
func (s *Session) flush() {
	events := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, ev := range events {
		for _, o := range s.observers {
			o.Observe(ev)
		}
	}
}

func (s *Session) record(kind EventKind) {
	s.pending = append(s.pending, Event{
		Kind:     kind,
		At:       s.now(),
		Snapshot: s.snapshot(),
	})
}

func (s *Session) mission() Mission {
	return s.catalog.MissionFor(s.state.CurrentLevel)
}

func (s *Session) snapshot() Snapshot {
	m := s.mission()
	snap := Snapshot{
		SessionID: s.id,
		State:     s.state.clone(),
		Mission:   m,
		Message:   s.message,
	}
	if d, ok := RemainingDistance(s.state, m); ok {
		snap.RemainingDistance = &d
		snap.ProgressPercent = s.catalog.ProgressPercent(d, m.Level)
	}
	switch {
	case s.dwell.running:
		snap.DwellRemaining = s.dwell.remaining
		snap.DwellRunning = true
	case s.state.MissionStatus == StatusSuccess || s.state.MissionStatus == StatusCompletedAll:
		snap.DwellRemaining = 0
	default:
		snap.DwellRemaining = m.RequiredDurationSeconds
	}
	return snap
}

func (s *Session) ingest(c Coordinate) {
	if s.state.HomeLocation == nil {
		home, cur := c, c
		s.state.HomeLocation = &home
		s.state.CurrentLocation = &cur
		s.state.VisitedPath = []Coordinate{c}
		s.logger.Info("home calibrated", "lat", c.Lat, "lng", c.Lng)
		s.record(EventHomeCalibrated)
		s.evaluate()
		return
	}

	path := s.state.VisitedPath
	if s.state.MissionStatus == StatusActive &&
		(len(path) == 0 || Distance(path[len(path)-1], c) > pathHysteresisMeters) {
		s.state.VisitedPath = append(path, c)
	}
	cur := c
	s.state.CurrentLocation = &cur
	s.record(EventPosition)
	s.evaluate()
}

// evaluate checks the active mission's success condition against the
// current position.
func (s *Session) evaluate() {
	if s.state.MissionStatus != StatusActive || s.state.Panic ||
		s.state.CurrentLocation == nil || s.state.HomeLocation == nil {
		return
	}

	cur := *s.state.CurrentLocation
	m := s.mission()

	switch m.Level {
	case LevelFreshAir:
		if Distance(cur, *s.state.HomeLocation) > m.RadiusMeters {
			s.succeed()
		}
	case LevelNeighborhood:
		if m.Target != nil && Distance(cur, *m.Target) < m.RadiusMeters {
			s.succeed()
		}
	case LevelSocialSpace:
		if m.Target == nil {
			return
		}
		if Distance(cur, *m.Target) < m.RadiusMeters {
			s.startDwell(m.RequiredDurationSeconds)
		} else {
			s.stopDwell()
		}
	}
}

func (s *Session) succeed() {
	s.haltDwell()
	if s.state.MissionStatus == StatusSuccess || s.state.MissionStatus == StatusCompletedAll {
		return
	}
	s.state.MissionStatus = StatusSuccess
	s.logger.Info("mission success", "level", s.state.CurrentLevel)
	s.record(EventMissionSuccess)
	s.narrate(NarrationSuccess)
}

// narrate requests a message in the background. The transition that asked
// for it has already been applied; the reply only replaces the message.
func (s *Session) narrate(kind NarrationKind) {
	req := NarrationRequest{Kind: kind, Level: s.state.CurrentLevel}
	if kind == NarrationBriefing {
		req.Context = s.catalog.MissionFor(req.Level).Description
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), narrationTimeout)
		defer cancel()

		text, err := s.narrator.Narrate(ctx, req)
		if err != nil || text == "" {
			if err != nil && !errors.Is(err, ErrNotConfigured) {
				s.logger.Warn("narration failed", "kind", kind, "error", err)
			}
			text = fallbackText(kind, err)
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		s.message = text
		s.record(EventMessage)
		s.flush()
	}()
}
