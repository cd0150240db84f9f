// Package journal keeps an append-only log of mission milestones for
// reporting. Sessions never read it back.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/playperu/stepout/internal/stepout"
)

type Entry struct {
	ID         int64               `json:"id"`
	SessionID  string              `json:"sessionId"`
	Kind       stepout.EventKind   `json:"kind"`
	Level      stepout.Level       `json:"level"`
	Status     stepout.Status      `json:"status"`
	Location   *stepout.Coordinate `json:"location,omitempty"`
	OccurredAt time.Time           `json:"occurredAt"`
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, e Entry) error {
	var lat, lng sql.NullFloat64
	if e.Location != nil {
		lat = sql.NullFloat64{Float64: e.Location.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: e.Location.Lng, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journal (session_id, kind, level, status, occurred_at, lat, lng)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.SessionID, string(e.Kind), int(e.Level), string(e.Status),
		e.OccurredAt.UTC().Format(time.RFC3339Nano), lat, lng)
	if err != nil {
		return fmt.Errorf("appending journal entry: %w", err)
	}
	return nil
}

// List returns a session's entries in the order they were written.
func (s *Store) List(ctx context.Context, sessionID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, kind, level, status, occurred_at, lat, lng
		FROM journal
		WHERE session_id = ?
		ORDER BY id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing journal: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e          Entry
			kind       string
			status     string
			level      int
			occurredAt string
			lat, lng   sql.NullFloat64
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &kind, &level, &status, &occurredAt, &lat, &lng); err != nil {
			return nil, fmt.Errorf("scanning journal entry: %w", err)
		}
		e.Kind = stepout.EventKind(kind)
		e.Level = stepout.Level(level)
		e.Status = stepout.Status(status)
		e.OccurredAt, _ = time.Parse(time.RFC3339Nano, occurredAt)
		if lat.Valid && lng.Valid {
			e.Location = &stepout.Coordinate{Lat: lat.Float64, Lng: lng.Float64}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Observer writes milestone events to the store. Write failures are logged
// and never reach the session.
func (s *Store) Observer(logger *slog.Logger) stepout.Observer {
	return stepout.ObserverFunc(func(ev stepout.Event) {
		if !ev.Kind.Milestone() {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		snap := ev.Snapshot
		err := s.Append(ctx, Entry{
			SessionID:  snap.SessionID,
			Kind:       ev.Kind,
			Level:      snap.State.CurrentLevel,
			Status:     snap.State.MissionStatus,
			Location:   snap.State.CurrentLocation,
			OccurredAt: ev.At,
		})
		if err != nil {
			logger.Error("journal write failed", "session_id", snap.SessionID, "kind", ev.Kind, "error", err)
		}
	})
}
