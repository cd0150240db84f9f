package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/playperu/stepout/internal/stepout"
)

// PositionMessage is what the browser sends over the position socket,
// typically from navigator.geolocation.watchPosition.
type PositionMessage struct {
	Type    string   `json:"type"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
	Message string   `json:"message,omitempty"`
}

// wsSource is a stepout.Source reading position messages from a websocket.
// A read failure ends the connection through done.
type wsSource struct {
	conn   *websocket.Conn
	done   context.CancelFunc
	logger *slog.Logger
}

func (src wsSource) Subscribe(ctx context.Context, onFix func(stepout.Coordinate), onError func(error)) (func(), error) {
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		defer src.done()
		for {
			_, data, err := src.conn.Read(ctx)
			if err != nil {
				src.logger.Debug("websocket read ended", "error", err)
				return
			}
			c, err := decodePosition(data)
			if err != nil {
				onError(err)
				continue
			}
			onFix(c)
		}
	}()
	return func() { <-stopped }, nil
}

func decodePosition(data []byte) (stepout.Coordinate, error) {
	var msg PositionMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return stepout.Coordinate{}, fmt.Errorf("decoding position message: %w", err)
	}
	switch msg.Type {
	case "fix":
		return parseCoordinate(msg.Lat, msg.Lng)
	case "error":
		if msg.Message == "" {
			return stepout.Coordinate{}, errors.New("position unavailable")
		}
		return stepout.Coordinate{}, errors.New(msg.Message)
	default:
		return stepout.Coordinate{}, fmt.Errorf("unknown message type %q", msg.Type)
	}
}

// handlePositionStream feeds browser fixes into the session and writes back
// the current snapshot followed by every event.
func handlePositionStream(logger *slog.Logger, sessions *Registry, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sessionFrom(r)

		release, err := sessions.Attach(s.ID())
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		if err != nil {
			writeSessionError(w, err)
			return
		}
		defer release()

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		events := broker.Subscribe(s.ID())
		defer broker.Unsubscribe(s.ID(), events)

		written := make(chan struct{})
		go func() {
			defer close(written)
			defer cancel()
			if err := wsjson.Write(ctx, conn, s.Snapshot()); err != nil {
				return
			}
			for {
				select {
				case <-ctx.Done():
					return
				case ev := <-events:
					if err := wsjson.Write(ctx, conn, ev); err != nil {
						logger.Debug("websocket write failed", "error", err)
						return
					}
					if ev.Kind == stepout.EventClosed {
						return
					}
				}
			}
		}()

		src := wsSource{conn: conn, done: cancel, logger: logger}
		if err := stepout.Watch(ctx, src, s); err != nil {
			logger.Error("position stream failed", "session_id", s.ID(), "error", err)
			cancel()
		}
		<-written
		conn.Close(websocket.StatusNormalClosure, "")
	}
}
