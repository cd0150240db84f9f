package server

import (
	"sync"

	"github.com/playperu/stepout/internal/stepout"
)

// Broker is an in-process pub/sub for session events, keyed by session ID.
// It is registered as a stepout.Observer on every session.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan stepout.Event]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan stepout.Event]struct{}),
	}
}

// Subscribe returns a channel that receives events for the given session.
func (b *Broker) Subscribe(sessionID string) chan stepout.Event {
	ch := make(chan stepout.Event, 16)
	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[chan stepout.Event]struct{})
	}
	b.subs[sessionID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the session's subscribers.
func (b *Broker) Unsubscribe(sessionID string, ch chan stepout.Event) {
	b.mu.Lock()
	delete(b.subs[sessionID], ch)
	if len(b.subs[sessionID]) == 0 {
		delete(b.subs, sessionID)
	}
	b.mu.Unlock()
}

// Observe publishes ev to all subscribers of its session.
func (b *Broker) Observe(ev stepout.Event) {
	b.mu.RLock()
	for ch := range b.subs[ev.Snapshot.SessionID] {
		select {
		case ch <- ev:
		default:
			// Drop if subscriber is slow; the next event carries a full snapshot.
		}
	}
	b.mu.RUnlock()
}
