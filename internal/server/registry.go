package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/playperu/stepout/internal/stepout"
)

var ErrNotFound = errors.New("session not found")

// Feed hands out a position source per session id.
type Feed interface {
	Device(id string) stepout.Source
}

type liveSession struct {
	*stepout.Session
	ctx  context.Context
	stop context.CancelFunc

	mu       sync.Mutex
	attached bool
	feedStop context.CancelFunc
	feedDone chan struct{}
}

// pauseFeed cancels the registry feed and waits for it to let go of the
// session. Must be called with ls.mu held.
func (ls *liveSession) pauseFeed() {
	if ls.feedStop == nil {
		return
	}
	ls.feedStop()
	<-ls.feedDone
	ls.feedStop, ls.feedDone = nil, nil
}

// shutdown ends the feed and closes the session. The cancel happens under
// ls.mu so a concurrent release cannot restart the feed afterwards.
func (ls *liveSession) shutdown() {
	ls.mu.Lock()
	ls.stop()
	ls.mu.Unlock()
	ls.Close()
}

// Registry holds the live sessions of this process. Sessions are never
// persisted; a restart starts everyone over.
type Registry struct {
	logger *slog.Logger
	feed   Feed
	opts   []stepout.Option

	mu       sync.RWMutex
	sessions map[string]*liveSession

	wg sync.WaitGroup
}

// NewRegistry builds sessions with opts. When feed is non-nil every new
// session is subscribed to feed.Device(id) until it is deleted, except while
// a socket holds the session through Attach.
func NewRegistry(logger *slog.Logger, feed Feed, opts ...stepout.Option) *Registry {
	return &Registry{
		logger:   logger,
		feed:     feed,
		opts:     opts,
		sessions: make(map[string]*liveSession),
	}
}

func (r *Registry) Create() *stepout.Session {
	id := uuid.NewString()
	opts := append([]stepout.Option{stepout.WithLogger(r.logger)}, r.opts...)
	s := stepout.New(id, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	ls := &liveSession{Session: s, ctx: ctx, stop: cancel}
	r.mu.Lock()
	r.sessions[id] = ls
	r.mu.Unlock()

	ls.mu.Lock()
	r.startFeed(ls)
	ls.mu.Unlock()
	return s
}

// startFeed subscribes the session to its device feed. Must be called with
// ls.mu held.
func (r *Registry) startFeed(ls *liveSession) {
	if r.feed == nil || ls.attached || ls.ctx.Err() != nil {
		return
	}
	ctx, cancel := context.WithCancel(ls.ctx)
	done := make(chan struct{})
	ls.feedStop, ls.feedDone = cancel, done

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer close(done)
		err := stepout.Watch(ctx, r.feed.Device(ls.ID()), ls.Session)
		if err != nil && !errors.Is(err, stepout.ErrClosed) {
			r.logger.Warn("position feed unavailable", "session_id", ls.ID(), "error", err)
		}
	}()
}

// Attach hands the session's position input to the caller, pausing the
// device feed until release is called. Only one caller holds a session at a
// time; others get stepout.ErrAlreadySubscribed.
func (r *Registry) Attach(id string) (release func(), err error) {
	r.mu.RLock()
	ls, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.attached {
		return nil, stepout.ErrAlreadySubscribed
	}
	ls.attached = true
	ls.pauseFeed()

	var once sync.Once
	return func() {
		once.Do(func() {
			ls.mu.Lock()
			defer ls.mu.Unlock()
			ls.attached = false
			r.startFeed(ls)
		})
	}, nil
}

func (r *Registry) Get(id string) (*stepout.Session, error) {
	r.mu.RLock()
	ls, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return ls.Session, nil
}

// Delete removes the session, releases its feed and closes it.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	ls, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	ls.shutdown()
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) Close() error {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*liveSession)
	r.mu.Unlock()

	for _, ls := range all {
		ls.shutdown()
	}
	r.wg.Wait()
	return nil
}
