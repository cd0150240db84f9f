package stepout

import "time"

// Ticker is the subset of *time.Ticker the dwell countdown needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type TickerFunc func(d time.Duration) Ticker

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

func NewTimeTicker(d time.Duration) Ticker { return timeTicker{time.NewTicker(d)} }

// dwellTimer is the level-3 countdown. At most one runs per session; gen
// identifies it so ticks from a stopped or replaced timer are dropped.
type dwellTimer struct {
	running   bool
	remaining int
	gen       uint64
	done      chan struct{}
}

// startDwell begins a fresh countdown unless one is already running.
func (s *Session) startDwell(seconds int) {
	if s.dwell.running {
		return
	}
	s.dwell.gen++
	s.dwell.running = true
	s.dwell.remaining = seconds
	s.dwell.done = make(chan struct{})

	since := s.now().UTC().Format(time.RFC3339)
	s.state.InZoneSince = &since
	s.logger.Info("dwell started", "seconds", seconds)
	s.record(EventDwellStarted)

	t := s.newTicker(s.tickInterval)
	gen, done := s.dwell.gen, s.dwell.done

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C():
				s.tickGen(gen)
			}
		}
	}()
}

// stopDwell cancels the countdown without credit. Safe to call when nothing
// is running.
func (s *Session) stopDwell() {
	if s.haltDwell() {
		s.record(EventDwellCancelled)
	}
}

// haltDwell stops the countdown and reports whether one was running.
func (s *Session) haltDwell() bool {
	if !s.dwell.running {
		return false
	}
	close(s.dwell.done)
	s.dwell.done = nil
	s.dwell.running = false
	s.dwell.remaining = 0
	s.state.InZoneSince = nil
	return true
}

func (s *Session) tickGen(gen uint64) {
	s.mu.Lock()
	if s.closed || !s.dwell.running || s.dwell.gen != gen {
		s.mu.Unlock()
		return
	}
	s.tick()
	s.flush()
}

// tick decrements the running countdown and fires success at zero. Must be
// called with s.mu held and a countdown running.
func (s *Session) tick() {
	s.dwell.remaining--
	if s.dwell.remaining <= 0 {
		s.dwell.remaining = 0
		s.succeed()
		return
	}
	s.record(EventDwellTick)
}
