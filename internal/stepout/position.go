package stepout

import (
	"context"
	"fmt"
)

// Source is a live positioning feed. Subscribe delivers fixes and transient
// errors until the returned unsubscribe func is called or ctx ends.
type Source interface {
	Subscribe(ctx context.Context, onFix func(Coordinate), onError func(error)) (unsubscribe func(), err error)
}

// Watch feeds src into s until ctx is done. A session takes one source at a
// time; a second Watch fails with ErrAlreadySubscribed while the first runs.
// The subscription is always released before Watch returns.
func Watch(ctx context.Context, src Source, s *Session) error {
	if err := s.attachSource(); err != nil {
		return fmt.Errorf("watching position source: %w", err)
	}
	defer s.detachSource()

	onFix := func(c Coordinate) { _ = s.OnFix(c) }
	onError := func(err error) { _ = s.OnPositionError(err) }
	unsubscribe, err := src.Subscribe(ctx, onFix, onError)
	if err != nil {
		return fmt.Errorf("subscribing to position source: %w", err)
	}
	defer unsubscribe()

	<-ctx.Done()
	return nil
}
