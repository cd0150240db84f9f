package stepout

import (
	"context"
	"errors"
)

type NarrationKind string

const (
	NarrationBriefing NarrationKind = "briefing"
	NarrationPanic    NarrationKind = "panic"
	NarrationSuccess  NarrationKind = "success"
)

type NarrationRequest struct {
	Kind    NarrationKind
	Level   Level
	Context string
}

// Narrator writes the supportive copy shown with each transition. It is
// always optional: errors are replaced by fixed messages.
type Narrator interface {
	Narrate(ctx context.Context, req NarrationRequest) (string, error)
}

type unconfiguredNarrator struct{}

func (unconfiguredNarrator) Narrate(context.Context, NarrationRequest) (string, error) {
	return "", ErrNotConfigured
}

var (
	unconfiguredText = map[NarrationKind]string{
		NarrationBriefing: "The AI key is not set. Check the server environment.",
		NarrationPanic:    "Catch your breath. The AI key is not set.",
		NarrationSuccess:  "Mission complete! (AI reply unavailable: key not set)",
	}
	failedText = map[NarrationKind]string{
		NarrationBriefing: "Ready to explore new space-time coordinates?",
		NarrationPanic:    "It's okay. Head home slowly and take a deep breath.",
		NarrationSuccess:  "Mission complete. This zone's space-time lock is released.",
	}
)

// fallbackText is the message used when the narrator cannot answer.
func fallbackText(kind NarrationKind, err error) string {
	if errors.Is(err, ErrNotConfigured) {
		return unconfiguredText[kind]
	}
	return failedText[kind]
}
