// Package narration writes the supportive copy shown alongside mission
// transitions, using Gemini and an optional Redis cache.
package narration

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/playperu/stepout/internal/stepout"
)

const DefaultModel = "gemini-2.5-flash"

// generator is the part of *genai.Models used here.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini narrates with a Gemini model. A Gemini without an API key reports
// stepout.ErrNotConfigured for every request.
type Gemini struct {
	models generator
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if model == "" {
		model = DefaultModel
	}
	if apiKey == "" {
		return &Gemini{model: model}, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Gemini{models: client.Models, model: model}, nil
}

func (g *Gemini) Narrate(ctx context.Context, req stepout.NarrationRequest) (string, error) {
	if g.models == nil {
		return "", stepout.ErrNotConfigured
	}
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt(req)), nil)
	if err != nil {
		return "", fmt.Errorf("generating %s message: %w", req.Kind, err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("generating %s message: empty response", req.Kind)
	}
	return text, nil
}

func prompt(req stepout.NarrationRequest) string {
	switch req.Kind {
	case stepout.NarrationPanic:
		return `The user felt panic or anxiety while outside and pressed the "emergency return" button.
Write one calm, grounding, safe sentence. Tell them it is fine to go home and that trying was already a win.`
	case stepout.NarrationSuccess:
		return fmt.Sprintf(`The user has just completed the level %d mission.
Write a short congratulation that mixes warmth with the style of a sci-fi game "achievement unlocked".`, req.Level)
	default:
		return fmt.Sprintf(`You are a warm, encouraging companion helping a user who lives with social anxiety.
The user is about to start the level %d mission: %s

Level 1: step 20m outside the front door.
Level 2: walk to a nearby park or convenience store.
Level 3: visit a library or cafe and stay for a while.

Before the mission starts, write one very short, warm sentence of motivation. Do not be pushy.`, req.Level, req.Context)
	}
}
