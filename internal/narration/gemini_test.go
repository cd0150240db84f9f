package narration

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/playperu/stepout/internal/stepout"
)

type fakeGenerator struct {
	model  string
	prompt string
	reply  string
	err    error
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	for _, c := range contents {
		for _, p := range c.Parts {
			f.prompt += p.Text
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(f.reply, genai.RoleModel)}},
	}, nil
}

func TestGeminiWithoutKey(t *testing.T) {
	g, err := NewGemini(context.Background(), "", "")
	require.NoError(t, err)

	_, err = g.Narrate(context.Background(), stepout.NarrationRequest{Kind: stepout.NarrationBriefing, Level: 1})
	assert.ErrorIs(t, err, stepout.ErrNotConfigured)
}

func TestGeminiNarrate(t *testing.T) {
	tests := []struct {
		name       string
		req        stepout.NarrationRequest
		wantPrompt string
	}{
		{"briefing", stepout.NarrationRequest{Kind: stepout.NarrationBriefing, Level: 2, Context: "walk to the park"}, "level 2 mission: walk to the park"},
		{"panic", stepout.NarrationRequest{Kind: stepout.NarrationPanic, Level: 3}, "emergency return"},
		{"success", stepout.NarrationRequest{Kind: stepout.NarrationSuccess, Level: 1}, "level 1 mission"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{reply: "  You did great.  "}
			g := &Gemini{models: gen, model: DefaultModel}

			text, err := g.Narrate(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, "You did great.", text)
			assert.Equal(t, DefaultModel, gen.model)
			assert.True(t, strings.Contains(gen.prompt, tt.wantPrompt), "prompt %q", gen.prompt)
		})
	}
}

func TestGeminiErrors(t *testing.T) {
	req := stepout.NarrationRequest{Kind: stepout.NarrationSuccess, Level: 1}

	g := &Gemini{models: &fakeGenerator{err: errors.New("quota")}, model: DefaultModel}
	_, err := g.Narrate(context.Background(), req)
	assert.ErrorContains(t, err, "quota")

	g = &Gemini{models: &fakeGenerator{reply: " "}, model: DefaultModel}
	_, err = g.Narrate(context.Background(), req)
	assert.ErrorContains(t, err, "empty response")
}
