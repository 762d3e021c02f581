package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scriptgen/internal/domain"
)

type fakeCompleter struct {
	got  CompletionRequest
	resp *CompletionResponse
	err  error
}

func (f *fakeCompleter) Complete(_ context.Context, req CompletionRequest) (*CompletionResponse, error) {
	f.got = req
	return f.resp, f.err
}

func TestScriptGenerator_Generate(t *testing.T) {
	fake := &fakeCompleter{resp: &CompletionResponse{
		Text:         "\n# How Rockets Work\n\nThrust.\n",
		FinishReason: "stop",
		PromptTokens: 200,
		OutputTokens: 2500,
	}}
	gen := NewScriptGenerator(fake, nil, GeneratorConfig{
		Model:       "gpt-4",
		MaxTokens:   4000,
		Temperature: 0.7,
		Channel:     "ADev Tutorials",
	}, discard)

	script, err := gen.Generate(context.Background(), "How Rockets Work", "  for kids ")

	require.NoError(t, err)
	assert.Equal(t, "# How Rockets Work\n\nThrust.", script.Markdown)
	assert.Equal(t, "gpt-4", script.Model)
	assert.Equal(t, 200, script.PromptTokens)
	assert.Equal(t, 2500, script.OutputTokens)

	assert.Equal(t, "gpt-4", fake.got.Model)
	assert.Equal(t, 4000, fake.got.MaxTokens)
	require.Len(t, fake.got.Messages, 3)
	assert.Contains(t, fake.got.Messages[1].Content, "ADev Tutorials")
	user := fake.got.Messages[2]
	assert.Equal(t, "user", user.Role)
	assert.Contains(t, user.Content, "Title: How Rockets Work")
	assert.Contains(t, user.Content, "Additional context: for kids")
	assert.Contains(t, user.Content, "2000-4000 words")
	assert.Contains(t, user.Content, "Hook")
	assert.Contains(t, user.Content, "Call-to-Action")
}

func TestScriptGenerator_OmitsEmptyDescriptionAndChannel(t *testing.T) {
	fake := &fakeCompleter{resp: &CompletionResponse{Text: "# ok"}}
	gen := NewScriptGenerator(fake, nil, GeneratorConfig{Model: "gpt-4"}, discard)

	_, err := gen.Generate(context.Background(), "How Rockets Work", "")

	require.NoError(t, err)
	require.Len(t, fake.got.Messages, 2)
	assert.NotContains(t, fake.got.Messages[1].Content, "Additional context")
}

func TestScriptGenerator_EmptyResponse(t *testing.T) {
	fake := &fakeCompleter{resp: &CompletionResponse{Text: "   "}}
	gen := NewScriptGenerator(fake, nil, GeneratorConfig{Model: "gpt-4"}, discard)

	_, err := gen.Generate(context.Background(), "t", "")

	assert.ErrorIs(t, err, domain.ErrEmptyScript)
}

func TestScriptGenerator_PropagatesAPIError(t *testing.T) {
	apiErr := &domain.APIError{Service: "openai", StatusCode: 503}
	fake := &fakeCompleter{err: apiErr}
	gen := NewScriptGenerator(fake, nil, GeneratorConfig{Model: "gpt-4"}, discard)

	_, err := gen.Generate(context.Background(), "t", "")

	assert.ErrorIs(t, err, domain.ErrExternalAPI)
	var target *domain.APIError
	assert.True(t, errors.As(err, &target))
}

func TestScriptGenerator_PromptOverridesModel(t *testing.T) {
	prompt, err := ParsePrompt([]byte("---\nmodel: gpt-4o\nmax_tokens: 6000\ntemperature: 0.2\n---\nWrite about {{.Title}}."))
	require.NoError(t, err)

	fake := &fakeCompleter{resp: &CompletionResponse{Text: "# ok", Model: "gpt-4o-2024"}}
	gen := NewScriptGenerator(fake, prompt, GeneratorConfig{Model: "gpt-4", MaxTokens: 4000, Temperature: 0.7}, discard)

	script, err := gen.Generate(context.Background(), "Rockets", "")

	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", fake.got.Model)
	assert.Equal(t, 6000, fake.got.MaxTokens)
	assert.InDelta(t, 0.2, fake.got.Temperature, 0.0001)
	assert.Equal(t, "gpt-4o-2024", script.Model)
	assert.Equal(t, "Write about Rockets.", fake.got.Messages[len(fake.got.Messages)-1].Content)
}
