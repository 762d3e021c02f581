package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"scriptgen/internal/domain"
)

// Completer is the chat completion call the generator depends on.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// GeneratorConfig holds model settings used when the prompt does not set them.
type GeneratorConfig struct {
	Model       string
	MaxTokens   int
	Temperature float64
	Channel     string
}

// ScriptGenerator turns a record title into a markdown video script.
type ScriptGenerator struct {
	client Completer
	prompt *PromptTemplate
	config GeneratorConfig
	logger *slog.Logger
}

func NewScriptGenerator(client Completer, prompt *PromptTemplate, cfg GeneratorConfig, logger *slog.Logger) *ScriptGenerator {
	if prompt == nil {
		prompt = DefaultPrompt()
	}
	return &ScriptGenerator{
		client: client,
		prompt: prompt,
		config: cfg,
		logger: logger,
	}
}

func (g *ScriptGenerator) Generate(ctx context.Context, title, description string) (*domain.Script, error) {
	messages, err := g.prompt.Render(PromptData{
		Title:       title,
		Description: strings.TrimSpace(description),
		Channel:     g.config.Channel,
	})
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	req := CompletionRequest{
		Model:       g.config.Model,
		Messages:    messages,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}
	if g.prompt.Model != "" {
		req.Model = g.prompt.Model
	}
	if g.prompt.MaxTokens > 0 {
		req.MaxTokens = g.prompt.MaxTokens
	}
	if g.prompt.Temperature != nil {
		req.Temperature = *g.prompt.Temperature
	}

	resp, err := g.client.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("complete: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return nil, fmt.Errorf("complete: %w", domain.ErrEmptyScript)
	}

	model := resp.Model
	if model == "" {
		model = req.Model
	}

	g.logger.Debug("generated script",
		"title", title,
		"model", model,
		"chars", len(text),
		"prompt_tokens", resp.PromptTokens,
		"output_tokens", resp.OutputTokens,
		"finish_reason", resp.FinishReason,
	)

	return &domain.Script{
		Markdown:     text,
		Model:        model,
		FinishReason: resp.FinishReason,
		PromptTokens: resp.PromptTokens,
		OutputTokens: resp.OutputTokens,
	}, nil
}
