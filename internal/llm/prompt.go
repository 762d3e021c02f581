package llm

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/adrg/frontmatter"
)

const defaultSystemPrompt = "You are an expert YouTube script writer who creates engaging, well-structured " +
	"video scripts with proper markdown formatting that maximize viewer retention and engagement. " +
	"Always write complete dialogue and full scripts, never just outlines or bullet points."

const defaultChannelPrompt = "The channel is named '{{.Channel}}'. Tailor the script to its audience and niche."

const defaultUserPrompt = `Create a detailed, engaging long-form video script for the following video.

Title: {{.Title}}
{{- if .Description}}
Additional context: {{.Description}}
{{- end}}

Structure the script in markdown with these sections:

# Video Script: {{.Title}}

## Hook (0-15 seconds)
[An attention-grabbing opening that hooks viewers immediately]

## Introduction
[Welcome and an overview of what the video covers]

## Main Content
### Section 1: [Sub-topic]
### Section 2: [Sub-topic]
### Section 3: [Sub-topic]
[Break the main content into as many sub-topics as the subject needs]

## Conclusion and Call-to-Action
[Recap, subscribe and comment reminders, teaser for the next video]

Formatting guidelines:
- Use markdown headers (#, ##, ###) for sections
- Use **bold** for key points and *italic* for asides
- Put visual or B-roll suggestions in [square brackets]
- Use fenced code blocks for any code samples

Content requirements:
- Target 2000-4000 words of spoken content
- Be specific to the topic with concrete examples and actionable advice
- Keep a friendly, conversational tone with retention hooks between sections
- Write full dialogue, not bullet point outlines`

// PromptData is the template input for one record.
type PromptData struct {
	Title       string
	Description string
	Channel     string
}

// PromptTemplate renders chat messages for a record. Front matter in a prompt
// file may override the model settings.
type PromptTemplate struct {
	Model       string   `yaml:"model"`
	MaxTokens   int      `yaml:"max_tokens"`
	Temperature *float64 `yaml:"temperature"`
	System      []string `yaml:"system"`

	system []*template.Template
	user   *template.Template
}

// DefaultPrompt returns the built-in script prompt.
func DefaultPrompt() *PromptTemplate {
	p := &PromptTemplate{System: []string{defaultSystemPrompt, defaultChannelPrompt}}
	if err := p.compile(defaultUserPrompt); err != nil {
		panic(err)
	}
	return p
}

// LoadPromptFile reads a markdown prompt with optional YAML front matter.
func LoadPromptFile(path string) (*PromptTemplate, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt file: %w", err)
	}
	return ParsePrompt(raw)
}

// ParsePrompt parses a prompt document. The body is the user message
// template; system messages default to the built-in ones when absent.
func ParsePrompt(raw []byte) (*PromptTemplate, error) {
	var p PromptTemplate
	body, err := frontmatter.Parse(bytes.NewReader(raw), &p)
	if err != nil {
		return nil, fmt.Errorf("parse frontmatter: %w", err)
	}

	if strings.TrimSpace(string(body)) == "" {
		return nil, fmt.Errorf("prompt body is empty")
	}
	if len(p.System) == 0 {
		p.System = []string{defaultSystemPrompt, defaultChannelPrompt}
	}

	if err := p.compile(string(body)); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *PromptTemplate) compile(user string) error {
	p.system = p.system[:0]
	for i, s := range p.System {
		t, err := template.New(fmt.Sprintf("system-%d", i)).Parse(s)
		if err != nil {
			return fmt.Errorf("parse system prompt %d: %w", i, err)
		}
		p.system = append(p.system, t)
	}

	t, err := template.New("user").Parse(user)
	if err != nil {
		return fmt.Errorf("parse user prompt: %w", err)
	}
	p.user = t
	return nil
}

// Render builds the chat messages. System messages that render empty are
// dropped, so a channel line disappears when no channel is configured.
func (p *PromptTemplate) Render(data PromptData) ([]Message, error) {
	var messages []Message

	for i, t := range p.system {
		if data.Channel == "" && p.System[i] == defaultChannelPrompt {
			continue
		}
		text, err := execute(t, data)
		if err != nil {
			return nil, fmt.Errorf("render system prompt %d: %w", i, err)
		}
		if text != "" {
			messages = append(messages, Message{Role: "system", Content: text})
		}
	}

	text, err := execute(p.user, data)
	if err != nil {
		return nil, fmt.Errorf("render user prompt: %w", err)
	}
	messages = append(messages, Message{Role: "user", Content: text})

	return messages, nil
}

func execute(t *template.Template, data PromptData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
