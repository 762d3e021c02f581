package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"scriptgen/internal/domain"
	"scriptgen/internal/retry"
)

const serviceName = "openai"

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

type CompletionResponse struct {
	Text         string
	FinishReason string
	Model        string
	PromptTokens int
	OutputTokens int
	TotalTokens  int
}

// Config holds chat completion client settings.
type Config struct {
	Endpoint       string
	APIKey         string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// OpenAIClient calls an OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	retry      retry.Policy
	logger     *slog.Logger
}

func NewOpenAIClient(cfg Config, logger *slog.Logger) *OpenAIClient {
	return &OpenAIClient{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		retry: retry.Policy{
			MaxAttempts:    cfg.MaxAttempts,
			InitialBackoff: cfg.InitialBackoff,
			MaxBackoff:     cfg.MaxBackoff,
		},
		logger: logger.With("client", serviceName),
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// Complete sends the request and returns the first choice.
func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	body, err := json.Marshal(chatRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal completion request: %w", err)
	}

	var resp *CompletionResponse
	err = retry.Do(ctx, c.retry, c.logger, func(ctx context.Context) error {
		var doErr error
		resp, doErr = c.doRequest(ctx, body)
		return doErr
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *OpenAIClient) doRequest(ctx context.Context, body []byte) (*CompletionResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.APIError{Service: serviceName, Operation: "complete", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := &domain.APIError{
			Service:    serviceName,
			Operation:  "complete",
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(payload)),
		}
		var parsed errorResponse
		if json.Unmarshal(payload, &parsed) == nil && parsed.Error.Message != "" {
			apiErr.Code = parsed.Error.Type
			apiErr.Message = parsed.Error.Message
		}
		return nil, apiErr
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &domain.APIError{
			Service:    serviceName,
			Operation:  "complete",
			StatusCode: resp.StatusCode,
			Message:    "malformed response",
			Err:        err,
		}
	}

	if len(decoded.Choices) == 0 {
		return nil, &domain.APIError{
			Service:    serviceName,
			Operation:  "complete",
			StatusCode: resp.StatusCode,
			Message:    "no choices returned",
		}
	}

	choice := decoded.Choices[0]
	return &CompletionResponse{
		Text:         choice.Message.Content,
		FinishReason: choice.FinishReason,
		Model:        decoded.Model,
		PromptTokens: decoded.Usage.PromptTokens,
		OutputTokens: decoded.Usage.CompletionTokens,
		TotalTokens:  decoded.Usage.TotalTokens,
	}, nil
}
