package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"scriptgen/internal/domain"
	"scriptgen/internal/retry"
)

const (
	serviceName = "notion"

	// MaxChildrenPerRequest is the API limit for one append children call.
	MaxChildrenPerRequest = 100
)

// Properties names the database columns the client reads and writes.
type Properties struct {
	Title           []string
	Description     string
	Status          string
	StatusType      string
	ScriptGenerated string
	StatusOptions   map[domain.Status]string
}

// Config holds Notion client configuration.
type Config struct {
	BaseURL        string
	Token          string
	Version        string
	DatabaseID     string
	PageSize       int
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Properties     Properties
}

// Client talks to the Notion REST API for one database.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	version    string
	databaseID string
	pageSize   int
	props      Properties
	logger     *slog.Logger

	retry retry.Policy

	// appendRetry only repeats rejected appends. A transport error or 5xx may
	// arrive after the server already added the blocks.
	appendRetry retry.Policy
}

func New(cfg Config, logger *slog.Logger) *Client {
	policy := retry.Policy{
		MaxAttempts:    cfg.MaxAttempts,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
	}
	appendPolicy := policy
	appendPolicy.Retryable = domain.IsRateLimited

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		token:       cfg.Token,
		version:     cfg.Version,
		databaseID:  cfg.DatabaseID,
		pageSize:    cfg.PageSize,
		props:       cfg.Properties,
		logger:      logger.With("client", serviceName),
		retry:       policy,
		appendRetry: appendPolicy,
	}
}

// QueryPages returns every page of the database matching filter, following
// pagination cursors until the result set is exhausted.
func (c *Client) QueryPages(ctx context.Context, filter any) ([]Page, error) {
	var pages []Page
	cursor := ""

	for page := 0; ; page++ {
		var resp QueryResponse
		err := c.call(ctx, c.retry, "query", http.MethodPost, "/databases/"+c.databaseID+"/query", QueryRequest{
			Filter:      filter,
			StartCursor: cursor,
			PageSize:    c.pageSize,
		}, &resp)
		if err != nil {
			return pages, fmt.Errorf("query page %d: %w", page, err)
		}

		pages = append(pages, resp.Results...)

		c.logger.Debug("fetched page",
			"page", page,
			"results", len(resp.Results),
			"total", len(pages),
		)

		if !resp.HasMore || resp.NextCursor == nil || *resp.NextCursor == "" {
			break
		}
		cursor = *resp.NextCursor
	}

	return pages, nil
}

// AppendChildren appends blocks to a page in request sized batches.
func (c *Client) AppendChildren(ctx context.Context, pageID string, blocks []Block) error {
	for start := 0; start < len(blocks); start += MaxChildrenPerRequest {
		end := min(start+MaxChildrenPerRequest, len(blocks))
		batch := start/MaxChildrenPerRequest + 1

		err := c.call(ctx, c.appendRetry, "append children", http.MethodPatch, "/blocks/"+pageID+"/children",
			appendChildrenRequest{Children: blocks[start:end]}, nil)
		if err != nil {
			return fmt.Errorf("append children batch %d: %w", batch, err)
		}

		c.logger.Debug("appended blocks", "page_id", pageID, "batch", batch, "blocks", end-start)
	}
	return nil
}

// UpdateProperties patches page properties.
func (c *Client) UpdateProperties(ctx context.Context, pageID string, properties map[string]any) error {
	return c.call(ctx, c.retry, "update page", http.MethodPatch, "/pages/"+pageID,
		updatePageRequest{Properties: properties}, nil)
}

// UpdateURLProperty sets a url typed property.
func (c *Client) UpdateURLProperty(ctx context.Context, pageID, property, url string) error {
	return c.UpdateProperties(ctx, pageID, map[string]any{
		property: map[string]any{"url": url},
	})
}

func (c *Client) call(ctx context.Context, policy retry.Policy, op, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", op, err)
		}
	}

	return retry.Do(ctx, policy, c.logger, func(ctx context.Context) error {
		return c.doRequest(ctx, op, method, path, body, out)
	})
}

func (c *Client) doRequest(ctx context.Context, op, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", c.version)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.APIError{Service: serviceName, Operation: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := &domain.APIError{
			Service:    serviceName,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(payload)),
		}
		var parsed errorResponse
		if json.Unmarshal(payload, &parsed) == nil && parsed.Message != "" {
			apiErr.Code = parsed.Code
			apiErr.Message = parsed.Message
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &domain.APIError{
			Service:    serviceName,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    "malformed response",
			Err:        err,
		}
	}

	return nil
}
