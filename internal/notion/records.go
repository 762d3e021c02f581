package notion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"scriptgen/internal/domain"
)

// StatusFilter builds the query filter matching one workflow status.
func (c *Client) StatusFilter(status domain.Status) map[string]any {
	return map[string]any{
		"property": c.props.Status,
		c.statusType(): map[string]any{
			"equals": c.optionName(status),
		},
	}
}

// FindRecordsByStatus returns all records whose status equals status.
// Records without a usable title are returned with an empty Title.
func (c *Client) FindRecordsByStatus(ctx context.Context, status domain.Status) ([]domain.Record, error) {
	pages, err := c.QueryPages(ctx, c.StatusFilter(status))
	if err != nil {
		return nil, err
	}

	records := make([]domain.Record, 0, len(pages))
	for _, p := range pages {
		records = append(records, c.toRecord(p))
	}

	return records, nil
}

// UpdateRecord appends blocks as page content and then moves the page to
// newStatus. Content goes first so a failed append leaves the status alone.
func (c *Client) UpdateRecord(ctx context.Context, id string, blocks []domain.Block, newStatus domain.Status, ts time.Time) error {
	if len(blocks) > 0 {
		if err := c.AppendChildren(ctx, id, EncodeBlocks(blocks)); err != nil {
			return fmt.Errorf("append content: %w", err)
		}
	}

	props := map[string]any{
		c.props.Status: map[string]any{
			c.statusType(): map[string]any{"name": c.optionName(newStatus)},
		},
	}
	if c.props.ScriptGenerated != "" && !ts.IsZero() {
		props[c.props.ScriptGenerated] = map[string]any{
			"date": map[string]any{"start": ts.Format(time.RFC3339)},
		}
	}

	if err := c.UpdateProperties(ctx, id, props); err != nil {
		return fmt.Errorf("update properties: %w", err)
	}

	return nil
}

func (c *Client) toRecord(p Page) domain.Record {
	rec := domain.Record{
		ID:    p.ID,
		URL:   p.URL,
		Title: c.title(p),
	}

	if prop, ok := p.Properties[c.props.Description]; ok {
		if text := prop.PlainText(); text != "" {
			rec.Description = &text
		}
	}

	if prop, ok := p.Properties[c.props.Status]; ok {
		rec.Status = c.statusFromOption(prop.PlainText())
	}

	if prop, ok := p.Properties[c.props.ScriptGenerated]; ok && prop.Date != nil {
		if ts, ok := parseDate(prop.Date.Start); ok {
			rec.ScriptGeneratedAt = &ts
		}
	}

	return rec
}

// title reads the first configured title column that has text and falls
// back to the page's title typed property.
func (c *Client) title(p Page) string {
	for _, name := range c.props.Title {
		if prop, ok := p.Properties[name]; ok {
			if text := prop.PlainText(); text != "" {
				return text
			}
		}
	}
	for _, prop := range p.Properties {
		if prop.Type == "title" {
			return prop.PlainText()
		}
	}
	return ""
}

func (c *Client) statusType() string {
	if c.props.StatusType == "status" {
		return "status"
	}
	return "select"
}

func (c *Client) optionName(s domain.Status) string {
	if name, ok := c.props.StatusOptions[s]; ok && name != "" {
		return name
	}
	return string(s)
}

func (c *Client) statusFromOption(name string) domain.Status {
	for status, option := range c.props.StatusOptions {
		if strings.EqualFold(option, name) {
			return status
		}
	}
	s := domain.Status(strings.ToLower(name))
	if s.Valid() {
		return s
	}
	return ""
}

func parseDate(value string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
