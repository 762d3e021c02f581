package notion

import (
	"encoding/json"
	"strings"
)

// QueryRequest is the body of a database query.
type QueryRequest struct {
	Filter      any    `json:"filter,omitempty"`
	StartCursor string `json:"start_cursor,omitempty"`
	PageSize    int    `json:"page_size,omitempty"`
}

type QueryResponse struct {
	Results    []Page  `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

type Page struct {
	ID         string              `json:"id"`
	URL        string              `json:"url"`
	Properties map[string]Property `json:"properties"`
}

// Property is a page property value. Only the fields for Type are set.
type Property struct {
	ID       string        `json:"id,omitempty"`
	Type     string        `json:"type"`
	Title    []RichText    `json:"title,omitempty"`
	RichText []RichText    `json:"rich_text,omitempty"`
	Select   *SelectOption `json:"select,omitempty"`
	Status   *SelectOption `json:"status,omitempty"`
	Date     *DateValue    `json:"date,omitempty"`
	URL      *string       `json:"url,omitempty"`
}

// PlainText returns the text of title, rich_text, url, select and status values.
func (p Property) PlainText() string {
	switch p.Type {
	case "title":
		return joinPlain(p.Title)
	case "rich_text":
		return joinPlain(p.RichText)
	case "url":
		if p.URL != nil {
			return *p.URL
		}
	case "select":
		if p.Select != nil {
			return p.Select.Name
		}
	case "status":
		if p.Status != nil {
			return p.Status.Name
		}
	}
	return ""
}

func joinPlain(items []RichText) string {
	var sb strings.Builder
	for _, rt := range items {
		if rt.PlainText != "" {
			sb.WriteString(rt.PlainText)
		} else if rt.Text != nil {
			sb.WriteString(rt.Text.Content)
		}
	}
	return strings.TrimSpace(sb.String())
}

type RichText struct {
	Type        string       `json:"type"`
	Text        *TextContent `json:"text,omitempty"`
	Annotations *Annotations `json:"annotations,omitempty"`
	PlainText   string       `json:"plain_text,omitempty"`
}

type TextContent struct {
	Content string `json:"content"`
}

type Annotations struct {
	Bold   bool `json:"bold,omitempty"`
	Italic bool `json:"italic,omitempty"`
	Code   bool `json:"code,omitempty"`
}

type SelectOption struct {
	Name string `json:"name"`
}

type DateValue struct {
	Start string `json:"start"`
}

// Block is a child block in the append children request.
type Block struct {
	Type     string
	RichText []RichText
	Language string
}

func (b Block) MarshalJSON() ([]byte, error) {
	body := map[string]any{}
	if b.Type != "divider" {
		rt := b.RichText
		if rt == nil {
			rt = []RichText{}
		}
		body["rich_text"] = rt
	}
	if b.Type == "code" {
		body["language"] = b.Language
	}
	return json.Marshal(map[string]any{
		"object": "block",
		"type":   b.Type,
		b.Type:   body,
	})
}

type appendChildrenRequest struct {
	Children []Block `json:"children"`
}

type updatePageRequest struct {
	Properties map[string]any `json:"properties"`
}

type errorResponse struct {
	Object  string `json:"object"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
