package notion

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"scriptgen/internal/domain"
)

const testDatabaseID = "0f1c2d3e-4a5b-6c7d-8e9f-a0b1c2d3e4f5"

type recordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   map[string]any
}

type ClientTestSuite struct {
	suite.Suite
	server   *httptest.Server
	client   *Client
	mu       sync.Mutex
	requests []recordedRequest
	handler  func(w http.ResponseWriter, r *http.Request, n int)
}

func (s *ClientTestSuite) SetupTest() {
	s.requests = nil
	s.handler = func(w http.ResponseWriter, r *http.Request, n int) {
		_, _ = w.Write([]byte(`{}`))
	}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)

		s.mu.Lock()
		s.requests = append(s.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone(), Body: body})
		n := len(s.requests)
		s.mu.Unlock()

		s.handler(w, r, n)
	}))

	s.client = New(Config{
		BaseURL:        s.server.URL + "/v1",
		Token:          "secret_token",
		Version:        "2022-06-28",
		DatabaseID:     testDatabaseID,
		PageSize:       2,
		Timeout:        5 * time.Second,
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
		Properties: Properties{
			Title:           []string{"Title", "Name"},
			Description:     "Description",
			Status:          "Status",
			StatusType:      "select",
			ScriptGenerated: "Script_Generated",
			StatusOptions: map[domain.Status]string{
				domain.StatusScripting: "Scripting",
				domain.StatusReview:    "Review",
			},
		},
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (s *ClientTestSuite) TearDownTest() {
	s.server.Close()
}

func TestClientTestSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

const pageOne = `{
	"results": [
		{
			"id": "page-1",
			"url": "https://www.notion.so/page-1",
			"properties": {
				"Name": {"type": "title", "title": [{"plain_text": "How Rockets "}, {"plain_text": "Work"}]},
				"Description": {"type": "rich_text", "rich_text": [{"plain_text": "for kids"}]},
				"Status": {"type": "select", "select": {"name": "Scripting"}}
			}
		},
		{
			"id": "page-2",
			"properties": {
				"Name": {"type": "title", "title": []},
				"Status": {"type": "select", "select": {"name": "Scripting"}},
				"Script_Generated": {"type": "date", "date": {"start": "2024-03-01T10:00:00.000+00:00"}}
			}
		}
	],
	"has_more": true,
	"next_cursor": "cursor-2"
}`

const pageTwo = `{
	"results": [
		{
			"id": "page-3",
			"properties": {
				"Title": {"type": "rich_text", "rich_text": [{"plain_text": "Black Holes"}]},
				"Name": {"type": "title", "title": [{"plain_text": "ignored"}]},
				"Status": {"type": "select", "select": {"name": "Scripting"}}
			}
		}
	],
	"has_more": false,
	"next_cursor": null
}`

func (s *ClientTestSuite) TestFindRecordsByStatus_Paginates() {
	s.handler = func(w http.ResponseWriter, r *http.Request, n int) {
		if n == 1 {
			_, _ = w.Write([]byte(pageOne))
			return
		}
		_, _ = w.Write([]byte(pageTwo))
	}

	records, err := s.client.FindRecordsByStatus(context.Background(), domain.StatusScripting)
	s.Require().NoError(err)
	s.Require().Len(records, 3)

	s.Equal("page-1", records[0].ID)
	s.Equal("How Rockets Work", records[0].Title)
	s.Require().NotNil(records[0].Description)
	s.Equal("for kids", *records[0].Description)
	s.Equal(domain.StatusScripting, records[0].Status)

	s.Equal("", records[1].Title)
	s.Nil(records[1].Description)
	s.Require().NotNil(records[1].ScriptGeneratedAt)
	s.Equal(2024, records[1].ScriptGeneratedAt.Year())

	s.Equal("Black Holes", records[2].Title)

	s.Require().Len(s.requests, 2)
	first := s.requests[0]
	s.Equal(http.MethodPost, first.Method)
	s.Equal("/v1/databases/"+testDatabaseID+"/query", first.Path)
	s.Equal("Bearer secret_token", first.Header.Get("Authorization"))
	s.Equal("2022-06-28", first.Header.Get("Notion-Version"))
	s.Equal(map[string]any{
		"property": "Status",
		"select":   map[string]any{"equals": "Scripting"},
	}, first.Body["filter"])
	s.EqualValues(2, first.Body["page_size"])
	s.NotContains(first.Body, "start_cursor")

	s.Equal("cursor-2", s.requests[1].Body["start_cursor"])
}

func (s *ClientTestSuite) TestFindRecordsByStatus_StatusPropertyType() {
	s.client.props.StatusType = "status"
	s.handler = func(w http.ResponseWriter, r *http.Request, n int) {
		_, _ = w.Write([]byte(`{"results": [], "has_more": false}`))
	}

	records, err := s.client.FindRecordsByStatus(context.Background(), domain.StatusReview)
	s.Require().NoError(err)
	s.Empty(records)
	s.Equal(map[string]any{
		"property": "Status",
		"status":   map[string]any{"equals": "Review"},
	}, s.requests[0].Body["filter"])
}

func (s *ClientTestSuite) TestFindRecordsByStatus_Error() {
	s.handler = func(w http.ResponseWriter, r *http.Request, n int) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"object": "error", "status": 401, "code": "unauthorized", "message": "API token is invalid."}`))
	}

	_, err := s.client.FindRecordsByStatus(context.Background(), domain.StatusScripting)
	s.Require().Error(err)
	s.ErrorIs(err, domain.ErrExternalAPI)

	var apiErr *domain.APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal("unauthorized", apiErr.Code)
	s.Equal("API token is invalid.", apiErr.Message)
	s.Len(s.requests, 1)
}

func (s *ClientTestSuite) TestQuery_RetriesServerErrors() {
	s.handler = func(w http.ResponseWriter, r *http.Request, n int) {
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"results": [{"id": "p", "properties": {}}], "has_more": false}`))
	}

	pages, err := s.client.QueryPages(context.Background(), nil)
	s.Require().NoError(err)
	s.Len(pages, 1)
	s.Len(s.requests, 3)
}

func (s *ClientTestSuite) TestUpdateRecord_ContentThenStatus() {
	blocks := make([]domain.Block, 0, 250)
	for i := 0; i < 250; i++ {
		blocks = append(blocks, domain.Paragraph(domain.Plain("line")))
	}
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	err := s.client.UpdateRecord(context.Background(), "page-1", blocks, domain.StatusReview, ts)
	s.Require().NoError(err)

	s.Require().Len(s.requests, 4)
	sizes := []int{100, 100, 50}
	for i, size := range sizes {
		req := s.requests[i]
		s.Equal(http.MethodPatch, req.Method)
		s.Equal("/v1/blocks/page-1/children", req.Path)
		s.Len(req.Body["children"], size)
	}

	last := s.requests[3]
	s.Equal(http.MethodPatch, last.Method)
	s.Equal("/v1/pages/page-1", last.Path)
	s.Equal(map[string]any{
		"Status":           map[string]any{"select": map[string]any{"name": "Review"}},
		"Script_Generated": map[string]any{"date": map[string]any{"start": "2024-05-01T12:00:00Z"}},
	}, last.Body["properties"])
}

func (s *ClientTestSuite) TestUpdateRecord_AppendFailureKeepsStatus() {
	s.handler = func(w http.ResponseWriter, r *http.Request, n int) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"object": "error", "status": 400, "code": "validation_error", "message": "body failed validation"}`))
	}

	err := s.client.UpdateRecord(context.Background(), "page-1",
		[]domain.Block{domain.Paragraph(domain.Plain("x"))}, domain.StatusReview, time.Now())

	s.Require().Error(err)
	s.ErrorIs(err, domain.ErrExternalAPI)
	s.Contains(err.Error(), "append content")
	s.Require().Len(s.requests, 1)
	s.True(strings.HasSuffix(s.requests[0].Path, "/children"))
}

func (s *ClientTestSuite) TestUpdateRecord_AppendNotRepeatedAfterServerError() {
	s.handler = func(w http.ResponseWriter, r *http.Request, n int) {
		w.WriteHeader(http.StatusBadGateway)
	}

	err := s.client.UpdateRecord(context.Background(), "page-1",
		[]domain.Block{domain.Paragraph(domain.Plain("x"))}, domain.StatusReview, time.Now())

	s.Require().Error(err)
	s.Contains(err.Error(), "append content")
	s.Len(s.requests, 1)
}

func (s *ClientTestSuite) TestUpdateRecord_AppendNotRepeatedAfterTransportError() {
	s.handler = func(w http.ResponseWriter, r *http.Request, n int) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if conn, _, err := hj.Hijack(); err == nil {
			_ = conn.Close()
		}
	}

	err := s.client.UpdateRecord(context.Background(), "page-1",
		[]domain.Block{domain.Paragraph(domain.Plain("x"))}, domain.StatusReview, time.Now())

	s.Require().Error(err)
	s.ErrorIs(err, domain.ErrExternalAPI)
	s.Len(s.requests, 1)
}

func (s *ClientTestSuite) TestUpdateRecord_AppendRetriesRateLimit() {
	s.handler = func(w http.ResponseWriter, r *http.Request, n int) {
		if n == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}

	err := s.client.UpdateRecord(context.Background(), "page-1",
		[]domain.Block{domain.Paragraph(domain.Plain("x"))}, domain.StatusReview, time.Now())

	s.Require().NoError(err)
	s.Require().Len(s.requests, 3)
	s.True(strings.HasSuffix(s.requests[0].Path, "/children"))
	s.True(strings.HasSuffix(s.requests[1].Path, "/children"))
	s.Equal("/v1/pages/page-1", s.requests[2].Path)
}

func (s *ClientTestSuite) TestUpdateURLProperty() {
	err := s.client.UpdateURLProperty(context.Background(), "page-9", "Thumbnail URL", "https://img.youtube.com/vi/abc/maxresdefault.jpg")
	s.Require().NoError(err)

	s.Require().Len(s.requests, 1)
	s.Equal("/v1/pages/page-9", s.requests[0].Path)
	s.Equal(map[string]any{
		"Thumbnail URL": map[string]any{"url": "https://img.youtube.com/vi/abc/maxresdefault.jpg"},
	}, s.requests[0].Body["properties"])
}

func TestEncodeBlock(t *testing.T) {
	cases := []struct {
		name  string
		block domain.Block
		want  string
	}{
		{
			name:  "heading",
			block: domain.Heading(2, domain.Plain("Hook")),
			want:  `{"heading_2":{"rich_text":[{"type":"text","text":{"content":"Hook"}}]},"object":"block","type":"heading_2"}`,
		},
		{
			name: "paragraph with annotations",
			block: domain.Paragraph(
				domain.Span{Text: "big", Bold: true},
				domain.Span{Text: " idea", Italic: true},
			),
			want: `{"object":"block","paragraph":{"rich_text":[{"type":"text","text":{"content":"big"},"annotations":{"bold":true}},{"type":"text","text":{"content":" idea"},"annotations":{"italic":true}}]},"type":"paragraph"}`,
		},
		{
			name:  "divider",
			block: domain.Divider(),
			want:  `{"divider":{},"object":"block","type":"divider"}`,
		},
		{
			name:  "code",
			block: domain.Code("go", "x := 1"),
			want:  `{"code":{"language":"go","rich_text":[{"type":"text","text":{"content":"x := 1"}}]},"object":"block","type":"code"}`,
		},
		{
			name:  "numbered",
			block: domain.Block{Type: domain.BlockNumberedItem, Spans: []domain.Span{{Text: "one"}}},
			want:  `{"numbered_list_item":{"rich_text":[{"type":"text","text":{"content":"one"}}]},"object":"block","type":"numbered_list_item"}`,
		},
		{
			name:  "quote",
			block: domain.Block{Type: domain.BlockQuote, Spans: []domain.Span{{Text: "q"}}},
			want:  `{"object":"block","quote":{"rich_text":[{"type":"text","text":{"content":"q"}}]},"type":"quote"}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := json.Marshal(EncodeBlock(tc.block))
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, string(raw))
		})
	}
}
