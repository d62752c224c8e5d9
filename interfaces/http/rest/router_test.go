package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Apanazar/WGE/application/commands"
	commandbus "github.com/Apanazar/WGE/application/commands/bus"
	"github.com/Apanazar/WGE/application/ports"
	"github.com/Apanazar/WGE/application/ports/mocks"
	"github.com/Apanazar/WGE/application/queries"
	querybus "github.com/Apanazar/WGE/application/queries/bus"
	"github.com/Apanazar/WGE/domain/core/valueobjects"
	"github.com/Apanazar/WGE/infrastructure/prompt"
	pkgerrors "github.com/Apanazar/WGE/pkg/errors"
	"github.com/Apanazar/WGE/pkg/observability"
)

type mockMediator struct {
	mock.Mock
}

func (m *mockMediator) Send(ctx context.Context, cmd commandbus.Command) (interface{}, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0), args.Error(1)
}

func (m *mockMediator) Query(ctx context.Context, q querybus.Query) (interface{}, error) {
	args := m.Called(ctx, q)
	return args.Get(0), args.Error(1)
}

type stubPanel struct {
	p  ports.Presentation
	ok bool
}

func (s stubPanel) LastPresentation() (ports.Presentation, bool) { return s.p, s.ok }

func newTestRouter(m *mockMediator, fetcher ports.ContentFetcher, panel stubPanel) http.Handler {
	return NewRouter(m, fetcher, panel, nil, nil, Options{LinkLimit: 2}, nil).Setup()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	h := newTestRouter(&mockMediator{}, nil, stubPanel{})

	rec := do(t, h, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestContent_Parse(t *testing.T) {
	// Arrange
	fetcher := &mocks.MockContentFetcher{}
	fetcher.On("Fetch", mock.Anything, "https://en.wikipedia.org/wiki/Moon", 2).Return(&ports.FetchResult{
		Title:   "Moon",
		Content: "<h1>Moon</h1>",
		Links: []ports.Link{
			{URL: "https://en.wikipedia.org/wiki/Earth", Title: "Earth"},
			{URL: "https://en.wikipedia.org/wiki/Tide", Title: "Tides"},
		},
	}, nil)
	h := newTestRouter(&mockMediator{}, fetcher, stubPanel{})

	// Act
	rec := do(t, h, http.MethodGet, "/api/parse?url=https://en.wikipedia.org/wiki/Moon", "")

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"title": "Moon",
		"content": "<h1>Moon</h1>",
		"links": ["https://en.wikipedia.org/wiki/Earth", "https://en.wikipedia.org/wiki/Tide"]
	}`, rec.Body.String())
	fetcher.AssertExpectations(t)
}

func TestContent_ParseFailuresAreInTheBody(t *testing.T) {
	fetcher := &mocks.MockContentFetcher{}
	fetcher.On("Fetch", mock.Anything, "https://down.example", 2).
		Return(nil, pkgerrors.NewFetchFailedError("https://down.example", errors.New("HTTP 503")))
	h := newTestRouter(&mockMediator{}, fetcher, stubPanel{})

	t.Run("missing url", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/api/parse", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"title":"","content":"","links":[],"error":"Missing URL parameter"}`, rec.Body.String())
	})

	t.Run("fetch failure", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/api/parse?url=https://down.example", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Contains(t, body["error"], "HTTP 503")
	})
}

func TestContent_Random(t *testing.T) {
	fetcher := &mocks.MockContentFetcher{}
	fetcher.On("RandomURL", mock.Anything, "en").Return("https://en.wikipedia.org/wiki/Tide", nil)
	h := newTestRouter(&mockMediator{}, fetcher, stubPanel{})

	rec := do(t, h, http.MethodGet, "/api/random", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"url":"https://en.wikipedia.org/wiki/Tide"}`, rec.Body.String())
}

func TestRouter_CommandsReachMediator(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		want       commandbus.Command
		result     interface{}
		wantStatus int
	}{
		{
			name: "new root", method: http.MethodPost, path: "/api/v2/graph/root",
			body:       `{"url":"https://en.wikipedia.org/wiki/Moon","limit":5}`,
			want:       &commands.NewRootCommand{URL: "https://en.wikipedia.org/wiki/Moon", Limit: 5},
			result:     commands.RootResult{RootID: 0},
			wantStatus: http.StatusCreated,
		},
		{
			name: "random root without body", method: http.MethodPost, path: "/api/v2/graph/random",
			want:       &commands.RandomRootCommand{},
			result:     commands.RootResult{RootID: 0},
			wantStatus: http.StatusCreated,
		},
		{
			name: "notice", method: http.MethodPost, path: "/api/v2/nodes/notice",
			body:       `{"title":"Todo","position":{"x":1,"y":2}}`,
			want:       &commands.AddNoticeCommand{Title: "Todo", Position: &valueobjects.Position{X: 1, Y: 2}},
			result:     commands.AddNoticeResult{NodeID: 4},
			wantStatus: http.StatusCreated,
		},
		{
			name: "delete", method: http.MethodDelete, path: "/api/v2/nodes/3",
			want:       &commands.DeleteNodeCommand{NodeID: 3},
			wantStatus: http.StatusNoContent,
		},
		{
			name: "activate with limit", method: http.MethodPost, path: "/api/v2/nodes/3/activate?limit=7",
			want:       &commands.ActivateNodeCommand{NodeID: 3, Limit: 7},
			result:     &ports.Presentation{Token: 1},
			wantStatus: http.StatusOK,
		},
		{
			name: "detach", method: http.MethodPost, path: "/api/v2/nodes/3/detach",
			want:       &commands.DetachNodeCommand{NodeID: 3},
			result:     commands.DetachResult{NodeID: 3, Detached: true, Changed: true},
			wantStatus: http.StatusOK,
		},
		{
			name: "toggle detach", method: http.MethodPost, path: "/api/v2/nodes/3/detach?toggle=true",
			want:       &commands.ToggleDetachCommand{NodeID: 3},
			result:     commands.DetachResult{NodeID: 3},
			wantStatus: http.StatusOK,
		},
		{
			name: "reattach", method: http.MethodPost, path: "/api/v2/nodes/3/reattach",
			want:       &commands.ReattachNodeCommand{NodeID: 3},
			result:     commands.DetachResult{NodeID: 3, Changed: true},
			wantStatus: http.StatusOK,
		},
		{
			name: "title", method: http.MethodPut, path: "/api/v2/nodes/3/title",
			body:       `{"title":"Luna"}`,
			want:       &commands.EditTitleCommand{NodeID: 3, Title: "Luna"},
			result:     map[string]bool{"changed": true},
			wantStatus: http.StatusOK,
		},
		{
			name: "move", method: http.MethodPut, path: "/api/v2/nodes/3/position",
			body:       `{"x":10.5,"y":-3}`,
			want:       &commands.MoveNodeCommand{NodeID: 3, Position: valueobjects.Position{X: 10.5, Y: -3}},
			wantStatus: http.StatusNoContent,
		},
		{
			name: "notice edit", method: http.MethodPut, path: "/api/v2/nodes/3/notice",
			body:       `{"title":"Plan","body":"<p>x</p>"}`,
			want:       &commands.UpdateNoticeCommand{NodeID: 3, Title: "Plan", Body: "<p>x</p>"},
			result:     map[string]bool{"applied": true},
			wantStatus: http.StatusOK,
		},
		{
			name: "select", method: http.MethodPost, path: "/api/v2/nodes/3/select",
			want:       &commands.ClickNodeCommand{NodeID: 3},
			result:     map[string]string{"outcome": "armed"},
			wantStatus: http.StatusOK,
		},
		{
			name: "connect", method: http.MethodPost, path: "/api/v2/edges",
			body:       `{"from":1,"to":2}`,
			want:       &commands.ConnectNodesCommand{From: 1, To: 2},
			result:     map[string]string{"outcome": "connected"},
			wantStatus: http.StatusOK,
		},
		{
			name: "save snapshot", method: http.MethodPut, path: "/api/v2/snapshots/moon",
			want:       &commands.SaveSnapshotCommand{Name: "moon"},
			result:     ports.SnapshotSummary{Name: "moon"},
			wantStatus: http.StatusOK,
		},
		{
			name: "load snapshot", method: http.MethodPost, path: "/api/v2/snapshots/moon/load",
			want:       &commands.LoadSnapshotCommand{Name: "moon"},
			result:     ports.SnapshotInfo{NodeCount: 3},
			wantStatus: http.StatusOK,
		},
		{
			name: "import", method: http.MethodPost, path: "/api/v2/import",
			body:       `{"nodes":[],"edges":[]}`,
			want:       &commands.ImportGraphCommand{Payload: []byte(`{"nodes":[],"edges":[]}`)},
			result:     ports.SnapshotInfo{},
			wantStatus: http.StatusOK,
		},
		{
			name: "clear selection", method: http.MethodDelete, path: "/api/v2/selection",
			want:       &commands.ClearSelectionCommand{},
			wantStatus: http.StatusNoContent,
		},
		{
			name: "close panel", method: http.MethodDelete, path: "/api/v2/panel",
			want:       &commands.CloseSurfaceCommand{},
			wantStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			m := &mockMediator{}
			m.On("Send", mock.Anything, tt.want).Return(tt.result, nil)
			h := newTestRouter(m, nil, stubPanel{})

			// Act
			rec := do(t, h, tt.method, tt.path, tt.body)

			// Assert
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			m.AssertExpectations(t)
		})
	}
}

func TestRouter_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{name: "not found", err: pkgerrors.NewNotFoundError("node 9"), wantStatus: http.StatusNotFound, wantType: "NOT_FOUND"},
		{name: "validation", err: pkgerrors.NewValidationError("title is required"), wantStatus: http.StatusBadRequest, wantType: "VALIDATION"},
		{name: "unexpected", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantType: "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockMediator{}
			m.On("Send", mock.Anything, &commands.DeleteNodeCommand{NodeID: 9}).Return(nil, tt.err)
			h := newTestRouter(m, nil, stubPanel{})

			rec := do(t, h, http.MethodDelete, "/api/v2/nodes/9", "")

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body pkgerrors.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.True(t, body.Error)
			assert.Equal(t, tt.wantType, body.Type)
		})
	}
}

func TestRouter_RejectsBadInput(t *testing.T) {
	m := &mockMediator{}
	h := newTestRouter(m, nil, stubPanel{})

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{name: "non-numeric id", method: http.MethodGet, path: "/api/v2/nodes/abc"},
		{name: "negative id", method: http.MethodDelete, path: "/api/v2/nodes/-1"},
		{name: "malformed body", method: http.MethodPost, path: "/api/v2/graph/root", body: `{"url":`},
		{name: "unknown field", method: http.MethodPut, path: "/api/v2/nodes/1/title", body: `{"name":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	m.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	m.AssertNotCalled(t, "Query", mock.Anything, mock.Anything)
}

func TestRouter_AddURLNode(t *testing.T) {
	t.Run("created node answers 201", func(t *testing.T) {
		m := &mockMediator{}
		m.On("Send", mock.Anything, &commands.AddURLNodeCommand{URL: "https://go.dev"}).
			Return(commands.AddURLNodeResult{NodeID: 1, Created: true}, nil)
		h := newTestRouter(m, nil, stubPanel{})

		rec := do(t, h, http.MethodPost, "/api/v2/nodes/url", `{"url":"https://go.dev"}`)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"nodeId":1`)
	})

	t.Run("existing node answers 200", func(t *testing.T) {
		m := &mockMediator{}
		m.On("Send", mock.Anything, mock.Anything).Return(commands.AddURLNodeResult{NodeID: 1}, nil)
		h := newTestRouter(m, nil, stubPanel{})

		rec := do(t, h, http.MethodPost, "/api/v2/nodes/url", `{"url":"https://go.dev"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("dismissed prompt travels in the context", func(t *testing.T) {
		prompter := prompt.NewContextPrompter(nil)
		dismissed := mock.MatchedBy(func(ctx context.Context) bool {
			_, ok, err := prompter.Prompt(ctx, ports.PromptRequest{})
			return err == nil && !ok
		})
		m := &mockMediator{}
		m.On("Send", dismissed, mock.Anything).Return(nil, pkgerrors.NewCancelledError("add web page"))
		h := newTestRouter(m, nil, stubPanel{})

		rec := do(t, h, http.MethodPost, "/api/v2/nodes/url", `{"url":"https://go.dev","dismissPrompt":true}`)

		m.AssertExpectations(t)
		assert.Contains(t, rec.Body.String(), "CANCELLED")
	})
}

func TestRouter_Upload(t *testing.T) {
	// Arrange
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("files", "notes.txt")
	require.NoError(t, err)
	part.Write([]byte("hello"))
	require.NoError(t, mw.WriteField("x", "100"))
	require.NoError(t, mw.WriteField("y", "-50"))
	require.NoError(t, mw.Close())

	var got *commands.UploadFilesCommand
	m := &mockMediator{}
	m.On("Send", mock.Anything, mock.AnythingOfType("*commands.UploadFilesCommand")).
		Run(func(args mock.Arguments) { got = args.Get(1).(*commands.UploadFilesCommand) }).
		Return([]interface{}{}, nil)
	h := newTestRouter(m, nil, stubPanel{})

	req := httptest.NewRequest(http.MethodPost, "/api/v2/nodes/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	// Act
	h.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, got)
	require.Len(t, got.Files, 1)
	assert.Equal(t, "notes.txt", got.Files[0].Name)
	assert.Equal(t, "hello", string(got.Files[0].Data))
	assert.Equal(t, valueobjects.Position{X: 100, Y: -50}, got.Center)
}

func TestRouter_Export(t *testing.T) {
	m := &mockMediator{}
	m.On("Query", mock.Anything, &queries.ExportGraphQuery{}).Return(queries.ExportGraphResult{
		FileName: "wiki-graph-2024-03-01.json",
		Payload:  []byte(`{"nodes":[],"edges":[]}`),
	}, nil)
	h := newTestRouter(m, nil, stubPanel{})

	rec := do(t, h, http.MethodGet, "/api/v2/export", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="wiki-graph-2024-03-01.json"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, `{"nodes":[],"edges":[]}`, rec.Body.String())
}

func TestRouter_Queries(t *testing.T) {
	m := &mockMediator{}
	m.On("Query", mock.Anything, &queries.GetNodeQuery{NodeID: 2}).Return(map[string]int{"id": 2}, nil)
	m.On("Query", mock.Anything, &queries.ListSnapshotsQuery{}).Return([]ports.SnapshotSummary{{Name: "moon"}}, nil)
	m.On("Query", mock.Anything, &queries.ResolveURLQuery{URL: "https://en.wikipedia.org/wiki/Moon"}).
		Return(queries.ResolveURLResult{URL: "https://en.wikipedia.org/wiki/Moon"}, nil)
	h := newTestRouter(m, nil, stubPanel{})

	node := do(t, h, http.MethodGet, "/api/v2/nodes/2", "")
	list := do(t, h, http.MethodGet, "/api/v2/snapshots", "")
	resolved := do(t, h, http.MethodGet, "/api/v2/resolve?url=https%3A%2F%2Fen.wikipedia.org%2Fwiki%2FMoon", "")

	assert.Equal(t, http.StatusOK, node.Code)
	assert.JSONEq(t, `{"success":true,"data":{"id":2}}`, node.Body.String())
	assert.Equal(t, http.StatusOK, list.Code)
	assert.Contains(t, list.Body.String(), `"name":"moon"`)
	assert.Contains(t, resolved.Body.String(), `"found":false`)
	m.AssertExpectations(t)
}

func TestRouter_Panel(t *testing.T) {
	open := stubPanel{p: ports.Presentation{Token: 5, Kind: ports.PresentArticle, Title: "Moon"}, ok: true}

	closedRec := do(t, newTestRouter(&mockMediator{}, nil, stubPanel{}), http.MethodGet, "/api/v2/panel", "")
	openRec := do(t, newTestRouter(&mockMediator{}, nil, open), http.MethodGet, "/api/v2/panel", "")

	assert.JSONEq(t, `{"success":true,"data":{"open":false}}`, closedRec.Body.String())
	assert.Contains(t, openRec.Body.String(), `"open":true`)
	assert.Contains(t, openRec.Body.String(), `"title":"Moon"`)
}

func TestRouter_MetricsUseRoutePatterns(t *testing.T) {
	// Arrange
	observability.ResetForTesting()
	collector := observability.NewCollector("wge_test")
	t.Cleanup(observability.ResetForTesting)

	m := &mockMediator{}
	m.On("Query", mock.Anything, mock.Anything).Return(map[string]int{}, nil)
	h := NewRouter(m, nil, stubPanel{}, nil, collector, Options{}, nil).Setup()

	// Act
	do(t, h, http.MethodGet, "/api/v2/nodes/1", "")
	do(t, h, http.MethodGet, "/api/v2/nodes/2", "")
	rec := do(t, h, http.MethodGet, "/metrics", "")

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(),
		`wge_test_http_requests_total{method="GET",route="/api/v2/nodes/{nodeID}",status="200"} 2`)
}

func TestContentRouter_OnlyServesContent(t *testing.T) {
	fetcher := &mocks.MockContentFetcher{}
	fetcher.On("RandomURL", mock.Anything, "de").Return("https://de.wikipedia.org/wiki/Mond", nil)
	h := NewContentRouter(fetcher, Options{}, nil)

	random := do(t, h, http.MethodGet, "/api/random?lang=de", "")
	graph := do(t, h, http.MethodGet, "/api/v2/graph", "")

	assert.JSONEq(t, `{"url":"https://de.wikipedia.org/wiki/Mond"}`, random.Body.String())
	assert.Equal(t, http.StatusNotFound, graph.Code)
}
