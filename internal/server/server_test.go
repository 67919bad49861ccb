// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/arxiv-engine/internal/search"
	"github.com/pdiddy/arxiv-engine/pkg/types"
)

type fakeSearcher struct {
	mu       sync.Mutex
	searches []types.Search
	papers   []types.Paper
	err      error
	panics   bool
}

func (f *fakeSearcher) Collect(_ context.Context, s types.Search) ([]types.Paper, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panics {
		panic("boom")
	}
	f.searches = append(f.searches, s)
	return f.papers, f.err
}

func (f *fakeSearcher) last(t *testing.T) types.Search {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.searches)
	return f.searches[len(f.searches)-1]
}

var fixedNow = time.Date(2024, 5, 2, 15, 0, 0, 0, time.UTC)

func testConfig() types.ServerConfig {
	return types.ServerConfig{Addr: ":0", MaxResults: 50, RequestTimeout: time.Minute}
}

func newTestServer(f *fakeSearcher, cfg types.ServerConfig) *Server {
	return New(f, cfg, zap.NewNop(), WithNow(func() time.Time { return fixedNow }))
}

func post(t *testing.T, s *Server, path, body string, headers ...string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var resp Response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestByAuthor_Succeeds(t *testing.T) {
	t.Parallel()

	f := &fakeSearcher{papers: []types.Paper{{ID: "2301.07041v1", Title: "A Paper"}}}
	s := newTestServer(f, testConfig())

	rec, resp := post(t, s, "/papers/by-author", `{"author_id":"Bengio"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Papers, 1)
	assert.Equal(t, "A Paper", resp.Papers[0].Title)
	assert.Contains(t, rec.Body.String(), `"title"`)

	got := f.last(t)
	assert.Equal(t, "au:Bengio", got.Query)
	assert.Equal(t, search.FacadeMaxResults, got.MaxResults)
	assert.Equal(t, types.SortBySubmittedDate, got.SortBy)
	assert.Equal(t, types.SortDescending, got.SortOrder)
}

func TestByAuthor_MaxResults(t *testing.T) {
	t.Parallel()

	f := &fakeSearcher{}
	cfg := testConfig()
	cfg.MaxResults = 20
	s := newTestServer(f, cfg)

	rec, _ := post(t, s, "/papers/by-author", `{"author_id":"Hinton","max_results":5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, f.last(t).MaxResults)

	rec, _ = post(t, s, "/papers/by-author", `{"author_id":"Hinton","max_results":500}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20, f.last(t).MaxResults, "clamped to server ceiling")

	rec, resp := post(t, s, "/papers/by-author", `{"author_id":"Hinton","max_results":0}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp.Error, "max_results")
}

func TestByAuthor_BadInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"invalid json", `{invalid`, "invalid JSON"},
		{"empty body", ``, "invalid JSON"},
		{"missing author", `{}`, "author_id is required"},
		{"blank author", `{"author_id":"   "}`, "author_id is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeSearcher{}
			rec, resp := post(t, newTestServer(f, testConfig()), "/papers/by-author", tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.want, resp.Error)
			assert.NotNil(t, resp.Papers)
			assert.Empty(t, f.searches)
		})
	}
}

func TestDaily_Succeeds(t *testing.T) {
	t.Parallel()

	f := &fakeSearcher{papers: []types.Paper{{ID: "a"}, {ID: "b"}}}
	s := newTestServer(f, testConfig())

	rec, resp := post(t, s, "/papers/daily", `{"categories":["cs.AI","cs.LG"]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t,
		"(cat:cs.AI OR cat:cs.LG) AND lastUpdatedDate:[202405010000 TO 202405020000]",
		f.last(t).Query)
}

func TestDaily_RequiresCategories(t *testing.T) {
	t.Parallel()

	f := &fakeSearcher{}
	rec, resp := post(t, newTestServer(f, testConfig()), "/papers/daily", `{"categories":[]}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "at least one category is required", resp.Error)
	assert.Empty(t, f.searches)
}

func TestDaily_WeeklyWindow(t *testing.T) {
	t.Parallel()

	f := &fakeSearcher{papers: []types.Paper{{ID: "a"}}}
	rec, _ := post(t, newTestServer(f, testConfig()), "/papers/daily", `{"categories":["cs.AI"],"window":"weekly"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cat:cs.AI AND lastUpdatedDate:[202404250000 TO 202405020000]", f.last(t).Query)
}

func TestDaily_UnknownWindow(t *testing.T) {
	t.Parallel()

	f := &fakeSearcher{}
	rec, resp := post(t, newTestServer(f, testConfig()), "/papers/daily", `{"categories":["cs.AI"],"window":"yearly"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp.Error, "unknown window")
	assert.Empty(t, f.searches)
}

func TestPapers_UpstreamFailure(t *testing.T) {
	t.Parallel()

	upstream := &search.StreamError{Offset: 0, Attempts: 4, Err: errors.New("service unavailable")}
	f := &fakeSearcher{err: upstream, papers: []types.Paper{{ID: "partial"}}}

	rec, resp := post(t, newTestServer(f, testConfig()), "/papers/by-author", `{"author_id":"Bengio"}`)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "service unavailable")
	assert.Empty(t, resp.Papers)
}

func TestPapers_EmptyResultIsSuccess(t *testing.T) {
	t.Parallel()

	rec, resp := post(t, newTestServer(&fakeSearcher{}, testConfig()), "/papers/by-author", `{"author_id":"Nobody"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, 0, resp.Total)
	assert.Contains(t, rec.Body.String(), `"papers":[]`)
}

func TestAPIKey(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.APIKey = "s3cret"
	f := &fakeSearcher{}
	s := newTestServer(f, cfg)

	rec, resp := post(t, s, "/papers/by-author", `{"author_id":"Bengio"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", resp.Error)

	rec, _ = post(t, s, "/papers/by-author", `{"author_id":"Bengio"}`, APIKeyHeader, "wrong")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = post(t, s, "/papers/by-author", `{"author_id":"Bengio"}`, APIKeyHeader, "s3cret")
	require.Equal(t, http.StatusOK, rec.Code)

	// Health checks stay open.
	hrec := httptest.NewRecorder()
	s.Handler().ServeHTTP(hrec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, hrec.Code)
}

func TestRequestIDHeader(t *testing.T) {
	t.Parallel()

	rec, _ := post(t, newTestServer(&fakeSearcher{}, testConfig()), "/papers/by-author", `{"author_id":"Bengio"}`)

	id := rec.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	assert.NoError(t, err, "request id %q", id)
}

func TestRecoverMiddleware(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.ErrorLevel)
	s := New(&fakeSearcher{panics: true}, testConfig(), zap.New(core))

	rec, resp := post(t, s, "/papers/by-author", `{"author_id":"Bengio"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", resp.Error)
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestHealthzAndMetrics(t *testing.T) {
	t.Parallel()

	s := newTestServer(&fakeSearcher{}, testConfig())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	post(t, s, "/papers/by-author", `{"author_id":"Bengio"}`)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestWrongMethod(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/papers/by-author", bytes.NewReader(nil))
	newTestServer(&fakeSearcher{}, testConfig()).Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
