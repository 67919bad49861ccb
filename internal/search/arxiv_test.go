// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/arxiv-engine/internal/httputil"
	"github.com/pdiddy/arxiv-engine/pkg/types"
)

// arxivStub serves a synthetic result set of total records and records
// every request it sees.
type arxivStub struct {
	mu       sync.Mutex
	total    int
	requests []url.Values
	agents   []string
}

func (s *arxivStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, r.URL.Query())
	s.agents = append(s.agents, r.UserAgent())
	s.mu.Unlock()

	start, _ := strconv.Atoi(r.URL.Query().Get("start"))
	size, _ := strconv.Atoi(r.URL.Query().Get("max_results"))

	var entries []string
	for i := start; i < start+size && i < s.total; i++ {
		entries = append(entries, fmt.Sprintf(`
  <entry>
    <id>http://arxiv.org/abs/2401.%05dv1</id>
    <title>Paper %d</title>
    <published>2024-01-01T00:00:00Z</published>
    <updated>2024-01-01T00:00:00Z</updated>
  </entry>`, i, i))
	}
	w.Header().Set("Content-Type", "application/atom+xml")
	fmt.Fprint(w, feedXML(strconv.Itoa(s.total), entries...))
}

func newTestFetcher(srv *httptest.Server, clock httputil.Clock) *HTTPFetcher {
	return &HTTPFetcher{
		Client:    srv.Client(),
		BaseURL:   srv.URL,
		UserAgent: "arxiv-engine-test/1.0",
		Pacer:     httputil.NewPacer(types.MinDelay, clock),
		Policy:    DefaultFeedPolicy(),
	}
}

func TestHTTPFetcher_FetchPage(t *testing.T) {
	stub := &arxivStub{total: 3}
	srv := httptest.NewServer(stub)
	defer srv.Close()

	f := newTestFetcher(srv, newFakeClock())
	query := Encode(types.Search{Query: "cat:cs.AI", SortBy: types.SortBySubmittedDate, SortOrder: types.SortDescending})

	page, err := f.FetchPage(context.Background(), query, 0, 10)
	require.NoError(t, err)

	assert.Equal(t, 3, page.TotalResults)
	require.Len(t, page.Papers, 3)
	assert.Equal(t, "2401.00000v1", page.Papers[0].ID)

	require.Len(t, stub.requests, 1)
	got := stub.requests[0]
	assert.Equal(t, "cat:cs.AI", got.Get("search_query"))
	assert.Equal(t, "0", got.Get("start"))
	assert.Equal(t, "10", got.Get("max_results"))
	assert.Equal(t, "submittedDate", got.Get("sortBy"))
	assert.Equal(t, "descending", got.Get("sortOrder"))
	assert.Equal(t, "arxiv-engine-test/1.0", stub.agents[0])
}

func TestHTTPFetcher_StatusClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		transient bool
		cause     error
	}{
		{"service unavailable", http.StatusServiceUnavailable, "", true, nil},
		{"too many requests", http.StatusTooManyRequests, "", true, nil},
		{"bad gateway", http.StatusBadGateway, "<html/>", true, nil},
		{"bad request with api error", http.StatusBadRequest, apiErrorFeed, false, ErrAPI},
		{"not found", http.StatusNotFound, "not found", false, nil},
		{"ok but empty", http.StatusOK, "", true, ErrEmptyBody},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			_, err := newTestFetcher(srv, newFakeClock()).FetchPage(context.Background(), url.Values{}, 40, 10)
			require.Error(t, err)
			assert.Equal(t, tt.transient, IsTransient(err), "%v", err)
			assert.Equal(t, !tt.transient, IsFatal(err), "%v", err)
			if tt.cause != nil {
				assert.ErrorIs(t, err, tt.cause)
			}
		})
	}
}

func TestHTTPFetcher_TransportErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	f := newTestFetcher(srv, newFakeClock())
	srv.Close()

	_, err := f.FetchPage(context.Background(), url.Values{}, 0, 10)
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestHTTPFetcher_CancelledContextIsNotTransient(t *testing.T) {
	srv := httptest.NewServer(&arxivStub{total: 1})
	defer srv.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestFetcher(srv, newFakeClock()).FetchPage(ctx, url.Values{}, 0, 10)
	require.Error(t, err)
	assert.False(t, IsTransient(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_PacesRequestsOverHTTP(t *testing.T) {
	stub := &arxivStub{total: 250}
	srv := httptest.NewServer(stub)
	defer srv.Close()

	clock := newFakeClock()
	cfg := types.DefaultClientConfig()
	cfg.BaseURL = srv.URL
	c := NewClient(cfg, WithHTTPClient(srv.Client()), WithClock(clock))

	papers, err := c.Collect(context.Background(), types.Search{Query: "cat:cs.AI"})
	require.NoError(t, err)
	assert.Len(t, papers, 250)

	require.Len(t, stub.requests, 3)
	for i, q := range stub.requests {
		assert.Equal(t, strconv.Itoa(i*100), q.Get("start"))
	}
	// First request is immediate; each later one waits a full delay.
	assert.Equal(t, []time.Duration{types.MinDelay, types.MinDelay}, clock.sleeps)
}

func TestClient_PacerSharedAcrossStreams(t *testing.T) {
	stub := &arxivStub{total: 5}
	srv := httptest.NewServer(stub)
	defer srv.Close()

	clock := newFakeClock()
	cfg := types.DefaultClientConfig()
	cfg.BaseURL = srv.URL
	cfg.Delay = 5 * time.Second
	c := NewClient(cfg, WithHTTPClient(srv.Client()), WithClock(clock))

	for _, q := range []string{"cat:cs.AI", "cat:cs.LG", "cat:cs.CL"} {
		_, err := c.Collect(context.Background(), types.Search{Query: q})
		require.NoError(t, err)
	}

	assert.Len(t, stub.requests, 3)
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, clock.sleeps)
}

func TestClient_RetriesServerErrorsOverHTTP(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	stub := &arxivStub{total: 2}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		stub.ServeHTTP(w, r)
	}))
	defer srv.Close()

	clock := newFakeClock()
	cfg := types.DefaultClientConfig()
	cfg.BaseURL = srv.URL
	c := NewClient(cfg, WithHTTPClient(srv.Client()), WithClock(clock))

	papers, err := c.Collect(context.Background(), types.Search{IDList: []string{"2401.00000", "2401.00001"}})
	require.NoError(t, err)
	assert.Len(t, papers, 2)
	assert.Equal(t, 3, calls)
	assert.True(t, strings.Contains(stub.requests[0].Get("id_list"), "2401.00001"))
	// Every attempt is still paced: backoff sleeps count toward the delay.
	var slept time.Duration
	for _, d := range clock.sleeps {
		slept += d
	}
	assert.GreaterOrEqual(t, slept, 2*types.MinDelay)
}
