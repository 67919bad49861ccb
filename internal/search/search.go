// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search is a polite client for the arXiv query API. It renders
// structured searches into query parameters, fetches result pages one at a
// time behind a client-wide politeness delay, and exposes the results as a
// lazy stream that retries failed pages at the same offset.
package search

import (
	"context"
	"iter"
	"net/http"

	"go.uber.org/zap"

	"github.com/pdiddy/arxiv-engine/internal/httputil"
	"github.com/pdiddy/arxiv-engine/pkg/types"
)

// Client queries arXiv. The pacing state is owned by the client and shared
// by all of its streams, so a Client may serve several streams at once.
type Client struct {
	cfg        types.ClientConfig
	fetcher    Fetcher
	httpClient *http.Client
	clock      httputil.Clock
	logger     *zap.Logger
	policy     FeedPolicy
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for page requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithFetcher replaces the HTTP page fetcher, e.g. with a fake in tests.
func WithFetcher(f Fetcher) Option {
	return func(c *Client) { c.fetcher = f }
}

// WithClock sets the clock used for pacing and retry backoff.
func WithClock(clock httputil.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithFeedPolicy sets which malformed-feed conditions are retried.
func WithFeedPolicy(p FeedPolicy) Option {
	return func(c *Client) { c.policy = p }
}

// NewClient returns a Client for cfg. cfg is normalised first, so page
// size and delay always respect the provider limits.
func NewClient(cfg types.ClientConfig, opts ...Option) *Client {
	c := &Client{
		cfg:    cfg.Normalize(),
		clock:  httputil.SystemClock{},
		logger: zap.NewNop(),
		policy: DefaultFeedPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.cfg.Timeout}
	}
	if c.fetcher == nil {
		c.fetcher = &HTTPFetcher{
			Client:    c.httpClient,
			BaseURL:   c.cfg.BaseURL,
			UserAgent: c.cfg.UserAgent,
			Pacer:     httputil.NewPacer(c.cfg.Delay, c.clock),
			Policy:    c.policy,
			Logger:    c.logger,
		}
	}
	return c
}

// Config returns the normalised configuration in use.
func (c *Client) Config() types.ClientConfig { return c.cfg }

// Stream starts a lazy result stream for s. No request is made until the
// first call to Next.
func (c *Client) Stream(s types.Search) *Stream {
	return newStream(c, s)
}

// Results adapts a stream to a range-over-func sequence. A terminal error
// is yielded once, with a zero Paper, as the last element.
func (c *Client) Results(ctx context.Context, s types.Search) iter.Seq2[types.Paper, error] {
	return func(yield func(types.Paper, error) bool) {
		st := c.Stream(s)
		defer st.Close()
		for st.Next(ctx) {
			if !yield(st.Paper(), nil) {
				return
			}
		}
		if err := st.Err(); err != nil {
			yield(types.Paper{}, err)
		}
	}
}

// Collect drains a stream into a slice. On failure it returns the records
// gathered so far together with the error.
func (c *Client) Collect(ctx context.Context, s types.Search) ([]types.Paper, error) {
	st := c.Stream(s)
	defer st.Close()

	var papers []types.Paper
	for st.Next(ctx) {
		papers = append(papers, st.Paper())
	}
	return papers, st.Err()
}
