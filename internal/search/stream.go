// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/pdiddy/arxiv-engine/internal/httputil"
	"github.com/pdiddy/arxiv-engine/internal/metrics"
	"github.com/pdiddy/arxiv-engine/pkg/types"
)

type streamState int

const (
	stateFetching streamState = iota
	stateYielding
	stateExhausted
	stateFailed
)

func (s streamState) String() string {
	switch s {
	case stateFetching:
		return "fetching"
	case stateYielding:
		return "yielding"
	case stateExhausted:
		return "exhausted"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Stream is a lazy, pull-driven sequence of search results. Pages are
// fetched one at a time, only when the caller asks for a record past the
// current page. A failed page is re-requested at the same offset until the
// retry budget runs out; the budget resets each time the stream advances.
//
// Usage mirrors bufio.Scanner:
//
//	st := client.Stream(s)
//	for st.Next(ctx) {
//		p := st.Paper()
//	}
//	if err := st.Err(); err != nil { ... }
//
// A Stream is not safe for concurrent use. Abandoning it early is safe and
// makes no further requests.
type Stream struct {
	fetcher Fetcher
	cfg     types.ClientConfig
	clock   httputil.Clock
	logger  *zap.Logger
	query   url.Values
	limit   int

	state     streamState
	offset    int
	retries   int
	total     int
	haveTotal bool
	pending   []types.Paper
	pageLen   int
	current   types.Paper
	err       error
}

func newStream(c *Client, s types.Search) *Stream {
	st := &Stream{
		fetcher: c.fetcher,
		cfg:     c.cfg,
		clock:   c.clock,
		logger:  c.logger,
		query:   Encode(s),
		state:   stateFetching,
	}
	if s.HasCap() {
		st.limit = s.MaxResults
	}
	if err := s.Validate(); err != nil {
		st.state = stateFailed
		st.err = fmt.Errorf("invalid search: %w", err)
	}
	return st
}

// Next advances to the next record, fetching a page if needed. It returns
// false when the stream is exhausted or has failed; Err tells them apart.
func (s *Stream) Next(ctx context.Context) bool {
	for {
		switch s.state {
		case stateYielding:
			if len(s.pending) > 0 {
				s.current = s.pending[0]
				s.pending = s.pending[1:]
				return true
			}
			s.advance()
		case stateFetching:
			s.fetch(ctx)
		default:
			return false
		}
	}
}

// Paper returns the record produced by the last successful call to Next.
func (s *Stream) Paper() types.Paper { return s.current }

// Err returns the terminal error, or nil if the stream ended cleanly or is
// still running.
func (s *Stream) Err() error { return s.err }

// Offset returns the offset of the page currently being fetched or yielded.
func (s *Stream) Offset() int { return s.offset }

// TotalResults returns the total reported by the first page, or -1 before
// any page has been fetched.
func (s *Stream) TotalResults() int {
	if !s.haveTotal {
		return -1
	}
	return s.total
}

// Close stops the stream. Later calls to Next return false.
func (s *Stream) Close() {
	if s.state != stateFailed {
		s.state = stateExhausted
	}
	s.pending = nil
}

func (s *Stream) fetch(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		s.fail(err)
		return
	}

	size := s.cfg.PageSize
	if s.limit > 0 && s.limit-s.offset < size {
		size = s.limit - s.offset
	}

	page, err := s.fetcher.FetchPage(ctx, s.query, s.offset, size)
	if err == nil && s.haveTotal && page.TotalResults < s.total {
		err = &TransientFetchError{
			Offset: s.offset,
			Err:    fmt.Errorf("%w: %d to %d", ErrTotalShrank, s.total, page.TotalResults),
		}
	}
	if err != nil {
		s.handleError(ctx, err)
		return
	}

	if !s.haveTotal {
		s.total = page.TotalResults
		s.haveTotal = true
	}

	records := page.Papers
	if s.limit > 0 && s.offset+len(records) > s.limit {
		records = records[:s.limit-s.offset]
	}

	s.logger.Debug("fetched arXiv page",
		zap.Int("offset", s.offset),
		zap.Int("records", len(records)),
		zap.Int("total", s.total),
		zap.Int("retries", s.retries),
	)

	s.pending = records
	s.pageLen = len(records)
	s.state = stateYielding
}

// advance runs once the current page is drained: it either ends the
// stream or moves to the next offset with a fresh retry budget.
func (s *Stream) advance() {
	next := s.offset + s.pageLen
	if s.pageLen == 0 || next >= s.total || (s.limit > 0 && next >= s.limit) {
		s.state = stateExhausted
		metrics.ObserveStream(stateExhausted.String())
		return
	}
	s.offset = next
	s.retries = 0
	s.state = stateFetching
}

func (s *Stream) handleError(ctx context.Context, err error) {
	if !IsTransient(err) {
		s.fail(err)
		return
	}
	if s.retries >= s.cfg.NumRetries {
		s.fail(err)
		return
	}

	s.retries++
	wait := httputil.Backoff(s.cfg.RetryBackoff, s.retries-1, s.cfg.MaxRetryBackoff)
	s.logger.Warn("arXiv page fetch failed, retrying same offset",
		zap.Int("offset", s.offset),
		zap.Int("retry", s.retries),
		zap.Int("max_retries", s.cfg.NumRetries),
		zap.Duration("backoff", wait),
		zap.Error(err),
	)
	metrics.ObservePageRetry()

	if wait > 0 {
		if sleepErr := s.clock.Sleep(ctx, wait); sleepErr != nil {
			s.fail(sleepErr)
		}
	}
}

func (s *Stream) fail(err error) {
	s.state = stateFailed
	s.pending = nil
	s.err = &StreamError{Offset: s.offset, Attempts: s.retries + 1, Err: err}
	metrics.ObserveStream(stateFailed.String())

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}
	s.logger.Debug("arXiv stream failed", zap.Int("offset", s.offset), zap.Error(err))
}
