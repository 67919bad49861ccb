// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/arxiv-engine/internal/httputil"
	"github.com/pdiddy/arxiv-engine/internal/metrics"
)

// maxBodyBytes bounds how much of one page response is read.
const maxBodyBytes = 64 << 20

// Fetcher retrieves one page of results. Implementations make exactly one
// attempt per call and report failures as *TransientFetchError or
// *FatalFetchError; retrying is the caller's decision.
type Fetcher interface {
	FetchPage(ctx context.Context, query url.Values, offset, pageSize int) (*Page, error)
}

// HTTPFetcher fetches pages from the arXiv query endpoint. Every call,
// retries included, first waits on the shared pacer.
type HTTPFetcher struct {
	Client    *http.Client
	BaseURL   string
	UserAgent string
	Pacer     *httputil.Pacer
	Policy    FeedPolicy
	Logger    *zap.Logger
}

// FetchPage requests the page at offset and decodes it.
func (f *HTTPFetcher) FetchPage(ctx context.Context, query url.Values, offset, pageSize int) (*Page, error) {
	logger := f.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if f.Pacer != nil {
		waited, err := f.Pacer.Wait(ctx)
		if err != nil {
			return nil, err
		}
		if waited > 0 {
			metrics.ObservePacerWait(waited)
		}
	}

	reqURL := f.BaseURL + "?" + PageValues(query, offset, pageSize).Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &FatalFetchError{Offset: offset, Err: fmt.Errorf("creating request: %w", err)}
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	logger.Debug("requesting arXiv page",
		zap.String("url", reqURL),
		zap.Int("offset", offset),
		zap.Int("page_size", pageSize),
	)

	start := time.Now()
	page, err := f.do(ctx, req, offset)
	metrics.ObservePageFetch(outcome(err), time.Since(start))
	return page, err
}

func (f *HTTPFetcher) do(ctx context.Context, req *http.Request, offset int) (*Page, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &TransientFetchError{Offset: offset, Err: fmt.Errorf("arXiv API request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &TransientFetchError{Offset: offset, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading arXiv response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
		if httputil.Retryable(resp.StatusCode) {
			return nil, &TransientFetchError{Offset: offset, StatusCode: resp.StatusCode, Err: statusErr}
		}
		// arXiv explains rejected queries in an error entry of the body.
		if _, decodeErr := decodePage(body, offset, resp.StatusCode, f.Policy); errors.Is(decodeErr, ErrAPI) {
			return nil, decodeErr
		}
		return nil, &FatalFetchError{Offset: offset, StatusCode: resp.StatusCode, Err: statusErr}
	}

	return decodePage(body, offset, resp.StatusCode, f.Policy)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsTransient(err):
		return "transient"
	case IsFatal(err):
		return "fatal"
	default:
		return "cancelled"
	}
}
