// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"errors"
	"fmt"
)

// TransientFetchError is a single failed page fetch that is worth
// retrying: a transport failure, a timeout, HTTP 429 or 5xx, or a feed
// that looks like a glitch (empty body, truncated XML, unexpected empty page).
type TransientFetchError struct {
	Offset     int
	StatusCode int // zero when no HTTP response was received
	Err        error
}

func (e *TransientFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transient fetch error at offset %d (HTTP %d): %v", e.Offset, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transient fetch error at offset %d: %v", e.Offset, e.Err)
}

func (e *TransientFetchError) Unwrap() error { return e.Err }

// FatalFetchError is a failed page fetch that retrying cannot fix: a bad
// request, or a response whose schema is permanently broken.
type FatalFetchError struct {
	Offset     int
	StatusCode int
	Err        error
}

func (e *FatalFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fatal fetch error at offset %d (HTTP %d): %v", e.Offset, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fatal fetch error at offset %d: %v", e.Offset, e.Err)
}

func (e *FatalFetchError) Unwrap() error { return e.Err }

// StreamError is the terminal failure of a result stream. It names the
// offset that could not be fetched, how many attempts were made, and
// unwraps to the last underlying cause.
type StreamError struct {
	Offset   int
	Attempts int
	Err      error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("fetching page at offset %d failed after %d attempt(s): %v", e.Offset, e.Attempts, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// Feed-level causes wrapped by the fetch errors above.
var (
	ErrEmptyBody      = errors.New("empty response body")
	ErrUnexpectedPage = errors.New("page has no entries before the reported total")
	ErrTotalShrank    = errors.New("reported total results shrank")
	ErrBadSchema      = errors.New("response is not an arXiv Atom feed")
	ErrAPI            = errors.New("arXiv API error")
)

// IsTransient reports whether err carries a TransientFetchError.
func IsTransient(err error) bool {
	var te *TransientFetchError
	return errors.As(err, &te)
}

// IsFatal reports whether err carries a FatalFetchError.
func IsFatal(err error) bool {
	var fe *FatalFetchError
	return errors.As(err, &fe)
}

// FeedPolicy decides which malformed-feed conditions are retried. The
// boundary between a glitch and a broken schema is a judgment call, so it
// is explicit and tunable rather than implied by the parser.
type FeedPolicy struct {
	// RetryParseErrors treats XML syntax errors (usually a truncated body)
	// as transient.
	RetryParseErrors bool

	// RetryEmptyPage treats a page with no entries whose offset is still
	// below the reported total as transient.
	RetryEmptyPage bool

	// RetryBadSchema treats a well-formed document that is not an arXiv
	// feed, or lacks a numeric total, as transient.
	RetryBadSchema bool
}

// DefaultFeedPolicy retries truncated and unexpectedly empty pages and
// fails fast on schema errors.
func DefaultFeedPolicy() FeedPolicy {
	return FeedPolicy{
		RetryParseErrors: true,
		RetryEmptyPage:   true,
		RetryBadSchema:   false,
	}
}

// classify wraps a feed problem as transient or fatal according to retry.
func classify(retry bool, offset, status int, err error) error {
	if retry {
		return &TransientFetchError{Offset: offset, StatusCode: status, Err: err}
	}
	return &FatalFetchError{Offset: offset, StatusCode: status, Err: err}
}
