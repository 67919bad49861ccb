// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_Idempotent(t *testing.T) {
	Init()
	Init()

	require.NotNil(t, pageFetchesTotal)
	require.NotNil(t, httpRequestsTotal)
	require.NotNil(t, streamsTotal)
}

func TestObservePageFetch(t *testing.T) {
	Init()
	before := testutil.ToFloat64(pageFetchesTotal.WithLabelValues("transient"))

	ObservePageFetch("transient", 200*time.Millisecond)
	ObservePageFetch("transient", 300*time.Millisecond)

	after := testutil.ToFloat64(pageFetchesTotal.WithLabelValues("transient"))
	assert.Equal(t, before+2, after)
}

func TestObservePageRetryAndStream(t *testing.T) {
	Init()
	retries := testutil.ToFloat64(pageRetriesTotal)
	failed := testutil.ToFloat64(streamsTotal.WithLabelValues("failed"))

	ObservePageRetry()
	ObserveStream("failed")

	assert.Equal(t, retries+1, testutil.ToFloat64(pageRetriesTotal))
	assert.Equal(t, failed+1, testutil.ToFloat64(streamsTotal.WithLabelValues("failed")))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	ObserveHTTPRequest(http.MethodPost, "/papers/daily", http.StatusOK, 10*time.Millisecond)
	ObservePacerWait(3 * time.Second)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "http_requests_total"))
	assert.True(t, strings.Contains(body, "arxiv_pacer_wait_seconds"))
}
