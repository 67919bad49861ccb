// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics exposes Prometheus collectors for the arXiv client and
// the backend service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	pageFetchesTotal           *prometheus.CounterVec
	pageFetchDurationSeconds   *prometheus.HistogramVec
	pageRetriesTotal           prometheus.Counter
	pacerWaitSeconds           prometheus.Histogram
	streamsTotal               *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init registers the collectors with the default registry. It is safe to
// call more than once; the Observe functions call it themselves.
func Init() {
	once.Do(func() {
		pageFetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arxiv_page_fetches_total",
				Help: "Total number of arXiv page fetch attempts, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		pageFetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "arxiv_page_fetch_duration_seconds",
				Help:    "Histogram of arXiv page fetch latencies, labeled by outcome.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"outcome"},
		)

		pageRetriesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "arxiv_page_retries_total",
				Help: "Total number of times a page was re-requested at the same offset.",
			},
		)

		pacerWaitSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "arxiv_pacer_wait_seconds",
				Help:    "Histogram of politeness delays applied before arXiv requests.",
				Buckets: []float64{0.1, 0.5, 1, 2, 3, 5, 10, 30},
			},
		)

		streamsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arxiv_streams_total",
				Help: "Total number of result streams that reached a terminal state, labeled by state.",
			},
			[]string{"state"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests served, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObservePageFetch records one page fetch attempt.
func ObservePageFetch(outcome string, duration time.Duration) {
	Init()
	pageFetchesTotal.WithLabelValues(outcome).Inc()
	pageFetchDurationSeconds.WithLabelValues(outcome).Observe(duration.Seconds())
}

// ObservePageRetry records a re-request of the same offset.
func ObservePageRetry() {
	Init()
	pageRetriesTotal.Inc()
}

// ObservePacerWait records a politeness delay.
func ObservePacerWait(duration time.Duration) {
	Init()
	pacerWaitSeconds.Observe(duration.Seconds())
}

// ObserveStream records a stream reaching a terminal state
// ("exhausted" or "failed").
func ObserveStream(state string) {
	Init()
	streamsTotal.WithLabelValues(state).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
