package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fxconvert/internal/fetcher"
	"fxconvert/internal/ratecache"
)

// RateMetrics holds the collectors for rate acquisition and conversions.
type RateMetrics struct {
	registry *prometheus.Registry

	// cache outcomes per base: hit, refresh, stale, unavailable
	CacheLookupsTotal *prometheus.CounterVec

	// provider round trips
	ProviderRequestsTotal   *prometheus.CounterVec
	ProviderRequestDuration *prometheus.HistogramVec

	// conversions by outcome
	ConversionsTotal *prometheus.CounterVec

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry.
func New() *RateMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &RateMetrics{
		registry: reg,

		CacheLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxconvert_cache_lookups_total",
				Help: "Rate cache lookups by base currency and outcome",
			},
			[]string{"base", "outcome"},
		),

		ProviderRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxconvert_provider_requests_total",
				Help: "Rate provider requests by base currency and result",
			},
			[]string{"base", "result"},
		),

		ProviderRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fxconvert_provider_request_duration_seconds",
				Help:    "Rate provider round trip time in seconds",
				Buckets: prometheus.ExponentialBuckets(0.025, 2, 10), // 25ms .. ~12.8s
			},
			[]string{"base"},
		),

		ConversionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxconvert_conversions_total",
				Help: "Conversions by source, target and outcome",
			},
			[]string{"from", "to", "outcome"},
		),

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxconvert_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"method", "route", "status"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fxconvert_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *RateMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *RateMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordConversion counts one conversion outcome.
func (m *RateMetrics) RecordConversion(from, to, outcome string) {
	m.ConversionsTotal.WithLabelValues(from, to, outcome).Inc()
}

// RecordHTTPRequest records one served request.
func (m *RateMetrics) RecordHTTPRequest(method, route, status string, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *RateMetrics) CacheHit(base string) {
	m.CacheLookupsTotal.WithLabelValues(base, "hit").Inc()
}

func (m *RateMetrics) CacheRefreshed(base string) {
	m.CacheLookupsTotal.WithLabelValues(base, "refresh").Inc()
}

func (m *RateMetrics) StaleServed(base string, _ time.Time, _ error) {
	m.CacheLookupsTotal.WithLabelValues(base, "stale").Inc()
}

func (m *RateMetrics) Unavailable(base string, _ error) {
	m.CacheLookupsTotal.WithLabelValues(base, "unavailable").Inc()
}

var _ ratecache.Observer = (*RateMetrics)(nil)

// InstrumentFetcher wraps f so each round trip is counted and timed.
func (m *RateMetrics) InstrumentFetcher(f fetcher.RatesFetcher) fetcher.RatesFetcher {
	return fetcher.FetcherFunc(func(ctx context.Context, base string) (fetcher.Snapshot, error) {
		start := time.Now()
		snap, err := f.FetchRates(ctx, base)
		m.ProviderRequestDuration.WithLabelValues(base).Observe(time.Since(start).Seconds())

		result := "success"
		switch {
		case fetcher.IsNetworkError(err):
			result = "network_error"
		case fetcher.IsDecodeError(err):
			result = "decode_error"
		case err != nil:
			result = "error"
		}
		m.ProviderRequestsTotal.WithLabelValues(base, result).Inc()
		return snap, err
	})
}
