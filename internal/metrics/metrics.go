// Package metrics exposes Prometheus collectors for the search step.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for provider calls.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Collector groups the search step metrics. A nil *Collector is valid and records nothing.
type Collector struct {
	registry         *prometheus.Registry
	providerRequests *prometheus.CounterVec
	providerDuration *prometheus.HistogramVec
	placesReturned   prometheus.Counter
	searchRuns       *prometheus.CounterVec
}

// NewCollector registers the collectors on a fresh registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		providerRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "places_provider_requests_total",
				Help: "Total number of places provider calls.",
			},
			[]string{"outcome"},
		),
		providerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "places_provider_request_duration_seconds",
				Help:    "Duration of places provider calls in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		placesReturned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "places_results_total",
			Help: "Total number of place records produced.",
		}),
		searchRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "places_search_runs_total",
				Help: "Total number of search step invocations.",
			},
			[]string{"outcome"},
		),
	}
	c.registry.MustRegister(c.providerRequests, c.providerDuration, c.placesReturned, c.searchRuns)
	return c
}

// ObserveProviderCall records one provider call.
func (c *Collector) ObserveProviderCall(outcome string, elapsed time.Duration, results int) {
	if c == nil {
		return
	}
	c.providerRequests.WithLabelValues(outcome).Inc()
	c.providerDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	if results > 0 {
		c.placesReturned.Add(float64(results))
	}
}

// ObserveRun records one search step invocation.
func (c *Collector) ObserveRun(outcome string) {
	if c == nil {
		return
	}
	c.searchRuns.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
