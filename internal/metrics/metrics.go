// Package metrics exposes prometheus counters for the directory cache.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the registry and the collectors registered on it.
type Metrics struct {
	registry      *prometheus.Registry
	CacheRequests *prometheus.CounterVec
	CacheEvicts   *prometheus.CounterVec
}

// New creates a registry with Go runtime collectors and the cache counters.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		CacheRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "usersvc_cache_requests_total",
				Help: "Cache lookups by cache name and result",
			},
			[]string{"cache", "result"},
		),
		CacheEvicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "usersvc_cache_evictions_total",
				Help: "Entries removed from a cache",
			},
			[]string{"cache"},
		),
	}

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(m.CacheRequests)
	reg.MustRegister(m.CacheEvicts)

	return m
}

// Hit records a cache hit.
func (m *Metrics) Hit(cache string) {
	m.CacheRequests.WithLabelValues(cache, "hit").Inc()
}

// Miss records a cache miss.
func (m *Metrics) Miss(cache string) {
	m.CacheRequests.WithLabelValues(cache, "miss").Inc()
}

// Evict records an eviction.
func (m *Metrics) Evict(cache string) {
	m.CacheEvicts.WithLabelValues(cache).Inc()
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
