// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics exposes Prometheus collectors for load cycles and the
// HTTP API. Collectors live on a private registry so tests can create as
// many Metrics values as they like.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	loadCycles    *prometheus.CounterVec
	loadDuration  prometheus.Histogram
	snapshotSize  prometheus.Gauge
	sourceHealthy prometheus.Gauge
	httpRequests  *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		loadCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kol_load_cycles_total",
			Help: "Completed load cycles by outcome (ok, fallback, fatal, discarded).",
		}, []string{"outcome"}),
		loadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kol_load_duration_seconds",
			Help:    "Duration of load cycles.",
			Buckets: prometheus.DefBuckets,
		}),
		snapshotSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kol_snapshot_records",
			Help: "Records in the published snapshot.",
		}),
		sourceHealthy: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kol_source_healthy",
			Help: "1 when the last load cycle used the remote source, 0 otherwise.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kol_http_requests_total",
			Help: "HTTP API requests by route and status code.",
		}, []string{"route", "code"}),
	}
	m.registry.MustRegister(m.loadCycles, m.loadDuration, m.snapshotSize, m.sourceHealthy, m.httpRequests)
	return m
}

// ObserveLoad records a finished load cycle.
func (m *Metrics) ObserveLoad(outcome string, elapsed time.Duration, records int, healthy bool) {
	if m == nil {
		return
	}
	m.loadCycles.WithLabelValues(outcome).Inc()
	m.loadDuration.Observe(elapsed.Seconds())
	if outcome == "discarded" {
		return
	}
	m.snapshotSize.Set(float64(records))
	if healthy {
		m.sourceHealthy.Set(1)
	} else {
		m.sourceHealthy.Set(0)
	}
}

// ObserveRequest records one HTTP API response.
func (m *Metrics) ObserveRequest(route string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
