// sudori - a sudoku solving and verification service.
// Copyright (C) 2026 the sudori authors.
//
// Licensed under the MIT license. See the LICENSE file for details.

package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics carries the service's own registry, so tests can run many
// servers without default-registry collisions.
type metrics struct {
	registry *prometheus.Registry
	solves   *prometheus.CounterVec
	duration *prometheus.HistogramVec
	requests *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sudori_solver_solves_total",
			Help: "Solver invocations by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sudori_solver_solve_duration_seconds",
			Help:    "Wall-clock solve duration by strategy.",
			Buckets: []float64{.0005, .002, .01, .05, .25, 1, 5, 15},
		}, []string{"strategy"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sudori_http_requests_total",
			Help: "HTTP requests by method, route pattern and status.",
		}, []string{"method", "pattern", "code"}),
	}
	m.registry.MustRegister(
		m.solves,
		m.duration,
		m.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *metrics) observeSolve(strategy, outcome string, elapsed time.Duration) {
	m.solves.WithLabelValues(strategy, outcome).Inc()
	m.duration.WithLabelValues(strategy).Observe(elapsed.Seconds())
}

func (m *metrics) observeRequest(method, pattern string, status int) {
	m.requests.WithLabelValues(method, pattern, strconv.Itoa(status)).Inc()
}
