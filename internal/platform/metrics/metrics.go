// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package metrics exposes Prometheus collectors for the portal.

It has two parts: HTTP instrumentation installed in the middleware chain, and
a small set of domain counters (login outcomes, admin gateway decisions,
notification deliveries) recorded by the services.

Every constructor takes a [prometheus.Registerer] so tests can use an isolated
registry instead of the process-wide default.
*/
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// # Collectors

// Metrics groups every collector registered by the API and the worker.
type Metrics struct {
	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	loginOutcomes  *prometheus.CounterVec
	adminActions   *prometheus.CounterVec
	notifications  *prometheus.CounterVec
	accountChanges *prometheus.CounterVec
}

// New builds and registers the collectors against registerer.
func New(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "portal",
			Name:      "http_in_flight_requests",
			Help:      "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "portal",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latencies in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		loginOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Name:      "login_outcomes_total",
			Help:      "Login attempts by outcome (success, invalid, pending, blocked).",
		}, []string{"outcome"}),
		adminActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Name:      "admin_actions_total",
			Help:      "Admin gateway calls by action and result.",
		}, []string{"action", "result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Name:      "notifications_total",
			Help:      "Email notifications by kind and result.",
		}, []string{"kind", "result"}),
		accountChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Name:      "account_transitions_total",
			Help:      "Account lifecycle transitions applied.",
		}, []string{"transition"}),
	}

	registerer.MustRegister(
		m.httpInFlight,
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.loginOutcomes,
		m.adminActions,
		m.notifications,
		m.accountChanges,
	)
	return m
}

// Handler serves the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// # HTTP Instrumentation

// Instrument records request count, latency and in-flight requests.
// The route label is the chi route pattern so path parameters do not
// explode label cardinality.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		start := time.Now()
		recorder := &statusWriter{ResponseWriter: writer, code: http.StatusOK}
		next.ServeHTTP(recorder, request)

		route := request.URL.Path
		if routeContext := chi.RouteContext(request.Context()); routeContext != nil {
			if pattern := routeContext.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := strconv.Itoa(recorder.code)
		m.httpRequestDuration.WithLabelValues(request.Method, route, status).Observe(time.Since(start).Seconds())
		m.httpRequestsTotal.WithLabelValues(request.Method, route, status).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// # Domain Counters

// LoginOutcome counts a login attempt. A nil receiver is a no-op so services
// can run without metrics in tests.
func (m *Metrics) LoginOutcome(outcome string) {
	if m == nil {
		return
	}
	m.loginOutcomes.WithLabelValues(outcome).Inc()
}

// AdminAction counts a gateway call by action and result code.
func (m *Metrics) AdminAction(action, result string) {
	if m == nil {
		return
	}
	m.adminActions.WithLabelValues(action, result).Inc()
}

// Notification counts an email delivery attempt.
func (m *Metrics) Notification(kind string, err error) {
	if m == nil {
		return
	}
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.notifications.WithLabelValues(kind, result).Inc()
}

// AccountTransition counts an applied lifecycle transition.
func (m *Metrics) AccountTransition(transition string) {
	if m == nil {
		return
	}
	m.accountChanges.WithLabelValues(transition).Inc()
}
