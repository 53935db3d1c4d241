// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EmberMUSH Contributors

package overlay

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace labels for overlay metrics.
const (
	NamespaceConsole = "console"
	NamespaceChat    = "chat"
)

// Result labels for registration outcomes.
const (
	ResultRegistered = "registered"
	ResultChained    = "chained"
	ResultReplaced   = "replaced"
	ResultRejected   = "rejected"
)

// Status labels for dispatch outcomes.
const (
	StatusHandled     = "handled"
	StatusFallthrough = "fallthrough"
	StatusUnhandled   = "unhandled"
	StatusNotFound    = "not_found"
)

// Registrations is the counter for command registrations.
// Use RegisterMetrics to register this with a Prometheus registry.
var Registrations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "embermush_overlay_registrations_total",
		Help: "Total number of command registrations by namespace and result",
	},
	[]string{"namespace", "result"},
)

// Dispatches is the counter for command dispatches.
// Use RegisterMetrics to register this with a Prometheus registry.
var Dispatches = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "embermush_overlay_dispatches_total",
		Help: "Total number of command dispatches by namespace and status",
	},
	[]string{"namespace", "status"},
)

// HandlerDuration is the histogram for handler execution duration.
// Use RegisterMetrics to register this with a Prometheus registry.
var HandlerDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "embermush_overlay_handler_duration_seconds",
		Help:    "Extension handler execution duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"namespace"},
)

// HandlersInFlight is the gauge for currently executing extension handlers.
// Use RegisterMetrics to register this with a Prometheus registry.
var HandlersInFlight = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "embermush_overlay_handlers_inflight",
		Help: "Number of extension handlers currently executing, by extension",
	},
	[]string{"extension"},
)

// RegisterMetrics registers overlay metrics with the given Prometheus
// registry. Call at startup to make metrics available on /metrics.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(Registrations)
	reg.MustRegister(Dispatches)
	reg.MustRegister(HandlerDuration)
	reg.MustRegister(HandlersInFlight)
}

func recordRegistration(namespace, result string) {
	Registrations.WithLabelValues(namespace, result).Inc()
}

func recordDispatch(namespace, status string) {
	Dispatches.WithLabelValues(namespace, status).Inc()
}

func observeHandlerDuration(namespace string, d time.Duration) {
	HandlerDuration.WithLabelValues(namespace).Observe(d.Seconds())
}

// metricsTracker is the default Tracker. It maintains the in-flight gauge
// so a surrounding system can spot extensions with stuck handlers.
type metricsTracker struct{}

func (metricsTracker) Enter(ext Extension) {
	HandlersInFlight.WithLabelValues(ext.Name()).Inc()
}

func (metricsTracker) Exit(ext Extension) {
	HandlersInFlight.WithLabelValues(ext.Name()).Dec()
}
