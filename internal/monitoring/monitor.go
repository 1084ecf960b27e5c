package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Monitor collects client-side metrics for the café terminal.
// A nil *Monitor is valid and records nothing.
type Monitor struct {
	registry *prometheus.Registry
	start    time.Time

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	pushConnected   prometheus.Gauge
	pushReconnects  prometheus.Counter
	pushMessages    *prometheus.CounterVec
	pushDecodeErrs  prometheus.Counter
	refreshes       *prometheus.CounterVec
	staleResponses  *prometheus.CounterVec
	invalidations   prometheus.Counter
}

// NewMonitor creates a new monitoring instance with its own registry
func NewMonitor() *Monitor {
	m := &Monitor{
		registry: prometheus.NewRegistry(),
		start:    time.Now(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cafe_api_requests_total",
				Help: "Backend API requests by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cafe_api_request_duration_seconds",
				Help:    "Backend API request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		pushConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cafe_push_connected",
			Help: "1 while the push channel is connected",
		}),
		pushReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cafe_push_reconnect_attempts_total",
			Help: "Scheduled push channel reconnect attempts",
		}),
		pushMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cafe_push_messages_total",
				Help: "Decoded push messages by event type",
			},
			[]string{"type"},
		),
		pushDecodeErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cafe_push_decode_errors_total",
			Help: "Push payloads discarded because they did not decode",
		}),
		refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cafe_refresh_total",
				Help: "State refreshes by slice and outcome",
			},
			[]string{"slice", "outcome"},
		),
		staleResponses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cafe_stale_responses_total",
				Help: "Responses discarded because a newer fetch already applied",
			},
			[]string{"slice"},
		),
		invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cafe_monitor_invalidations_total",
			Help: "Forced monitor invalidations",
		}),
	}

	m.registry.MustRegister(
		m.requests,
		m.requestDuration,
		m.pushConnected,
		m.pushReconnects,
		m.pushMessages,
		m.pushDecodeErrs,
		m.refreshes,
		m.staleResponses,
		m.invalidations,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "cafe_uptime_seconds",
			Help: "Seconds since the client started",
		}, func() float64 { return time.Since(m.start).Seconds() }),
	)
	return m
}

// Registry exposes the underlying prometheus registry
func (m *Monitor) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one backend call
func (m *Monitor) ObserveRequest(endpoint string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(endpoint, outcome(err)).Inc()
	m.requestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// SetPushConnected mirrors the push channel connection flag
func (m *Monitor) SetPushConnected(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.pushConnected.Set(1)
		return
	}
	m.pushConnected.Set(0)
}

// RecordReconnect counts a scheduled reconnect
func (m *Monitor) RecordReconnect() {
	if m == nil {
		return
	}
	m.pushReconnects.Inc()
}

// RecordPushMessage counts a decoded push message
func (m *Monitor) RecordPushMessage(eventType string) {
	if m == nil {
		return
	}
	m.pushMessages.WithLabelValues(eventType).Inc()
}

// RecordDecodeError counts a discarded push payload
func (m *Monitor) RecordDecodeError() {
	if m == nil {
		return
	}
	m.pushDecodeErrs.Inc()
}

// RecordRefresh counts a completed fetch of a state slice
func (m *Monitor) RecordRefresh(slice string, err error) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(slice, outcome(err)).Inc()
}

// RecordStale counts a response dropped by the sequence guard
func (m *Monitor) RecordStale(slice string) {
	if m == nil {
		return
	}
	m.staleResponses.WithLabelValues(slice).Inc()
}

// RecordInvalidation counts a forced monitor invalidation
func (m *Monitor) RecordInvalidation() {
	if m == nil {
		return
	}
	m.invalidations.Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
