package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMonitor_ObserveRequest(t *testing.T) {
	m := NewMonitor()
	m.ObserveRequest("menu", 20*time.Millisecond, nil)
	m.ObserveRequest("menu", 20*time.Millisecond, errors.New("boom"))
	m.ObserveRequest("tables", time.Millisecond, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("menu", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("menu", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("tables", "ok")))
}

func TestMonitor_PushMetrics(t *testing.T) {
	m := NewMonitor()
	m.SetPushConnected(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pushConnected))
	m.SetPushConnected(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.pushConnected))

	m.RecordReconnect()
	m.RecordReconnect()
	m.RecordDecodeError()
	m.RecordPushMessage("new_order")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.pushReconnects))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pushDecodeErrs))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pushMessages.WithLabelValues("new_order")))
}

func TestMonitor_NilIsNoop(t *testing.T) {
	var m *Monitor
	assert.NotPanics(t, func() {
		m.ObserveRequest("menu", time.Second, nil)
		m.SetPushConnected(true)
		m.RecordReconnect()
		m.RecordPushMessage("x")
		m.RecordDecodeError()
		m.RecordRefresh("orders", nil)
		m.RecordStale("orders")
		m.RecordInvalidation()
	})
}

func TestMonitor_Handler(t *testing.T) {
	m := NewMonitor()
	m.RecordRefresh("orders", nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cafe_refresh_total")
	assert.Contains(t, w.Body.String(), "cafe_uptime_seconds")
}
