package monitoring

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer_ServesRegistry(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMonitor()
	m.ObserveRequest("menu", 20*time.Millisecond, nil)
	m.ObserveRequest("menu", 30*time.Millisecond, errors.New("boom"))

	srv := NewServer(m, 9091, "/metrics")
	assert.Equal(t, ":9091", srv.Addr)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/metrics", nil)
	srv.Handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `cafe_api_requests_total{endpoint="menu",outcome="error"} 1`)
	assert.Contains(t, string(body), `cafe_api_requests_total{endpoint="menu",outcome="ok"} 1`)
	assert.Contains(t, string(body), "cafe_uptime_seconds")
}

func TestNewServer_DefaultPath(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := NewServer(NewMonitor(), 0, "")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/metrics", nil)
	srv.Handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
