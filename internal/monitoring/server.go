package monitoring

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewServer returns an HTTP server exposing m's registry at path
func NewServer(m *Monitor, port int, path string) *http.Server {
	if path == "" {
		path = "/metrics"
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET(path, gin.WrapH(m.Handler()))

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}
}
