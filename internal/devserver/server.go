// Package devserver is a local stand-in for the café backend. It serves the
// REST API under /api and the push endpoint at /ws, backed by a gorm store.
package devserver

import (
	"errors"
	"net/http"
	"strings"

	"cafeteria/internal/logging"
	"cafeteria/internal/models"
	"cafeteria/internal/monitoring"
	"cafeteria/internal/push"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Server routes API requests to the store and broadcasts changes
type Server struct {
	router  *gin.Engine
	store   *Store
	hub     *Hub
	log     logrus.FieldLogger
	metrics *monitoring.Monitor
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Server) { s.log = logging.Component(l, "devserver") }
}

// WithMetrics records request and broadcast metrics in m
func WithMetrics(m *monitoring.Monitor) Option {
	return func(s *Server) { s.metrics = m }
}

// NewServer creates a server over store
func NewServer(store *Store, opts ...Option) *Server {
	s := &Server{
		store: store,
		log:   logging.Component(nil, "devserver"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = newHub(s.log.WithField("component", "hub"), s.metrics)

	s.router = gin.New()
	s.router.Use(gin.Recovery(), requestLogger(s.log, s.metrics), cors())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleRoot)
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/ws", s.hub.serveWS)

	api := s.router.Group("/api")
	{
		api.GET("/menu", s.handleMenu)
		api.POST("/menu", s.handleCreateMenuItem)
		api.GET("/menu/categories", s.handleCategories)

		api.GET("/tables", s.handleTables)
		api.POST("/tables", s.handleCreateTable)
		api.PUT("/tables/:id", s.handleSetTableStatus)

		api.GET("/orders", s.handleOrders)
		api.GET("/orders/active", s.handleActiveOrders)
		api.POST("/orders", s.handleCreateOrder)
		api.PUT("/orders/:id/status", s.handleUpdateOrderStatus)
		api.DELETE("/orders/:id", s.handleCancelOrder)

		api.GET("/dashboard/stats", s.handleStats)
		api.POST("/init-data", s.handleInitData)
	}
}

// Router returns the gin router
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Hub returns the push hub
func (s *Server) Hub() *Hub {
	return s.hub
}

// Close disconnects push clients
func (s *Server) Close() {
	s.hub.Close()
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Backend online"})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "push_clients": s.hub.Clients()})
}

func (s *Server) handleMenu(c *gin.Context) {
	items, err := s.store.Menu()
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) handleCreateMenuItem(c *gin.Context) {
	var item models.MenuItem
	if err := c.ShouldBindJSON(&item); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	created, err := s.store.CreateMenuItem(item)
	if err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	c.JSON(http.StatusOK, created)
}

func (s *Server) handleCategories(c *gin.Context) {
	categories, err := s.store.Categories()
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (s *Server) handleTables(c *gin.Context) {
	tables, err := s.store.Tables()
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, tables)
}

type createTableRequest struct {
	Number   int `json:"number" binding:"required"`
	Capacity int `json:"capacity" binding:"required"`
}

func (s *Server) handleCreateTable(c *gin.Context) {
	var req createTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	table, err := s.store.CreateTable(req.Number, req.Capacity)
	switch {
	case errors.Is(err, ErrDuplicateTable):
		detail(c, http.StatusBadRequest, "Table number already exists")
	case err != nil:
		s.internalError(c, err)
	default:
		c.JSON(http.StatusOK, table)
	}
}

func (s *Server) handleSetTableStatus(c *gin.Context) {
	status := models.TableStatus(c.Query("status"))
	switch status {
	case models.TableStatusAvailable, models.TableStatusOccupied, models.TableStatusReserved:
	default:
		detail(c, http.StatusUnprocessableEntity, "invalid table status")
		return
	}
	err := s.store.SetTableStatus(c.Param("id"), status)
	switch {
	case errors.Is(err, ErrNotFound):
		detail(c, http.StatusNotFound, "Table not found")
	case err != nil:
		s.internalError(c, err)
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Table status updated"})
	}
}

func (s *Server) handleOrders(c *gin.Context) {
	orders, err := s.store.Orders()
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (s *Server) handleActiveOrders(c *gin.Context) {
	orders, err := s.store.ActiveOrders()
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (s *Server) handleCreateOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if req.TableNumber <= 0 || len(req.Items) == 0 || strings.TrimSpace(req.WaiterName) == "" {
		detail(c, http.StatusUnprocessableEntity, "table_number, items and waiter_name are required")
		return
	}

	order, err := s.store.CreateOrder(req)
	if err != nil {
		s.internalError(c, err)
		return
	}
	s.log.WithFields(logrus.Fields{
		"order": order.ID,
		"table": order.TableNumber,
		"total": order.TotalAmount.StringFixed(2),
	}).Info("order created")

	s.hub.Broadcast(string(push.EventNewOrder), gin.H{
		"type":      push.EventNewOrder,
		"order":     order,
		"timestamp": models.StatsTimestamp(order.CreatedAt.Time),
	})
	c.JSON(http.StatusOK, order)
}

func (s *Server) handleUpdateOrderStatus(c *gin.Context) {
	var req models.StatusUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if !req.Status.Valid() {
		detail(c, http.StatusUnprocessableEntity, "invalid order status")
		return
	}

	order, err := s.store.UpdateOrderStatus(c.Param("id"), req.Status)
	switch {
	case errors.Is(err, ErrNotFound):
		detail(c, http.StatusNotFound, "Order not found")
		return
	case err != nil:
		s.internalError(c, err)
		return
	}

	s.hub.Broadcast(string(push.EventOrderStatusUpdate), gin.H{
		"type":         push.EventOrderStatusUpdate,
		"order_id":     order.ID,
		"status":       order.Status,
		"table_number": order.TableNumber,
		"timestamp":    models.StatsTimestamp(order.UpdatedAt.Time),
	})
	c.JSON(http.StatusOK, gin.H{"message": "Order status updated"})
}

func (s *Server) handleCancelOrder(c *gin.Context) {
	order, err := s.store.CancelOrder(c.Param("id"))
	switch {
	case errors.Is(err, ErrNotFound):
		detail(c, http.StatusNotFound, "Order not found")
		return
	case err != nil:
		s.internalError(c, err)
		return
	}

	s.hub.Broadcast(string(push.EventOrderCancelled), gin.H{
		"type":         push.EventOrderCancelled,
		"order_id":     order.ID,
		"table_number": order.TableNumber,
		"timestamp":    models.StatsTimestamp(order.UpdatedAt.Time),
	})
	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled"})
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.store.Stats()
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleInitData(c *gin.Context) {
	msg, err := s.store.Seed()
	if err != nil {
		s.internalError(c, err)
		return
	}
	s.log.WithField("result", msg).Info("init-data")
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

func (s *Server) internalError(c *gin.Context, err error) {
	s.log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	detail(c, http.StatusInternalServerError, "Internal server error")
}

func detail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"detail": msg})
}
