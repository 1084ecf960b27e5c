package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cafeteria/internal/logging"
	"cafeteria/internal/models"
	"cafeteria/internal/monitoring"

	"github.com/sirupsen/logrus"
)

// StatusError is returned when the backend answers with a non-2xx status
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Endpoints derives the REST root and push address from the backend base
// address: the API lives under /api and the push channel under /ws with the
// scheme swapped to ws or wss.
func Endpoints(base string) (apiRoot, pushURL string, err error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", "", fmt.Errorf("invalid backend address: %w", err)
	}

	ws := *u
	switch u.Scheme {
	case "http":
		ws.Scheme = "ws"
	case "https":
		ws.Scheme = "wss"
	default:
		return "", "", fmt.Errorf("unsupported backend scheme %q", u.Scheme)
	}

	return u.String() + "/api", ws.String() + "/ws", nil
}

// Client handles requests to the café backend API
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	apiRoot    string
	log        logrus.FieldLogger
	metrics    *monitoring.Monitor
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets a per-request timeout; zero keeps the http.Client's own.
// It applies to the client given by WithHTTPClient regardless of order.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) { c.log = logging.Component(l, "api") }
}

// WithMetrics records every call in m
func WithMetrics(m *monitoring.Monitor) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a new API client for the backend at base
func NewClient(base string, opts ...Option) (*Client, error) {
	apiRoot, _, err := Endpoints(base)
	if err != nil {
		return nil, err
	}

	c := &Client{
		httpClient: &http.Client{},
		apiRoot:    apiRoot,
		log:        logging.Component(nil, "api"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c, nil
}

// Menu lists the available menu items
func (c *Client) Menu(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if err := c.do(ctx, "menu", http.MethodGet, "/menu", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Categories lists menu categories with their item counts
func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := c.do(ctx, "categories", http.MethodGet, "/menu/categories", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// Tables lists every table with its current status
func (c *Client) Tables(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	if err := c.do(ctx, "tables", http.MethodGet, "/tables", nil, &tables); err != nil {
		return nil, err
	}
	return tables, nil
}

// CreateOrder submits a new order
func (c *Client) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error) {
	var created models.Order
	if err := c.do(ctx, "create_order", http.MethodPost, "/orders", req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ActiveOrders lists orders that are not yet delivered, in backend order
func (c *Client) ActiveOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := c.do(ctx, "active_orders", http.MethodGet, "/orders/active", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrderStatus moves an order to status
func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error {
	path := "/orders/" + url.PathEscape(id) + "/status"
	return c.do(ctx, "update_status", http.MethodPut, path, models.StatusUpdate{Status: status}, nil)
}

// DashboardStats fetches the aggregate dashboard numbers
func (c *Client) DashboardStats(ctx context.Context) (models.DashboardStats, error) {
	var stats models.DashboardStats
	if err := c.do(ctx, "dashboard_stats", http.MethodGet, "/dashboard/stats", nil, &stats); err != nil {
		return models.DashboardStats{}, err
	}
	return stats, nil
}

// InitData asks the backend to seed its default reference data.
// The call is idempotent on the backend side.
func (c *Client) InitData(ctx context.Context) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, "init_data", http.MethodPost, "/init-data", nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *Client) do(ctx context.Context, endpoint, method, path string, body, out interface{}) (err error) {
	start := time.Now()
	defer func() {
		c.metrics.ObserveRequest(endpoint, time.Since(start), err)
		c.log.WithFields(logrus.Fields{
			"method":  method,
			"path":    path,
			"elapsed": time.Since(start).String(),
		}).Debug("api request")
	}()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s body: %w", endpoint, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiRoot+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}
