// Package monitor keeps the manager dashboard fresh: active orders,
// dashboard stats and table occupancy, polled on an interval and refetched
// on demand.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cafeteria/internal/fetch"
	"cafeteria/internal/logging"
	"cafeteria/internal/models"
	"cafeteria/internal/monitoring"

	"github.com/sirupsen/logrus"
)

// DefaultInterval is the polling period of the dashboard
const DefaultInterval = 5 * time.Second

// ErrNoTransition is returned by Advance for orders with no next status
var ErrNoTransition = errors.New("order has no next status")

// Backend is the part of the API the monitor talks to
type Backend interface {
	ActiveOrders(ctx context.Context) ([]models.Order, error)
	DashboardStats(ctx context.Context) (models.DashboardStats, error)
	Tables(ctx context.Context) ([]models.Table, error)
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error
}

// Snapshot is a copy of the dashboard state
type Snapshot struct {
	Orders []models.Order
	Stats  models.DashboardStats
	Tables []models.Table
	// Loaded is false until the first orders response after a reset
	Loaded bool
}

// Monitor polls the backend for dashboard state
type Monitor struct {
	backend  Backend
	interval time.Duration
	log      logrus.FieldLogger
	metrics  *monitoring.Monitor

	orders fetch.Slot[[]models.Order]
	stats  fetch.Slot[models.DashboardStats]
	tables fetch.Slot[[]models.Table]

	changes    chan struct{}
	invalidate chan struct{}
}

// Option configures a Monitor
type Option func(*Monitor)

// WithInterval sets the polling period
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) { m.interval = d }
}

// WithLogger sets the logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Monitor) { m.log = logging.Component(l, "monitor") }
}

// WithMetrics records refresh outcomes in mon
func WithMetrics(mon *monitoring.Monitor) Option {
	return func(m *Monitor) { m.metrics = mon }
}

// New creates a monitor backed by b
func New(b Backend, opts ...Option) *Monitor {
	m := &Monitor{
		backend:    b,
		interval:   DefaultInterval,
		log:        logging.Component(nil, "monitor"),
		changes:    make(chan struct{}, 1),
		invalidate: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Changes fires after state was updated or discarded. Notifications coalesce.
func (m *Monitor) Changes() <-chan struct{} {
	return m.changes
}

// Run refreshes immediately, then on every tick and after every
// Invalidate, until ctx is done. In-flight refreshes are waited for before
// Run returns.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	var wg sync.WaitGroup
	defer func() {
		ticker.Stop()
		wg.Wait()
	}()

	refresh := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Refresh(ctx)
		}()
	}

	// a signal left from before this activation is covered by the first refresh
	select {
	case <-m.invalidate:
	default:
	}

	refresh()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		case <-m.invalidate:
			refresh()
		}
	}
}

// Refresh fetches orders, stats and tables concurrently. Each fetch stands
// alone: a failure is logged and the others still apply.
func (m *Monitor) Refresh(ctx context.Context) {
	m.parallel(ctx, m.refreshOrders, m.refreshStats, m.refreshTables)
}

// Invalidate discards every piece of state, including responses still in
// flight, and asks Run for an immediate refetch.
func (m *Monitor) Invalidate() {
	m.Reset()
	m.metrics.RecordInvalidation()

	select {
	case m.invalidate <- struct{}{}:
	default:
	}
}

// Reset discards every piece of state and the responses still in flight
// without asking for a refetch.
func (m *Monitor) Reset() {
	m.orders.Reset()
	m.stats.Reset()
	m.tables.Reset()
	m.notify()
}

// Advance moves order to its single next status, then refetches orders and
// tables whether or not the update succeeded. The update error, if any, is
// returned after the refetch.
func (m *Monitor) Advance(ctx context.Context, order models.Order) error {
	next, ok := order.Status.Next()
	if !ok {
		return fmt.Errorf("order %s in status %q: %w", order.ID, order.Status, ErrNoTransition)
	}

	err := m.backend.UpdateOrderStatus(ctx, order.ID, next)
	if err != nil {
		m.log.WithError(err).WithFields(logrus.Fields{
			"order":  order.ID,
			"status": next,
		}).Error("failed to update order status")
	}

	m.parallel(ctx, m.refreshOrders, m.refreshTables)

	if err != nil {
		return fmt.Errorf("advance order %s to %s: %w", order.ID, next, err)
	}
	return nil
}

// Snapshot returns the current dashboard state. Orders keep backend order.
func (m *Monitor) Snapshot() Snapshot {
	orders, loaded := m.orders.Get()
	stats, _ := m.stats.Get()
	tables, _ := m.tables.Get()
	return Snapshot{
		Orders: append([]models.Order(nil), orders...),
		Stats:  stats,
		Tables: append([]models.Table(nil), tables...),
		Loaded: loaded,
	}
}

func (m *Monitor) parallel(ctx context.Context, fns ...func(context.Context)) {
	var wg sync.WaitGroup
	for _, fn := range fns {
		wg.Add(1)
		go func(fn func(context.Context)) {
			defer wg.Done()
			fn(ctx)
		}(fn)
	}
	wg.Wait()
}

func (m *Monitor) refreshOrders(ctx context.Context) {
	seq := m.orders.Begin()
	orders, err := m.backend.ActiveOrders(ctx)
	m.applied("orders", err, err == nil && m.orders.Apply(seq, orders))
}

func (m *Monitor) refreshStats(ctx context.Context) {
	seq := m.stats.Begin()
	stats, err := m.backend.DashboardStats(ctx)
	m.applied("stats", err, err == nil && m.stats.Apply(seq, stats))
}

func (m *Monitor) refreshTables(ctx context.Context) {
	seq := m.tables.Begin()
	tables, err := m.backend.Tables(ctx)
	m.applied("tables", err, err == nil && m.tables.Apply(seq, tables))
}

func (m *Monitor) applied(slice string, err error, stored bool) {
	m.metrics.RecordRefresh(slice, err)
	switch {
	case errors.Is(err, context.Canceled):
		// view torn down mid-flight
	case err != nil:
		m.log.WithError(err).WithField("slice", slice).Error("failed to refresh dashboard")
	case stored:
		m.notify()
	default:
		m.metrics.RecordStale(slice)
		m.log.WithField("slice", slice).Debug("discarded stale response")
	}
}

func (m *Monitor) notify() {
	select {
	case m.changes <- struct{}{}:
	default:
	}
}
