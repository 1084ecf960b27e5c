// Package coordinator owns the application-level state shared by the
// waiter and manager views: which view is showing, whether the push channel
// is connected, and when the manager's data must be discarded and refetched.
package coordinator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"cafeteria/internal/logging"
	"cafeteria/internal/models"
	"cafeteria/internal/push"

	"github.com/sirupsen/logrus"
)

// View identifies the active screen
type View string

const (
	ViewWaiter  View = "waiter"
	ViewManager View = "manager"
)

// ErrToggleUnavailable is returned when switching views on a narrow terminal
var ErrToggleUnavailable = errors.New("view toggle unavailable on narrow terminals")

// InitialView picks the starting view from the terminal width
func InitialView(width, narrowWidth int) View {
	if width <= narrowWidth {
		return ViewWaiter
	}
	return ViewManager
}

// Seeder requests the one-time default data initialization
type Seeder interface {
	InitData(ctx context.Context) (string, error)
}

// Invalidator discards and refetches dashboard state
type Invalidator interface {
	Invalidate()
}

// Coordinator ties the push channel, the composer and the monitor together
type Coordinator struct {
	seeder      Seeder
	invalidator Invalidator
	log         logrus.FieldLogger

	narrow    bool
	connected atomic.Bool
	token     atomic.Uint64

	mu   sync.Mutex
	view View
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithLogger sets the logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Coordinator) { c.log = logging.Component(l, "coordinator") }
}

// New creates a coordinator for a terminal of the given width. The view is
// chosen once here and never recomputed on resize.
func New(seeder Seeder, invalidator Invalidator, width, narrowWidth int, opts ...Option) *Coordinator {
	c := &Coordinator{
		seeder:      seeder,
		invalidator: invalidator,
		log:         logging.Component(nil, "coordinator"),
		view:        InitialView(width, narrowWidth),
	}
	c.narrow = c.view == ViewWaiter
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Seed asks the backend to initialize default data. Failures are logged
// and otherwise ignored.
func (c *Coordinator) Seed(ctx context.Context) {
	msg, err := c.seeder.InitData(ctx)
	if err != nil {
		c.log.WithError(err).Error("failed to initialize default data")
		return
	}
	c.log.WithField("result", msg).Info("default data initialization")
}

// HandleEvent is the push channel handler
func (c *Coordinator) HandleEvent(ev push.Event) {
	if !ev.Invalidates() {
		c.log.WithField("type", ev.Type).Debug("ignoring push event")
		return
	}
	c.log.WithFields(logrus.Fields{
		"type":  ev.Type,
		"order": ev.OrderID,
	}).Debug("push event")
	c.bump()
}

// OrderCreated is called after the composer submitted an order
func (c *Coordinator) OrderCreated(order *models.Order) {
	if order != nil {
		c.log.WithField("order", order.ID).Debug("order created locally")
	}
	c.bump()
}

func (c *Coordinator) bump() {
	c.token.Add(1)
	if c.invalidator != nil {
		c.invalidator.Invalidate()
	}
}

// UpdateToken counts the events that invalidated the manager's data
func (c *Coordinator) UpdateToken() uint64 {
	return c.token.Load()
}

// SetConnected records the push channel state
func (c *Coordinator) SetConnected(connected bool) {
	c.connected.Store(connected)
}

// Connected reports whether the push channel is connected
func (c *Coordinator) Connected() bool {
	return c.connected.Load()
}

// Narrow reports whether the terminal was narrow at startup
func (c *Coordinator) Narrow() bool {
	return c.narrow
}

// View returns the active view
func (c *Coordinator) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Toggle switches to v. Narrow terminals are pinned to the waiter view.
func (c *Coordinator) Toggle(v View) error {
	if c.narrow {
		return ErrToggleUnavailable
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = v
	return nil
}
