package composer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"cafeteria/internal/fetch"
	"cafeteria/internal/logging"
	"cafeteria/internal/models"
	"cafeteria/internal/monitoring"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Validation and state errors returned by Submit and SelectTable
var (
	ErrNoTable           = errors.New("no table selected")
	ErrNoStaffName       = errors.New("staff name is empty")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrSubmitInProgress  = errors.New("an order is already being submitted")
	ErrTableUnavailable  = errors.New("table is not available")
	ErrUnknownMenuItemID = errors.New("unknown menu item")
)

// Backend is the part of the API the composer talks to
type Backend interface {
	Menu(ctx context.Context) ([]models.MenuItem, error)
	Categories(ctx context.Context) ([]models.Category, error)
	Tables(ctx context.Context) ([]models.Table, error)
	CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error)
}

// State is a read-only copy of everything the waiter view renders
type State struct {
	Menu            []models.MenuItem
	Categories      []models.Category
	Category        string
	Tables          []models.Table
	SelectedTable   *models.Table
	Cart            []CartLine
	Total           decimal.Decimal
	StaffName       string
	SpecialRequests string
	Submitting      bool
}

// Composer builds and submits orders for a table.
type Composer struct {
	backend   Backend
	log       logrus.FieldLogger
	metrics   *monitoring.Monitor
	onCreated func(*models.Order)

	menu       fetch.Slot[[]models.MenuItem]
	tables     fetch.Slot[[]models.Table]
	categories fetch.Slot[[]models.Category]

	mu              sync.Mutex
	cart            Cart
	table           *models.Table
	staffName       string
	specialRequests string
	category        string
	submitting      bool
}

// Option configures a Composer
type Option func(*Composer)

// WithLogger sets the logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Composer) { c.log = logging.Component(l, "composer") }
}

// WithMetrics records refresh outcomes in m
func WithMetrics(m *monitoring.Monitor) Option {
	return func(c *Composer) { c.metrics = m }
}

// OnOrderCreated registers the callback fired after a successful submit
func OnOrderCreated(fn func(*models.Order)) Option {
	return func(c *Composer) { c.onCreated = fn }
}

// New creates a composer backed by b
func New(b Backend, opts ...Option) *Composer {
	c := &Composer{
		backend:  b,
		log:      logging.Component(nil, "composer"),
		category: models.CategoryAll,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load fetches menu, tables and categories concurrently. The fetches are
// independent: a failure is logged and leaves that slice as it was.
func (c *Composer) Load(ctx context.Context) {
	var wg sync.WaitGroup
	for _, refresh := range []func(context.Context){c.refreshMenu, c.RefreshTables, c.refreshCategories} {
		wg.Add(1)
		go func(refresh func(context.Context)) {
			defer wg.Done()
			refresh(ctx)
		}(refresh)
	}
	wg.Wait()
}

func (c *Composer) refreshMenu(ctx context.Context) {
	seq := c.menu.Begin()
	items, err := c.backend.Menu(ctx)
	c.applied("menu", err, err == nil && c.menu.Apply(seq, items))
}

// RefreshTables refetches the table list
func (c *Composer) RefreshTables(ctx context.Context) {
	seq := c.tables.Begin()
	tables, err := c.backend.Tables(ctx)
	c.applied("tables", err, err == nil && c.tables.Apply(seq, tables))
}

func (c *Composer) refreshCategories(ctx context.Context) {
	seq := c.categories.Begin()
	categories, err := c.backend.Categories(ctx)
	if err == nil {
		categories = append([]models.Category{{Category: models.CategoryAll}}, categories...)
	}
	c.applied("categories", err, err == nil && c.categories.Apply(seq, categories))
}

func (c *Composer) applied(slice string, err error, stored bool) {
	c.metrics.RecordRefresh(slice, err)
	switch {
	case err != nil:
		c.log.WithError(err).WithField("slice", slice).Error("failed to fetch reference data")
	case !stored:
		c.metrics.RecordStale(slice)
		c.log.WithField("slice", slice).Debug("discarded stale response")
	}
}

// SetCategory sets the menu filter; models.CategoryAll shows everything
func (c *Composer) SetCategory(category string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.category = category
}

// FilteredMenu returns the menu items passing the current category filter
func (c *Composer) FilteredMenu() []models.MenuItem {
	c.mu.Lock()
	category := c.category
	c.mu.Unlock()
	return c.filter(category)
}

func (c *Composer) filter(category string) []models.MenuItem {
	menu, _ := c.menu.Get()
	var out []models.MenuItem
	for _, item := range menu {
		if item.InCategory(category) {
			out = append(out, item)
		}
	}
	return out
}

// Categories returns the category list, led by the synthetic "all" entry
func (c *Composer) Categories() []models.Category {
	categories, _ := c.categories.Get()
	return append([]models.Category(nil), categories...)
}

// AvailableTables returns only the tables that can take a new order
func (c *Composer) AvailableTables() []models.Table {
	tables, _ := c.tables.Get()
	var out []models.Table
	for _, t := range tables {
		if t.Available() {
			out = append(out, t)
		}
	}
	return out
}

// SelectTable picks the available table with the given number
func (c *Composer) SelectTable(number int) error {
	for _, t := range c.AvailableTables() {
		if t.Number == number {
			c.mu.Lock()
			selected := t
			c.table = &selected
			c.mu.Unlock()
			return nil
		}
	}
	return fmt.Errorf("table %d: %w", number, ErrTableUnavailable)
}

// SetStaffName sets the name sent with the order
func (c *Composer) SetStaffName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.staffName = name
}

// SetSpecialRequests sets the free-text note sent with the order
func (c *Composer) SetSpecialRequests(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.specialRequests = text
}

// AddItem adds one unit of item to the cart
func (c *Composer) AddItem(item models.MenuItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cart.Add(item)
}

// AddItemByID adds one unit of the menu item with the given id
func (c *Composer) AddItemByID(id string) error {
	menu, _ := c.menu.Get()
	for _, item := range menu {
		if item.ID == id {
			c.AddItem(item)
			return nil
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	// items already in the cart can be incremented from their snapshot
	for _, l := range c.cart.Lines() {
		if l.MenuItemID == id {
			c.cart.Add(models.MenuItem{ID: l.MenuItemID, Name: l.Name, Price: l.Price})
			return nil
		}
	}
	return fmt.Errorf("%s: %w", id, ErrUnknownMenuItemID)
}

// RemoveItem removes one unit of the menu item id from the cart
func (c *Composer) RemoveItem(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cart.Remove(id)
}

// Total is the current cart total
func (c *Composer) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cart.Total()
}

// Submitting reports whether a submit is in flight
func (c *Composer) Submitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

// State returns a copy of the composer state for rendering
func (c *Composer) State() State {
	c.mu.Lock()
	st := State{
		Category:        c.category,
		Cart:            c.cart.Lines(),
		Total:           c.cart.Total(),
		StaffName:       c.staffName,
		SpecialRequests: c.specialRequests,
		Submitting:      c.submitting,
	}
	if c.table != nil {
		selected := *c.table
		st.SelectedTable = &selected
	}
	c.mu.Unlock()

	st.Menu = c.filter(st.Category)
	st.Categories = c.Categories()
	st.Tables = c.AvailableTables()
	return st
}

// Submit sends the composed order. Without a table, a staff name and at
// least one cart line it fails fast with no network call. On success the
// cart, table and special request are cleared, the created callback fires
// and tables are refetched. On failure the form is left untouched.
func (c *Composer) Submit(ctx context.Context) (*models.Order, error) {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	if err := c.validate(); err != nil {
		c.mu.Unlock()
		return nil, err
	}

	req := models.CreateOrderRequest{
		TableNumber: c.table.Number,
		Items:       c.cart.OrderItems(),
		WaiterName:  c.staffName,
	}
	if c.specialRequests != "" {
		note := c.specialRequests
		req.SpecialRequests = &note
	}
	c.submitting = true
	c.mu.Unlock()

	order, err := c.backend.CreateOrder(ctx, req)

	c.mu.Lock()
	c.submitting = false
	if err != nil {
		c.mu.Unlock()
		c.log.WithError(err).WithField("table", req.TableNumber).Error("failed to create order")
		return nil, fmt.Errorf("submit order: %w", err)
	}
	c.cart.Clear()
	c.table = nil
	c.specialRequests = ""
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{
		"table": req.TableNumber,
		"lines": len(req.Items),
	}).Info("order submitted")

	if c.onCreated != nil {
		c.onCreated(order)
	}
	c.RefreshTables(ctx)
	return order, nil
}

// validate must be called with mu held
func (c *Composer) validate() error {
	if c.table == nil {
		return ErrNoTable
	}
	if strings.TrimSpace(c.staffName) == "" {
		return ErrNoStaffName
	}
	if c.cart.Len() == 0 {
		return ErrEmptyCart
	}
	return nil
}
