package tui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"cafeteria/internal/composer"
	"cafeteria/internal/coordinator"
	"cafeteria/internal/models"
	"cafeteria/internal/monitor"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend serves both views from memory.
type fakeBackend struct {
	mu      sync.Mutex
	menu    []models.MenuItem
	tables  []models.Table
	orders  []models.Order
	created []models.CreateOrderRequest
	updates []models.OrderStatus

	orderFetches int
	tableFetches int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		menu: []models.MenuItem{
			{ID: "m1", Name: "Cappuccino", Category: "Bebidas Quentes", Price: decimal.RequireFromString("5.00"), Available: true},
			{ID: "m2", Name: "Pudim", Category: "Sobremesas", Price: decimal.RequireFromString("5.00"), Available: true},
		},
		tables: []models.Table{
			{ID: "t1", Number: 1, Capacity: 4, Status: models.TableStatusAvailable},
			{ID: "t2", Number: 2, Capacity: 4, Status: models.TableStatusOccupied},
		},
		orders: []models.Order{
			{ID: "o1", TableNumber: 2, Status: models.OrderStatusPending, WaiterName: "Rui", TotalAmount: decimal.RequireFromString("5")},
		},
	}
}

func (f *fakeBackend) Menu(ctx context.Context) ([]models.MenuItem, error) {
	return f.menu, nil
}

func (f *fakeBackend) Categories(ctx context.Context) ([]models.Category, error) {
	return []models.Category{{Category: "Bebidas Quentes", Count: 1}, {Category: "Sobremesas", Count: 1}}, nil
}

func (f *fakeBackend) Tables(ctx context.Context) ([]models.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tableFetches++
	return append([]models.Table(nil), f.tables...), nil
}

func (f *fakeBackend) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	return &models.Order{ID: "new", TableNumber: req.TableNumber, Items: req.Items, Status: models.OrderStatusPending}, nil
}

func (f *fakeBackend) ActiveOrders(ctx context.Context) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orderFetches++
	return append([]models.Order(nil), f.orders...), nil
}

func (f *fakeBackend) DashboardStats(ctx context.Context) (models.DashboardStats, error) {
	return models.DashboardStats{
		Orders:       map[models.OrderStatus]int{models.OrderStatusPending: 1},
		TodayRevenue: decimal.RequireFromString("12.5"),
	}, nil
}

func (f *fakeBackend) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, status)
	return nil
}

func (f *fakeBackend) InitData(ctx context.Context) (string, error) {
	return "Data already initialized", nil
}

func (f *fakeBackend) fetches() (orders, tables int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orderFetches, f.tableFetches
}

func (f *fakeBackend) setTableStatus(number int, status models.TableStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tables {
		if f.tables[i].Number == number {
			f.tables[i].Status = status
		}
	}
}

func newTestModel(t *testing.T, width int) (Model, *fakeBackend) {
	t.Helper()
	backend := newFakeBackend()
	mon := monitor.New(backend, monitor.WithInterval(10*time.Millisecond))
	coord := coordinator.New(backend, mon, width, 100)
	comp := composer.New(backend, composer.OnOrderCreated(coord.OrderCreated))
	comp.Load(context.Background())
	m := New(context.Background(), comp, mon, coord)
	t.Cleanup(m.Close)
	return m, backend
}

func press(t *testing.T, m Model, msgs ...tea.KeyMsg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

// run executes cmd and feeds its message back into the model
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	return next.(Model)
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	ctrlN = tea.KeyMsg{Type: tea.KeyCtrlN}
	ctrlS = tea.KeyMsg{Type: tea.KeyCtrlS}
	tab   = tea.KeyMsg{Type: tea.KeyTab}
	down  = tea.KeyMsg{Type: tea.KeyDown}
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_WaiterSubmitsOrder(t *testing.T) {
	m, backend := newTestModel(t, 80)
	require.Equal(t, coordinator.ViewWaiter, m.coord.View())

	// table 1, then two cappuccinos from the menu
	m = press(t, m, enter, ctrlN, ctrlN, enter, runes("+"))
	assert.Equal(t, "10.00", m.composer.Total().StringFixed(2))

	// cart, name
	m = press(t, m, ctrlN, ctrlN)
	require.Equal(t, focusName, m.focus)
	m = press(t, m, runes("A"), runes("n"), runes("a"))
	assert.Equal(t, "Ana", m.composer.State().StaffName)

	next, cmd := m.Update(ctrlS)
	m = run(t, next.(Model), cmd)

	assert.Equal(t, composer.MsgSubmitted, m.flash)
	assert.False(t, m.flashErr)
	require.Len(t, backend.created, 1)
	assert.Equal(t, 1, backend.created[0].TableNumber)
	assert.Equal(t, "Ana", backend.created[0].WaiterName)
	require.Len(t, backend.created[0].Items, 1)
	assert.Equal(t, 2, backend.created[0].Items[0].Quantity)
	assert.Equal(t, uint64(1), m.coord.UpdateToken())
	assert.Empty(t, m.composer.State().Cart)
}

func TestModel_SubmitValidationMessage(t *testing.T) {
	m, backend := newTestModel(t, 80)

	next, cmd := m.Update(ctrlS)
	m = run(t, next.(Model), cmd)

	assert.True(t, m.flashErr)
	assert.Contains(t, m.flash, composer.MsgIncompleteForm)
	assert.Empty(t, backend.created)
	assert.Contains(t, m.View(), composer.MsgIncompleteForm)
}

func TestModel_CategoryFilter(t *testing.T) {
	m, _ := newTestModel(t, 80)

	m = press(t, m, ctrlN, tea.KeyMsg{Type: tea.KeyRight}, tea.KeyMsg{Type: tea.KeyRight})
	st := m.composer.State()
	assert.Equal(t, "Sobremesas", st.Category)
	require.Len(t, st.Menu, 1)
	assert.Equal(t, "Pudim", st.Menu[0].Name)
}

func TestModel_ToggleOnlyOnWideTerminals(t *testing.T) {
	narrow, _ := newTestModel(t, 80)
	narrow = press(t, narrow, tab)
	assert.Equal(t, coordinator.ViewWaiter, narrow.coord.View())
	assert.NotContains(t, narrow.View(), "Gerente")

	wide, _ := newTestModel(t, 160)
	assert.Equal(t, coordinator.ViewManager, wide.coord.View())
	wide = press(t, wide, tab)
	assert.Equal(t, coordinator.ViewWaiter, wide.coord.View())
	wide = press(t, wide, tab)
	assert.Equal(t, coordinator.ViewManager, wide.coord.View())
}

func TestModel_ManagerAdvancesSelectedOrder(t *testing.T) {
	m, backend := newTestModel(t, 160)
	m.monitor.Refresh(context.Background())
	next, _ := m.Update(ChangedMsg{})
	m = next.(Model)

	view := m.View()
	assert.Contains(t, view, "Mesa 2")
	assert.Contains(t, view, "Iniciar Preparo")
	assert.Contains(t, view, "R$ 12.50")

	next, cmd := m.Update(runes("a"))
	m = next.(Model)
	assert.True(t, m.advancing)

	// a second press while in flight is ignored
	_, again := m.Update(runes("a"))
	assert.Nil(t, again)

	m = run(t, m, cmd)
	assert.False(t, m.advancing)
	assert.Equal(t, []models.OrderStatus{models.OrderStatusPreparing}, backend.updates)
}

func TestModel_ManagerEmptyAndIndicator(t *testing.T) {
	m, backend := newTestModel(t, 160)
	backend.orders = nil
	m.monitor.Refresh(context.Background())

	view := m.View()
	assert.Contains(t, view, "Nenhum pedido ativo no momento")
	assert.Contains(t, view, "Desconectado")

	m.coord.SetConnected(true)
	next, _ := m.Update(ConnectionMsg{Connected: true})
	view = next.(Model).View()
	assert.True(t, strings.Contains(view, "Conectado") && !strings.Contains(view, "Desconectado"))

	m = press(t, next.(Model), down, down)
	assert.Zero(t, m.orderCursor)
}

func TestModel_WaiterViewDoesNotPoll(t *testing.T) {
	m, backend := newTestModel(t, 80)
	_, tablesBefore := backend.fetches()

	msg := m.start()()
	require.Equal(t, activateMsg{view: coordinator.ViewWaiter}, msg)
	next, cmd := m.Update(msg)
	m = run(t, next.(Model), cmd)

	_, tables := backend.fetches()
	assert.Equal(t, tablesBefore+1, tables)

	// a locally created order invalidates the dashboard but fetches nothing
	m.coord.OrderCreated(nil)
	time.Sleep(50 * time.Millisecond)
	orders, tablesAfter := backend.fetches()
	assert.Zero(t, orders)
	assert.Equal(t, tables, tablesAfter)
}

func TestModel_PollingFollowsActiveView(t *testing.T) {
	m, backend := newTestModel(t, 160)

	next, cmd := m.Update(activateMsg{view: coordinator.ViewManager})
	m = next.(Model)
	assert.Nil(t, cmd)
	require.Eventually(t, func() bool {
		orders, _ := backend.fetches()
		return orders >= 2 && m.monitor.Snapshot().Loaded
	}, time.Second, 5*time.Millisecond)

	// table 2 frees up while the manager is showing
	backend.setTableStatus(2, models.TableStatusAvailable)

	next, cmd = m.Update(tab)
	m = next.(Model)
	require.Equal(t, coordinator.ViewWaiter, m.coord.View())
	polled, _ := backend.fetches()
	m = run(t, m, cmd)

	var numbers []int
	for _, table := range m.composer.State().Tables {
		numbers = append(numbers, table.Number)
	}
	assert.Equal(t, []int{1, 2}, numbers)

	time.Sleep(50 * time.Millisecond)
	orders, _ := backend.fetches()
	assert.Equal(t, polled, orders, "no polling while the waiter view is showing")

	next, cmd = m.Update(tab)
	m = next.(Model)
	require.Equal(t, coordinator.ViewManager, m.coord.View())
	assert.Nil(t, cmd)
	require.Eventually(t, func() bool {
		orders, _ := backend.fetches()
		return orders > polled
	}, time.Second, 5*time.Millisecond)

	m.Close()
	stopped, _ := backend.fetches()
	time.Sleep(50 * time.Millisecond)
	orders, _ = backend.fetches()
	assert.Equal(t, stopped, orders)
}

func TestWatchMonitor(t *testing.T) {
	backend := newFakeBackend()
	mon := monitor.New(backend)
	ctx, cancel := context.WithCancel(context.Background())

	msgs := make(chan tea.Msg, 4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		WatchMonitor(ctx, mon, func(msg tea.Msg) { msgs <- msg })
	}()

	mon.Invalidate()
	select {
	case msg := <-msgs:
		assert.IsType(t, ChangedMsg{}, msg)
	case <-time.After(time.Second):
		t.Fatal("no change forwarded")
	}

	cancel()
	<-done
}
