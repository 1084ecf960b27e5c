package devserver

import (
	"testing"
	"time"

	"cafeteria/internal/database"
	"cafeteria/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := NewStore(db)
	require.NoError(t, err)
	return store
}

func seededStore(t *testing.T) *Store {
	t.Helper()
	store := newTestStore(t)
	msg, err := store.Seed()
	require.NoError(t, err)
	require.Equal(t, SeedDone, msg)
	return store
}

func menuItem(t *testing.T, store *Store, name string) models.MenuItem {
	t.Helper()
	menu, err := store.Menu()
	require.NoError(t, err)
	for _, item := range menu {
		if item.Name == name {
			return item
		}
	}
	t.Fatalf("menu item %q not found", name)
	return models.MenuItem{}
}

func lineFor(item models.MenuItem, qty int) models.OrderItem {
	return models.OrderItem{
		MenuItemID:   item.ID,
		MenuItemName: item.Name,
		Quantity:     qty,
		Price:        item.Price,
	}
}

func tableByNumber(t *testing.T, store *Store, number int) models.Table {
	t.Helper()
	tables, err := store.Tables()
	require.NoError(t, err)
	for _, table := range tables {
		if table.Number == number {
			return table
		}
	}
	t.Fatalf("table %d not found", number)
	return models.Table{}
}

func TestStore_Seed(t *testing.T) {
	store := seededStore(t)

	menu, err := store.Menu()
	require.NoError(t, err)
	assert.Len(t, menu, 12)
	assert.True(t, menuItem(t, store, "Café Expresso").Price.Equal(decimal.RequireFromString("3.50")))

	tables, err := store.Tables()
	require.NoError(t, err)
	require.Len(t, tables, DefaultTableCount)
	for i, table := range tables {
		assert.Equal(t, i+1, table.Number)
		assert.Equal(t, DefaultTableCapacity, table.Capacity)
		assert.Equal(t, models.TableStatusAvailable, table.Status)
	}

	categories, err := store.Categories()
	require.NoError(t, err)
	assert.Equal(t, []models.Category{
		{Category: "Bebidas Frias", Count: 2},
		{Category: "Bebidas Quentes", Count: 4},
		{Category: "Lanches", Count: 3},
		{Category: "Sobremesas", Count: 3},
	}, categories)

	msg, err := store.Seed()
	require.NoError(t, err)
	assert.Equal(t, SeedAlreadyDone, msg)
	menu, err = store.Menu()
	require.NoError(t, err)
	assert.Len(t, menu, 12)
}

func TestStore_SeedKeepsExistingTables(t *testing.T) {
	store := newTestStore(t)
	_, err := store.CreateTable(1, 6)
	require.NoError(t, err)

	msg, err := store.Seed()
	require.NoError(t, err)
	assert.Equal(t, SeedDone, msg)

	tables, err := store.Tables()
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, 6, tables[0].Capacity)
}

func TestStore_OrderLifecycle(t *testing.T) {
	store := seededStore(t)
	cappuccino := menuItem(t, store, "Cappuccino")
	pudim := menuItem(t, store, "Pudim")

	order, err := store.CreateOrder(models.CreateOrderRequest{
		TableNumber: 3,
		Items:       []models.OrderItem{lineFor(cappuccino, 2), lineFor(pudim, 1)},
		WaiterName:  "Ana",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("15.00")), order.TotalAmount.String())
	assert.Nil(t, order.SpecialRequests)
	assert.Equal(t, models.TableStatusOccupied, tableByNumber(t, store, 3).Status)

	active, err := store.ActiveOrders()
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, order.ID, active[0].ID)
	require.Len(t, active[0].Items, 2)
	assert.Equal(t, 2, active[0].Items[0].Quantity)

	for _, status := range []models.OrderStatus{models.OrderStatusPreparing, models.OrderStatusReady} {
		updated, err := store.UpdateOrderStatus(order.ID, status)
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)
		assert.Equal(t, models.TableStatusOccupied, tableByNumber(t, store, 3).Status)
	}

	_, err = store.UpdateOrderStatus(order.ID, models.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusAvailable, tableByNumber(t, store, 3).Status)

	active, err = store.ActiveOrders()
	require.NoError(t, err)
	assert.Empty(t, active)

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.OrderCount(models.OrderStatusDelivered))
	assert.Equal(t, DefaultTableCount, stats.Tables[models.TableStatusAvailable])
	assert.True(t, stats.TodayRevenue.Equal(decimal.RequireFromString("15")), stats.TodayRevenue.String())
	assert.NotEmpty(t, stats.Timestamp)
}

func TestStore_CancelOrder(t *testing.T) {
	store := seededStore(t)
	latte := menuItem(t, store, "Latte")
	note := "sem açúcar"

	order, err := store.CreateOrder(models.CreateOrderRequest{
		TableNumber:     7,
		Items:           []models.OrderItem{lineFor(latte, 1)},
		WaiterName:      "Rui",
		SpecialRequests: &note,
	})
	require.NoError(t, err)
	require.NotNil(t, order.SpecialRequests)
	assert.Equal(t, note, *order.SpecialRequests)

	cancelled, err := store.CancelOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, models.TableStatusAvailable, tableByNumber(t, store, 7).Status)

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.OrderCount(models.OrderStatusCancelled))
	assert.True(t, stats.TodayRevenue.IsZero())
}

func TestStore_NotFound(t *testing.T) {
	store := seededStore(t)

	_, err := store.UpdateOrderStatus("missing", models.OrderStatusReady)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.CancelOrder("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.SetTableStatus("missing", models.TableStatusReserved), ErrNotFound)
}

func TestStore_DuplicateTable(t *testing.T) {
	store := seededStore(t)
	_, err := store.CreateTable(5, 2)
	assert.ErrorIs(t, err, ErrDuplicateTable)

	table, err := store.CreateTable(11, 2)
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusAvailable, table.Status)
}

func TestStore_ActiveOrdersOldestFirst(t *testing.T) {
	store := seededStore(t)
	mocha := menuItem(t, store, "Mocha")

	base := time.Now().UTC().Add(-time.Hour)
	var ids []string
	for i, table := range []int{2, 1, 3} {
		at := base.Add(time.Duration(i) * time.Minute)
		store.now = func() time.Time { return at }
		order, err := store.CreateOrder(models.CreateOrderRequest{
			TableNumber: table,
			Items:       []models.OrderItem{lineFor(mocha, 1)},
			WaiterName:  "Ana",
		})
		require.NoError(t, err)
		ids = append(ids, order.ID)
	}

	active, err := store.ActiveOrders()
	require.NoError(t, err)
	require.Len(t, active, 3)
	for i := range ids {
		assert.Equal(t, ids[i], active[i].ID)
	}

	all, err := store.Orders()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID)
}

func TestStore_CreateMenuItemValidates(t *testing.T) {
	store := newTestStore(t)
	_, err := store.CreateMenuItem(models.MenuItem{Category: "Lanches", Price: decimal.NewFromInt(3)})
	assert.Error(t, err)

	item, err := store.CreateMenuItem(models.MenuItem{Name: "Tapioca", Category: "Lanches", Price: decimal.RequireFromString("6.5")})
	require.NoError(t, err)
	assert.True(t, item.Available)
	assert.NotEmpty(t, item.ID)
}
