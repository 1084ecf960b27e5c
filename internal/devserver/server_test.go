package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"cafeteria/internal/api"
	"cafeteria/internal/models"
	"cafeteria/internal/push"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testBackend struct {
	server  *Server
	http    *httptest.Server
	client  *api.Client
	pushURL string
}

func newTestBackend(t *testing.T) *testBackend {
	t.Helper()
	gin.SetMode(gin.TestMode)

	server := NewServer(newTestStore(t))
	ts := httptest.NewServer(server.Router())
	t.Cleanup(func() {
		server.Close()
		ts.Close()
	})

	client, err := api.NewClient(ts.URL, api.WithTimeout(5*time.Second))
	require.NoError(t, err)
	_, pushURL, err := api.Endpoints(ts.URL)
	require.NoError(t, err)

	return &testBackend{server: server, http: ts, client: client, pushURL: pushURL}
}

type eventLog struct {
	mu     sync.Mutex
	events []push.Event
}

func (l *eventLog) handle(ev push.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) find(typ push.EventType) (push.Event, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, ev := range l.events {
		if ev.Type == typ {
			return ev, true
		}
	}
	return push.Event{}, false
}

func TestServer_Health(t *testing.T) {
	gin.SetMode(gin.TestMode)
	server := NewServer(newTestStore(t))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestServer_InitDataIsIdempotent(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	msg, err := b.client.InitData(ctx)
	require.NoError(t, err)
	assert.Equal(t, SeedDone, msg)

	msg, err = b.client.InitData(ctx)
	require.NoError(t, err)
	assert.Equal(t, SeedAlreadyDone, msg)

	menu, err := b.client.Menu(ctx)
	require.NoError(t, err)
	assert.Len(t, menu, 12)

	categories, err := b.client.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 4)
}

func TestServer_OrderFlowOverREST(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	_, err := b.client.InitData(ctx)
	require.NoError(t, err)

	menu, err := b.client.Menu(ctx)
	require.NoError(t, err)
	item := menu[0]

	order, err := b.client.CreateOrder(ctx, models.CreateOrderRequest{
		TableNumber: 2,
		Items: []models.OrderItem{{
			MenuItemID:   item.ID,
			MenuItemName: item.Name,
			Quantity:     3,
			Price:        item.Price,
		}},
		WaiterName: "Ana",
	})
	require.NoError(t, err)
	assert.True(t, order.TotalAmount.Equal(item.Price.Mul(decimal.NewFromInt(3))))
	assert.False(t, order.CreatedAt.IsZero())

	active, err := b.client.ActiveOrders(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, order.ID, active[0].ID)

	require.NoError(t, b.client.UpdateOrderStatus(ctx, order.ID, models.OrderStatusPreparing))

	stats, err := b.client.DashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.OrderCount(models.OrderStatusPreparing))
	assert.Equal(t, 1, stats.Tables[models.TableStatusOccupied])
}

func TestServer_Errors(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	err := b.client.UpdateOrderStatus(ctx, "missing", models.OrderStatusReady)
	var statusErr *api.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)

	err = b.client.UpdateOrderStatus(ctx, "missing", models.OrderStatus("burnt"))
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnprocessableEntity, statusErr.StatusCode)

	_, err = b.client.CreateOrder(ctx, models.CreateOrderRequest{TableNumber: 1, WaiterName: "Ana"})
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnprocessableEntity, statusErr.StatusCode)
}

func TestServer_EchoesInboundText(t *testing.T) {
	b := newTestBackend(t)

	conn, _, err := websocket.DefaultDialer.Dial(b.pushURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hello")))
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "Message received: hello", string(msg))
}

func TestServer_BroadcastsOrderEvents(t *testing.T) {
	b := newTestBackend(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := b.client.InitData(ctx)
	require.NoError(t, err)

	events := &eventLog{}
	ch := push.New(b.pushURL, events.handle, push.WithBackoff(push.FixedBackoff(10*time.Millisecond)))
	go ch.Run(ctx)
	require.Eventually(t, func() bool {
		return ch.IsConnected() && b.server.Hub().Clients() == 1
	}, 2*time.Second, 10*time.Millisecond)

	menu, err := b.client.Menu(ctx)
	require.NoError(t, err)
	order, err := b.client.CreateOrder(ctx, models.CreateOrderRequest{
		TableNumber: 6,
		Items:       []models.OrderItem{{MenuItemID: menu[1].ID, MenuItemName: menu[1].Name, Quantity: 1, Price: menu[1].Price}},
		WaiterName:  "Rui",
	})
	require.NoError(t, err)

	var created push.Event
	require.Eventually(t, func() bool {
		var ok bool
		created, ok = events.find(push.EventNewOrder)
		return ok
	}, 2*time.Second, 10*time.Millisecond)
	decoded, err := created.DecodeOrder()
	require.NoError(t, err)
	assert.Equal(t, order.ID, decoded.ID)
	assert.Equal(t, 6, decoded.TableNumber)

	require.NoError(t, b.client.UpdateOrderStatus(ctx, order.ID, models.OrderStatusReady))
	var updated push.Event
	require.Eventually(t, func() bool {
		var ok bool
		updated, ok = events.find(push.EventOrderStatusUpdate)
		return ok
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, order.ID, updated.OrderID)
	assert.Equal(t, models.OrderStatusReady, updated.Status)
	assert.Equal(t, 6, updated.TableNumber)

	req, err := http.NewRequest(http.MethodDelete, b.http.URL+"/api/orders/"+order.ID, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.Eventually(t, func() bool {
		ev, ok := events.find(push.EventOrderCancelled)
		return ok && !ev.Invalidates() && ev.OrderID == order.ID
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, ch.Close())
}
