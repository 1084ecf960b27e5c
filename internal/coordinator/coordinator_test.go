package coordinator

import (
	"context"
	"errors"
	"testing"

	"cafeteria/internal/models"
	"cafeteria/internal/push"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSeeder struct {
	calls int
	msg   string
	err   error
}

func (f *fakeSeeder) InitData(ctx context.Context) (string, error) {
	f.calls++
	return f.msg, f.err
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate() { c.n++ }

func TestInitialView(t *testing.T) {
	tests := []struct {
		width int
		want  View
	}{
		{width: 80, want: ViewWaiter},
		{width: 100, want: ViewWaiter},
		{width: 101, want: ViewManager},
		{width: 200, want: ViewManager},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, InitialView(tt.width, 100), "width %d", tt.width)
	}
}

func TestCoordinator_PushEventsInvalidate(t *testing.T) {
	inv := &countingInvalidator{}
	c := New(&fakeSeeder{}, inv, 160, 100)

	c.HandleEvent(push.Event{Type: push.EventNewOrder})
	c.HandleEvent(push.Event{Type: push.EventOrderStatusUpdate, OrderID: "o1", Status: "ready"})
	c.HandleEvent(push.Event{Type: push.EventOrderCancelled, OrderID: "o1"})
	c.HandleEvent(push.Event{Type: "unknown"})

	assert.Equal(t, uint64(2), c.UpdateToken())
	assert.Equal(t, 2, inv.n)
}

func TestCoordinator_OrderCreatedInvalidates(t *testing.T) {
	inv := &countingInvalidator{}
	c := New(&fakeSeeder{}, inv, 160, 100)

	c.OrderCreated(&models.Order{ID: "o1"})
	c.OrderCreated(nil)

	assert.Equal(t, uint64(2), c.UpdateToken())
	assert.Equal(t, 2, inv.n)
}

func TestCoordinator_Seed(t *testing.T) {
	seeder := &fakeSeeder{msg: "Default data initialized successfully"}
	c := New(seeder, nil, 160, 100)

	c.Seed(context.Background())
	assert.Equal(t, 1, seeder.calls)
}

func TestCoordinator_SeedFailureIsLogged(t *testing.T) {
	seeder := &fakeSeeder{err: errors.New("connection refused")}
	logger, hook := logtest.NewNullLogger()
	c := New(seeder, nil, 160, 100, WithLogger(logger))

	c.Seed(context.Background())

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "failed to initialize default data", hook.LastEntry().Message)
	assert.Equal(t, "coordinator", hook.LastEntry().Data["component"])
}

func TestCoordinator_Toggle(t *testing.T) {
	wide := New(&fakeSeeder{}, nil, 160, 100)
	assert.Equal(t, ViewManager, wide.View())
	assert.False(t, wide.Narrow())
	require.NoError(t, wide.Toggle(ViewWaiter))
	assert.Equal(t, ViewWaiter, wide.View())

	narrow := New(&fakeSeeder{}, nil, 80, 100)
	assert.Equal(t, ViewWaiter, narrow.View())
	assert.ErrorIs(t, narrow.Toggle(ViewManager), ErrToggleUnavailable)
	assert.Equal(t, ViewWaiter, narrow.View())
}

func TestCoordinator_Connected(t *testing.T) {
	c := New(&fakeSeeder{}, nil, 160, 100)
	assert.False(t, c.Connected())
	c.SetConnected(true)
	assert.True(t, c.Connected())
	c.SetConnected(false)
	assert.False(t, c.Connected())
}
