package push

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"cafeteria/internal/logging"
	"cafeteria/internal/monitoring"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const writeWait = 10 * time.Second

var (
	// ErrRetriesExhausted is returned by Run when the retry ceiling is hit.
	ErrRetriesExhausted = errors.New("push: reconnect attempts exhausted")
	// ErrClosed is returned by Run on a channel that was already closed.
	ErrClosed = errors.New("push: channel closed")
)

// Handler receives every decoded push event
type Handler func(Event)

// Channel keeps a WebSocket connection to the backend push endpoint open,
// reconnecting after every disconnect. A single goroutine (Run) owns the
// connection, so at most one reconnect is ever pending.
type Channel struct {
	url         string
	handler     Handler
	dialer      *websocket.Dialer
	backoff     Backoff
	readTimeout time.Duration
	onStatus    func(bool)
	rnd         func() float64
	log         logrus.FieldLogger
	metrics     *monitoring.Monitor

	connected atomic.Bool

	mu     sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc
	closed bool
}

// Option configures a Channel
type Option func(*Channel)

// WithBackoff sets the reconnect policy
func WithBackoff(b Backoff) Option {
	return func(c *Channel) { c.backoff = b }
}

// WithReadTimeout drops the connection when nothing, not even a ping,
// arrives for d. Zero disables the deadline.
func WithReadTimeout(d time.Duration) Option {
	return func(c *Channel) { c.readTimeout = d }
}

// WithStatusHook is called on every connected/disconnected transition
func WithStatusHook(fn func(connected bool)) Option {
	return func(c *Channel) { c.onStatus = fn }
}

// WithDialer replaces the websocket dialer
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Channel) { c.dialer = d }
}

// WithLogger sets the logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Channel) { c.log = logging.Component(l, "push") }
}

// WithMetrics records connection state and traffic in m
func WithMetrics(m *monitoring.Monitor) Option {
	return func(c *Channel) { c.metrics = m }
}

// New creates a channel for the push endpoint at url
func New(url string, handler Handler, opts ...Option) *Channel {
	c := &Channel{
		url:     url,
		handler: handler,
		dialer:  websocket.DefaultDialer,
		backoff: DefaultBackoff(),
		rnd:     rand.Float64,
		log:     logging.Component(nil, "push"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsConnected reports whether the channel currently holds a live connection
func (c *Channel) IsConnected() bool {
	return c.connected.Load()
}

// Run connects and keeps reconnecting until ctx is done, Close is called, or
// the retry ceiling is reached. Teardown returns nil.
func (c *Channel) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.cancel = cancel
	c.mu.Unlock()

	attempt := 0
	for {
		established := c.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if established {
			attempt = 0
		}

		attempt++
		if c.backoff.Exhausted(attempt) {
			c.log.WithField("attempts", attempt-1).Error("giving up on push channel")
			return ErrRetriesExhausted
		}

		delay := c.backoff.Delay(attempt, c.rnd)
		c.log.WithFields(logrus.Fields{
			"attempt": attempt,
			"delay":   delay.String(),
		}).Info("push channel disconnected, reconnecting")
		c.metrics.RecordReconnect()

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// Close tears the channel down: the live connection is closed and any
// pending reconnect is abandoned.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.cancel != nil {
		c.cancel()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// session dials once and reads until the connection drops. It reports
// whether the connection was established.
func (c *Channel) session(ctx context.Context) bool {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		if ctx.Err() == nil {
			c.log.WithError(err).Warn("push channel dial failed")
		}
		return false
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	defer func() {
		close(done)
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		conn.Close()
		c.setConnected(false)
	}()

	c.setConnected(true)
	c.log.WithField("url", c.url).Info("push channel connected")

	if c.readTimeout > 0 {
		conn.SetReadDeadline(time.Now().Add(c.readTimeout))
		conn.SetPingHandler(func(appData string) error {
			conn.SetReadDeadline(time.Now().Add(c.readTimeout))
			err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
			if errors.Is(err, websocket.ErrCloseSent) {
				return nil
			}
			return err
		})
	}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					c.log.WithError(err).Warn("push channel error")
				} else {
					c.log.WithError(err).Info("push channel closed")
				}
			}
			return true
		}
		if c.readTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(c.readTimeout))
		}
		c.dispatch(message)
	}
}

func (c *Channel) dispatch(message []byte) {
	ev, err := Decode(message)
	if err != nil {
		c.metrics.RecordDecodeError()
		c.log.WithField("payload", string(message)).Info("received non-event push payload")
		return
	}
	c.metrics.RecordPushMessage(string(ev.Type))
	if c.handler != nil {
		c.handler(ev)
	}
}

func (c *Channel) setConnected(v bool) {
	if c.connected.Swap(v) == v {
		return
	}
	c.metrics.SetPushConnected(v)
	if c.onStatus != nil {
		c.onStatus(v)
	}
}
