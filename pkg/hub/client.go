package hub

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/composables/internal/errors"
	"github.com/vango-dev/composables/pkg/storage"
)

// ClientOptions configures Dial.
type ClientOptions struct {
	// URL of the server's websocket endpoint, e.g. "ws://localhost:7300/ws".
	URL string

	// Window is kept in sync with the hub.
	Window *storage.Window

	// ID identifies this window in message origins. Default: a random UUID.
	ID string

	// Dispatch runs fn, which applies a remote change to Window. Hosts with
	// a UI loop marshal fn onto it. Default: call fn directly on the
	// client's read goroutine.
	Dispatch func(fn func())

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Dialer defaults to websocket.DefaultDialer.
	Dialer *websocket.Dialer
}

// Client mirrors one window's storage with a hub Server.
type Client struct {
	id       string
	ws       *websocket.Conn
	window   *storage.Window
	dispatch func(func())
	logger   *slog.Logger

	writeMu sync.Mutex
	stop    func()

	closeOnce sync.Once
	closed    atomic.Bool
}

// Dial connects to the hub and starts publishing local changes of
// opts.Window. Call Run to receive changes from other windows.
func Dial(ctx context.Context, opts ClientOptions) (*Client, error) {
	dialer := opts.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	ws, _, err := dialer.DialContext(ctx, opts.URL, nil)
	if err != nil {
		return nil, errors.New("E301").WithDetail(opts.URL).Wrap(err)
	}

	c := &Client{
		id:       opts.ID,
		ws:       ws,
		window:   opts.Window,
		dispatch: opts.Dispatch,
		logger:   opts.Logger,
	}
	if c.id == "" {
		c.id = uuid.NewString()
	}
	if c.dispatch == nil {
		c.dispatch = func(fn func()) { fn() }
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With("window", c.id)

	c.stop = storage.Listen(c.window.Events, c.publish)
	return c, nil
}

// ID returns the window id used as message origin.
func (c *Client) ID() string {
	return c.id
}

// publish sends a local change. Remote changes were applied on behalf of
// the hub and are not sent back.
func (c *Client) publish(ev storage.ChangeEvent) {
	if ev.Remote {
		return
	}
	data, err := Encode(FromEvent(c.id, ev))
	if err != nil {
		c.logger.Error("encode change", "error", err)
		return
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		c.logger.Error("write error", "area", ev.Area, "key", ev.Key, "error", err)
	}
}

// Run applies changes from other windows until ctx is cancelled, Close is
// called or the connection closes. It closes the client before returning;
// only an unexpected loss of the connection is an error.
func (c *Client) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-done:
		}
	}()
	defer c.Close()

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if c.closed.Load() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return errors.New("E301").WithDetail("connection lost").Wrap(err)
		}

		msg, err := Decode(data)
		if err != nil {
			c.logger.Warn("invalid hub message", "error", err)
			continue
		}
		if msg.Origin == c.id {
			continue
		}
		store := c.window.Area(msg.Area)
		if store == nil {
			c.logger.Warn("unknown storage area", "area", msg.Area)
			continue
		}
		c.dispatch(func() {
			if err := store.Apply(msg.Event()); err != nil {
				c.logger.Error("apply remote change failed", "area", msg.Area, "key", msg.Key, "error", err)
			}
		})
	}
}

// Close stops publishing and closes the connection.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.stop()
		c.writeMu.Lock()
		c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.ws.Close()
	})
	return err
}
