// Package hub relays storage changes between windows.
//
// A Server owns an authoritative storage.Window. Clients connect over a
// websocket, push every local change and receive every change made by other
// clients or through the REST API, which they apply to their own window
// with Remote set so it is not echoed back.
//
//	srv := hub.NewServer(storage.NewWindow(nil, nil, nil))
//	go srv.Run(ctx, ":7300")
//
//	client, _ := hub.Dial(ctx, hub.ClientOptions{URL: "ws://localhost:7300/ws", Window: win})
//	go client.Run(ctx)
package hub

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/composables/internal/errors"
	"github.com/vango-dev/composables/pkg/metrics"
	"github.com/vango-dev/composables/pkg/storage"
)

const defaultTracerName = "github.com/vango-dev/composables/hub"

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics records hub and storage metrics and serves them on /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithTracerName sets the OpenTelemetry tracer name.
func WithTracerName(name string) Option {
	return func(s *Server) {
		s.tracer = otel.Tracer(name)
	}
}

// WithCheckOrigin sets the websocket origin check. Default: the origin
// must match the request host.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(s *Server) {
		s.upgrader.CheckOrigin = fn
	}
}

// WithShutdownTimeout bounds graceful shutdown in Run. Default: 5s.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.shutdownTimeout = d
	}
}

// Server relays changes between connected clients and serves the state of
// its window over REST.
type Server struct {
	window          *storage.Window
	logger          *slog.Logger
	metrics         *metrics.Metrics
	tracer          trace.Tracer
	upgrader        websocket.Upgrader
	shutdownTimeout time.Duration

	mu      sync.RWMutex
	clients map[*conn]bool
	closed  bool

	stopListening func()
	stopMetrics   func()
}

// NewServer creates a server for window.
func NewServer(window *storage.Window, opts ...Option) *Server {
	s := &Server{
		window:          window,
		logger:          slog.Default(),
		tracer:          otel.Tracer(defaultTracerName),
		shutdownTimeout: 5 * time.Second,
		clients:         make(map[*conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	// Changes made on the server itself (REST) go to every client; remote
	// changes are relayed by the connection that received them.
	s.stopListening = storage.Listen(window.Events, func(ev storage.ChangeEvent) {
		if !ev.Remote {
			s.broadcast(context.Background(), FromEvent(ServerOrigin, ev), nil)
		}
	})
	s.stopMetrics = s.metrics.InstrumentWindow(window)
	return s
}

// Window returns the server's window.
func (s *Server) Window() *storage.Window {
	return s.window
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// conn is one websocket client. Writes are serialised by mu.
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// HandleWebSocket upgrades the request and relays the client's changes
// until it disconnects.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.metrics.HubError("upgrade")
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	c := &conn{ws: ws}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ws.Close()
		return
	}
	s.clients[c] = true
	s.mu.Unlock()
	s.metrics.ClientConnected()
	s.logger.Debug("hub client connected", "remote", r.RemoteAddr)

	defer func() {
		s.remove(c)
		s.logger.Debug("hub client disconnected", "remote", r.RemoteAddr)
	}()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.metrics.HubError("read")
				s.logger.Error("read error", "error", err)
			}
			return
		}
		s.metrics.MessageReceived()

		msg, err := Decode(data)
		if err != nil {
			s.metrics.HubError("decode")
			s.logger.Warn("invalid hub message", "error", err)
			continue
		}
		s.relay(r.Context(), c, msg)
	}
}

// relay applies msg to the server window and forwards it to every other
// client.
func (s *Server) relay(ctx context.Context, from *conn, msg Message) {
	ctx, span := s.tracer.Start(ctx, "hub.relay", trace.WithAttributes(
		attribute.String("hub.origin", msg.Origin),
		attribute.String("storage.area", msg.Area),
		attribute.String("storage.key", msg.Key),
		attribute.Bool("storage.all_keys", msg.All),
	))
	defer span.End()

	store := s.window.Area(msg.Area)
	if store == nil {
		span.SetStatus(codes.Error, "unknown area")
		s.metrics.HubError("area")
		s.logger.Warn("unknown storage area", "area", msg.Area, "origin", msg.Origin)
		return
	}
	if err := store.Apply(msg.Event()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.HubError("apply")
		s.logger.Error("apply remote change failed", "area", msg.Area, "key", msg.Key, "error", err)
		return
	}
	s.broadcast(ctx, msg, from)
}

// broadcast sends msg to every client except skip.
func (s *Server) broadcast(ctx context.Context, msg Message, skip *conn) {
	start := time.Now()
	_, span := s.tracer.Start(ctx, "hub.broadcast")
	defer span.End()

	data, err := Encode(msg)
	if err != nil {
		span.RecordError(err)
		return
	}

	s.mu.RLock()
	clients := make([]*conn, 0, len(s.clients))
	for c := range s.clients {
		if c != skip {
			clients = append(clients, c)
		}
	}
	s.mu.RUnlock()

	for _, c := range clients {
		if err := c.write(data); err != nil {
			s.metrics.HubError("write")
			s.logger.Error("write error", "error", err)
			s.remove(c)
			continue
		}
		s.metrics.MessageSent()
	}
	span.SetAttributes(attribute.Int("hub.recipients", len(clients)))
	s.metrics.ObserveRelay(time.Since(start))
}

func (s *Server) remove(c *conn) {
	s.mu.Lock()
	_, ok := s.clients[c]
	delete(s.clients, c)
	s.mu.Unlock()
	if ok {
		s.metrics.ClientDisconnected()
		c.ws.Close()
	}
}

// Close disconnects every client and stops relaying server-side changes.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	clients := s.clients
	s.clients = make(map[*conn]bool)
	s.mu.Unlock()

	for c := range clients {
		c.mu.Lock()
		c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		c.mu.Unlock()
		c.ws.Close()
		s.metrics.ClientDisconnected()
	}
	s.stopListening()
	s.stopMetrics()
}

// Run serves the router on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("hub listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return errors.New("E301").WithDetailf("listen on %s", addr).Wrap(err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		s.Close()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
