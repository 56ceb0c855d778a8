package hub

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/composables/internal/errors"
	"github.com/vango-dev/composables/pkg/storage"
)

// maxValueSize bounds PUT bodies.
const maxValueSize = 1 << 20

// Router returns the HTTP surface of the server:
//
//	GET    /healthz
//	GET    /metrics
//	GET    /ws
//	GET    /storage            all items of an area
//	DELETE /storage            clear an area
//	GET    /storage/{key}
//	PUT    /storage/{key}      body is the raw value
//	DELETE /storage/{key}
//
// Storage routes take ?area=local (default) or ?area=session.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	r.Get("/ws", s.HandleWebSocket)

	r.Route("/storage", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Delete("/", s.handleClear)
		r.Get("/{key}", s.handleGet)
		r.Put("/{key}", s.handlePut)
		r.Delete("/{key}", s.handleDelete)
	})
	return r
}

// instrument logs and counts requests by route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.Request(r.Method, route, status)
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"request_id", middleware.GetReqID(r.Context()))
	})
}

type itemResponse struct {
	Area  string `json:"area"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

type listResponse struct {
	Area  string            `json:"area"`
	Items map[string]string `json:"items"`
}

type errorResponse struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps storage errors to HTTP statuses.
func writeError(w http.ResponseWriter, span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	status := http.StatusInternalServerError
	if stderrors.Is(err, storage.ErrQuotaExceeded) {
		status = http.StatusInsufficientStorage
	}
	writeJSON(w, status, errorResponse{Code: errors.CodeOf(err), Message: err.Error()})
}

// area resolves the ?area= parameter.
func (s *Server) area(w http.ResponseWriter, r *http.Request) (*storage.Tracked, bool) {
	name := r.URL.Query().Get("area")
	if name == "" {
		name = storage.AreaLocal
	}
	store := s.window.Area(name)
	if store == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "unknown area " + name})
		return nil, false
	}
	return store, true
}

func (s *Server) startSpan(r *http.Request, name string, store *storage.Tracked, key string) trace.Span {
	_, span := s.tracer.Start(r.Context(), name, trace.WithAttributes(
		attribute.String("storage.area", store.Area()),
		attribute.String("storage.key", key),
	))
	return span
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	store, ok := s.area(w, r)
	if !ok {
		return
	}
	span := s.startSpan(r, "storage.list", store, "")
	defer span.End()

	keys, err := store.Keys()
	if err != nil {
		writeError(w, span, err)
		return
	}
	items := make(map[string]string, len(keys))
	for _, k := range keys {
		v, err := store.GetItem(k)
		if err != nil {
			writeError(w, span, err)
			return
		}
		if value, ok := v.Get(); ok {
			items[k] = value
		}
	}
	writeJSON(w, http.StatusOK, listResponse{Area: store.Area(), Items: items})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	store, ok := s.area(w, r)
	if !ok {
		return
	}
	span := s.startSpan(r, "storage.clear", store, "")
	defer span.End()

	if err := store.Clear(); err != nil {
		writeError(w, span, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	store, ok := s.area(w, r)
	if !ok {
		return
	}
	key := chi.URLParam(r, "key")
	span := s.startSpan(r, "storage.get", store, key)
	defer span.End()

	v, err := store.GetItem(key)
	if err != nil {
		writeError(w, span, err)
		return
	}
	value, ok := v.Get()
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "no such key " + key})
		return
	}
	writeJSON(w, http.StatusOK, itemResponse{Area: store.Area(), Key: key, Value: value})
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	store, ok := s.area(w, r)
	if !ok {
		return
	}
	key := chi.URLParam(r, "key")
	span := s.startSpan(r, "storage.set", store, key)
	defer span.End()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxValueSize))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Message: err.Error()})
		return
	}
	if err := store.SetItem(key, string(body)); err != nil {
		writeError(w, span, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	store, ok := s.area(w, r)
	if !ok {
		return
	}
	key := chi.URLParam(r, "key")
	span := s.startSpan(r, "storage.remove", store, key)
	defer span.End()

	if err := store.RemoveItem(key); err != nil {
		writeError(w, span, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
