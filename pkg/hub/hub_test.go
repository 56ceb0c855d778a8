package hub

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/goleak"

	"github.com/vango-dev/composables/internal/errors"
	"github.com/vango-dev/composables/pkg/metrics"
	"github.com/vango-dev/composables/pkg/opt"
	"github.com/vango-dev/composables/pkg/reactive"
	"github.com/vango-dev/composables/pkg/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, window *storage.Window) (*Server, *httptest.Server) {
	t.Helper()
	if window == nil {
		window = storage.NewWindow(nil, nil, nil)
	}
	srv := NewServer(window,
		WithLogger(discardLogger()),
		WithMetrics(metrics.New(metrics.WithRegistry(prometheus.NewRegistry()))),
	)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return srv, ts
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

// runClient dials ts with a fresh window and runs the client until the test
// ends.
func runClient(t *testing.T, ts *httptest.Server, id string) (*Client, *storage.Window) {
	t.Helper()
	win := storage.NewWindow(nil, nil, nil)
	client, err := Dial(context.Background(), ClientOptions{
		URL:    wsURL(ts),
		Window: win,
		ID:     id,
		Logger: discardLogger(),
	})
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run() error: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("Run() did not return after cancel")
		}
	})
	return client, win
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func itemOf(t *testing.T, store storage.Storage, key string) opt.Value[string] {
	t.Helper()
	v, err := store.GetItem(key)
	if err != nil {
		t.Fatalf("GetItem(%q) error: %v", key, err)
	}
	return v
}

func TestRelayBetweenWindows(t *testing.T) {
	srv, ts := newTestServer(t, nil)
	_, a := runClient(t, ts, "a")
	_, b := runClient(t, ts, "b")
	waitFor(t, "two clients", func() bool { return srv.ClientCount() == 2 })

	var echoed atomic.Int32
	received := make(chan storage.ChangeEvent, 1)
	stopA := storage.Listen(a.Events, func(ev storage.ChangeEvent) {
		if ev.Remote {
			echoed.Add(1)
		}
	})
	defer stopA()
	stopB := storage.Listen(b.Events, func(ev storage.ChangeEvent) {
		received <- ev
	})
	defer stopB()

	if err := a.Local.SetItem("theme", "dark"); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-received:
		if !ev.Remote || ev.Key != "theme" || ev.NewValue.Or("") != "dark" {
			t.Errorf("b received %+v, want remote theme=dark", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("change did not reach b")
	}

	if got := itemOf(t, b.Local, "theme"); got.Or("") != "dark" {
		t.Errorf("b theme = %v, want dark", got)
	}
	if got := itemOf(t, srv.Window().Local, "theme"); got.Or("") != "dark" {
		t.Errorf("server theme = %v, want dark", got)
	}
	if got := itemOf(t, b.Session, "theme"); !got.IsNull() {
		t.Errorf("b session theme = %v, want null", got)
	}

	// b's remote change must not travel back to a.
	if err := a.Local.SetItem("probe", "1"); err != nil {
		t.Fatal(err)
	}
	<-received
	if n := echoed.Load(); n != 0 {
		t.Errorf("a received %d of its own changes back", n)
	}
}

func TestRelayClearAndRemove(t *testing.T) {
	srv, ts := newTestServer(t, nil)
	_, a := runClient(t, ts, "a")
	_, b := runClient(t, ts, "b")
	waitFor(t, "two clients", func() bool { return srv.ClientCount() == 2 })

	a.Session.SetItem("x", "1")
	a.Session.SetItem("y", "2")
	waitFor(t, "b to receive y", func() bool { return itemOf(t, b.Session, "y").IsPresent() })

	a.Session.RemoveItem("x")
	waitFor(t, "b to drop x", func() bool { return itemOf(t, b.Session, "x").IsNull() })

	a.Session.Clear()
	waitFor(t, "b to clear", func() bool {
		keys, _ := b.Session.Keys()
		return len(keys) == 0
	})
}

func TestReadBinderFollowsOtherWindow(t *testing.T) {
	srv, ts := newTestServer(t, nil)
	_, a := runClient(t, ts, "a")
	_, b := runClient(t, ts, "b")
	waitFor(t, "two clients", func() bool { return srv.ClientCount() == 2 })

	owner := reactive.NewOwner(nil)
	defer owner.Dispose()
	theme, err := storage.Use(owner, "theme", storage.UseOptions{
		Options: storage.Options{Storage: b.Local},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !theme.Get().IsNull() {
		t.Fatalf("initial theme = %v, want null", theme.Get())
	}

	a.Local.SetItem("theme", "light")
	waitFor(t, "signal update", func() bool { return theme.Get().Or("") == "light" })
}

func TestRESTChangesReachClients(t *testing.T) {
	srv, ts := newTestServer(t, nil)
	_, a := runClient(t, ts, "a")
	waitFor(t, "client", func() bool { return srv.ClientCount() == 1 })

	received := make(chan storage.ChangeEvent, 1)
	stop := storage.Listen(a.Events, func(ev storage.ChangeEvent) { received <- ev })
	defer stop()

	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/storage/lang?area=session", strings.NewReader("fr"))
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("PUT status = %d, want 204", resp.StatusCode)
	}

	select {
	case ev := <-received:
		if ev.Area != storage.AreaSession || ev.Key != "lang" || ev.NewValue.Or("") != "fr" {
			t.Errorf("client received %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("REST change did not reach client")
	}
}

func TestStorageRoutes(t *testing.T) {
	_, ts := newTestServer(t, nil)
	client := ts.Client()

	do := func(method, path, body string) (int, string) {
		t.Helper()
		req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		resp, err := client.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(data)
	}

	if code, _ := do("PUT", "/storage/a", "1"); code != http.StatusNoContent {
		t.Fatalf("PUT a = %d", code)
	}
	do("PUT", "/storage/b", "2")

	code, body := do("GET", "/storage/a", "")
	if code != http.StatusOK {
		t.Fatalf("GET a = %d", code)
	}
	var item itemResponse
	if err := json.Unmarshal([]byte(body), &item); err != nil {
		t.Fatal(err)
	}
	if item != (itemResponse{Area: "local", Key: "a", Value: "1"}) {
		t.Errorf("GET a = %+v", item)
	}

	code, body = do("GET", "/storage", "")
	var list listResponse
	if err := json.Unmarshal([]byte(body), &list); err != nil {
		t.Fatal(err)
	}
	if code != http.StatusOK || len(list.Items) != 2 || list.Items["b"] != "2" {
		t.Errorf("GET /storage = %d %+v", code, list)
	}

	if code, _ := do("DELETE", "/storage/a", ""); code != http.StatusNoContent {
		t.Errorf("DELETE a = %d", code)
	}
	if code, _ := do("GET", "/storage/a", ""); code != http.StatusNotFound {
		t.Errorf("GET removed key = %d, want 404", code)
	}
	if code, _ := do("DELETE", "/storage", ""); code != http.StatusNoContent {
		t.Errorf("DELETE /storage = %d", code)
	}
	if code, _ := do("GET", "/storage/b", ""); code != http.StatusNotFound {
		t.Errorf("GET after clear = %d, want 404", code)
	}
	if code, _ := do("GET", "/storage?area=cookie", ""); code != http.StatusBadRequest {
		t.Errorf("unknown area = %d, want 400", code)
	}
	if code, body := do("GET", "/healthz", ""); code != http.StatusOK || body != "ok" {
		t.Errorf("healthz = %d %q", code, body)
	}
	if code, body := do("GET", "/metrics", ""); code != http.StatusOK || !strings.Contains(body, "composables_http_requests_total") {
		t.Errorf("metrics = %d, missing request counter", code)
	}
}

func TestQuotaMapsToInsufficientStorage(t *testing.T) {
	small := storage.NewMemory(storage.MemoryOptions{Quota: 8})
	_, ts := newTestServer(t, storage.NewWindow(nil, small, nil))

	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/storage/key", strings.NewReader("far too long"))
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInsufficientStorage {
		t.Fatalf("status = %d, want 507", resp.StatusCode)
	}
	var e errorResponse
	json.NewDecoder(resp.Body).Decode(&e)
	if e.Code != "E201" {
		t.Errorf("code = %q, want E201", e.Code)
	}
}

func TestDialFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	_, err := Dial(context.Background(), ClientOptions{
		URL:    wsURL(ts),
		Window: storage.NewWindow(nil, nil, nil),
	})
	if err == nil {
		t.Fatal("Dial() succeeded against a non-websocket endpoint")
	}
	if !strings.Contains(err.Error(), "E301") {
		t.Errorf("error = %v, want E301", err)
	}
}

func TestServerCloseEndsClients(t *testing.T) {
	srv, ts := newTestServer(t, nil)
	runClient(t, ts, "a")
	waitFor(t, "client", func() bool { return srv.ClientCount() == 1 })

	// Run returns nil on a going-away close; the cleanup checks it.
	srv.Close()
	if srv.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d after Close", srv.ClientCount())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	srv := NewServer(storage.NewWindow(nil, nil, nil), WithLogger(discardLogger()))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, "127.0.0.1:0") }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not stop")
	}
}

func TestRemoteStorage(t *testing.T) {
	srv, ts := newTestServer(t, nil)
	remote := NewRemote(ts.URL, storage.AreaSession, ts.Client())

	if got := itemOf(t, remote, "missing"); !got.IsNull() {
		t.Errorf("GetItem(missing) = %v, want null", got)
	}
	if err := remote.SetItem("b", "2"); err != nil {
		t.Fatal(err)
	}
	if err := remote.SetItem("a", "1"); err != nil {
		t.Fatal(err)
	}
	if got := itemOf(t, remote, "a"); got.Or("") != "1" {
		t.Errorf("GetItem(a) = %v", got)
	}
	if got := itemOf(t, srv.Window().Session, "b"); got.Or("") != "2" {
		t.Errorf("server session b = %v", got)
	}
	if got := itemOf(t, srv.Window().Local, "b"); !got.IsNull() {
		t.Errorf("server local b = %v, want null", got)
	}

	keys, err := remote.Keys()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(keys, ",") != "a,b" {
		t.Errorf("Keys() = %v, want [a b]", keys)
	}

	if err := remote.RemoveItem("a"); err != nil {
		t.Fatal(err)
	}
	if err := remote.Clear(); err != nil {
		t.Fatal(err)
	}
	if keys, _ := remote.Keys(); len(keys) != 0 {
		t.Errorf("Keys() after Clear = %v", keys)
	}
}

func TestRemoteQuotaError(t *testing.T) {
	small := storage.NewMemory(storage.MemoryOptions{Quota: 4})
	_, ts := newTestServer(t, storage.NewWindow(nil, small, nil))

	err := NewRemote(ts.URL, "", ts.Client()).SetItem("key", "value")
	if !stderrors.Is(err, storage.ErrQuotaExceeded) {
		t.Errorf("SetItem() = %v, want ErrQuotaExceeded", err)
	}
	if code := errors.CodeOf(err); code != "E201" {
		t.Errorf("code = %q, want E201", code)
	}
}
