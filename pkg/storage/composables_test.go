package storage

import (
	"bytes"
	stderrors "errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/vango-dev/composables/pkg/opt"
	"github.com/vango-dev/composables/pkg/reactive"
)

func newOwner(t *testing.T) *reactive.Owner {
	t.Helper()
	owner := reactive.NewOwner(nil)
	t.Cleanup(owner.Dispose)
	return owner
}

func stored(t *testing.T, s Storage, key string) opt.Value[string] {
	t.Helper()
	v, err := s.GetItem(key)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestWrite(t *testing.T) {
	win := NewWindow(nil, nil, nil)
	owner := newOwner(t)
	value := reactive.NewSignal(opt.Of("a"))

	got, err := Write(owner, "k", value, Options{Storage: win.Local})
	if err != nil {
		t.Fatal(err)
	}
	if got != value {
		t.Error("Write should return the bound value")
	}
	if v := stored(t, win.Local, "k"); v != opt.Of("a") {
		t.Errorf("stored = %v", v)
	}

	value.Set(opt.Null[string]())
	if v := stored(t, win.Local, "k"); !v.IsNull() {
		t.Errorf("null should remove the key, stored = %v", v)
	}

	value.Set(opt.Of("b"))
	value.Set(opt.Undef[string]())
	if v := stored(t, win.Local, "k"); !v.IsNull() {
		t.Errorf("undefined should remove the key, stored = %v", v)
	}

	// Write never reads back.
	win.Local.SetItem("k", "external")
	if !value.Get().IsUndefined() {
		t.Errorf("value = %v, Write must not read", value.Get())
	}
}

func TestReadScenario(t *testing.T) {
	win := NewWindow(nil, nil, nil)
	owner := newOwner(t)

	win.Local.SetItem("k", "a")
	value := reactive.NewSignal(opt.Undef[string]())
	if _, err := Read(owner, "k", value, Options{Storage: win.Local}); err != nil {
		t.Fatal(err)
	}
	if value.Get() != opt.Of("a") {
		t.Fatalf("initial read = %v, want a", value.Get())
	}

	win.Local.SetItem("k", "b")
	if value.Get() != opt.Of("b") {
		t.Errorf("after external set = %v, want b", value.Get())
	}

	// Other keys and other stores are ignored.
	win.Local.SetItem("other", "x")
	win.Session.SetItem("k", "session")
	if value.Get() != opt.Of("b") {
		t.Errorf("unrelated change leaked: %v", value.Get())
	}

	// Read never writes.
	value.Set(opt.Of("local only"))
	if v := stored(t, win.Local, "k"); v != opt.Of("b") {
		t.Errorf("stored = %v, Read must not write", v)
	}

	win.Local.Clear()
	if !value.Get().IsNull() {
		t.Errorf("after clear = %v, want null", value.Get())
	}
}

func TestReadSkipInitialRead(t *testing.T) {
	win := NewWindow(nil, nil, nil)
	win.Local.SetItem("k", "a")

	value := reactive.NewSignal(opt.Of("mine"))
	if _, err := Read(newOwner(t), "k", value, Options{Storage: win.Local, SkipInitialRead: true}); err != nil {
		t.Fatal(err)
	}
	if value.Get() != opt.Of("mine") {
		t.Errorf("value = %v, initial read should be skipped", value.Get())
	}
	win.Local.RemoveItem("k")
	if !value.Get().IsNull() {
		t.Errorf("value = %v after removal, want null", value.Get())
	}
}

func TestReadMissingKeyIsNull(t *testing.T) {
	win := NewWindow(nil, nil, nil)
	value := reactive.NewSignal(opt.Of("x"))
	if _, err := Read(newOwner(t), "missing", value, Options{Storage: win.Local}); err != nil {
		t.Fatal(err)
	}
	if !value.Get().IsNull() {
		t.Errorf("value = %v, want null", value.Get())
	}
}

func TestReadStopsOnDispose(t *testing.T) {
	win := NewWindow(nil, nil, nil)
	owner := reactive.NewOwner(nil)
	value := reactive.NewSignal(opt.Undef[string]())
	Read(owner, "k", value, Options{Storage: win.Local})

	before := win.Events.ListenerCount(ChangeEventType)
	owner.Dispose()
	if after := win.Events.ListenerCount(ChangeEventType); after != before-1 {
		t.Errorf("listeners %d -> %d, want one removed", before, after)
	}

	win.Local.SetItem("k", "late")
	if !value.Get().IsNull() {
		t.Errorf("disposed reader updated to %v", value.Get())
	}
}

func TestBindPersistsInitialValue(t *testing.T) {
	win := NewWindow(nil, nil, nil)
	win.Session.SetItem("name", "Jane")

	name := reactive.NewSignal(opt.Of("Alice"))
	if _, err := Bind(newOwner(t), "name", name, Options{Storage: win.Session}); err != nil {
		t.Fatal(err)
	}
	if v := stored(t, win.Session, "name"); v != opt.Of("Alice") {
		t.Errorf("stored = %v, the bound value should win", v)
	}

	name.Set(opt.Of("Bob"))
	if v := stored(t, win.Session, "name"); v != opt.Of("Bob") {
		t.Errorf("stored = %v after Set", v)
	}

	win.Session.SetItem("name", "Mary")
	if name.Get() != opt.Of("Mary") {
		t.Errorf("value = %v after external set", name.Get())
	}
}

func TestBindNullishValueLoadsStored(t *testing.T) {
	for _, initial := range []opt.Value[string]{opt.Undef[string](), opt.Null[string]()} {
		t.Run(initial.State().String(), func(t *testing.T) {
			win := NewWindow(nil, nil, nil)
			win.Local.SetItem("k", "x")

			value := reactive.NewSignal(initial)
			if _, err := Bind(newOwner(t), "k", value, Options{Storage: win.Local}); err != nil {
				t.Fatal(err)
			}
			if v := stored(t, win.Local, "k"); v != opt.Of("x") {
				t.Errorf("stored = %v, want x", v)
			}
			if value.Get() != opt.Of("x") {
				t.Errorf("value = %v, want x", value.Get())
			}

			value.Set(opt.Null[string]())
			if v := stored(t, win.Local, "k"); !v.IsNull() {
				t.Errorf("stored = %v after null, want removal", v)
			}
		})
	}
}

func TestUseRoundTrip(t *testing.T) {
	win := NewWindow(nil, nil, nil)
	opts := UseOptions{Options: Options{Storage: win.Local}}

	first, err := Use(newOwner(t), "k", opts)
	if err != nil {
		t.Fatal(err)
	}
	if !first.Get().IsNull() {
		t.Errorf("fresh key = %v, want null", first.Get())
	}
	first.Set(opt.Of("x"))

	second, err := Use(newOwner(t), "k", opts)
	if err != nil {
		t.Fatal(err)
	}
	if second.Get() != opt.Of("x") {
		t.Errorf("second binder = %v, want x", second.Get())
	}

	// Binders of the same key follow each other.
	second.Set(opt.Of("y"))
	if first.Get() != opt.Of("y") {
		t.Errorf("first binder = %v, want y", first.Get())
	}
}

func TestUseInitialOverridesStored(t *testing.T) {
	win := NewWindow(nil, nil, nil)
	win.Local.SetItem("k", "stored")

	v, err := Use(newOwner(t), "k", UseOptions{
		Options: Options{Storage: win.Local},
		Initial: opt.Of("initial"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if v.Get() != opt.Of("initial") || stored(t, win.Local, "k") != opt.Of("initial") {
		t.Errorf("value = %v, stored = %v", v.Get(), stored(t, win.Local, "k"))
	}
}

func TestWriteErrors(t *testing.T) {
	win := NewWindow(nil, NewMemory(MemoryOptions{Quota: 8}), nil)

	_, err := Write(newOwner(t), "key", reactive.NewSignal(opt.Of("far too long")), Options{Storage: win.Local})
	if !stderrors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("initial write: expected quota error, got %v", err)
	}

	var reported []error
	value := reactive.NewSignal(opt.Of("ok"))
	_, err = Write(newOwner(t), "k", value, Options{
		Storage: win.Local,
		OnError: func(key string, err error) { reported = append(reported, err) },
	})
	if err != nil {
		t.Fatal(err)
	}
	value.Set(opt.Of("far too long"))
	if len(reported) != 1 || !stderrors.Is(reported[0], ErrQuotaExceeded) {
		t.Errorf("reported = %v", reported)
	}
}

func TestWriteErrorsAreLoggedByDefault(t *testing.T) {
	win := NewWindow(nil, NewMemory(MemoryOptions{Quota: 8}), nil)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	value := reactive.NewSignal(opt.Of("ok"))
	if _, err := Write(newOwner(t), "k", value, Options{Storage: win.Local, Logger: logger}); err != nil {
		t.Fatal(err)
	}
	value.Set(opt.Of("far too long"))

	out := buf.String()
	if !strings.Contains(out, "storage write failed") || !strings.Contains(out, "key=k") {
		t.Errorf("log output = %q", out)
	}
}

func TestDefaultWindow(t *testing.T) {
	if Default() != Default() {
		t.Fatal("Default should return the same window")
	}
	key := t.Name()
	t.Cleanup(func() { Default().Local.RemoveItem(key) })

	v, err := Use(newOwner(t), key, UseOptions{Initial: opt.Of("v")})
	if err != nil {
		t.Fatal(err)
	}
	if stored(t, Default().Local, key) != v.Get() {
		t.Error("Use without a store should use the default local storage")
	}
}
