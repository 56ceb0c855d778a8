package storage

import (
	"sync"

	"github.com/vango-dev/composables/pkg/dom"
	"github.com/vango-dev/composables/pkg/opt"
)

// ChangeEventType is the event type ChangeEvents are dispatched with.
const ChangeEventType = "storagechange"

// Well-known areas.
const (
	AreaLocal   = "local"
	AreaSession = "session"
)

// ChangeEvent describes one mutation of a tracked store.
type ChangeEvent struct {
	// Key is the changed key. It is empty when AllKeys is set.
	Key string

	// AllKeys reports a Clear: every key of the store changed.
	AllKeys bool

	// OldValue is the value before the mutation, null if the key was unset.
	// It is null for Clear.
	OldValue opt.Value[string]

	// NewValue is the value after the mutation, null for RemoveItem and
	// Clear.
	NewValue opt.Value[string]

	// Area names the store, e.g. "local".
	Area string

	// Storage is the mutated store.
	Storage *Tracked

	// Remote is set when the change was applied on behalf of another
	// window.
	Remote bool
}

// Matches reports whether the event affects key in store.
func (e ChangeEvent) Matches(store *Tracked, key string) bool {
	return e.Storage == store && (e.AllKeys || e.Key == key)
}

// Tracked wraps a Storage and publishes a ChangeEvent on its window after
// every successful SetItem, RemoveItem and Clear. Failed mutations publish
// nothing.
type Tracked struct {
	store  Storage
	area   string
	events *dom.Window

	// mu serialises mutations so OldValue is the value the mutation
	// replaced.
	mu sync.Mutex
}

// Track wraps store so that its mutations are observable on events.
// Tracking a store that is already tracked on the same window returns it
// unchanged, so every mutation is published exactly once no matter how
// often Track is called.
func Track(store Storage, area string, events *dom.Window) *Tracked {
	if t, ok := store.(*Tracked); ok && t.events == events {
		return t
	}
	return &Tracked{store: store, area: area, events: events}
}

// Area returns the name the store was tracked with.
func (t *Tracked) Area() string {
	return t.area
}

// Events returns the window change events are published on.
func (t *Tracked) Events() *dom.Window {
	return t.events
}

// Unwrap returns the underlying store.
func (t *Tracked) Unwrap() Storage {
	return t.store
}

// GetItem implements Storage.
func (t *Tracked) GetItem(key string) (opt.Value[string], error) {
	return t.store.GetItem(key)
}

// Keys implements Storage.
func (t *Tracked) Keys() ([]string, error) {
	return t.store.Keys()
}

// SetItem implements Storage.
func (t *Tracked) SetItem(key, value string) error {
	return t.set(key, value, false)
}

// RemoveItem implements Storage.
func (t *Tracked) RemoveItem(key string) error {
	return t.remove(key, false)
}

// Clear implements Storage.
func (t *Tracked) Clear() error {
	return t.clear(false)
}

// Apply performs the mutation described by ev on behalf of another window
// and publishes it with Remote set. ev.Storage and ev.OldValue are ignored.
func (t *Tracked) Apply(ev ChangeEvent) error {
	switch {
	case ev.AllKeys:
		return t.clear(true)
	case ev.NewValue.IsPresent():
		v, _ := ev.NewValue.Get()
		return t.set(ev.Key, v, true)
	default:
		return t.remove(ev.Key, true)
	}
}

func (t *Tracked) set(key, value string, remote bool) error {
	t.mu.Lock()
	old, err := t.store.GetItem(key)
	if err == nil {
		err = t.store.SetItem(key, value)
	}
	t.mu.Unlock()
	if err != nil {
		return err
	}
	t.publish(ChangeEvent{Key: key, OldValue: old, NewValue: opt.Of(value), Remote: remote})
	return nil
}

func (t *Tracked) remove(key string, remote bool) error {
	t.mu.Lock()
	old, err := t.store.GetItem(key)
	if err == nil {
		err = t.store.RemoveItem(key)
	}
	t.mu.Unlock()
	if err != nil {
		return err
	}
	t.publish(ChangeEvent{Key: key, OldValue: old, NewValue: opt.Null[string](), Remote: remote})
	return nil
}

func (t *Tracked) clear(remote bool) error {
	t.mu.Lock()
	err := t.store.Clear()
	t.mu.Unlock()
	if err != nil {
		return err
	}
	t.publish(ChangeEvent{
		AllKeys:  true,
		OldValue: opt.Null[string](),
		NewValue: opt.Null[string](),
		Remote:   remote,
	})
	return nil
}

func (t *Tracked) publish(ev ChangeEvent) {
	if t.events == nil {
		return
	}
	ev.Area = t.area
	ev.Storage = t
	t.events.DispatchEvent(dom.Event{Type: ChangeEventType, Detail: ev})
}

// OnChange calls fn for every change of this store.
func (t *Tracked) OnChange(fn func(ChangeEvent)) (remove func()) {
	return Listen(t.events, func(ev ChangeEvent) {
		if ev.Storage == t {
			fn(ev)
		}
	})
}

// Listen calls fn for every change published on events, whatever the store.
func Listen(events *dom.Window, fn func(ChangeEvent)) (remove func()) {
	if events == nil {
		return func() {}
	}
	return events.AddEventListener(ChangeEventType, func(e dom.Event) {
		if ev, ok := e.Detail.(ChangeEvent); ok {
			fn(ev)
		}
	})
}

// Window is the same-window analogue of a browser window: an event target
// plus its local and session storage, both tracked on it.
type Window struct {
	Events  *dom.Window
	Local   *Tracked
	Session *Tracked
}

// NewWindow tracks local and session on events. A nil events creates a new
// window and a nil store a Memory store with DefaultQuota.
func NewWindow(events *dom.Window, local, session Storage) *Window {
	if events == nil {
		events = dom.NewWindow()
	}
	if local == nil {
		local = NewMemory(MemoryOptions{})
	}
	if session == nil {
		session = NewMemory(MemoryOptions{})
	}
	return &Window{
		Events:  events,
		Local:   Track(local, AreaLocal, events),
		Session: Track(session, AreaSession, events),
	}
}

// Area returns the store tracked under name, or nil.
func (w *Window) Area(name string) *Tracked {
	switch name {
	case AreaLocal:
		return w.Local
	case AreaSession:
		return w.Session
	}
	return nil
}

var defaultWindow = sync.OnceValue(func() *Window {
	return NewWindow(nil, nil, nil)
})

// Default returns the process-wide window used when options name no store.
func Default() *Window {
	return defaultWindow()
}
