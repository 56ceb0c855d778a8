package dom

import "sync"

// Event is a DOM-style event. Detail carries event-specific data, for
// example a key name for "keydown" or a boolean for a media query "change".
type Event struct {
	Type   string
	Target any
	Detail any
}

// EventTarget is anything events can be listened for on.
type EventTarget interface {
	AddEventListener(typ string, fn func(Event)) (remove func())
}

type listener struct {
	id uint64
	fn func(Event)
}

// eventTarget is the listener registry embedded in Element and Window.
type eventTarget struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[string][]listener
}

func (t *eventTarget) add(typ string, fn func(Event)) func() {
	t.mu.Lock()
	if t.listeners == nil {
		t.listeners = make(map[string][]listener)
	}
	t.nextID++
	id := t.nextID
	t.listeners[typ] = append(t.listeners[typ], listener{id: id, fn: fn})
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			ls := t.listeners[typ]
			for i, l := range ls {
				if l.id == id {
					t.listeners[typ] = append(ls[:i:i], ls[i+1:]...)
					return
				}
			}
		})
	}
}

func (t *eventTarget) dispatch(ev Event) {
	t.mu.Lock()
	ls := make([]listener, len(t.listeners[ev.Type]))
	copy(ls, t.listeners[ev.Type])
	t.mu.Unlock()

	for _, l := range ls {
		l.fn(ev)
	}
}

func (t *eventTarget) count(typ string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.listeners[typ])
}

// Window is a global event target, the headless analogue of window.
type Window struct {
	events eventTarget
}

// NewWindow creates an empty window.
func NewWindow() *Window {
	return &Window{}
}

// AddEventListener implements EventTarget.
func (w *Window) AddEventListener(typ string, fn func(Event)) func() {
	return w.events.add(typ, fn)
}

// DispatchEvent delivers ev to the window's listeners.
func (w *Window) DispatchEvent(ev Event) {
	if ev.Target == nil {
		ev.Target = w
	}
	w.events.dispatch(ev)
}

// ListenerCount returns the number of listeners registered for typ.
func (w *Window) ListenerCount(typ string) int {
	return w.events.count(typ)
}

// MutationKind identifies what a Mutation changed.
type MutationKind uint8

const (
	MutationAttribute MutationKind = iota + 1
	MutationClass
)

// Mutation describes one change to an element.
type Mutation struct {
	Kind      MutationKind
	Namespace string
	Name      string
	OldValue  string
	HadValue  bool
	Removed   bool
}

type observers struct {
	mu  sync.Mutex
	fns map[uint64]func(Mutation)
	seq uint64
	ids []uint64
}

func (o *observers) add(fn func(Mutation)) func() {
	o.mu.Lock()
	if o.fns == nil {
		o.fns = make(map[uint64]func(Mutation))
	}
	o.seq++
	id := o.seq
	o.fns[id] = fn
	o.ids = append(o.ids, id)
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.fns, id)
		for i, v := range o.ids {
			if v == id {
				o.ids = append(o.ids[:i:i], o.ids[i+1:]...)
				break
			}
		}
	}
}

func (o *observers) notify(m Mutation) {
	o.mu.Lock()
	fns := make([]func(Mutation), 0, len(o.ids))
	for _, id := range o.ids {
		fns = append(fns, o.fns[id])
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn(m)
	}
}
