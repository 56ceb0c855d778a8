package reactive

import "sync"

// Cleanup is returned by an effect run. It is called before the next run
// and when the effect is stopped.
type Cleanup func()

// Effect runs fn immediately and again after any of deps changes.
// The Cleanup returned by one run is called before the next run.
//
// The effect is stopped when owner is disposed; the returned function stops
// it earlier. Stopping unsubscribes from every dependency and runs the last
// cleanup. owner may be nil for an effect that is only stopped manually.
func Effect(owner *Owner, fn func() Cleanup, deps ...Source) (stop func()) {
	e := &effect{id: nextID(), fn: fn}

	e.run()
	for _, dep := range deps {
		if ks, ok := dep.(keyedSource); ok {
			e.unsubs = append(e.unsubs, ks.subscribeKeyed(e.id, e.run))
			continue
		}
		e.unsubs = append(e.unsubs, dep.Subscribe(e.run))
	}

	if owner != nil {
		owner.OnCleanup(e.stop)
	}
	return e.stop
}

// Watch runs fn with the current value of src immediately and again after
// every change. It is the single-source form of Effect.
func Watch[T any](owner *Owner, src Readable[T], fn func(T) Cleanup) (stop func()) {
	return Effect(owner, func() Cleanup {
		return fn(src.Get())
	}, src)
}

type effect struct {
	id      uint64
	fn      func() Cleanup
	cleanup Cleanup
	unsubs  []func()

	mu      sync.Mutex
	stopped bool
}

func (e *effect) run() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	prev := e.cleanup
	e.cleanup = nil
	e.mu.Unlock()

	if prev != nil {
		prev()
	}

	next := e.fn()

	e.mu.Lock()
	if e.stopped {
		// stopped from inside fn
		e.mu.Unlock()
		if next != nil {
			next()
		}
		return
	}
	e.cleanup = next
	e.mu.Unlock()
}

func (e *effect) stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	unsubs := e.unsubs
	e.unsubs = nil
	last := e.cleanup
	e.cleanup = nil
	e.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	if last != nil {
		last()
	}
}
