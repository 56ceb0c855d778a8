package reactive

// Computed is a read-only value derived from other sources. It recomputes
// eagerly when a dependency changes and notifies its own subscribers only
// when the derived value actually changed.
type Computed[T any] struct {
	sig  *Signal[T]
	stop func()
}

// Derive creates a Computed from fn, recomputed after any of deps changes.
// The subscription to deps is released when owner is disposed.
func Derive[T any](owner *Owner, fn func() T, deps ...Source) *Computed[T] {
	c := &Computed[T]{sig: NewSignal(fn())}
	c.stop = Effect(owner, func() Cleanup {
		c.sig.Set(fn())
		return nil
	}, deps...)
	return c
}

// Map derives a Computed by applying fn to every value of src.
func Map[S, T any](owner *Owner, src Readable[S], fn func(S) T) *Computed[T] {
	return Derive(owner, func() T { return fn(src.Get()) }, src)
}

// Get returns the current derived value.
func (c *Computed[T]) Get() T {
	return c.sig.Get()
}

// Subscribe implements Source.
func (c *Computed[T]) Subscribe(fn func()) func() {
	return c.sig.Subscribe(fn)
}

func (c *Computed[T]) subscribeKeyed(key uint64, fn func()) func() {
	return c.sig.subscribeKeyed(key, fn)
}

// WithEquals configures how changes of the derived value are detected.
func (c *Computed[T]) WithEquals(fn func(T, T) bool) *Computed[T] {
	c.sig.WithEquals(fn)
	return c
}

// Stop detaches the Computed from its dependencies. The last value stays
// readable.
func (c *Computed[T]) Stop() {
	c.stop()
}

// ReadOnly hides the setter of a writable value.
func ReadOnly[T any](w Writable[T]) Readable[T] {
	return readOnly[T]{w}
}

type readOnly[T any] struct {
	r Readable[T]
}

func (r readOnly[T]) Get() T                     { return r.r.Get() }
func (r readOnly[T]) Subscribe(fn func()) func() { return r.r.Subscribe(fn) }
