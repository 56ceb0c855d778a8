// Package reactive provides the explicit reactive primitives the binders are
// built on.
//
// Unlike an automatically tracked reactive runtime, every dependency here is
// declared: a binder subscribes to the values it reads and registers the
// teardown on the Owner of the component that created it.
//
// # Core Types
//
// Signal[T] is a writable reactive cell:
//
//	count := reactive.NewSignal(0)
//	count.Set(5)
//	unsubscribe := count.Subscribe(func() { fmt.Println(count.Get()) })
//
// Computed[T] is a read-only value derived from other sources:
//
//	doubled := reactive.Map(owner, count, func(n int) int { return n * 2 })
//
// Watch runs a side effect immediately and again whenever a value changes.
// The returned Cleanup of one run is called before the next run and when
// the owner is disposed:
//
//	reactive.Watch(owner, classes, func(list []string) reactive.Cleanup {
//	    el.AddClass(list...)
//	    return func() { el.RemoveClass(list...) }
//	})
//
// # Batching
//
// Batch defers notifications until the outermost batch completes and
// delivers each subscriber at most once:
//
//	reactive.Batch(func() {
//	    a.Set(1)
//	    b.Set(2)
//	})
//
// # Ownership
//
// An Owner is the scope of one component. Disposing it tears down every
// subscription registered with OnCleanup, children first, in reverse
// registration order. Owners also carry context values (see SetValue and
// Value) that descendants resolve by walking up the hierarchy.
//
// # Thread Safety
//
// Cells guard their state with mutexes, but notifications are delivered
// synchronously on the goroutine that called Set. Hosts are expected to
// drive a component tree from a single goroutine.
package reactive
