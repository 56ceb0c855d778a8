package reactive

import (
	"reflect"
	"sync"
	"sync/atomic"
)

// globalIDCounter is the source of unique IDs for cells and subscriptions.
var globalIDCounter uint64

// nextID returns the next unique ID. IDs are never reused.
func nextID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}

// Source is anything that can notify subscribers of a change.
type Source interface {
	// Subscribe registers fn to be called after every change and returns
	// a function that removes the subscription. Unsubscribing twice is a no-op.
	Subscribe(fn func()) (unsubscribe func())
}

// Readable is a Source whose current value can be read.
type Readable[T any] interface {
	Source
	Get() T
}

// Writable is a Readable that can be set.
type Writable[T any] interface {
	Readable[T]
	Set(value T)
}

// subscription is a single registered listener. key groups subscriptions
// that belong to one listener so a batch delivers them once.
type subscription struct {
	id      uint64
	key     uint64
	fn      func()
	removed atomic.Bool
}

// keyedSource is implemented by the cells of this package. Effects use it
// to share one batch key across all their dependencies.
type keyedSource interface {
	subscribeKeyed(key uint64, fn func()) func()
}

// signalBase provides subscriber management shared by Signal and Computed.
type signalBase struct {
	id uint64

	// subs are kept in registration order.
	subs  []*subscription
	subMu sync.RWMutex
}

func (s *signalBase) subscribe(fn func()) func() {
	return s.subscribeKeyed(0, fn)
}

func (s *signalBase) subscribeKeyed(key uint64, fn func()) func() {
	if fn == nil {
		return func() {}
	}

	sub := &subscription{id: nextID(), key: key, fn: fn}
	if sub.key == 0 {
		sub.key = sub.id
	}

	s.subMu.Lock()
	s.subs = append(s.subs, sub)
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { s.unsubscribe(sub.id) })
	}
}

func (s *signalBase) unsubscribe(id uint64) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for i, existing := range s.subs {
		if existing.id == id {
			existing.removed.Store(true)
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

// notifySubscribers notifies every subscriber in registration order.
// Subscribers are copied before notification so listeners may subscribe
// or unsubscribe while being notified.
func (s *signalBase) notifySubscribers() {
	s.subMu.RLock()
	subs := make([]*subscription, len(s.subs))
	copy(subs, s.subs)
	s.subMu.RUnlock()

	if inBatch() {
		for _, sub := range subs {
			queuePending(sub)
		}
		return
	}

	// A listener removed by an earlier listener in the same round is skipped.
	for _, sub := range subs {
		if !sub.removed.Load() {
			sub.fn()
		}
	}
}

// subscriberCount returns the number of live subscriptions.
func (s *signalBase) subscriberCount() int {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	return len(s.subs)
}

// Signal is a writable reactive value container.
type Signal[T any] struct {
	base signalBase

	value T
	mu    sync.RWMutex

	// equal decides whether a Set is a change. nil uses defaultEquals.
	equal func(T, T) bool
}

// NewSignal creates a new signal with the given initial value.
func NewSignal[T any](initial T) *Signal[T] {
	return &Signal[T]{
		base:  signalBase{id: nextID()},
		value: initial,
	}
}

// Get returns the current value.
func (s *Signal[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set updates the value and notifies subscribers if it changed.
func (s *Signal[T]) Set(value T) {
	s.mu.Lock()
	changed := !s.equals(s.value, value)
	if changed {
		s.value = value
	}
	s.mu.Unlock()

	if changed {
		s.base.notifySubscribers()
	}
}

// Update atomically reads and replaces the value.
func (s *Signal[T]) Update(fn func(T) T) {
	s.mu.Lock()
	old := s.value
	next := fn(old)
	changed := !s.equals(old, next)
	if changed {
		s.value = next
	}
	s.mu.Unlock()

	if changed {
		s.base.notifySubscribers()
	}
}

// Subscribe implements Source.
func (s *Signal[T]) Subscribe(fn func()) func() {
	return s.base.subscribe(fn)
}

func (s *Signal[T]) subscribeKeyed(key uint64, fn func()) func() {
	return s.base.subscribeKeyed(key, fn)
}

// WithEquals configures a custom equality function and returns the signal.
func (s *Signal[T]) WithEquals(fn func(T, T) bool) *Signal[T] {
	s.equal = fn
	return s
}

// ID returns the unique identifier for this signal.
func (s *Signal[T]) ID() uint64 {
	return s.base.id
}

// Subscribers returns the number of live subscriptions.
func (s *Signal[T]) Subscribers() int {
	return s.base.subscriberCount()
}

func (s *Signal[T]) equals(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals uses == for common scalar types and reflect.DeepEqual for
// everything else.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		return av == any(b).(int)
	case int64:
		return av == any(b).(int64)
	case float64:
		return av == any(b).(float64)
	case string:
		return av == any(b).(string)
	case bool:
		return av == any(b).(bool)
	default:
		return reflect.DeepEqual(a, b)
	}
}
