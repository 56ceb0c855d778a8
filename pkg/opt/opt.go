// Package opt provides a three-state optional value.
//
// A Value is either undefined (the zero value), explicitly null, or present.
// Binders distinguish the first two: an undefined value falls back to a
// configured default, while an explicit null removes whatever the binder owns.
//
// Example:
//
//	var role opt.Value[string]           // undefined
//	role = opt.Of("button")              // present
//	role = opt.Null[string]()            // explicitly absent
//	v := role.WithDefault(opt.Of("x"))   // null stays null
package opt

import "fmt"

// State identifies which of the three states a Value is in.
type State uint8

const (
	StateUndefined State = iota // zero value, no opinion
	StateNull                   // explicitly absent
	StatePresent                // carries a value
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateUndefined:
		return "undefined"
	case StateNull:
		return "null"
	case StatePresent:
		return "present"
	default:
		return "unknown"
	}
}

// Value is a T that may be undefined, null or present.
type Value[T any] struct {
	v     T
	state State
}

// Of returns a present value.
func Of[T any](v T) Value[T] {
	return Value[T]{v: v, state: StatePresent}
}

// Null returns an explicitly absent value.
func Null[T any]() Value[T] {
	return Value[T]{state: StateNull}
}

// Undef returns an undefined value. It is equal to the zero Value.
func Undef[T any]() Value[T] {
	return Value[T]{}
}

// FromPtr maps nil to null and a non-nil pointer to a present value.
func FromPtr[T any](p *T) Value[T] {
	if p == nil {
		return Null[T]()
	}
	return Of(*p)
}

// FromLookup maps the comma-ok idiom to a value: ok → present, !ok → null.
func FromLookup[T any](v T, ok bool) Value[T] {
	if !ok {
		return Null[T]()
	}
	return Of(v)
}

// State returns the state of the value.
func (o Value[T]) State() State { return o.state }

// IsUndefined reports whether the value is undefined.
func (o Value[T]) IsUndefined() bool { return o.state == StateUndefined }

// IsNull reports whether the value is explicitly null.
func (o Value[T]) IsNull() bool { return o.state == StateNull }

// IsPresent reports whether the value carries a T.
func (o Value[T]) IsPresent() bool { return o.state == StatePresent }

// IsNullish reports whether the value is null or undefined.
func (o Value[T]) IsNullish() bool { return o.state != StatePresent }

// Get returns the value and whether it is present.
func (o Value[T]) Get() (T, bool) {
	return o.v, o.state == StatePresent
}

// OrZero returns the value, or the zero T when not present.
func (o Value[T]) OrZero() T {
	return o.v
}

// Or returns the value when present, otherwise fallback.
func (o Value[T]) Or(fallback T) T {
	if o.state == StatePresent {
		return o.v
	}
	return fallback
}

// WithDefault replaces an undefined value by def. Null stays null.
func (o Value[T]) WithDefault(def Value[T]) Value[T] {
	if o.state == StateUndefined {
		return def
	}
	return o
}

// Coalesce replaces a null or undefined value by def.
func (o Value[T]) Coalesce(def Value[T]) Value[T] {
	if o.state != StatePresent {
		return def
	}
	return o
}

// Ptr returns a pointer to a copy of the value, or nil when not present.
func (o Value[T]) Ptr() *T {
	if o.state != StatePresent {
		return nil
	}
	v := o.v
	return &v
}

// String implements fmt.Stringer.
func (o Value[T]) String() string {
	if o.state != StatePresent {
		return o.state.String()
	}
	return fmt.Sprint(o.v)
}

// Map applies fn to a present value; null and undefined pass through.
func Map[T, U any](o Value[T], fn func(T) U) Value[U] {
	switch o.state {
	case StatePresent:
		return Of(fn(o.v))
	case StateNull:
		return Null[U]()
	default:
		return Undef[U]()
	}
}
