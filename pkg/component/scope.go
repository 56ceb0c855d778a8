// Package component provides Scope, the explicit context every binder
// receives: the reactive Owner that tears the binding down and the host
// element a binding targets by default.
//
// Scopes nest like components do. A child scope sees context values
// provided by its ancestors (for example the base class used by modifier
// binders) and is disposed together with its parent.
//
//	root := component.NewScope(nil, doc.Root())
//	button := component.NewScope(root, dom.NewElement("button"))
//	defer button.Dispose()
package component

import (
	"github.com/vango-dev/composables/pkg/dom"
	"github.com/vango-dev/composables/pkg/reactive"
)

// Scope is the binding context of one component instance.
type Scope struct {
	owner *reactive.Owner
	host  *dom.Element
}

// NewScope creates a scope for a component whose host element is host.
// A nil parent creates a root scope. A nil host inherits the parent's host.
func NewScope(parent *Scope, host *dom.Element) *Scope {
	var parentOwner *reactive.Owner
	if parent != nil {
		parentOwner = parent.owner
		if host == nil {
			host = parent.host
		}
	}
	return &Scope{
		owner: reactive.NewOwner(parentOwner),
		host:  host,
	}
}

// Owner returns the reactive owner of the scope.
func (s *Scope) Owner() *reactive.Owner {
	return s.owner
}

// Host returns the host element, which may be nil for host-less scopes.
func (s *Scope) Host() *dom.Element {
	return s.host
}

// OnCleanup registers fn to run when the scope is disposed.
func (s *Scope) OnCleanup(fn func()) {
	s.owner.OnCleanup(fn)
}

// Provide makes value available to this scope and its descendants.
func (s *Scope) Provide(key, value any) {
	s.owner.SetValue(key, value)
}

// Lookup resolves a value provided by this scope or an ancestor.
func (s *Scope) Lookup(key any) (any, bool) {
	return s.owner.Value(key)
}

// Dispose tears down every binding created in this scope and its children.
func (s *Scope) Dispose() {
	s.owner.Dispose()
}

// IsDisposed reports whether Dispose has been called.
func (s *Scope) IsDisposed() bool {
	return s.owner.IsDisposed()
}
