package dom

import (
	"strings"
	"sync"
)

// Well-known attribute namespaces.
const (
	NamespaceXLink = "http://www.w3.org/1999/xlink"
	NamespaceXML   = "http://www.w3.org/XML/1998/namespace"
	NamespaceSVG   = "http://www.w3.org/2000/svg"
)

// Attr is one attribute of an element.
type Attr struct {
	Namespace string
	Name      string
	Value     string
}

type attrKey struct {
	ns   string
	name string
}

// Element is a headless DOM element.
//
// Attributes keep their insertion order. The class list is kept separately
// from the other attributes but is visible as the "class" attribute, the
// same way a browser reflects classList into the class attribute.
type Element struct {
	tag string

	mu      sync.RWMutex
	attrs   []Attr
	index   map[attrKey]int
	classes []string
	claims  map[string]*classClaim

	events    eventTarget
	observers observers
}

// NewElement creates an element with the given tag name.
func NewElement(tag string) *Element {
	return &Element{
		tag:   strings.ToLower(tag),
		index: make(map[attrKey]int),
	}
}

// Tag returns the lower-case tag name.
func (e *Element) Tag() string {
	return e.tag
}

// GetAttribute returns the value of a non-namespaced attribute.
func (e *Element) GetAttribute(name string) (string, bool) {
	return e.GetAttributeNS("", name)
}

// GetAttributeNS returns the value of the attribute name in namespace ns.
// An empty ns means no namespace.
func (e *Element) GetAttributeNS(ns, name string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if ns == "" && name == "class" {
		if len(e.classes) == 0 {
			return "", false
		}
		return strings.Join(e.classes, " "), true
	}

	i, ok := e.index[attrKey{ns, name}]
	if !ok {
		return "", false
	}
	return e.attrs[i].Value, true
}

// HasAttribute reports whether a non-namespaced attribute is present.
func (e *Element) HasAttribute(name string) bool {
	_, ok := e.GetAttribute(name)
	return ok
}

// SetAttribute sets a non-namespaced attribute.
func (e *Element) SetAttribute(name, value string) {
	e.SetAttributeNS("", name, value)
}

// SetAttributeNS sets the attribute name in namespace ns. Setting "class"
// without a namespace replaces the class list.
func (e *Element) SetAttributeNS(ns, name, value string) {
	if ns == "" && name == "class" {
		e.mu.Lock()
		old := strings.Join(e.classes, " ")
		e.classes = uniqueFields(value)
		e.claims = nil
		e.mu.Unlock()
		e.observers.notify(Mutation{Kind: MutationClass, Name: "class", OldValue: old})
		return
	}

	e.mu.Lock()
	key := attrKey{ns, name}
	var old string
	var had bool
	if i, ok := e.index[key]; ok {
		old, had = e.attrs[i].Value, true
		e.attrs[i].Value = value
	} else {
		e.index[key] = len(e.attrs)
		e.attrs = append(e.attrs, Attr{Namespace: ns, Name: name, Value: value})
	}
	e.mu.Unlock()

	if had && old == value {
		return
	}
	e.observers.notify(Mutation{Kind: MutationAttribute, Namespace: ns, Name: name, OldValue: old, HadValue: had})
}

// RemoveAttribute removes a non-namespaced attribute.
func (e *Element) RemoveAttribute(name string) {
	e.RemoveAttributeNS("", name)
}

// RemoveAttributeNS removes the attribute name in namespace ns. Removing an
// absent attribute is a no-op.
func (e *Element) RemoveAttributeNS(ns, name string) {
	if ns == "" && name == "class" {
		e.SetAttributeNS("", "class", "")
		return
	}

	e.mu.Lock()
	key := attrKey{ns, name}
	i, ok := e.index[key]
	if !ok {
		e.mu.Unlock()
		return
	}
	old := e.attrs[i].Value
	e.attrs = append(e.attrs[:i:i], e.attrs[i+1:]...)
	delete(e.index, key)
	for j := i; j < len(e.attrs); j++ {
		e.index[attrKey{e.attrs[j].Namespace, e.attrs[j].Name}] = j
	}
	e.mu.Unlock()

	e.observers.notify(Mutation{Kind: MutationAttribute, Namespace: ns, Name: name, OldValue: old, HadValue: true, Removed: true})
}

// Attributes returns a copy of the attributes in insertion order. The class
// list is not included; see Classes.
func (e *Element) Attributes() []Attr {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Attr, len(e.attrs))
	copy(out, e.attrs)
	return out
}

// AddClass adds each class not already present, keeping first-added order.
func (e *Element) AddClass(names ...string) {
	e.mu.Lock()
	old := strings.Join(e.classes, " ")
	changed := false
	for _, name := range names {
		if name == "" {
			continue
		}
		if c := e.claims[name]; c != nil {
			c.pinned = true
		}
		if containsString(e.classes, name) {
			continue
		}
		e.classes = append(e.classes, name)
		changed = true
	}
	e.mu.Unlock()

	if changed {
		e.observers.notify(Mutation{Kind: MutationClass, Name: "class", OldValue: old})
	}
}

// RemoveClass removes each listed class and drops any claims on it. Absent
// classes are ignored.
func (e *Element) RemoveClass(names ...string) {
	e.mu.Lock()
	old := strings.Join(e.classes, " ")
	changed := false
	for _, name := range names {
		delete(e.claims, name)
		if e.removeClassLocked(name) {
			changed = true
		}
	}
	e.mu.Unlock()

	if changed {
		e.observers.notify(Mutation{Kind: MutationClass, Name: "class", OldValue: old})
	}
}

func (e *Element) removeClassLocked(name string) bool {
	for i, c := range e.classes {
		if c == name {
			e.classes = append(e.classes[:i:i], e.classes[i+1:]...)
			return true
		}
	}
	return false
}

// classClaim counts the holders of a claimed class. A pinned class was
// present or added directly and outlives its claims.
type classClaim struct {
	holders int
	pinned  bool
}

// ClaimClass adds each class like AddClass and records one more holder for
// it. A class already on the element when first claimed stays after the
// last ReleaseClass.
func (e *Element) ClaimClass(names ...string) {
	e.mu.Lock()
	old := strings.Join(e.classes, " ")
	changed := false
	for _, name := range names {
		if name == "" {
			continue
		}
		if e.claims == nil {
			e.claims = make(map[string]*classClaim)
		}
		c := e.claims[name]
		if c == nil {
			c = &classClaim{pinned: containsString(e.classes, name)}
			e.claims[name] = c
		}
		c.holders++
		if !containsString(e.classes, name) {
			e.classes = append(e.classes, name)
			changed = true
		}
	}
	e.mu.Unlock()

	if changed {
		e.observers.notify(Mutation{Kind: MutationClass, Name: "class", OldValue: old})
	}
}

// ReleaseClass drops one holder of each class. A class is removed when its
// last holder releases it, unless it is pinned. Unclaimed classes are
// ignored.
func (e *Element) ReleaseClass(names ...string) {
	e.mu.Lock()
	old := strings.Join(e.classes, " ")
	changed := false
	for _, name := range names {
		c := e.claims[name]
		if c == nil {
			continue
		}
		if c.holders--; c.holders > 0 {
			continue
		}
		delete(e.claims, name)
		if !c.pinned && e.removeClassLocked(name) {
			changed = true
		}
	}
	e.mu.Unlock()

	if changed {
		e.observers.notify(Mutation{Kind: MutationClass, Name: "class", OldValue: old})
	}
}

// ToggleClass adds name when force is true and removes it otherwise.
func (e *Element) ToggleClass(name string, force bool) {
	if force {
		e.AddClass(name)
		return
	}
	e.RemoveClass(name)
}

// HasClass reports whether the class list contains name.
func (e *Element) HasClass(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return containsString(e.classes, name)
}

// Classes returns a copy of the class list.
func (e *Element) Classes() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, len(e.classes))
	copy(out, e.classes)
	return out
}

// AddEventListener registers fn for events of the given type and returns a
// function that removes it.
func (e *Element) AddEventListener(typ string, fn func(Event)) (remove func()) {
	return e.events.add(typ, fn)
}

// DispatchEvent delivers ev to the listeners for ev.Type in registration order.
func (e *Element) DispatchEvent(ev Event) {
	if ev.Target == nil {
		ev.Target = e
	}
	e.events.dispatch(ev)
}

// Observe registers fn to receive every mutation of this element.
func (e *Element) Observe(fn func(Mutation)) (stop func()) {
	return e.observers.add(fn)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func uniqueFields(s string) []string {
	var out []string
	for _, f := range strings.Fields(s) {
		if !containsString(out, f) {
			out = append(out, f)
		}
	}
	return out
}
