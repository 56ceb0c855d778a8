package observer

import (
	"github.com/vango-dev/composables/pkg/attribute"
	"github.com/vango-dev/composables/pkg/component"
	"github.com/vango-dev/composables/pkg/dom"
	"github.com/vango-dev/composables/pkg/opt"
	"github.com/vango-dev/composables/pkg/reactive"
)

// Text directions.
const (
	LTR = "ltr"
	RTL = "rtl"
)

// Directionality is a source of the current text direction.
type Directionality interface {
	Value() string
	OnChange(fn func(dir string)) (remove func())
}

// DirectionSource is a settable Directionality.
type DirectionSource struct {
	value *reactive.Signal[string]
}

// NewDirectionality creates a source with the given initial direction.
func NewDirectionality(dir string) *DirectionSource {
	return &DirectionSource{value: reactive.NewSignal(normalizeDir(dir))}
}

// normalizeDir maps anything but "rtl" to "ltr".
func normalizeDir(dir string) string {
	if dir == RTL {
		return RTL
	}
	return LTR
}

// Value implements Directionality.
func (d *DirectionSource) Value() string {
	return d.value.Get()
}

// OnChange implements Directionality.
func (d *DirectionSource) OnChange(fn func(string)) func() {
	return d.value.Subscribe(func() { fn(d.value.Get()) })
}

// Set changes the direction.
func (d *DirectionSource) Set(dir string) {
	d.value.Set(normalizeDir(dir))
}

// DirectionalityOptions configures UseDirectionality.
type DirectionalityOptions struct {
	// Target receives the "dir" attribute. Nil uses the root element of
	// Document.
	Target attribute.Target

	// Document supplies the default target. With neither Target nor
	// Document set the attribute is not bound.
	Document *dom.Document
}

// UseDirectionality returns a signal that follows dir and mirrors it to the
// "dir" attribute of the target.
func UseDirectionality(scope *component.Scope, dir Directionality, opts DirectionalityOptions) (reactive.Readable[string], error) {
	value := reactive.NewSignal(normalizeDir(dir.Value()))
	scope.OnCleanup(dir.OnChange(func(d string) {
		value.Set(normalizeDir(d))
	}))

	target := opts.Target
	if target == nil && opts.Document != nil {
		target = opts.Document.Root()
	}
	if target != nil {
		attr := reactive.Map[string, opt.Value[string]](scope.Owner(), value, opt.Of[string])
		if _, err := attribute.Bind(scope, "dir", attr, attribute.Options{Target: target}); err != nil {
			return nil, err
		}
	}
	return reactive.ReadOnly[string](value), nil
}
