package attribute

import (
	"github.com/vango-dev/composables/pkg/component"
	"github.com/vango-dev/composables/pkg/opt"
	"github.com/vango-dev/composables/pkg/reactive"
)

// BoolOptions configures BindBool.
type BoolOptions struct {
	// Namespace of the attribute. Empty means no namespace.
	Namespace string

	// Default is used while the bound value is undefined.
	Default opt.Value[bool]

	// Target overrides the scope's host element.
	Target Target
}

// toAttributeValue maps true to a present empty value, false to null and
// undefined to undefined.
func toAttributeValue(v opt.Value[bool]) opt.Value[string] {
	b, ok := v.Get()
	switch {
	case ok && b:
		return opt.Of("")
	case ok:
		return opt.Null[string]()
	case v.IsNull():
		return opt.Null[string]()
	default:
		return opt.Undef[string]()
	}
}

// BindBool binds a boolean attribute: present while value is true, absent
// while it is false, and untouched while it is undefined with no default.
// DOM mutation is delegated to Bind. It returns value.
func BindBool[R reactive.Readable[opt.Value[bool]]](scope *component.Scope, name string, value R, opts BoolOptions) (R, error) {
	target, err := resolveTarget(scope, opts.Target, name)
	if err != nil {
		return value, err
	}

	defaultAttr := toAttributeValue(opts.Default)
	mapped := reactive.Map[opt.Value[bool], opt.Value[string]](scope.Owner(), value, func(v opt.Value[bool]) opt.Value[string] {
		return toAttributeValue(v).WithDefault(defaultAttr)
	})

	if _, err := Bind(scope, name, mapped, Options{Namespace: opts.Namespace, Target: target, keepUndefined: true}); err != nil {
		return value, err
	}
	return value, nil
}

// UseBoolOptions configures UseBool.
type UseBoolOptions struct {
	BoolOptions

	// Initial is the initial value. When undefined, Default is used, and
	// without a default the attribute's presence on the target.
	Initial opt.Value[bool]
}

// UseBool creates a boolean signal for the attribute name and binds it
// with BindBool. The initial value is Initial, else Default, else whether
// the attribute is present on the target.
func UseBool(scope *component.Scope, name string, opts UseBoolOptions) (*reactive.Signal[opt.Value[bool]], error) {
	target, err := resolveTarget(scope, opts.Target, name)
	if err != nil {
		return nil, err
	}

	initial := opts.Initial.Coalesce(opts.Default)
	if initial.IsNullish() {
		_, present := target.GetAttributeNS(opts.Namespace, name)
		initial = opt.Of(present)
	}

	bindOpts := opts.BoolOptions
	bindOpts.Target = target
	return BindBool(scope, name, reactive.NewSignal(initial), bindOpts)
}
