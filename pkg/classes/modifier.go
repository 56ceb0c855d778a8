package classes

import (
	stderrors "errors"

	"github.com/vango-dev/composables/internal/errors"
	"github.com/vango-dev/composables/pkg/component"
	"github.com/vango-dev/composables/pkg/reactive"
)

// ErrNoBaseClass is wrapped by the error returned from the modifier binders
// when neither the options nor the scope provide a base class.
var ErrNoBaseClass = stderrors.New("no base class was provided")

type baseClassKey struct{}

// ProvideBaseClass makes base the base class of scope and its descendants.
func ProvideBaseClass(scope *component.Scope, base string) {
	scope.Provide(baseClassKey{}, base)
}

// BaseClass returns the base class provided to scope or an ancestor.
func BaseClass(scope *component.Scope) (string, bool) {
	v, ok := scope.Lookup(baseClassKey{})
	if !ok {
		return "", false
	}
	base, _ := v.(string)
	return base, base != ""
}

// ModifierOptions configures BindModifier and BindModifierGroup.
type ModifierOptions struct {
	ClassOptions

	// BaseClass overrides the base class provided to the scope.
	BaseClass string

	// SkipBaseClass leaves the base class off the target. By default the
	// base class is added once when the binder is created.
	SkipBaseClass bool
}

// resolveBase returns the base class for a modifier binder and applies it
// to target unless suppressed.
func resolveBase(scope *component.Scope, target Target, opts ModifierOptions, what string) (string, error) {
	base := opts.BaseClass
	if base == "" {
		base, _ = BaseClass(scope)
	}
	if base == "" {
		return "", errors.New("E101").WithDetail(what).Wrap(ErrNoBaseClass)
	}
	if !opts.SkipBaseClass {
		target.AddClass(base)
	}
	return base, nil
}

// ModifierClass returns the BEM modifier class "<base>--<modifier>".
func ModifierClass(base, modifier string) string {
	return base + "--" + modifier
}

// BindModifier toggles "<base>--<modifier>" on the target according to
// apply. It fails when no base class can be resolved.
func BindModifier[R reactive.Readable[bool]](scope *component.Scope, modifier string, apply R, opts ModifierOptions) (R, error) {
	target, err := resolveTarget(scope, opts.Target)
	if err != nil {
		return apply, err
	}
	base, err := resolveBase(scope, target, opts, "modifier "+modifier)
	if err != nil {
		return apply, err
	}

	return BindClass(scope, ModifierClass(base, modifier), apply, ClassOptions{Target: target})
}

// UseModifierOptions configures UseModifier.
type UseModifierOptions struct {
	ModifierOptions

	// Initial is the initial value. Defaults to true.
	Initial *bool
}

// UseModifier creates a boolean signal bound with BindModifier.
func UseModifier(scope *component.Scope, modifier string, opts UseModifierOptions) (*reactive.Signal[bool], error) {
	initial := true
	if opts.Initial != nil {
		initial = *opts.Initial
	}
	return BindModifier(scope, modifier, reactive.NewSignal(initial), opts.ModifierOptions)
}
