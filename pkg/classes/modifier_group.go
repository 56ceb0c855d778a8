package classes

import (
	"github.com/vango-dev/composables/pkg/component"
	"github.com/vango-dev/composables/pkg/opt"
	"github.com/vango-dev/composables/pkg/reactive"
)

// ModifierGroupOptions configures BindModifierGroup and UseModifierGroup.
type ModifierGroupOptions struct {
	ModifierOptions

	// Prefix is inserted between the base class and the value:
	// "<base>--<prefix>-<value>".
	Prefix string
}

// groupClass returns the class for one selection of a modifier group, or
// nil when nothing is selected.
func groupClass(base, prefix string, selected opt.Value[string]) []string {
	v, ok := selected.Get()
	if !ok || v == "" {
		return nil
	}
	if prefix != "" {
		v = prefix + "-" + v
	}
	return []string{ModifierClass(base, v)}
}

// BindModifierGroup keeps exactly one modifier of a mutually exclusive group
// on the target: "<base>--[<prefix>-]<value>" while value is present and
// none while it is null or undefined. Changing the value removes the
// previous modifier before the new one is added. It fails when no base
// class can be resolved.
func BindModifierGroup[R reactive.Readable[opt.Value[string]]](scope *component.Scope, value R, opts ModifierGroupOptions) (R, error) {
	target, err := resolveTarget(scope, opts.Target)
	if err != nil {
		return value, err
	}
	what := "modifier group"
	if opts.Prefix != "" {
		what += " " + opts.Prefix
	}
	base, err := resolveBase(scope, target, opts.ModifierOptions, what)
	if err != nil {
		return value, err
	}

	className := reactive.Map[opt.Value[string], []string](scope.Owner(), value, func(v opt.Value[string]) []string {
		return groupClass(base, opts.Prefix, v)
	})
	if _, err := BindClasses[[]string](scope, className, ClassOptions{Target: target}); err != nil {
		return value, err
	}
	return value, nil
}

// UseModifierGroup creates a signal holding the current selection of a
// modifier group and binds it with BindModifierGroup.
func UseModifierGroup(scope *component.Scope, initial opt.Value[string], opts ModifierGroupOptions) (*reactive.Signal[opt.Value[string]], error) {
	return BindModifierGroup(scope, reactive.NewSignal(initial), opts)
}
