package classes

import (
	"github.com/vango-dev/composables/pkg/component"
	"github.com/vango-dev/composables/pkg/reactive"
)

// ClassList is a class string ("a b c") or an already split list.
type ClassList interface {
	string | []string
}

// BindClasses claims every class of value on the target and releases them
// before the next application and when the scope is disposed. A released
// class is removed only when no other binder claims it and it was not on
// the target beforehand. It returns value.
func BindClasses[L ClassList, R reactive.Readable[L]](scope *component.Scope, value R, opts ClassOptions) (R, error) {
	target, err := resolveTarget(scope, opts.Target)
	if err != nil {
		return value, err
	}

	reactive.Watch[L](scope.Owner(), value, func(list L) reactive.Cleanup {
		current := Normalize(list)
		if len(current) == 0 {
			return nil
		}
		applied := append([]string(nil), current...)

		target.ClaimClass(applied...)
		return func() {
			target.ReleaseClass(applied...)
		}
	})
	return value, nil
}

// UseClasses creates a class list signal bound with BindClasses.
func UseClasses(scope *component.Scope, initial []string, opts ClassOptions) (*reactive.Signal[[]string], error) {
	return BindClasses[[]string](scope, reactive.NewSignal(initial), opts)
}
