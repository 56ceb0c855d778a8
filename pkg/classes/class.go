package classes

import (
	"github.com/vango-dev/composables/internal/errors"
	"github.com/vango-dev/composables/pkg/component"
	"github.com/vango-dev/composables/pkg/reactive"
)

// Target is an element whose class list can be changed. Claimed classes
// are shared: a class stays while any claim on it is held.
type Target interface {
	AddClass(names ...string)
	RemoveClass(names ...string)
	ClaimClass(names ...string)
	ReleaseClass(names ...string)
}

// resolveTarget returns target if set, otherwise the scope's host element.
func resolveTarget(scope *component.Scope, target Target) (Target, error) {
	if target != nil {
		return target, nil
	}
	if host := scope.Host(); host != nil {
		return host, nil
	}
	return nil, errors.New("E102").WithDetail("class binding")
}

// AddClass adds a class to the host element once, outside any binding.
func AddClass(scope *component.Scope, class string) error {
	target, err := resolveTarget(scope, nil)
	if err != nil {
		return err
	}
	target.AddClass(class)
	return nil
}

// ClassOptions configures BindClass and UseClass.
type ClassOptions struct {
	// Target overrides the scope's host element.
	Target Target
}

// BindClass adds class to the target while value is true and removes it
// while value is false. It returns value.
func BindClass[R reactive.Readable[bool]](scope *component.Scope, class string, value R, opts ClassOptions) (R, error) {
	target, err := resolveTarget(scope, opts.Target)
	if err != nil {
		return value, err
	}

	reactive.Watch[bool](scope.Owner(), value, func(apply bool) reactive.Cleanup {
		if apply {
			target.AddClass(class)
		} else {
			target.RemoveClass(class)
		}
		return nil
	})
	return value, nil
}

// UseClassOptions configures UseClass.
type UseClassOptions struct {
	ClassOptions

	// Initial is the initial value. Defaults to true.
	Initial *bool
}

// UseClass creates a boolean signal bound to class with BindClass.
func UseClass(scope *component.Scope, class string, opts UseClassOptions) (*reactive.Signal[bool], error) {
	initial := true
	if opts.Initial != nil {
		initial = *opts.Initial
	}
	return BindClass(scope, class, reactive.NewSignal(initial), opts.ClassOptions)
}
