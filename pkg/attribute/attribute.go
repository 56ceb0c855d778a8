// Package attribute binds reactive values to element attributes.
//
// Values are opt.Value[string]: a present value sets the attribute, an
// explicit null removes it, and an undefined value falls back to the
// configured default (and removes the attribute when there is none).
//
//	role, _ := attribute.Use(scope, "role", attribute.UseOptions{
//	    Options: attribute.Options{Default: opt.Of("button")},
//	})
//	role.Set(opt.Of("menuitem")) // role="menuitem"
//	role.Set(opt.Null[string]()) // attribute removed, default not reapplied
package attribute

import (
	"github.com/vango-dev/composables/internal/errors"
	"github.com/vango-dev/composables/pkg/component"
	"github.com/vango-dev/composables/pkg/opt"
	"github.com/vango-dev/composables/pkg/reactive"
)

// Target is an element whose attributes can be read and changed.
type Target interface {
	GetAttributeNS(ns, name string) (string, bool)
	SetAttributeNS(ns, name, value string)
	RemoveAttributeNS(ns, name string)
}

// Options configures Bind.
type Options struct {
	// Namespace of the attribute. Empty means no namespace.
	Namespace string

	// Default is used while the bound value is undefined.
	Default opt.Value[string]

	// Target overrides the scope's host element.
	Target Target

	// keepUndefined leaves the attribute alone while the effective value
	// is undefined. Set by BindBool.
	keepUndefined bool
}

func resolveTarget(scope *component.Scope, target Target, name string) (Target, error) {
	if target != nil {
		return target, nil
	}
	if host := scope.Host(); host != nil {
		return host, nil
	}
	return nil, errors.New("E102").WithDetailf("attribute %q", name)
}

// apply writes one resolved value to the target.
func apply(target Target, name string, value opt.Value[string], opts Options) {
	switch value.State() {
	case opt.StatePresent:
		v, _ := value.Get()
		target.SetAttributeNS(opts.Namespace, name, v)
	case opt.StateUndefined:
		if opts.keepUndefined {
			return
		}
		target.RemoveAttributeNS(opts.Namespace, name)
	default:
		target.RemoveAttributeNS(opts.Namespace, name)
	}
}

// Bind keeps the attribute name on the target in sync with value. On every
// change the effective value is value, or Default while value is
// undefined; a present effective value sets the attribute and a nullish
// one removes it. It returns value.
func Bind[R reactive.Readable[opt.Value[string]]](scope *component.Scope, name string, value R, opts Options) (R, error) {
	target, err := resolveTarget(scope, opts.Target, name)
	if err != nil {
		return value, err
	}

	reactive.Watch[opt.Value[string]](scope.Owner(), value, func(v opt.Value[string]) reactive.Cleanup {
		apply(target, name, v.WithDefault(opts.Default), opts)
		return nil
	})
	return value, nil
}

// UseOptions configures Use.
type UseOptions struct {
	Options

	// Initial is the initial value. When undefined, the value already on the
	// target is used, then Default.
	Initial opt.Value[string]
}

// initialValue resolves the initial value of Use:
// Initial > value present on the target > Default > undefined.
// An explicitly null Initial also falls back to Default.
func initialValue(target Target, name string, opts UseOptions) opt.Value[string] {
	if !opts.Initial.IsUndefined() {
		return opts.Initial.Coalesce(opts.Default)
	}
	if v, ok := target.GetAttributeNS(opts.Namespace, name); ok {
		return opt.Of(v)
	}
	return opts.Default
}

// Use creates a signal for the attribute name, initialised from the options
// or the target, and binds it with Bind.
func Use(scope *component.Scope, name string, opts UseOptions) (*reactive.Signal[opt.Value[string]], error) {
	target, err := resolveTarget(scope, opts.Target, name)
	if err != nil {
		return nil, err
	}

	value := reactive.NewSignal(initialValue(target, name, opts))
	bindOpts := opts.Options
	bindOpts.Target = target
	return Bind(scope, name, value, bindOpts)
}
