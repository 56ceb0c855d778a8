// Package classes binds reactive values to the class list of an element.
//
// Four binders share one model: a binder only adds and removes the classes
// it owns, so several binders (and unrelated code) can share one element.
//
//   - BindClass toggles one class from a boolean.
//   - BindClasses applies a whole class list and removes exactly that list
//     before applying the next one.
//   - BindModifier toggles the BEM modifier "<base>--<modifier>".
//   - BindModifierGroup applies at most one modifier of a mutually exclusive
//     group, "<base>--[<prefix>-]<value>".
//
// The base class is taken from the options or provided to a subtree with
// ProvideBaseClass:
//
//	scope := component.NewScope(nil, button)
//	classes.ProvideBaseClass(scope, "c-button")
//	appearance, _ := classes.UseModifierGroup(scope, opt.Of("solid"), classes.ModifierGroupOptions{})
//	appearance.Set(opt.Of("outline")) // c-button c-button--outline
package classes
