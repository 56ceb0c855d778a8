// Package observer exposes changing environment state as signals: DOM
// events, media queries, breakpoints, the preferred colour scheme and the
// text direction. Every listener is removed when the owning scope is
// disposed.
package observer

import (
	"slices"
	"strings"

	"github.com/vango-dev/composables/internal/errors"
	"github.com/vango-dev/composables/pkg/component"
	"github.com/vango-dev/composables/pkg/dom"
	"github.com/vango-dev/composables/pkg/opt"
	"github.com/vango-dev/composables/pkg/reactive"
)

// UseEvent returns a signal holding the latest event of type typ on target,
// undefined until the first one. A nil target means the scope's host.
// Every event notifies, even one equal to the previous.
func UseEvent(scope *component.Scope, typ string, target dom.EventTarget) (reactive.Readable[opt.Value[dom.Event]], error) {
	if target == nil {
		host := scope.Host()
		if host == nil {
			return nil, errors.New("E102").WithDetailf("event %q", typ)
		}
		target = host
	}

	latest := reactive.NewSignal(opt.Undef[dom.Event]()).WithEquals(func(a, b opt.Value[dom.Event]) bool {
		return false
	})
	remove := target.AddEventListener(typ, func(ev dom.Event) {
		latest.Set(opt.Of(ev))
	})
	scope.OnCleanup(remove)
	return reactive.ReadOnly[opt.Value[dom.Event]](latest), nil
}

// ActivateOptions configures UseActivate.
type ActivateOptions struct {
	// Click activates on "click" events.
	Click bool

	// Keys activates on "keydown" events whose Detail is one of the keys,
	// e.g. "Enter" or " ".
	Keys []string

	// Target defaults to the scope's host.
	Target dom.EventTarget
}

// UseActivate returns a signal holding the latest event that activated the
// target: a click, or a keydown of one of the configured keys.
func UseActivate(scope *component.Scope, opts ActivateOptions) (reactive.Readable[opt.Value[dom.Event]], error) {
	target := opts.Target
	if target == nil {
		host := scope.Host()
		if host == nil {
			return nil, errors.New("E102").WithDetail("activate")
		}
		target = host
	}

	latest := reactive.NewSignal(opt.Undef[dom.Event]()).WithEquals(func(a, b opt.Value[dom.Event]) bool {
		return false
	})
	if opts.Click {
		scope.OnCleanup(target.AddEventListener("click", func(ev dom.Event) {
			latest.Set(opt.Of(ev))
		}))
	}
	if len(opts.Keys) > 0 {
		scope.OnCleanup(target.AddEventListener("keydown", func(ev dom.Event) {
			if key, ok := ev.Detail.(string); ok && slices.Contains(opts.Keys, key) {
				latest.Set(opt.Of(ev))
			}
		}))
	}
	return reactive.ReadOnly[opt.Value[dom.Event]](latest), nil
}

// UseMediaQuery returns a signal that tracks whether query matches in env.
func UseMediaQuery(scope *component.Scope, env MediaEnvironment, query string) reactive.Readable[bool] {
	list := env.MatchMedia(query)
	matches := reactive.NewSignal(list.Matches())
	scope.OnCleanup(list.AddListener(matches.Set))
	return reactive.ReadOnly[bool](matches)
}

// Breakpoints maps breakpoint names to media queries.
var Breakpoints = map[string]string{
	"XSmall":  "(max-width: 599.98px)",
	"Small":   "(min-width: 600px) and (max-width: 959.98px)",
	"Medium":  "(min-width: 960px) and (max-width: 1279.98px)",
	"Large":   "(min-width: 1280px) and (max-width: 1919.98px)",
	"XLarge":  "(min-width: 1920px)",
	"Handset": "(max-width: 599.98px) and (orientation: portrait), (max-width: 959.98px) and (orientation: landscape)",
	"Tablet":  "(min-width: 600px) and (max-width: 839.98px) and (orientation: portrait), (min-width: 960px) and (max-width: 1279.98px) and (orientation: landscape)",
	"Web":     "(min-width: 840px) and (orientation: portrait), (min-width: 1280px) and (orientation: landscape)",
}

// UseBreakpoint tracks whether any of breakpoints matches. Each entry is a
// name from Breakpoints or a raw media query.
func UseBreakpoint(scope *component.Scope, env MediaEnvironment, breakpoints ...string) reactive.Readable[bool] {
	queries := make([]string, len(breakpoints))
	for i, bp := range breakpoints {
		if q, ok := Breakpoints[bp]; ok {
			bp = q
		}
		queries[i] = bp
	}
	return UseMediaQuery(scope, env, strings.Join(queries, ", "))
}

// ColorScheme is a colour scheme preference. The empty value means no
// preference.
type ColorScheme string

const (
	NoPreference ColorScheme = ""
	Dark         ColorScheme = "dark"
	Light        ColorScheme = "light"
)

// ParseColorScheme returns the scheme named s, or NoPreference.
func ParseColorScheme(s string) ColorScheme {
	switch ColorScheme(s) {
	case Dark, Light:
		return ColorScheme(s)
	}
	return NoPreference
}

// UsePreferredColorScheme tracks the colour scheme preferred by the
// environment: Dark, Light or NoPreference.
func UsePreferredColorScheme(scope *component.Scope, env MediaEnvironment) reactive.Readable[ColorScheme] {
	dark := UseMediaQuery(scope, env, "(prefers-color-scheme: dark)")
	light := UseMediaQuery(scope, env, "(prefers-color-scheme: light)")
	return reactive.Derive(scope.Owner(), func() ColorScheme {
		switch {
		case dark.Get():
			return Dark
		case light.Get():
			return Light
		}
		return NoPreference
	}, dark, light)
}

// ColorSchemeOptions configures UseColorScheme.
type ColorSchemeOptions struct {
	// Store holds the user's explicit choice, typically a storage.Use
	// signal. Values other than "dark" and "light" count as no choice.
	// Nil creates an in-memory signal.
	Store reactive.Writable[opt.Value[string]]

	// Default applies when there is neither a stored choice nor a detected
	// preference.
	Default ColorScheme
}

// ColorSchemeState is the result of UseColorScheme.
type ColorSchemeState struct {
	// Detected is the environment's preference.
	Detected reactive.Readable[ColorScheme]

	// Store is the user's override. Set it to choose a scheme and to null
	// to go back to the detected one.
	Store reactive.Writable[opt.Value[string]]

	// Resolved is the scheme to apply: the stored choice, else the detected
	// preference, else the default, else NoPreference.
	Resolved reactive.Readable[ColorScheme]
}

// UseColorScheme layers a user-overridable choice over the detected
// colour scheme preference.
func UseColorScheme(scope *component.Scope, env MediaEnvironment, opts ColorSchemeOptions) ColorSchemeState {
	store := opts.Store
	if store == nil {
		store = reactive.NewSignal(opt.Undef[string]())
	}
	detected := UsePreferredColorScheme(scope, env)

	resolved := reactive.Derive(scope.Owner(), func() ColorScheme {
		if s, ok := store.Get().Get(); ok {
			if scheme := ParseColorScheme(s); scheme != NoPreference {
				return scheme
			}
		}
		if d := detected.Get(); d != NoPreference {
			return d
		}
		return opts.Default
	}, store, detected)

	return ColorSchemeState{
		Detected: detected,
		Store:    store,
		Resolved: resolved,
	}
}
