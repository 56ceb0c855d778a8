package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vango-dev/composables/pkg/attribute"
	"github.com/vango-dev/composables/pkg/classes"
	"github.com/vango-dev/composables/pkg/component"
	"github.com/vango-dev/composables/pkg/dom"
	"github.com/vango-dev/composables/pkg/observer"
	"github.com/vango-dev/composables/pkg/opt"
	"github.com/vango-dev/composables/pkg/reactive"
	"github.com/vango-dev/composables/pkg/storage"
	"github.com/vango-dev/composables/pkg/title"
)

func demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run the binders against a headless document",
		Long: `Run the binders against a headless document.

A button component binds a modifier group, a size modifier, a
boolean attribute and an ARIA label; the document root follows the
resolved colour scheme (stored override first) and the text direction.
Each step mutates one input and prints the resulting markup.`,
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.OutOrStdout())
		},
	}
}

func runDemo(w io.Writer) error {
	doc := dom.NewDocument("Untitled")
	win := storage.NewWindow(nil, nil, nil)
	media := observer.NewMedia(1280, 800)
	dir := observer.NewDirectionality(observer.LTR)

	page := component.NewScope(nil, doc.Root())
	defer page.Dispose()

	pageTitle := title.Use(page.Owner(), doc, opt.Of("Settings"))

	stored, err := storage.Use(page.Owner(), "color-scheme", storage.UseOptions{
		Options: storage.Options{Storage: win.Local},
	})
	if err != nil {
		return err
	}
	scheme := observer.UseColorScheme(page, media, observer.ColorSchemeOptions{
		Store:   stored,
		Default: observer.Light,
	})
	theme := reactive.Map[observer.ColorScheme, opt.Value[string]](page.Owner(), scheme.Resolved,
		func(c observer.ColorScheme) opt.Value[string] {
			if c == observer.NoPreference {
				return opt.Null[string]()
			}
			return opt.Of(string(c))
		})
	if _, err := attribute.Bind(page, "data-theme", theme, attribute.Options{}); err != nil {
		return err
	}
	if _, err := observer.UseDirectionality(page, dir, observer.DirectionalityOptions{Document: doc}); err != nil {
		return err
	}

	button := component.NewScope(page, dom.NewElement("button"))
	classes.ProvideBaseClass(button, "button")

	variant, err := classes.UseModifierGroup(button, opt.Of("primary"), classes.ModifierGroupOptions{})
	if err != nil {
		return err
	}
	large := observer.UseBreakpoint(button, media, "Large", "XLarge")
	if _, err := classes.BindModifier(button, "large", large, classes.ModifierOptions{}); err != nil {
		return err
	}
	disabled, err := attribute.UseBool(button, "disabled", attribute.UseBoolOptions{})
	if err != nil {
		return err
	}
	label, err := attribute.Use(button, "aria-label", attribute.UseOptions{Initial: opt.Of("Save settings")})
	if err != nil {
		return err
	}

	step := 0
	show := func(what string) {
		step++
		fmt.Fprintf(w, "%s %s\n", paint(colorGreen, fmt.Sprintf("%d.", step)), what)
		fmt.Fprintf(w, "   title:  %s\n", doc.Title())
		fmt.Fprintf(w, "   root:   %s\n", doc.Root().OuterHTML())
		fmt.Fprintf(w, "   button: %s\n", button.Host().OuterHTML())
	}

	show("initial render")

	variant.Set(opt.Of("danger"))
	show(`variant = "danger"`)

	disabled.Set(opt.Of(true))
	label.Set(opt.Null[string]())
	show("disabled, label removed")

	media.Resize(800, 600)
	show("viewport resized to 800x600")

	media.SetColorScheme("dark")
	show("system prefers dark")

	if err := win.Local.SetItem("color-scheme", "light"); err != nil {
		return err
	}
	show("stored override: light")

	dir.Set(observer.RTL)
	pageTitle.Set("Settings (saved)")
	show("right-to-left, title updated")

	variant.Set(opt.Undef[string]())
	stored.Set(opt.Null[string]())
	show("variant cleared, override removed")

	return nil
}
