package title

import (
	"testing"

	"github.com/vango-dev/composables/pkg/dom"
	"github.com/vango-dev/composables/pkg/opt"
	"github.com/vango-dev/composables/pkg/reactive"
)

func TestBind(t *testing.T) {
	owner := reactive.NewOwner(nil)
	doc := dom.NewDocument("Start")

	name := reactive.NewSignal("Jane")
	greeting := reactive.Map[string, string](owner, name, func(n string) string { return "Hello " + n })
	Bind(owner, doc, greeting)
	if doc.Title() != "Hello Jane" {
		t.Errorf("title = %q", doc.Title())
	}

	name.Set("Alice")
	if doc.Title() != "Hello Alice" {
		t.Errorf("title = %q", doc.Title())
	}

	owner.Dispose()
	name.Set("Bob")
	if doc.Title() != "Hello Alice" {
		t.Errorf("title = %q after dispose", doc.Title())
	}
}

func TestUse(t *testing.T) {
	tests := []struct {
		name    string
		initial opt.Value[string]
		want    string
	}{
		{"explicit initial", opt.Of("Hello World"), "Hello World"},
		{"empty initial is kept", opt.Of(""), ""},
		{"defaults to current title", opt.Undef[string](), "Current"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner := reactive.NewOwner(nil)
			defer owner.Dispose()
			doc := dom.NewDocument("Current")

			title := Use(owner, doc, tt.initial)
			if title.Get() != tt.want || doc.Title() != tt.want {
				t.Errorf("signal = %q, title = %q, want %q", title.Get(), doc.Title(), tt.want)
			}

			title.Set("Hello Jane")
			if doc.Title() != "Hello Jane" {
				t.Errorf("title = %q after Set", doc.Title())
			}
		})
	}
}

func TestBindNotifiesObservers(t *testing.T) {
	owner := reactive.NewOwner(nil)
	defer owner.Dispose()
	doc := dom.NewDocument("")

	var seen []string
	doc.OnTitleChange(func(title string) { seen = append(seen, title) })

	title := Use(owner, doc, opt.Of("a"))
	title.Set("a")
	title.Set("b")
	if len(seen) != 2 || seen[0] != "a" || seen[1] != "b" {
		t.Errorf("observed %v, want [a b]", seen)
	}
}
