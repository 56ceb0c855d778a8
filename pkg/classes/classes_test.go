package classes

import (
	stderrors "errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/vango-dev/composables/internal/errors"
	"github.com/vango-dev/composables/pkg/component"
	"github.com/vango-dev/composables/pkg/dom"
	"github.com/vango-dev/composables/pkg/opt"
	"github.com/vango-dev/composables/pkg/reactive"
)

func newScope(t *testing.T) (*component.Scope, *dom.Element) {
	t.Helper()
	el := dom.NewElement("button")
	scope := component.NewScope(nil, el)
	t.Cleanup(scope.Dispose)
	return scope, el
}

func assertClasses(t *testing.T, el *dom.Element, want ...string) {
	t.Helper()
	if want == nil {
		want = []string{}
	}
	got := el.Classes()
	if diff := cmp.Diff(want, got, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
		t.Errorf("classes mismatch (-want +got):\n%s", diff)
	}
}

func boolPtr(b bool) *bool { return &b }

func TestSplit(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"   ", []string{}},
		{"a", []string{"a"}},
		{"a  b\tc\n", []string{"a", "b", "c"}},
		{" leading trailing ", []string{"leading", "trailing"}},
	}
	for _, tt := range tests {
		got := Split(tt.in)
		if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("Split(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestNormalize(t *testing.T) {
	list := []string{"x", " y"}
	if got := Normalize(list); &got[0] != &list[0] {
		t.Error("slices should be returned unchanged")
	}
	if got := Normalize(nil); got != nil {
		t.Errorf("Normalize(nil) = %v", got)
	}
	if diff := cmp.Diff([]string{"a", "b"}, Normalize("a b")); diff != "" {
		t.Errorf("Normalize(string) mismatch:\n%s", diff)
	}
}

func TestBindClass(t *testing.T) {
	scope, el := newScope(t)
	value := reactive.NewSignal(false)

	got, err := BindClass(scope, "is-open", value, ClassOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if got != value {
		t.Error("BindClass should return the bound value")
	}
	assertClasses(t, el)

	value.Set(true)
	assertClasses(t, el, "is-open")

	value.Set(false)
	assertClasses(t, el)
}

func TestUseClassDefaultsToTrue(t *testing.T) {
	scope, el := newScope(t)

	if _, err := UseClass(scope, "a", UseClassOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, err := UseClass(scope, "b", UseClassOptions{Initial: boolPtr(false)}); err != nil {
		t.Fatal(err)
	}
	assertClasses(t, el, "a")
}

func TestBindClassWithoutTarget(t *testing.T) {
	scope := component.NewScope(nil, nil)
	defer scope.Dispose()

	_, err := BindClass(scope, "x", reactive.NewSignal(true), ClassOptions{})
	if errors.CodeOf(err) != "E102" {
		t.Errorf("expected E102, got %v", err)
	}
}

func TestBindClassesReplacesOwnSet(t *testing.T) {
	scope, el := newScope(t)
	el.AddClass("foreign")

	list := reactive.NewSignal("a b")
	if _, err := BindClasses[string](scope, list, ClassOptions{}); err != nil {
		t.Fatal(err)
	}
	assertClasses(t, el, "foreign", "a", "b")

	list.Set("b c")
	assertClasses(t, el, "foreign", "b", "c")

	list.Set("")
	assertClasses(t, el, "foreign")
}

func TestBindClassesIndependentBinders(t *testing.T) {
	scope, el := newScope(t)

	first, err := UseClasses(scope, []string{"a", "b"}, ClassOptions{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := UseClasses(scope, []string{"x"}, ClassOptions{})
	if err != nil {
		t.Fatal(err)
	}
	assertClasses(t, el, "a", "b", "x")

	first.Set([]string{"c"})
	assertClasses(t, el, "c", "x")

	second.Set(nil)
	assertClasses(t, el, "c")
}

func TestBindClassesSharedClasses(t *testing.T) {
	scope, el := newScope(t)
	ProvideBaseClass(scope, "button")

	if _, err := UseModifier(scope, "large", UseModifierOptions{}); err != nil {
		t.Fatal(err)
	}
	first, err := UseClasses(scope, []string{"button", "shared"}, ClassOptions{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := UseClasses(scope, []string{"shared"}, ClassOptions{})
	if err != nil {
		t.Fatal(err)
	}
	assertClasses(t, el, "button", "button--large", "shared")

	first.Set(nil)
	assertClasses(t, el, "button", "button--large", "shared")

	second.Set(nil)
	assertClasses(t, el, "button", "button--large")
}

func TestBindClassesDisposeRemovesClasses(t *testing.T) {
	el := dom.NewElement("div")
	scope := component.NewScope(nil, el)

	list, err := UseClasses(scope, []string{"a"}, ClassOptions{})
	if err != nil {
		t.Fatal(err)
	}
	scope.Dispose()
	assertClasses(t, el)

	list.Set([]string{"b"})
	assertClasses(t, el)
}

func TestBindModifier(t *testing.T) {
	scope, el := newScope(t)
	ProvideBaseClass(scope, "c-button")

	disabled, err := UseModifier(scope, "disabled", UseModifierOptions{Initial: boolPtr(false)})
	if err != nil {
		t.Fatal(err)
	}
	assertClasses(t, el, "c-button")

	disabled.Set(true)
	assertClasses(t, el, "c-button", "c-button--disabled")

	disabled.Set(false)
	assertClasses(t, el, "c-button")
}

func TestBindModifierExplicitBaseAndSkip(t *testing.T) {
	scope, el := newScope(t)
	ProvideBaseClass(scope, "ignored")

	_, err := UseModifier(scope, "loading", UseModifierOptions{
		ModifierOptions: ModifierOptions{BaseClass: "c-card", SkipBaseClass: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	assertClasses(t, el, "c-card--loading")
}

func TestBindModifierBaseClassFromAncestor(t *testing.T) {
	parentEl := dom.NewElement("div")
	parent := component.NewScope(nil, parentEl)
	defer parent.Dispose()
	ProvideBaseClass(parent, "c-list")

	itemEl := dom.NewElement("li")
	item := component.NewScope(parent, itemEl)
	if _, err := UseModifier(item, "active", UseModifierOptions{}); err != nil {
		t.Fatal(err)
	}
	assertClasses(t, itemEl, "c-list", "c-list--active")
	assertClasses(t, parentEl)
}

func TestModifierWithoutBaseClassFails(t *testing.T) {
	scope, el := newScope(t)

	_, err := UseModifier(scope, "disabled", UseModifierOptions{})
	if !stderrors.Is(err, ErrNoBaseClass) {
		t.Errorf("expected ErrNoBaseClass, got %v", err)
	}
	if errors.CodeOf(err) != "E101" {
		t.Errorf("expected E101, got %q", errors.CodeOf(err))
	}

	_, err = UseModifierGroup(scope, opt.Of("solid"), ModifierGroupOptions{})
	if !stderrors.Is(err, ErrNoBaseClass) {
		t.Errorf("modifier group: expected ErrNoBaseClass, got %v", err)
	}
	assertClasses(t, el)
}

func TestUseModifierGroupScenario(t *testing.T) {
	scope, el := newScope(t)

	appearance, err := UseModifierGroup(scope, opt.Of("solid"), ModifierGroupOptions{
		ModifierOptions: ModifierOptions{BaseClass: "c-button"},
	})
	if err != nil {
		t.Fatal(err)
	}
	assertClasses(t, el, "c-button", "c-button--solid")

	appearance.Set(opt.Of("outline"))
	assertClasses(t, el, "c-button", "c-button--outline")

	appearance.Set(opt.Undef[string]())
	assertClasses(t, el, "c-button")
}

func TestModifierGroupWithPrefix(t *testing.T) {
	scope, el := newScope(t)
	ProvideBaseClass(scope, "c-button")

	color, err := UseModifierGroup(scope, opt.Undef[string](), ModifierGroupOptions{Prefix: "color"})
	if err != nil {
		t.Fatal(err)
	}
	assertClasses(t, el, "c-button")

	color.Set(opt.Of("primary"))
	assertClasses(t, el, "c-button", "c-button--color-primary")

	color.Set(opt.Null[string]())
	assertClasses(t, el, "c-button")
}

func TestModifierGroupNeverMoreThanOne(t *testing.T) {
	sequences := [][]opt.Value[string]{
		{opt.Of("a"), opt.Of("b"), opt.Of("c")},
		{opt.Of("a"), opt.Null[string](), opt.Of("a")},
		{opt.Undef[string](), opt.Of("x"), opt.Of("x"), opt.Undef[string]()},
		{opt.Of("a"), opt.Of("b"), opt.Of("a"), opt.Of("b")},
	}

	for _, seq := range sequences {
		el := dom.NewElement("div")
		scope := component.NewScope(nil, el)
		group, err := UseModifierGroup(scope, opt.Undef[string](), ModifierGroupOptions{
			ModifierOptions: ModifierOptions{BaseClass: "b"},
		})
		if err != nil {
			t.Fatal(err)
		}

		el.Observe(func(dom.Mutation) {
			if n := len(el.Classes()); n > 2 {
				t.Errorf("observed %d classes at once: %v", n, el.Classes())
			}
		})

		for _, v := range seq {
			group.Set(v)
		}

		last := seq[len(seq)-1]
		if s, ok := last.Get(); ok {
			assertClasses(t, el, "b", "b--"+s)
		} else {
			assertClasses(t, el, "b")
		}
		scope.Dispose()
	}
}

func TestModifierGroupInBatch(t *testing.T) {
	scope, el := newScope(t)
	ProvideBaseClass(scope, "c-chip")
	size, err := UseModifierGroup(scope, opt.Of("s"), ModifierGroupOptions{})
	if err != nil {
		t.Fatal(err)
	}

	reactive.Batch(func() {
		size.Set(opt.Of("m"))
		size.Set(opt.Of("l"))
	})
	assertClasses(t, el, "c-chip", "c-chip--l")
}

func TestAddClass(t *testing.T) {
	scope, el := newScope(t)
	if err := AddClass(scope, "static"); err != nil {
		t.Fatal(err)
	}
	assertClasses(t, el, "static")
}
