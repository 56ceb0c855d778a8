package opt

import "testing"

func TestStates(t *testing.T) {
	var zero Value[string]
	if !zero.IsUndefined() || !zero.IsNullish() || zero.IsPresent() {
		t.Errorf("zero value should be undefined, got %v", zero.State())
	}
	if zero != Undef[string]() {
		t.Error("Undef should equal the zero value")
	}

	n := Null[string]()
	if !n.IsNull() || !n.IsNullish() {
		t.Errorf("Null() state = %v", n.State())
	}

	p := Of("")
	if !p.IsPresent() || p.IsNullish() {
		t.Errorf("Of(\"\") should be present, got %v", p.State())
	}
	if v, ok := p.Get(); !ok || v != "" {
		t.Errorf("Get() = %q, %v", v, ok)
	}
}

func TestWithDefaultAndCoalesce(t *testing.T) {
	def := Of("button")

	tests := []struct {
		name         string
		in           Value[string]
		wantDefault  Value[string]
		wantCoalesce Value[string]
	}{
		{"undefined", Undef[string](), def, def},
		{"null", Null[string](), Null[string](), def},
		{"present", Of("menuitem"), Of("menuitem"), Of("menuitem")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.WithDefault(def); got != tt.wantDefault {
				t.Errorf("WithDefault = %v, want %v", got, tt.wantDefault)
			}
			if got := tt.in.Coalesce(def); got != tt.wantCoalesce {
				t.Errorf("Coalesce = %v, want %v", got, tt.wantCoalesce)
			}
		})
	}
}

func TestMap(t *testing.T) {
	double := func(n int) int { return n * 2 }

	if got := Map(Of(2), double); got != Of(4) {
		t.Errorf("Map(Of(2)) = %v", got)
	}
	if got := Map(Null[int](), double); !got.IsNull() {
		t.Errorf("Map(Null) = %v", got)
	}
	if got := Map(Undef[int](), double); !got.IsUndefined() {
		t.Errorf("Map(Undef) = %v", got)
	}
}

func TestFromLookupAndPtr(t *testing.T) {
	if got := FromLookup("a", false); !got.IsNull() {
		t.Errorf("FromLookup(_, false) = %v", got)
	}
	if got := FromLookup("a", true); got != Of("a") {
		t.Errorf("FromLookup(a, true) = %v", got)
	}
	if Null[int]().Ptr() != nil {
		t.Error("Ptr of null should be nil")
	}
	s := "x"
	if got := FromPtr(&s); got != Of("x") {
		t.Errorf("FromPtr = %v", got)
	}
	if got := FromPtr[string](nil); !got.IsNull() {
		t.Errorf("FromPtr(nil) = %v", got)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		v    Value[string]
		want State
		name string
	}{
		{Undef[string](), StateUndefined, "undefined"},
		{Null[string](), StateNull, "null"},
		{Of("x"), StatePresent, "present"},
	}
	for _, tt := range tests {
		if got := tt.v.State(); got != tt.want {
			t.Errorf("State() = %v, want %v", got, tt.want)
		}
		if got := tt.want.String(); got != tt.name {
			t.Errorf("String() = %q, want %q", got, tt.name)
		}
	}
}
