package hub

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/vango-dev/composables/internal/errors"
	"github.com/vango-dev/composables/pkg/opt"
	"github.com/vango-dev/composables/pkg/storage"
)

func TestFromEventEncodesNull(t *testing.T) {
	msg := FromEvent("w1", storage.ChangeEvent{
		Key:      "theme",
		OldValue: opt.Of("dark"),
		NewValue: opt.Null[string](),
		Area:     storage.AreaLocal,
	})
	data, err := Encode(msg)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"type":"change","origin":"w1","area":"local","key":"theme","oldValue":"dark","newValue":null}`
	if string(data) != want {
		t.Errorf("Encode() = %s\nwant %s", data, want)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	ev := got.Event()
	wantEv := storage.ChangeEvent{
		Key:      "theme",
		OldValue: opt.Of("dark"),
		NewValue: opt.Null[string](),
		Area:     storage.AreaLocal,
		Remote:   true,
	}
	opts := cmp.Options{
		cmp.AllowUnexported(opt.Value[string]{}),
		cmpopts.IgnoreFields(storage.ChangeEvent{}, "Storage"),
	}
	if diff := cmp.Diff(wantEv, ev, opts); diff != "" {
		t.Errorf("Event() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeClear(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"change","origin":"server","area":"session","all":true,"oldValue":null,"newValue":null}`))
	if err != nil {
		t.Fatal(err)
	}
	ev := msg.Event()
	if !ev.AllKeys || ev.Area != storage.AreaSession || !ev.NewValue.IsNull() {
		t.Errorf("Event() = %+v, want a session clear", ev)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	tests := []struct {
		name, data, detail string
	}{
		{"not json", `{`, ""},
		{"unknown type", `{"type":"hello","area":"local","key":"k"}`, "unknown type"},
		{"missing area", `{"type":"change","key":"k"}`, "missing area"},
		{"missing key", `{"type":"change","area":"local"}`, "missing key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			if err == nil {
				t.Fatal("Decode() succeeded")
			}
			if code := errors.CodeOf(err); code != "E302" {
				t.Errorf("code = %q, want E302", code)
			}
			if !strings.Contains(err.Error(), tt.detail) {
				t.Errorf("error %q does not mention %q", err, tt.detail)
			}
		})
	}
}
