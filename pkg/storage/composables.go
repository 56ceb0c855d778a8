package storage

import (
	"log/slog"

	"github.com/vango-dev/composables/pkg/opt"
	"github.com/vango-dev/composables/pkg/reactive"
)

// Options configures the storage composables.
type Options struct {
	// Storage is the store to sync with. Nil means Default().Local.
	Storage *Tracked

	// SkipInitialRead leaves the value alone until the store changes.
	// Only used by Read, Bind and Use.
	SkipInitialRead bool

	// OnError receives write errors that happen after the binder was set
	// up, when there is no caller to return them to. Nil logs them.
	OnError func(key string, err error)

	// Logger is used by the default OnError. Nil means slog.Default().
	Logger *slog.Logger
}

func (o Options) store() *Tracked {
	if o.Storage != nil {
		return o.Storage
	}
	return Default().Local
}

func (o Options) onError(store *Tracked) func(string, error) {
	if o.OnError != nil {
		return o.OnError
	}
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return func(key string, err error) {
		logger.Error("storage write failed", "area", store.Area(), "key", key, "error", err)
	}
}

func write(store Storage, key string, v opt.Value[string]) error {
	if s, ok := v.Get(); ok {
		return store.SetItem(key, s)
	}
	return store.RemoveItem(key)
}

// Write stores value under key whenever it changes: a present value is set,
// a null or undefined one removes the key. It never reads the store.
//
// The error of the initial write is returned unchanged; later errors go to
// Options.OnError. The subscription ends when owner is disposed.
func Write[R reactive.Readable[opt.Value[string]]](owner *reactive.Owner, key string, value R, opts Options) (R, error) {
	return value, watchWrites[R](owner, key, value, opts, false)
}

// watchWrites subscribes value to the store. With keepStored set, a nullish
// value at subscription time leaves the stored item in place.
func watchWrites[R reactive.Readable[opt.Value[string]]](owner *reactive.Owner, key string, value R, opts Options, keepStored bool) error {
	store := opts.store()
	onError := opts.onError(store)

	initial := true
	var initialErr error
	reactive.Watch[opt.Value[string]](owner, value, func(v opt.Value[string]) reactive.Cleanup {
		if initial {
			initial = false
			if keepStored && v.IsNullish() {
				return nil
			}
			initialErr = write(store, key, v)
			return nil
		}
		if err := write(store, key, v); err != nil {
			onError(key, err)
		}
		return nil
	})
	return initialErr
}

// Read sets value from the store: once immediately unless SkipInitialRead
// is set, and again on every change of key (or Clear) in the same store.
// A missing key reads as null. It never writes the store.
//
// The listener is removed when owner is disposed.
func Read[W reactive.Writable[opt.Value[string]]](owner *reactive.Owner, key string, value W, opts Options) (W, error) {
	store := opts.store()

	if !opts.SkipInitialRead {
		v, err := store.GetItem(key)
		if err != nil {
			return value, err
		}
		value.Set(v)
	}

	remove := store.OnChange(func(ev ChangeEvent) {
		if ev.AllKeys || ev.Key == key {
			value.Set(ev.NewValue)
		}
	})
	if owner != nil {
		owner.OnCleanup(remove)
	}
	return value, nil
}

// Bind keeps value and key in sync in both directions. A present value is
// written first, so a value set before binding is persisted, and then read
// back; a nullish value leaves the stored item alone and is loaded from it.
// From then on changes in either direction are mirrored. It returns value.
func Bind[W reactive.Writable[opt.Value[string]]](owner *reactive.Owner, key string, value W, opts Options) (W, error) {
	if err := watchWrites[W](owner, key, value, opts, true); err != nil {
		return value, err
	}
	return Read[W](owner, key, value, opts)
}

// UseOptions configures Use.
type UseOptions struct {
	Options

	// Initial is the initial value. When nullish the stored value is used.
	Initial opt.Value[string]
}

// Use creates a signal holding Initial or the value currently stored under
// key, and binds it with Bind.
func Use(owner *reactive.Owner, key string, opts UseOptions) (*reactive.Signal[opt.Value[string]], error) {
	initial := opts.Initial
	if initial.IsNullish() {
		stored, err := opts.store().GetItem(key)
		if err != nil {
			return nil, err
		}
		initial = stored
	}
	return Bind(owner, key, reactive.NewSignal(initial), opts.Options)
}
