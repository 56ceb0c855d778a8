// Package title binds a signal to the document title.
package title

import (
	"github.com/vango-dev/composables/pkg/dom"
	"github.com/vango-dev/composables/pkg/opt"
	"github.com/vango-dev/composables/pkg/reactive"
)

// Bind sets the title of doc to value now and on every change until owner
// is disposed. It returns value.
//
//	name := reactive.NewSignal("Jane")
//	title.Bind(owner, doc, reactive.Map(owner, name, func(n string) string {
//	    return "Hello " + n
//	}))
func Bind[R reactive.Readable[string]](owner *reactive.Owner, doc *dom.Document, value R) R {
	reactive.Watch[string](owner, value, func(t string) reactive.Cleanup {
		doc.SetTitle(t)
		return nil
	})
	return value
}

// Use creates a title signal bound to doc. Its initial value is initial, or
// the current title of doc when initial is nullish.
func Use(owner *reactive.Owner, doc *dom.Document, initial opt.Value[string]) *reactive.Signal[string] {
	return Bind(owner, doc, reactive.NewSignal(initial.Or(doc.Title())))
}
