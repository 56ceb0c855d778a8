// Package dom is a headless model of the parts of the browser DOM the
// binders touch: element attributes (plain and namespaced), the ordered
// class list, event listeners, and the document title.
//
// Every mutation is reported to mutation observers, which lets callers
// assert that a binder performed no mutation at all, and the element can be
// rendered as an HTML start tag for inspection:
//
//	btn := dom.NewElement("button")
//	btn.SetAttribute("role", "button")
//	btn.AddClass("c-button", "c-button--solid")
//	btn.OuterHTML() // <button class="c-button c-button--solid" role="button"></button>
package dom
