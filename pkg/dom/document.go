package dom

import (
	"io"
	"strings"
	"sync"
)

// Document owns the root element and the document title.
type Document struct {
	root *Element

	mu    sync.RWMutex
	title string

	titleObservers []func(string)
}

// NewDocument creates a document with an <html> root element.
func NewDocument(title string) *Document {
	return &Document{
		root:  NewElement("html"),
		title: title,
	}
}

// Root returns the document's first element child.
func (d *Document) Root() *Element {
	return d.root
}

// Title returns the document title.
func (d *Document) Title() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.title
}

// SetTitle sets the document title.
func (d *Document) SetTitle(title string) {
	d.mu.Lock()
	if d.title == title {
		d.mu.Unlock()
		return
	}
	d.title = title
	fns := append([]func(string){}, d.titleObservers...)
	d.mu.Unlock()

	for _, fn := range fns {
		fn(title)
	}
}

// OnTitleChange registers fn to be called after every title change.
func (d *Document) OnTitleChange(fn func(title string)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.titleObservers = append(d.titleObservers, fn)
}

// OuterHTML renders the element as an empty HTML element. The class
// attribute comes first, followed by the other attributes in insertion order.
func (e *Element) OuterHTML() string {
	var b strings.Builder
	_ = e.WriteHTML(&b)
	return b.String()
}

// String implements fmt.Stringer.
func (e *Element) String() string {
	return e.OuterHTML()
}

// WriteHTML writes the element's HTML to w.
func (e *Element) WriteHTML(w io.Writer) error {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(e.tag)

	if classes := e.Classes(); len(classes) > 0 {
		writeAttr(&b, "class", strings.Join(classes, " "))
	}
	for _, a := range e.Attributes() {
		writeAttr(&b, qualifiedName(a.Namespace, a.Name), a.Value)
	}

	b.WriteString("></")
	b.WriteString(e.tag)
	b.WriteByte('>')

	_, err := io.WriteString(w, b.String())
	return err
}

func writeAttr(b *strings.Builder, name, value string) {
	b.WriteByte(' ')
	b.WriteString(name)
	if value == "" {
		return
	}
	b.WriteString(`="`)
	b.WriteString(escapeAttr(value))
	b.WriteByte('"')
}

func qualifiedName(ns, name string) string {
	switch ns {
	case "":
		return name
	case NamespaceXLink:
		return "xlink:" + name
	case NamespaceXML:
		return "xml:" + name
	default:
		return name
	}
}

// escapeAttr escapes text for safe inclusion in HTML attribute values.
func escapeAttr(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))

	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		case '\'':
			buf.WriteString("&#39;")
		case '\n':
			buf.WriteString("&#10;")
		default:
			buf.WriteRune(r)
		}
	}

	return buf.String()
}
