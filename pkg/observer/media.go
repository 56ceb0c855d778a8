package observer

import (
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/vango-dev/composables/pkg/reactive"
)

// MediaQueryList is a parsed media query whose match state can change, the
// analogue of the browser's MediaQueryList.
type MediaQueryList interface {
	Media() string
	Matches() bool
	AddListener(fn func(matches bool)) (remove func())
}

// MediaEnvironment evaluates media queries, the analogue of
// window.matchMedia.
type MediaEnvironment interface {
	MatchMedia(query string) MediaQueryList
}

// Media is an in-memory MediaEnvironment. It evaluates min-width,
// max-width, orientation and prefers-color-scheme features against its
// own viewport and preferences; any other query is false until forced with
// Force. Queries may combine features with "and" and alternatives with
// commas.
type Media struct {
	mu          sync.Mutex
	width       float64
	height      float64
	colorScheme string
	forced      map[string]bool
	lists       map[string]*mediaQueryList
}

// NewMedia creates an environment with the given viewport size and no
// colour scheme preference.
func NewMedia(width, height float64) *Media {
	return &Media{
		width:  width,
		height: height,
		forced: make(map[string]bool),
		lists:  make(map[string]*mediaQueryList),
	}
}

// MatchMedia implements MediaEnvironment. The same list is returned for
// repeated queries.
func (m *Media) MatchMedia(query string) MediaQueryList {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.lists[query]; ok {
		return l
	}
	l := &mediaQueryList{media: query}
	l.matches = m.evaluate(query)
	m.lists[query] = l
	return l
}

// Resize changes the viewport and notifies every list whose state changed.
func (m *Media) Resize(width, height float64) {
	m.update(func() {
		m.width, m.height = width, height
	})
}

// SetColorScheme sets the preferred colour scheme: "dark", "light" or ""
// for no preference.
func (m *Media) SetColorScheme(scheme string) {
	m.update(func() {
		m.colorScheme = scheme
	})
}

// Force overrides the result of query.
func (m *Media) Force(query string, matches bool) {
	m.update(func() {
		m.forced[query] = matches
	})
}

func (m *Media) update(fn func()) {
	m.mu.Lock()
	fn()
	var changed []*mediaQueryList
	for _, l := range m.lists {
		if l.set(m.evaluate(l.media)) {
			changed = append(changed, l)
		}
	}
	m.mu.Unlock()

	// Settle values derived from several queries once.
	reactive.Batch(func() {
		for _, l := range changed {
			l.notify()
		}
	})
}

// evaluate is called with m.mu held.
func (m *Media) evaluate(query string) bool {
	if v, ok := m.forced[query]; ok {
		return v
	}
	for _, alt := range strings.Split(query, ",") {
		if m.evaluateAll(alt) {
			return true
		}
	}
	return false
}

func (m *Media) evaluateAll(query string) bool {
	parts := strings.Split(query, " and ")
	for _, part := range parts {
		if !m.evaluateFeature(part) {
			return false
		}
	}
	return len(parts) > 0
}

func (m *Media) evaluateFeature(feature string) bool {
	feature = strings.TrimSpace(feature)
	if feature == "screen" || feature == "all" {
		return true
	}
	feature = strings.TrimSuffix(strings.TrimPrefix(feature, "("), ")")
	name, value, ok := strings.Cut(feature, ":")
	if !ok {
		return false
	}
	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)

	switch name {
	case "min-width":
		px, ok := parsePixels(value)
		return ok && m.width >= px
	case "max-width":
		px, ok := parsePixels(value)
		return ok && m.width <= px
	case "orientation":
		if value == "portrait" {
			return m.height >= m.width
		}
		return value == "landscape" && m.width > m.height
	case "prefers-color-scheme":
		return m.colorScheme != "" && value == m.colorScheme
	}
	return false
}

func parsePixels(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSuffix(s, "px"), 64)
	return f, err == nil
}

type mediaQueryList struct {
	media string

	mu        sync.Mutex
	matches   bool
	nextID    int
	listeners map[int]func(bool)
}

func (l *mediaQueryList) Media() string {
	return l.media
}

func (l *mediaQueryList) Matches() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.matches
}

func (l *mediaQueryList) AddListener(fn func(bool)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.listeners == nil {
		l.listeners = make(map[int]func(bool))
	}
	l.nextID++
	id := l.nextID
	l.listeners[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.listeners, id)
	}
}

func (l *mediaQueryList) listenerCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.listeners)
}

func (l *mediaQueryList) set(matches bool) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.matches == matches {
		return false
	}
	l.matches = matches
	return true
}

func (l *mediaQueryList) notify() {
	l.mu.Lock()
	matches := l.matches
	ids := make([]int, 0, len(l.listeners))
	for id := range l.listeners {
		ids = append(ids, id)
	}
	l.mu.Unlock()

	// registration order
	slices.Sort(ids)
	for _, id := range ids {
		l.mu.Lock()
		fn, ok := l.listeners[id]
		l.mu.Unlock()
		if ok {
			fn(matches)
		}
	}
}
