package classes

import "strings"

// Split splits a class string on runs of whitespace. An empty or
// whitespace-only string yields an empty slice.
func Split(classes string) []string {
	return strings.Fields(classes)
}

// Normalize converts a string, a []string or nil into a class slice.
// Slices are returned unchanged; strings are split with Split. Any other
// type yields nil.
func Normalize(classes any) []string {
	switch v := classes.(type) {
	case string:
		return Split(v)
	case []string:
		return v
	default:
		return nil
	}
}
