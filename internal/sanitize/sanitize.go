// Package sanitize normalizes free-text client input before it reaches
// persistence or query building.
package sanitize

import "strings"

// Text trims surrounding whitespace and strips angle brackets so user
// supplied strings cannot smuggle markup into stored fields.
func Text(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "<", "")
	s = strings.ReplaceAll(s, ">", "")
	return s
}

// Email lower-cases after the usual text cleanup. Uniqueness checks and
// lookups always operate on this normalized form.
func Email(s string) string {
	return strings.ToLower(Text(s))
}

// Tags cleans each tag, drops entries that end up empty, and truncates
// overlong ones to max runes.
func Tags(tags []string, max int) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = Text(t)
		if t == "" {
			continue
		}
		if r := []rune(t); len(r) > max {
			t = string(r[:max])
		}
		out = append(out, t)
	}
	return out
}
