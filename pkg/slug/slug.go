package slug

import (
	"regexp"
	"strings"
)

var (
	whitespace = regexp.MustCompile(`\s+`)
	disallowed = regexp.MustCompile(`[^a-z0-9-]`)
	hyphenRuns = regexp.MustCompile(`-+`)
)

// Make derives a stable, URL-safe identifier from a display name: the name
// is lowercased, whitespace runs become single hyphens, everything outside
// [a-z0-9-] is removed, hyphen runs are collapsed and outer hyphens trimmed.
// The result is the canonical join key for tracks and drivers, so the
// mapping must never change for an already-synced name.
func Make(name string) string {
	s := strings.ToLower(name)
	s = whitespace.ReplaceAllString(s, "-")
	s = disallowed.ReplaceAllString(s, "")
	s = hyphenRuns.ReplaceAllString(s, "-")

	return strings.Trim(s, "-")
}
