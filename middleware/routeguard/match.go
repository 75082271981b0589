package routeguard

import (
	"strings"

	"github.com/gobwas/glob"
)

// Matcher classifies request paths against a set of public-path patterns.
// Patterns use `*` for any run of characters and may end in an optional
// group, e.g. `/docs(/*)` matches `/docs` and everything under it. A
// compiled pattern matches only the full path, anchored at both ends.
type Matcher struct {
	globs []glob.Glob
}

// NewMatcher compiles patterns up front. Invalid patterns are dropped:
// a pattern that cannot compile never makes a path public.
func NewMatcher(patterns []string) *Matcher {
	m := &Matcher{}

	for _, pattern := range patterns {
		for _, variant := range expandPattern(pattern) {
			g, err := glob.Compile(variant)
			if err != nil {
				continue
			}
			m.globs = append(m.globs, g)
		}
	}

	return m
}

// Match reports whether any pattern matches the full path.
func (m *Matcher) Match(path string) bool {
	for _, g := range m.globs {
		if g.Match(path) {
			return true
		}
	}
	return false
}

// expandPattern rewrites a trailing optional group into its two variants:
// with the suffix and without it.
func expandPattern(pattern string) []string {
	if strings.HasSuffix(pattern, ")") {
		if idx := strings.LastIndex(pattern, "("); idx >= 0 {
			base := pattern[:idx]
			suffix := pattern[idx+1 : len(pattern)-1]
			return []string{base, base + suffix}
		}
	}
	return []string{pattern}
}

// IsPublic is the pure classification function: true iff any pattern
// matches path. Pattern compilation happens per call; middleware should
// hold a Matcher instead.
func IsPublic(path string, patterns []string) bool {
	return NewMatcher(patterns).Match(path)
}
