// Package walk implements asset discovery: glob filtering and depth-limited
// crawling of directory trees over a storage backend.
package walk

import (
	"fmt"
	"regexp"
	"strings"
)

// Matcher holds compiled include and exclude glob patterns. A candidate path
// is kept iff it matches at least one include pattern (an empty include list
// matches everything) and no exclude pattern (an empty exclude list matches
// nothing). Matching is case-sensitive and anchored against the whole path.
type Matcher struct {
	include []*regexp.Regexp
	exclude []*regexp.Regexp
}

// NewMatcher compiles the pattern lists. Malformed patterns fail here, never
// at match time.
func NewMatcher(include, exclude []string) (*Matcher, error) {
	m := &Matcher{}
	for _, pat := range include {
		re, err := compileGlob(pat)
		if err != nil {
			return nil, fmt.Errorf("walk: include pattern %q: %w", pat, err)
		}
		m.include = append(m.include, re)
	}
	for _, pat := range exclude {
		re, err := compileGlob(pat)
		if err != nil {
			return nil, fmt.Errorf("walk: exclude pattern %q: %w", pat, err)
		}
		m.exclude = append(m.exclude, re)
	}
	return m, nil
}

// Included reports whether path matches the include set.
func (m *Matcher) Included(path string) bool {
	if len(m.include) == 0 {
		return true
	}
	for _, re := range m.include {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// Excluded reports whether path matches the exclude set.
func (m *Matcher) Excluded(path string) bool {
	for _, re := range m.exclude {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// Keep reports whether path survives both filters. Exclusion wins over
// inclusion.
func (m *Matcher) Keep(path string) bool {
	return m.Included(path) && !m.Excluded(path)
}

// compileGlob translates a glob pattern into an anchored regexp. Unlike
// path.Match, `*` and `?` cross path separators, so a pattern like
// `*/skip-me/*` excludes at any tree depth.
func compileGlob(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(pattern); {
		switch c := pattern[i]; c {
		case '*':
			b.WriteString(".*")
			i++
		case '?':
			b.WriteString(".")
			i++
		case '[':
			j := i + 1
			if j < len(pattern) && (pattern[j] == '!' || pattern[j] == '^') {
				j++
			}
			// A `]` directly after the opening bracket is a literal member.
			if j < len(pattern) && pattern[j] == ']' {
				j++
			}
			for j < len(pattern) && pattern[j] != ']' {
				j++
			}
			if j >= len(pattern) {
				return nil, fmt.Errorf("unterminated character class at offset %d", i)
			}
			inner := pattern[i+1 : j]
			if strings.HasPrefix(inner, "!") {
				inner = "^" + inner[1:]
			}
			b.WriteString("[" + strings.ReplaceAll(inner, `\`, `\\`) + "]")
			i = j + 1
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
			i++
		}
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, err
	}
	return re, nil
}
