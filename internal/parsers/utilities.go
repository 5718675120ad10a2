package parsers

import (
	"regexp"
	"strings"
)

// LongestMatch returns the longest match of re in input, trimmed of
// stripChars (whitespace when stripChars is empty). Returns "" when nothing
// matches. Mirrors the attribute-extraction helper climate parsers
// conventionally share.
func LongestMatch(re *regexp.Regexp, input, stripChars string) string {
	matches := re.FindAllString(input, -1)
	longest := ""
	for _, m := range matches {
		if len(m) > len(longest) {
			longest = m
		}
	}
	if longest == "" {
		return ""
	}
	if stripChars == "" {
		return strings.TrimSpace(longest)
	}
	return strings.Trim(longest, stripChars)
}
