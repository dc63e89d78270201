package grok

import (
	"regexp"
	"strings"
)

// tweetLinkRegex matches Grok's inline tweet citations, along with any
// newlines before them and a trailing "==" separator.
var tweetLinkRegex = regexp.MustCompile(`(?:\n*)?\[link\]\(#tweet=\d+\)(?:\s*==\s*)?`)

// RemoveTweetLinks strips tweet citation markers from a decoded fragment.
// A marker at the start of the fragment or of a line disappears entirely;
// one embedded in prose becomes a single space so adjacent words stay apart.
func RemoveTweetLinks(text string) string {
	matches := tweetLinkRegex.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		b.WriteString(text[last:start])
		if start != 0 && text[start-1] != '\n' {
			b.WriteByte(' ')
		}
		last = end
	}
	b.WriteString(text[last:])
	return b.String()
}
