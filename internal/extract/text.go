// Package extract derives structured fields from the markup of a hiring
// thread and its postings. Every function is pure and total: it never panics
// and returns the same output for the same input.
package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxCompanyLen bounds a plausible company name. Longer first segments are
// usually a sentence, not a name.
const MaxCompanyLen = 100

var (
	reBreak     = regexp.MustCompile(`(?i)<br\s*/?>`)
	reParaOpen  = regexp.MustCompile(`(?i)<p>`)
	reParaClose = regexp.MustCompile(`(?i)</p>`)
	reTag       = regexp.MustCompile(`<[^>]+>`)
	reRemote    = regexp.MustCompile(`(?i)\bremote\b`)
	reDelim     = regexp.MustCompile(`\s*[|–—]\s*`)
)

// entities are decoded one after another in this order, so an escaped
// entity such as "&amp;lt;" ends up as "<".
var entities = [...]struct{ from, to string }{
	{"&amp;", "&"},
	{"&lt;", "<"},
	{"&gt;", ">"},
	{"&quot;", `"`},
	{"&#x27;", "'"},
	{"&#x2F;", "/"},
	{"&nbsp;", " "},
}

func decodeEntities(s string) string {
	for _, e := range entities {
		s = strings.ReplaceAll(s, e.from, e.to)
	}
	return s
}

// StripMarkup turns posting markup into plain text. Line and paragraph
// breaks become newlines, every other complete tag is dropped and the
// common entities are decoded. A lone "<" with no closing ">" is kept.
func StripMarkup(markup string) string {
	s := reBreak.ReplaceAllString(markup, "\n")
	s = reParaOpen.ReplaceAllString(s, "\n")
	s = reParaClose.ReplaceAllString(s, "")
	s = reTag.ReplaceAllString(s, "")
	s = decodeEntities(s)
	return strings.TrimSpace(s)
}

// Company returns the first segment of the first line of a posting,
// following the "Company | Role | Location" convention. ok is false when
// the segment is empty or longer than MaxCompanyLen.
func Company(markup string) (name string, ok bool) {
	text := StripMarkup(markup)
	first, _, _ := strings.Cut(text, "\n")
	first = strings.TrimSpace(first)
	if first == "" {
		return "", false
	}

	parts := reDelim.Split(first, -1)
	name = strings.TrimSpace(parts[0])
	if name == "" || utf8.RuneCountInString(name) > MaxCompanyLen {
		return "", false
	}
	return name, true
}

// IsRemote reports whether "remote" appears as a whole word anywhere in the
// raw markup, ignoring case.
func IsRemote(markup string) bool {
	return reRemote.MatchString(markup)
}
