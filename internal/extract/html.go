package extract

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// PreviewLen is the rune length of list previews.
const PreviewLen = 300

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// SafeHTML sanitizes stored posting markup for display.
func SafeHTML(markup string) string {
	return policy.Sanitize(markup)
}

// Preview is the stripped text cut to PreviewLen runes.
func Preview(markup string) string {
	text := StripMarkup(markup)
	if utf8.RuneCountInString(text) <= PreviewLen {
		return text
	}
	r := []rune(text)
	return strings.TrimSpace(string(r[:PreviewLen])) + "…"
}

// Links returns the distinct absolute http(s) links in posting markup in
// canonical form, in document order. Unparseable markup yields nil.
func Links(markup string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil
	}

	var out []string
	seen := map[string]bool{}
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		u, err := url.Parse(href)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return
		}
		link := canonicalURL(u)
		if seen[link] {
			return
		}
		seen[link] = true
		out = append(out, link)
	})
	return out
}
