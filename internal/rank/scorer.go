// Package rank scores postings against the profile keywords.
package rank

import "strings"

type Scorer interface {
	Score(text string) (score int, tags []string)
}

// KeywordScorer counts the distinct keywords found in a text, ignoring
// case. Tags are the matched keywords in the order they were given.
type KeywordScorer struct {
	Keywords []string
}

func (s KeywordScorer) Score(text string) (int, []string) {
	text = strings.ToLower(text)

	var tags []string
	for _, k := range uniq(s.Keywords) {
		if strings.Contains(text, strings.ToLower(k)) {
			tags = append(tags, k)
		}
	}
	return len(tags), tags
}

// uniq drops blanks and case-insensitive repeats, keeping the first spelling.
func uniq(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}
