package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywordScorer(t *testing.T) {
	tests := []struct {
		name     string
		keywords []string
		text     string
		score    int
		tags     []string
	}{
		{"no keywords", nil, "Go and Rust", 0, nil},
		{"case insensitive", []string{"golang", "RUST"}, "We use Golang and rust", 2, []string{"golang", "RUST"}},
		{"keeps given order", []string{"rust", "go"}, "go then rust", 2, []string{"rust", "go"}},
		{"repeats and blanks", []string{"Go", "go", " ", ""}, "go", 1, []string{"Go"}},
		{"no match", []string{"elixir"}, "Python shop", 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, tags := KeywordScorer{Keywords: tt.keywords}.Score(tt.text)
			assert.Equal(t, tt.score, score)
			assert.Equal(t, tt.tags, tags)
		})
	}
}
