package extract

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"breaks", "a<br>b<BR/>c<br />d", "a\nb\nc\nd"},
		{"paragraphs", "<p>one<p>two</p>", "one\ntwo"},
		{"other tags", `<a href="x">link</a> <i>it</i>`, "link it"},
		{"entities", "&amp; &lt;tag&gt; &quot;q&quot; it&#x27;s a&#x2F;b x&nbsp;y", `& <tag> "q" it's a/b x y`},
		{"escaped entities", "a &amp;lt;b&amp;gt; c", "a <b> c"},
		{"escaped nbsp", "x&amp;nbsp;y", "x y"},
		{"lone angle", "a < b and c", "a < b and c"},
		{"unclosed tag", "text <b", "text <b"},
		{"unknown tag", "<blink>x</blink>", "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripMarkup(tt.in))
		})
	}
}

func TestCompany(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   string
		wantOK bool
	}{
		{"pipe", "Acme Corp | Backend Engineer | Remote<br>We are hiring...", "Acme Corp", true},
		{"no delimiters", "<p>Random comment with no delimiters", "Random comment with no delimiters", true},
		{"en dash", "Widgets Inc – SRE – NYC", "Widgets Inc", true},
		{"em dash", "Foo—Bar", "Foo", true},
		{"entity in name", "AT&amp;T | Engineer", "AT&T", true},
		{"leading delimiter", "| Engineer", "", false},
		{"empty", "", "", false},
		{"only tags", "<p></p>", "", false},
		{"too long", strings.Repeat("x", 101), "", false},
		{"exactly max", strings.Repeat("y", 100), strings.Repeat("y", 100), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Company(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("Acme Corp | Backend Engineer | Remote<br>We are hiring..."))
	assert.True(t, IsRemote("REMOTE ok"))
	assert.True(t, IsRemote("onsite or remote."))
	assert.False(t, IsRemote("<p>Random comment with no delimiters"))
	assert.False(t, IsRemote("remotely possible"))
	assert.False(t, IsRemote(""))
}

func TestPeriod(t *testing.T) {
	created := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-02", Period("Ask HN: Who is hiring? (February 2026)", created))
	assert.Equal(t, "2024-12", Period("Ask HN: Who is hiring? (DECEMBER 2024)", created))

	fallback := time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-11", Period("Ask HN: Who is hiring?", fallback))
	assert.Equal(t, "2025-11", Period("Who is hiring? (Smarch 2026)", fallback))

	east := time.FixedZone("east", 10*3600)
	assert.Equal(t, "2025-10", Period("", time.Date(2025, 11, 1, 5, 0, 0, 0, east)))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview("<p>short</p>"))

	long := strings.Repeat("a", PreviewLen+10)
	got := Preview(long)
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.Equal(t, PreviewLen+1, len([]rune(got)))
}

func TestSafeHTML(t *testing.T) {
	got := SafeHTML(`Acme<script>alert(1)</script><p>ok <a href="https://acme.example/jobs">jobs</a></p>`)
	assert.NotContains(t, got, "<script>")
	assert.Contains(t, got, "ok")
	assert.Contains(t, got, `rel="nofollow`)
}

func TestLinks(t *testing.T) {
	markup := `Acme | SRE<p>Apply: <a href="https:&#x2F;&#x2F;acme.example&#x2F;jobs" rel="nofollow">here</a>` +
		` or <a href="mailto:jobs@acme.example">mail</a>, also <a href="https://acme.example/jobs">again</a>` +
		` and <a href="http://other.example">other</a>`
	assert.Equal(t, []string{"https://acme.example/jobs", "http://other.example"}, Links(markup))
	assert.Empty(t, Links("no links here"))
}

func TestLinksCanonical(t *testing.T) {
	markup := `<a href="https://Jobs.Acme.example/apply?utm_source=hn&amp;role=sre#top">a</a>` +
		`<a href="https://jobs.acme.example/apply?role=sre">b</a>` +
		`<a href="https://acme.example/?b=2&amp;a=1&amp;fbclid=x">c</a>`
	assert.Equal(t, []string{
		"https://jobs.acme.example/apply?role=sre",
		"https://acme.example/?a=1&b=2",
	}, Links(markup))
}
