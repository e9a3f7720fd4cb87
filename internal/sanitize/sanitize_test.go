package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommentStripsScripts(t *testing.T) {
	got := Comment("<script>evil()</script>hello <strong>world</strong>")
	assert.Equal(t, "hello <strong>world</strong>", got)
}

func TestCommentKeepsAllowedMarkup(t *testing.T) {
	in := `<p>see <a href="https://example.com" title="ref">this</a> and <em>that</em></p><ul><li>one</li></ul>`
	assert.Equal(t, in, Comment(in))
}

func TestCommentDropsDisallowedAttributes(t *testing.T) {
	got := Comment(`<strong onclick="evil()">hi</strong>`)
	assert.Equal(t, "<strong>hi</strong>", got)
}

func TestCommentDropsDisallowedSchemes(t *testing.T) {
	got := Comment(`<a href="javascript:evil()">click</a>`)
	assert.NotContains(t, got, "javascript")
	assert.Contains(t, got, "click")
}

func TestCommentKeepsMailtoLinks(t *testing.T) {
	in := `<a href="mailto:alice@example.com">mail</a>`
	got := Comment(in)
	assert.Contains(t, got, "mailto:alice@example.com")
}

func TestCommentNeverPanicsAndIsIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain text",
		"<script>evil()</script>hello <strong>world</strong>",
		`<div><p>nested <b>bold</b></p></div>`,
		`<a href="ftp://example.com">ftp</a>`,
		`<img src="x" onerror="evil()">caption`,
		`<ol><li><code>x := 1</code></li></ol>`,
		`broken <em markup`,
	}
	for _, in := range inputs {
		once := Comment(in)
		assert.Equal(t, once, Comment(once), "sanitize must be idempotent for %q", in)
	}
}
