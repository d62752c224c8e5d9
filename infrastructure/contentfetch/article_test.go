package contentfetch

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestNodeLink(t *testing.T) {
	wikiPage := mustURL(t, "https://ru.wikipedia.org/wiki/Moon")
	webPage := mustURL(t, "https://example.org/notes?id=1")

	tests := []struct {
		name string
		link string
		page *url.URL
		wiki bool
		want string
		ok   bool
	}{
		{name: "wiki article", link: "https://ru.wikipedia.org/wiki/Sun", page: wikiPage, wiki: true, want: "https://ru.wikipedia.org/wiki/Sun", ok: true},
		{name: "wiki namespace", link: "https://ru.wikipedia.org/wiki/Help:Contents", page: wikiPage, wiki: true},
		{name: "wiki fragment", link: "https://ru.wikipedia.org/wiki/Sun#Core", page: wikiPage, wiki: true},
		{name: "wiki query", link: "https://ru.wikipedia.org/wiki/Sun?action=edit", page: wikiPage, wiki: true},
		{name: "other language", link: "https://en.wikipedia.org/wiki/Sun", page: wikiPage, wiki: true},
		{name: "not an article path", link: "https://ru.wikipedia.org/w/index.php", page: wikiPage, wiki: true},
		{name: "web link", link: "https://go.dev/blog#intro", page: webPage, want: "https://go.dev/blog", ok: true},
		{name: "web self", link: "https://example.org/notes?id=1#top", page: webPage},
		{name: "web same path other query", link: "https://example.org/notes?id=2", page: webPage, want: "https://example.org/notes?id=2", ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := nodeLink(mustURL(t, tt.link), tt.page, tt.wiki)

			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve(t *testing.T) {
	base := mustURL(t, "https://en.wikipedia.org/wiki/Moon")

	got, ok := resolve(base, "/wiki/Sun")
	require.True(t, ok)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Sun", got.String())

	got, ok = resolve(base, "//upload.wikimedia.org/a.png")
	require.True(t, ok)
	assert.Equal(t, "https://upload.wikimedia.org/a.png", got.String())

	for _, href := range []string{"", "#cite-1", "javascript:void(0)", "mailto:x@example.org"} {
		_, ok := resolve(base, href)
		assert.False(t, ok, href)
	}
}

func TestParseArticle_ContentDetection(t *testing.T) {
	page := mustURL(t, "https://blog.example.org/post")
	filler := strings.Repeat("Gophers dig tunnels under the lawn. ", 5)

	t.Run("article element", func(t *testing.T) {
		html := `<html><body><header>Menu</header><article><h1>Tunnels</h1><p>` + filler + `</p></article></body></html>`

		a, err := parseArticle(strings.NewReader(html), page, 0)

		require.NoError(t, err)
		assert.Equal(t, "Tunnels", a.Title)
		assert.False(t, a.Fallback)
		assert.NotContains(t, a.Content, "Menu")
	})

	t.Run("paragraph fallback escapes text", func(t *testing.T) {
		html := `<html><body><div class="post-body">x</div><p>` + filler + `&lt;b&gt;</p><p>too short</p></body></html>`

		a, err := parseArticle(strings.NewReader(html), page, 0)

		require.NoError(t, err)
		assert.True(t, a.Fallback)
		assert.Contains(t, a.Content, "&lt;b&gt;")
		assert.NotContains(t, a.Content, "too short")
	})

	t.Run("scripts are stripped", func(t *testing.T) {
		html := `<html><body><main><script>alert(1)</script><p>` + filler + `</p></main></body></html>`

		a, err := parseArticle(strings.NewReader(html), page, 0)

		require.NoError(t, err)
		assert.NotContains(t, a.Content, "alert(1)")
		assert.Equal(t, "Article", a.Title)
	})
}
