package contentfetch

import (
	"fmt"
	"html"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Apanazar/WGE/application/ports"
)

// minContentLength is the shortest extracted markup kept before falling
// back to the page's paragraphs.
const minContentLength = 100

var contentSelectors = []string{
	"#mw-content-text",
	".mw-parser-output",
	"#bodyContent",
	".vector-body",
	"#content",
	".mw-body-content",
}

var unwantedSelectors = []string{
	"#siteNotice", ".site-notice",
	"#mw-navigation", ".mw-navigation",
	"#mw-panel", ".mw-panel",
	".mw-footer", "#footer", "footer",
	".vector-header", ".mw-header",
	".metadata", ".hatnote",
	".toc", "#toc", ".table-of-contents",
	".ambox", ".navigation-box",
	".mw-indicators", ".mw-jump-link",
	".vector-page-toolbar", ".vector-page-tools",
	".mw-workspace-container", ".mw-page-container",
	"script", "style", "noscript",
}

// article is the readable part of a fetched page
type article struct {
	Title   string
	Content string
	Links   []ports.Link
	// Fallback is set when the content area was not recognized.
	Fallback bool
}

// parseArticle extracts title, cleaned markup and outbound links from an
// HTML page. Relative references are resolved against pageURL. Links are
// deduplicated and capped at limit when limit is positive.
func parseArticle(r io.Reader, pageURL *url.URL, limit int) (*article, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	a := &article{Title: extractTitle(doc)}

	content := findContent(doc)
	if content == nil {
		content = doc.Find("body")
	}
	content = content.Clone()
	for _, selector := range unwantedSelectors {
		content.Find(selector).Remove()
	}

	a.Links = rewriteLinks(content, pageURL, limit)
	rewriteImages(content, pageURL)

	markup, err := content.Html()
	if err != nil {
		return nil, fmt.Errorf("failed to render content: %w", err)
	}
	markup = strings.TrimSpace(markup)
	if len(markup) < minContentLength {
		markup = paragraphFallback(doc, a.Title)
		a.Fallback = true
	}

	a.Content = wrapDocument(a.Title, markup)
	return a, nil
}

func extractTitle(doc *goquery.Document) string {
	title := ""
	doc.Find("#firstHeading, h1.mw-first-heading").Each(func(i int, s *goquery.Selection) {
		if title == "" {
			title = strings.TrimSpace(s.Text())
		}
	})
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if title == "" {
		title = "Article"
	}
	return title
}

func findContent(doc *goquery.Document) *goquery.Selection {
	for _, selector := range contentSelectors {
		if s := doc.Find(selector); s.Length() > 0 {
			return s.First()
		}
	}

	var found *goquery.Selection
	doc.Find("article, main, div").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if goquery.NodeName(s) != "div" {
			found = s
			return false
		}
		if class, _ := s.Attr("class"); strings.Contains(class, "content") || strings.Contains(class, "body") {
			found = s
			return false
		}
		return true
	})
	return found
}

// isWikiHost reports whether links on host follow the /wiki/Title scheme.
func isWikiHost(host string) bool {
	return strings.HasSuffix(strings.ToLower(host), "wikipedia.org")
}

// rewriteLinks makes every href absolute, strips inline handlers, marks
// anchors draggable and collects the links that can become nodes.
func rewriteLinks(content *goquery.Selection, pageURL *url.URL, limit int) []ports.Link {
	wiki := isWikiHost(pageURL.Host)
	seen := make(map[string]bool)
	links := []ports.Link{}

	content.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)

		if resolved, ok := resolve(pageURL, href); ok {
			s.SetAttr("href", resolved.String())
			if candidate, ok := nodeLink(resolved, pageURL, wiki); ok && !seen[candidate] {
				if limit <= 0 || len(links) < limit {
					seen[candidate] = true
					links = append(links, ports.Link{URL: candidate, Title: linkTitle(s)})
				}
			}
		}

		s.RemoveAttr("onclick")
		s.RemoveAttr("onmousedown")
		s.RemoveAttr("onmouseup")
		s.SetAttr("draggable", "true")
		s.SetAttr("data-draggable", "true")
	})
	return links
}

func resolve(base *url.URL, href string) (*url.URL, bool) {
	if href == "" || strings.HasPrefix(href, "#") {
		return nil, false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return nil, false
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return nil, false
	}
	return resolved, true
}

// nodeLink decides whether a resolved link is worth a node. Wiki pages
// keep article links on the same wiki (no namespaces, no fragments); other
// pages keep any http(s) link leaving the current page.
func nodeLink(link, page *url.URL, wiki bool) (string, bool) {
	if wiki {
		if !strings.EqualFold(link.Host, page.Host) || !strings.HasPrefix(link.Path, "/wiki/") {
			return "", false
		}
		if strings.Contains(link.Path, ":") || link.Fragment != "" || link.RawQuery != "" {
			return "", false
		}
		return link.Scheme + "://" + link.Host + link.EscapedPath(), true
	}

	trimmed := *link
	trimmed.Fragment = ""
	trimmed.RawFragment = ""
	current := *page
	current.Fragment = ""
	current.RawFragment = ""
	if trimmed.String() == current.String() {
		return "", false
	}
	return trimmed.String(), true
}

func linkTitle(s *goquery.Selection) string {
	if title, ok := s.Attr("title"); ok && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title)
	}
	return strings.Join(strings.Fields(s.Text()), " ")
}

func rewriteImages(content *goquery.Selection, pageURL *url.URL) {
	content.Find("img[src]").Each(func(i int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if resolved, ok := resolve(pageURL, strings.TrimSpace(src)); ok {
			s.SetAttr("src", resolved.String())
		}
		s.RemoveAttr("srcset")
		s.SetAttr("style", "max-width:100%; height:auto;")
	})
}

func paragraphFallback(doc *goquery.Document, title string) string {
	var paragraphs []string
	doc.Find("body p").Each(func(i int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); len(text) > 50 {
			paragraphs = append(paragraphs, "<p>"+html.EscapeString(text)+"</p>")
		}
	})
	if len(paragraphs) > 0 {
		return strings.Join(paragraphs, "\n")
	}
	return fmt.Sprintf(`<div style="padding:20px;font-family:Arial;">
	<h1>%s</h1>
	<p>Content structure not recognized. Please try another article.</p>
</div>`, html.EscapeString(title))
}

func wrapDocument(title, markup string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
</head>
<body>
	<h1>%s</h1>
	%s
</body>
</html>`, html.EscapeString(title), markup)
}
