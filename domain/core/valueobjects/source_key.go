package valueobjects

import (
	"net/url"
	"path"
	"strings"
)

// SourceKey is the canonical URL identifying a wikipedia or web node.
type SourceKey string

// NewSourceKey canonicalizes a raw URL into a key.
// Only surrounding whitespace is removed; saved graphs rely on exact matches.
func NewSourceKey(raw string) SourceKey {
	return SourceKey(strings.TrimSpace(raw))
}

func (k SourceKey) String() string {
	return string(k)
}

// IsZero reports whether the key is empty.
func (k SourceKey) IsZero() bool {
	return k == ""
}

// Classify returns the node type a URL should create.
func (k SourceKey) Classify() NodeType {
	if strings.Contains(strings.ToLower(string(k)), "wikipedia.org") {
		return NodeTypeWikipedia
	}
	return NodeTypeWeb
}

// SuggestedTitle derives a human title from the last path segment,
// falling back to the host when the path is empty.
func (k SourceKey) SuggestedTitle() string {
	u, err := url.Parse(string(k))
	if err != nil {
		return string(k)
	}

	segment := path.Base(strings.TrimRight(u.EscapedPath(), "/"))
	if segment == "." || segment == "/" || segment == "" {
		if u.Host != "" {
			return u.Host
		}
		return string(k)
	}

	if decoded, err := url.PathUnescape(segment); err == nil {
		segment = decoded
	}
	return strings.TrimSpace(strings.ReplaceAll(segment, "_", " "))
}

// Host returns the scheme and host of the key, e.g. https://en.wikipedia.org.
func (k SourceKey) Host() string {
	u, err := url.Parse(string(k))
	if err != nil || u.Host == "" {
		return ""
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return scheme + "://" + u.Host
}
