package valueobjects

import "strings"

// NodeType tags the kind of content a node represents.
type NodeType string

const (
	NodeTypeWikipedia NodeType = "wikipedia"
	NodeTypeWeb       NodeType = "web"
	NodeTypeNotice    NodeType = "notice"
	NodeTypeImage     NodeType = "image"
	NodeTypeVideo     NodeType = "video"
	NodeTypeFile      NodeType = "file"
)

// KnownNodeTypes lists the types this version understands.
var KnownNodeTypes = []NodeType{
	NodeTypeWikipedia,
	NodeTypeWeb,
	NodeTypeNotice,
	NodeTypeImage,
	NodeTypeVideo,
	NodeTypeFile,
}

// ParseNodeType normalizes a type tag. Unknown tags are kept as-is so that
// documents written by newer versions survive a load/save cycle.
func ParseNodeType(s string) NodeType {
	return NodeType(strings.ToLower(strings.TrimSpace(s)))
}

// IsKnown reports whether t is one of KnownNodeTypes.
func (t NodeType) IsKnown() bool {
	for _, k := range KnownNodeTypes {
		if t == k {
			return true
		}
	}
	return false
}

// HasSourceKey reports whether nodes of this type are identified by a URL.
func (t NodeType) HasSourceKey() bool {
	return t == NodeTypeWikipedia || t == NodeTypeWeb
}

// IsMedia reports whether nodes of this type carry uploaded data.
func (t NodeType) IsMedia() bool {
	return t == NodeTypeImage || t == NodeTypeVideo || t == NodeTypeFile
}

func (t NodeType) String() string {
	return string(t)
}
