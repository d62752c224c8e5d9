package entities

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/Apanazar/WGE/domain/config"
	"github.com/Apanazar/WGE/domain/core/valueobjects"
	pkgerrors "github.com/Apanazar/WGE/pkg/errors"
)

// ExpansionState tracks loading of a node's content.
type ExpansionState string

const (
	ExpansionCollapsed ExpansionState = "collapsed"
	ExpansionLoading   ExpansionState = "loading"
	ExpansionLoaded    ExpansionState = "loaded"
	ExpansionError     ExpansionState = "error"
)

// Node is a graph vertex representing one content item
type Node struct {
	id        valueobjects.NodeID
	nodeType  valueobjects.NodeType
	label     string
	title     string
	sourceKey valueobjects.SourceKey
	payload   valueobjects.Payload
	position  *valueobjects.Position

	// Edges captured by Detach, restored by Reattach.
	detached      bool
	detachedEdges []EdgeRecord

	// Transient; never persisted.
	expansion ExpansionState

	// Renderer fields such as color, shape and icon, kept verbatim.
	attributes map[string]json.RawMessage
}

// NodeRecord is the plain form of a node used by codecs and views.
type NodeRecord struct {
	ID            valueobjects.NodeID         `json:"id"`
	Type          valueobjects.NodeType       `json:"type"`
	Label         string                      `json:"label"`
	Title         string                      `json:"title,omitempty"`
	SourceKey     valueobjects.SourceKey      `json:"url,omitempty"`
	Notice        *valueobjects.NoticePayload `json:"notice,omitempty"`
	Media         *valueobjects.MediaPayload  `json:"media,omitempty"`
	Position      *valueobjects.Position      `json:"position,omitempty"`
	Detached      bool                        `json:"detached"`
	DetachedEdges []EdgeRecord                `json:"detachedEdges,omitempty"`
	Expansion     ExpansionState              `json:"expansion"`
	Attributes    map[string]json.RawMessage  `json:"attributes,omitempty"`
}

// NewURLNode creates a wikipedia or web node for key. The label may be empty
// until the first successful expansion.
func NewURLNode(key valueobjects.SourceKey, label string, position *valueobjects.Position, cfg *config.DomainConfig) (*Node, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if key.IsZero() {
		return nil, pkgerrors.NewValidationError("url cannot be empty")
	}

	label = strings.TrimSpace(label)
	return &Node{
		id:        valueobjects.UnassignedNodeID,
		nodeType:  key.Classify(),
		label:     valueobjects.TruncateLabel(label, cfg.LabelMaxLength, cfg.LabelEllipsis),
		title:     label,
		sourceKey: key,
		position:  copyPosition(position),
		expansion: ExpansionCollapsed,
	}, nil
}

// NewNoticeNode creates a user note.
func NewNoticeNode(title string, now time.Time, position *valueobjects.Position, cfg *config.DomainConfig) (*Node, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, pkgerrors.NewValidationError("notice title cannot be empty")
	}

	return &Node{
		id:       valueobjects.UnassignedNodeID,
		nodeType: valueobjects.NodeTypeNotice,
		label:    valueobjects.TruncateLabel(title, cfg.LabelMaxLength, cfg.LabelEllipsis),
		title:    title,
		payload: valueobjects.NoticePayload{
			Title:     title,
			CreatedAt: now,
			UpdatedAt: now,
		},
		position:  copyPosition(position),
		expansion: ExpansionCollapsed,
	}, nil
}

// NewMediaNode creates an image, video or file node from an accepted upload.
// Images carry no label; files show their truncated name.
func NewMediaNode(media valueobjects.MediaPayload, position *valueobjects.Position, cfg *config.DomainConfig) (*Node, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if media.Data == "" {
		return nil, pkgerrors.NewValidationError("upload has no data")
	}

	nodeType := valueobjects.ClassifyUpload(media.MediaType)
	label := ""
	if nodeType != valueobjects.NodeTypeImage {
		label = valueobjects.TruncateLabel(media.FileName, cfg.FileLabelMaxLength, cfg.LabelEllipsis)
	}
	if nodeType == valueobjects.NodeTypeFile && media.Kind == "" {
		media.Kind = valueobjects.ClassifyFileKind(media.FileName, media.MediaType)
	}

	return &Node{
		id:        valueobjects.UnassignedNodeID,
		nodeType:  nodeType,
		label:     label,
		title:     media.FileName,
		payload:   media,
		position:  copyPosition(position),
		expansion: ExpansionCollapsed,
	}, nil
}

// ReconstructNode rebuilds a node from stored data. Records are trusted:
// unknown types are kept and a missing url is tolerated.
func ReconstructNode(rec NodeRecord) (*Node, error) {
	if !rec.ID.IsAssigned() {
		return nil, pkgerrors.NewValidationError("node id must be a non-negative integer")
	}

	node := &Node{
		id:         rec.ID,
		nodeType:   rec.Type,
		label:      rec.Label,
		title:      rec.Title,
		sourceKey:  rec.SourceKey,
		position:   copyPosition(rec.Position),
		detached:   rec.Detached,
		expansion:  ExpansionCollapsed,
		attributes: copyAttributes(rec.Attributes),
	}
	if node.title == "" {
		node.title = rec.Label
	}
	if rec.Detached {
		node.detachedEdges = copyEdgeRecords(rec.DetachedEdges)
	}

	switch {
	case rec.Notice != nil:
		node.payload = *rec.Notice
	case rec.Media != nil:
		node.payload = *rec.Media
	}
	return node, nil
}

// ID returns the node's identifier
func (n *Node) ID() valueobjects.NodeID { return n.id }

// Type returns the node's type tag
func (n *Node) Type() valueobjects.NodeType { return n.nodeType }

// Label returns the display label
func (n *Node) Label() string { return n.label }

// Title returns the full, untruncated title
func (n *Node) Title() string { return n.title }

// SourceKey returns the canonical URL, empty for nodes without one
func (n *Node) SourceKey() valueobjects.SourceKey { return n.sourceKey }

// Payload returns the type-specific data, nil for url nodes
func (n *Node) Payload() valueobjects.Payload { return n.payload }

// Position returns the last known position, nil if never placed
func (n *Node) Position() *valueobjects.Position { return copyPosition(n.position) }

// IsDetached reports whether the node's edges are suspended
func (n *Node) IsDetached() bool { return n.detached }

// DetachedEdges returns the captured edges of a detached node
func (n *Node) DetachedEdges() []EdgeRecord { return copyEdgeRecords(n.detachedEdges) }

// Expansion returns the transient loading state
func (n *Node) Expansion() ExpansionState { return n.expansion }

// Attributes returns the opaque renderer fields
func (n *Node) Attributes() map[string]json.RawMessage { return copyAttributes(n.attributes) }

// IsIndexed reports whether the node belongs in the identity index.
func (n *Node) IsIndexed() bool {
	return n.nodeType.HasSourceKey() && !n.sourceKey.IsZero()
}

// Notice returns the notice payload if the node carries one.
func (n *Node) Notice() (valueobjects.NoticePayload, bool) {
	p, ok := n.payload.(valueobjects.NoticePayload)
	return p, ok
}

// Media returns the media payload if the node carries one.
func (n *Node) Media() (valueobjects.MediaPayload, bool) {
	p, ok := n.payload.(valueobjects.MediaPayload)
	return p, ok
}

// Record returns a detached copy of the node data.
func (n *Node) Record() NodeRecord {
	rec := NodeRecord{
		ID:            n.id,
		Type:          n.nodeType,
		Label:         n.label,
		Title:         n.title,
		SourceKey:     n.sourceKey,
		Position:      copyPosition(n.position),
		Detached:      n.detached,
		DetachedEdges: copyEdgeRecords(n.detachedEdges),
		Expansion:     n.expansion,
		Attributes:    copyAttributes(n.attributes),
	}
	switch p := n.payload.(type) {
	case valueobjects.NoticePayload:
		rec.Notice = &p
	case valueobjects.MediaPayload:
		rec.Media = &p
	}
	return rec
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	c := *n
	c.position = copyPosition(n.position)
	c.detachedEdges = copyEdgeRecords(n.detachedEdges)
	c.attributes = copyAttributes(n.attributes)
	return &c
}

// AssignID sets the id of a node that has not been stored yet.
func (n *Node) AssignID(id valueobjects.NodeID) error {
	if n.id.IsAssigned() && n.id != id {
		return pkgerrors.NewConflictError("node already has an id")
	}
	n.id = id
	return nil
}

// Detachment describes a change to a node's detached state.
type Detachment struct {
	Detached bool
	Edges    []EdgeRecord
}

// NodeUpdate is a partial update; nil fields are left unchanged.
type NodeUpdate struct {
	Label      *string
	Title      *string
	Payload    valueobjects.Payload
	Position   *valueobjects.Position
	Expansion  *ExpansionState
	Detachment *Detachment
	Attributes map[string]json.RawMessage
}

// IsEmpty reports whether the update changes nothing.
func (u NodeUpdate) IsEmpty() bool {
	return u.Label == nil && u.Title == nil && u.Payload == nil && u.Position == nil &&
		u.Expansion == nil && u.Detachment == nil && u.Attributes == nil
}

// Apply merges the update into the node.
func (n *Node) Apply(u NodeUpdate) {
	if u.Label != nil {
		n.label = *u.Label
	}
	if u.Title != nil {
		n.title = *u.Title
	}
	if u.Payload != nil {
		n.payload = u.Payload
	}
	if u.Position != nil {
		n.position = copyPosition(u.Position)
	}
	if u.Expansion != nil {
		n.expansion = *u.Expansion
	}
	if u.Detachment != nil {
		n.detached = u.Detachment.Detached
		if n.detached {
			n.detachedEdges = copyEdgeRecords(u.Detachment.Edges)
		} else {
			n.detachedEdges = nil
		}
	}
	for k, v := range u.Attributes {
		if n.attributes == nil {
			n.attributes = make(map[string]json.RawMessage)
		}
		if v == nil {
			delete(n.attributes, k)
			continue
		}
		n.attributes[k] = append(json.RawMessage(nil), v...)
	}
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string { return &s }

// StatePtr returns a pointer to s
func StatePtr(s ExpansionState) *ExpansionState { return &s }

func copyPosition(p *valueobjects.Position) *valueobjects.Position {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func copyEdgeRecords(in []EdgeRecord) []EdgeRecord {
	if len(in) == 0 {
		return nil
	}
	out := make([]EdgeRecord, len(in))
	for i, e := range in {
		out[i] = e
		out[i].Attributes = copyAttributes(e.Attributes)
	}
	return out
}
