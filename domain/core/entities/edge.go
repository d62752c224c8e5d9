package entities

import (
	"encoding/json"

	"github.com/Apanazar/WGE/domain/core/valueobjects"
	pkgerrors "github.com/Apanazar/WGE/pkg/errors"
)

// Edge is a relationship between two nodes.
// Direction is stored but ignored for existence checks.
type Edge struct {
	id         valueobjects.EdgeID
	from       valueobjects.NodeID
	to         valueobjects.NodeID
	attributes map[string]json.RawMessage
}

// EdgeRecord is the plain form of an edge used by codecs and views.
type EdgeRecord struct {
	ID         valueobjects.EdgeID        `json:"id"`
	From       valueobjects.NodeID        `json:"from"`
	To         valueobjects.NodeID        `json:"to"`
	Attributes map[string]json.RawMessage `json:"attributes,omitempty"`
}

// NewEdge creates an edge with a fresh id
func NewEdge(from, to valueobjects.NodeID) *Edge {
	return &Edge{
		id:   valueobjects.NewEdgeID(),
		from: from,
		to:   to,
	}
}

// ReconstructEdge rebuilds an edge from stored data. A missing id is replaced.
func ReconstructEdge(rec EdgeRecord) (*Edge, error) {
	if !rec.From.IsAssigned() || !rec.To.IsAssigned() {
		return nil, pkgerrors.NewValidationError("edge endpoints must be assigned node ids")
	}
	id := rec.ID
	if id.IsZero() {
		id = valueobjects.NewEdgeID()
	}
	return &Edge{
		id:         id,
		from:       rec.From,
		to:         rec.To,
		attributes: copyAttributes(rec.Attributes),
	}, nil
}

// ID returns the edge identifier
func (e *Edge) ID() valueobjects.EdgeID { return e.id }

// From returns the stored source endpoint
func (e *Edge) From() valueobjects.NodeID { return e.from }

// To returns the stored target endpoint
func (e *Edge) To() valueobjects.NodeID { return e.to }

// Connects reports whether the edge joins a and b in either direction.
func (e *Edge) Connects(a, b valueobjects.NodeID) bool {
	return (e.from == a && e.to == b) || (e.from == b && e.to == a)
}

// Touches reports whether id is one of the endpoints.
func (e *Edge) Touches(id valueobjects.NodeID) bool {
	return e.from == id || e.to == id
}

// Other returns the endpoint opposite to id.
func (e *Edge) Other(id valueobjects.NodeID) valueobjects.NodeID {
	if e.from == id {
		return e.to
	}
	return e.from
}

// Record returns a detached copy of the edge data.
func (e *Edge) Record() EdgeRecord {
	return EdgeRecord{
		ID:         e.id,
		From:       e.from,
		To:         e.to,
		Attributes: copyAttributes(e.attributes),
	}
}

func copyAttributes(in map[string]json.RawMessage) map[string]json.RawMessage {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]json.RawMessage, len(in))
	for k, v := range in {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}
