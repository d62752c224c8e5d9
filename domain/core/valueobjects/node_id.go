package valueobjects

import (
	"strconv"

	"github.com/google/uuid"
)

// NodeID is the process-local integer identity of a node.
// Ids are assigned by the graph and never reused within a session.
type NodeID int

// UnassignedNodeID marks a node record that has not been stored yet.
const UnassignedNodeID NodeID = -1

// IsAssigned reports whether the id was allocated by a graph.
func (id NodeID) IsAssigned() bool {
	return id >= 0
}

// String returns the decimal form of the id
func (id NodeID) String() string {
	return strconv.Itoa(int(id))
}

// ParseNodeID parses the decimal form used in URLs.
func ParseNodeID(s string) (NodeID, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return UnassignedNodeID, err
	}
	return NodeID(n), nil
}

// EdgeID is an engine-assigned edge identity.
type EdgeID string

// NewEdgeID creates a new random EdgeID
func NewEdgeID() EdgeID {
	return EdgeID(uuid.New().String())
}

// String returns the string representation of the EdgeID
func (id EdgeID) String() string {
	return string(id)
}

// IsZero checks if the EdgeID is the zero value
func (id EdgeID) IsZero() bool {
	return id == ""
}
