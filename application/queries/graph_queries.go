package queries

import (
	"strings"

	"github.com/Apanazar/WGE/domain/core/valueobjects"
	pkgerrors "github.com/Apanazar/WGE/pkg/errors"
	"github.com/Apanazar/WGE/pkg/utils"
)

// GetGraphQuery returns the whole workspace
type GetGraphQuery struct{}

// Validate validates the query
func (q GetGraphQuery) Validate() error { return nil }

// GetNodeQuery returns one node
type GetNodeQuery struct {
	NodeID valueobjects.NodeID `json:"nodeId" validate:"min=0"`
}

// Validate validates the query
func (q GetNodeQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// ResolveURLQuery looks a url up in the identity index
type ResolveURLQuery struct {
	URL string `json:"url"`
}

// Validate validates the query
func (q ResolveURLQuery) Validate() error {
	if strings.TrimSpace(q.URL) == "" {
		return pkgerrors.NewValidationError("url is required")
	}
	return nil
}

// ResolveURLResult reports whether a url has a node
type ResolveURLResult struct {
	URL    string               `json:"url"`
	Found  bool                 `json:"found"`
	NodeID *valueobjects.NodeID `json:"nodeId,omitempty"`
}

// ExportGraphQuery serializes the workspace
type ExportGraphQuery struct{}

// Validate validates the query
func (q ExportGraphQuery) Validate() error { return nil }

// ExportGraphResult is a saved document with its suggested file name
type ExportGraphResult struct {
	FileName string `json:"fileName"`
	Payload  []byte `json:"-"`
}

// ListSnapshotsQuery lists stored snapshots
type ListSnapshotsQuery struct{}

// Validate validates the query
func (q ListSnapshotsQuery) Validate() error { return nil }
