package commands

import (
	"github.com/Apanazar/WGE/application/ports"
	"github.com/Apanazar/WGE/domain/core/valueobjects"
	"github.com/Apanazar/WGE/pkg/utils"
)

// AddURLNodeCommand places a wikipedia or web node on the canvas
type AddURLNodeCommand struct {
	URL      string                 `json:"url" validate:"required,max=2048"`
	Title    string                 `json:"title,omitempty" validate:"max=512"`
	Position *valueobjects.Position `json:"position,omitempty"`
}

// Validate validates the command
func (c AddURLNodeCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// AddURLNodeResult reports the node for the url
type AddURLNodeResult struct {
	NodeID  valueobjects.NodeID `json:"nodeId"`
	Created bool                `json:"created"`
}

// AddNoticeCommand creates a notice and opens it in the editor
type AddNoticeCommand struct {
	Title    string                 `json:"title,omitempty" validate:"max=512"`
	Position *valueobjects.Position `json:"position,omitempty"`
}

// Validate validates the command
func (c AddNoticeCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// AddNoticeResult reports the new notice and its editor presentation
type AddNoticeResult struct {
	NodeID       valueobjects.NodeID `json:"nodeId"`
	Presentation ports.Presentation  `json:"presentation"`
}

// DeleteNodeCommand removes a node and its edges
type DeleteNodeCommand struct {
	NodeID valueobjects.NodeID `json:"nodeId" validate:"min=0"`
}

// Validate validates the command
func (c DeleteNodeCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// DetachNodeCommand suspends a node's edges
type DetachNodeCommand struct {
	NodeID valueobjects.NodeID `json:"nodeId" validate:"min=0"`
}

// Validate validates the command
func (c DetachNodeCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// ReattachNodeCommand restores a detached node's edges
type ReattachNodeCommand struct {
	NodeID valueobjects.NodeID `json:"nodeId" validate:"min=0"`
}

// Validate validates the command
func (c ReattachNodeCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// ToggleDetachCommand flips a node between detached and attached
type ToggleDetachCommand struct {
	NodeID valueobjects.NodeID `json:"nodeId" validate:"min=0"`
}

// Validate validates the command
func (c ToggleDetachCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// DetachResult reports a node's detached state after a detach command
type DetachResult struct {
	NodeID   valueobjects.NodeID `json:"nodeId"`
	Detached bool                `json:"detached"`
	Changed  bool                `json:"changed"`
	Restored int                 `json:"restored,omitempty"`
}

// EditTitleCommand renames a node
type EditTitleCommand struct {
	NodeID valueobjects.NodeID `json:"nodeId" validate:"min=0"`
	Title  string              `json:"title" validate:"max=512"`
}

// Validate validates the command
func (c EditTitleCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// MoveNodeCommand records a node position from the layout engine
type MoveNodeCommand struct {
	NodeID   valueobjects.NodeID   `json:"nodeId" validate:"min=0"`
	Position valueobjects.Position `json:"position"`
}

// Validate validates the command
func (c MoveNodeCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// ClickNodeCommand advances the manual connection selection
type ClickNodeCommand struct {
	NodeID valueobjects.NodeID `json:"nodeId" validate:"min=0"`
}

// Validate validates the command
func (c ClickNodeCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// ConnectNodesCommand joins two nodes directly
type ConnectNodesCommand struct {
	From valueobjects.NodeID `json:"from" validate:"min=0"`
	To   valueobjects.NodeID `json:"to" validate:"min=0"`
}

// Validate validates the command
func (c ConnectNodesCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// ClearSelectionCommand drops the pending connection source
type ClearSelectionCommand struct{}

// Validate validates the command
func (c ClearSelectionCommand) Validate() error { return nil }

// UploadFilesCommand turns uploaded files into nodes around Center
type UploadFilesCommand struct {
	Files  []ports.UploadedFile  `json:"-" validate:"min=1"`
	Center valueobjects.Position `json:"center"`
}

// Validate validates the command
func (c UploadFilesCommand) Validate() error {
	return utils.ValidateStruct(c)
}
