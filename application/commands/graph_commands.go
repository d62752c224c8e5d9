package commands

import (
	"github.com/Apanazar/WGE/application/ports"
	"github.com/Apanazar/WGE/domain/core/valueobjects"
	"github.com/Apanazar/WGE/pkg/utils"
)

// NewRootCommand discards the graph and expands a new root
type NewRootCommand struct {
	URL   string `json:"url" validate:"required,max=2048"`
	Title string `json:"title,omitempty" validate:"max=512"`
	Limit int    `json:"limit,omitempty" validate:"min=0"`
}

// Validate validates the command
func (c NewRootCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// RandomRootCommand starts a new graph at a random article
type RandomRootCommand struct {
	Limit int `json:"limit,omitempty" validate:"min=0"`
}

// Validate validates the command
func (c RandomRootCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// RootResult reports a new root and what its first expansion presented
type RootResult struct {
	RootID       valueobjects.NodeID `json:"rootId"`
	URL          string              `json:"url"`
	Presentation *ports.Presentation `json:"presentation,omitempty"`
}

// ActivateNodeCommand loads a node into the presentation surface
type ActivateNodeCommand struct {
	NodeID valueobjects.NodeID `json:"nodeId" validate:"min=0"`
	Limit  int                 `json:"limit,omitempty" validate:"min=0"`
}

// Validate validates the command
func (c ActivateNodeCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// CloseSurfaceCommand unbinds the presentation surface
type CloseSurfaceCommand struct{}

// Validate validates the command
func (c CloseSurfaceCommand) Validate() error { return nil }

// UpdateNoticeCommand saves the notice editor
type UpdateNoticeCommand struct {
	NodeID valueobjects.NodeID `json:"nodeId" validate:"min=0"`
	Title  string              `json:"title" validate:"max=512"`
	Body   string              `json:"body"`
}

// Validate validates the command
func (c UpdateNoticeCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// SetLanguageCommand changes the content locale
type SetLanguageCommand struct {
	Language string `json:"language" validate:"required,min=2,max=16"`
}

// Validate validates the command
func (c SetLanguageCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// ImportGraphCommand replaces the workspace with a saved document
type ImportGraphCommand struct {
	Payload []byte `json:"-" validate:"required"`
}

// Validate validates the command
func (c ImportGraphCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// SaveGraphCommand writes the graph through the blob sink
type SaveGraphCommand struct{}

// Validate validates the command
func (c SaveGraphCommand) Validate() error { return nil }

// SaveSnapshotCommand stores the graph under a name
type SaveSnapshotCommand struct {
	Name string `json:"name,omitempty" validate:"max=256"`
}

// Validate validates the command
func (c SaveSnapshotCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// LoadSnapshotCommand replaces the workspace with a stored snapshot
type LoadSnapshotCommand struct {
	Name string `json:"name" validate:"required,max=256"`
}

// Validate validates the command
func (c LoadSnapshotCommand) Validate() error {
	return utils.ValidateStruct(c)
}
