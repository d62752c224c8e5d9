package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Apanazar/WGE/application/commands"
	"github.com/Apanazar/WGE/application/commands/bus"
	"github.com/Apanazar/WGE/application/services"
)

// NodeCommandHandler handles commands that add, change or remove nodes and
// edges
type NodeCommandHandler struct {
	creator   *services.NodeCreator
	mutations *services.MutationOps
	uploads   *services.UploadService
	logger    *zap.Logger
}

// NewNodeCommandHandler creates a new node command handler
func NewNodeCommandHandler(
	creator *services.NodeCreator,
	mutations *services.MutationOps,
	uploads *services.UploadService,
	logger *zap.Logger,
) *NodeCommandHandler {
	return &NodeCommandHandler{
		creator:   creator,
		mutations: mutations,
		uploads:   uploads,
		logger:    logger,
	}
}

// Register binds every node command to this handler
func (h *NodeCommandHandler) Register(b *bus.CommandBus) {
	for _, cmd := range []bus.Command{
		&commands.AddURLNodeCommand{},
		&commands.AddNoticeCommand{},
		&commands.DeleteNodeCommand{},
		&commands.DetachNodeCommand{},
		&commands.ReattachNodeCommand{},
		&commands.ToggleDetachCommand{},
		&commands.EditTitleCommand{},
		&commands.MoveNodeCommand{},
		&commands.ClickNodeCommand{},
		&commands.ConnectNodesCommand{},
		&commands.ClearSelectionCommand{},
		&commands.UploadFilesCommand{},
	} {
		b.MustRegister(cmd, h)
	}
}

// Handle executes a node command
func (h *NodeCommandHandler) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	switch c := cmd.(type) {
	case *commands.AddURLNodeCommand:
		id, created, err := h.creator.AddURLNode(ctx, c.URL, c.Title, c.Position)
		if err != nil {
			return nil, err
		}
		return commands.AddURLNodeResult{NodeID: id, Created: created}, nil

	case *commands.AddNoticeCommand:
		id, presented, err := h.creator.AddNoticeNode(ctx, c.Title, c.Position)
		if err != nil {
			return nil, err
		}
		return commands.AddNoticeResult{NodeID: id, Presentation: presented}, nil

	case *commands.DeleteNodeCommand:
		return nil, h.mutations.DeleteNode(ctx, c.NodeID)

	case *commands.DetachNodeCommand:
		changed, err := h.mutations.Detach(ctx, c.NodeID)
		if err != nil {
			return nil, err
		}
		return commands.DetachResult{NodeID: c.NodeID, Detached: true, Changed: changed}, nil

	case *commands.ReattachNodeCommand:
		restored, err := h.mutations.Reattach(ctx, c.NodeID)
		if err != nil {
			return nil, err
		}
		return commands.DetachResult{NodeID: c.NodeID, Detached: false, Changed: true, Restored: restored}, nil

	case *commands.ToggleDetachCommand:
		detached, err := h.mutations.ToggleDetach(ctx, c.NodeID)
		if err != nil {
			return nil, err
		}
		return commands.DetachResult{NodeID: c.NodeID, Detached: detached, Changed: true}, nil

	case *commands.EditTitleCommand:
		changed, err := h.mutations.EditTitle(ctx, c.NodeID, c.Title)
		if err != nil {
			return nil, err
		}
		return map[string]bool{"changed": changed}, nil

	case *commands.MoveNodeCommand:
		return nil, h.mutations.MoveNode(ctx, c.NodeID, c.Position)

	case *commands.ClickNodeCommand:
		return h.mutations.ClickForConnection(ctx, c.NodeID)

	case *commands.ConnectNodesCommand:
		return h.mutations.Connect(ctx, c.From, c.To)

	case *commands.ClearSelectionCommand:
		h.mutations.ClearSelection(ctx)
		return nil, nil

	case *commands.UploadFilesCommand:
		if h.uploads == nil {
			return nil, fmt.Errorf("%w: uploads are not configured", bus.ErrHandlerNotFound)
		}
		return h.uploads.UploadMany(ctx, c.Files, c.Center), nil

	default:
		return nil, fmt.Errorf("%w: %T", bus.ErrInvalidCommand, cmd)
	}
}
