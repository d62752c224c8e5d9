package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Apanazar/WGE/application/commands"
	"github.com/Apanazar/WGE/application/commands/bus"
	"github.com/Apanazar/WGE/application/services"
	"github.com/Apanazar/WGE/domain/core/valueobjects"
)

// GraphCommandHandler handles commands that act on the whole workspace:
// new roots, activation, the notice editor, language and persistence
type GraphCommandHandler struct {
	ws          *services.Workspace
	creator     *services.NodeCreator
	expansion   *services.ExpansionController
	persistence *services.PersistenceService
	logger      *zap.Logger
}

// NewGraphCommandHandler creates a new graph command handler
func NewGraphCommandHandler(
	ws *services.Workspace,
	creator *services.NodeCreator,
	expansion *services.ExpansionController,
	persistence *services.PersistenceService,
	logger *zap.Logger,
) *GraphCommandHandler {
	return &GraphCommandHandler{
		ws:          ws,
		creator:     creator,
		expansion:   expansion,
		persistence: persistence,
		logger:      logger,
	}
}

// Register binds every graph command to this handler
func (h *GraphCommandHandler) Register(b *bus.CommandBus) {
	for _, cmd := range []bus.Command{
		&commands.NewRootCommand{},
		&commands.RandomRootCommand{},
		&commands.ActivateNodeCommand{},
		&commands.CloseSurfaceCommand{},
		&commands.UpdateNoticeCommand{},
		&commands.SetLanguageCommand{},
		&commands.ImportGraphCommand{},
		&commands.SaveGraphCommand{},
		&commands.SaveSnapshotCommand{},
		&commands.LoadSnapshotCommand{},
	} {
		b.MustRegister(cmd, h)
	}
}

// Handle executes a graph command
func (h *GraphCommandHandler) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	switch c := cmd.(type) {
	case *commands.NewRootCommand:
		rootID, err := h.creator.NewRoot(ctx, c.URL, c.Title)
		if err != nil {
			return nil, err
		}
		return h.expandRoot(ctx, rootID, valueobjects.NewSourceKey(c.URL).String(), c.Limit)

	case *commands.RandomRootCommand:
		rootID, url, err := h.creator.RandomRoot(ctx)
		if err != nil {
			return nil, err
		}
		return h.expandRoot(ctx, rootID, url, c.Limit)

	case *commands.ActivateNodeCommand:
		return h.expansion.Activate(ctx, c.NodeID, c.Limit)

	case *commands.CloseSurfaceCommand:
		h.expansion.Close(ctx)
		return nil, nil

	case *commands.UpdateNoticeCommand:
		applied, err := h.expansion.UpdateNotice(ctx, c.NodeID, c.Title, c.Body)
		if err != nil {
			return nil, err
		}
		return map[string]bool{"applied": applied}, nil

	case *commands.SetLanguageCommand:
		return nil, h.ws.SetLanguage(c.Language)

	case *commands.ImportGraphCommand:
		return h.persistence.Import(ctx, c.Payload)

	case *commands.SaveGraphCommand:
		location, err := h.persistence.SaveToSink(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]string{"location": location}, nil

	case *commands.SaveSnapshotCommand:
		return h.persistence.SaveSnapshot(ctx, c.Name)

	case *commands.LoadSnapshotCommand:
		return h.persistence.LoadSnapshot(ctx, c.Name)

	default:
		return nil, fmt.Errorf("%w: %T", bus.ErrInvalidCommand, cmd)
	}
}

// expandRoot activates a freshly created root. A failed fetch still leaves
// the root in place, so only hard errors are returned.
func (h *GraphCommandHandler) expandRoot(ctx context.Context, rootID valueobjects.NodeID, url string, limit int) (interface{}, error) {
	presented, err := h.expansion.Activate(ctx, rootID, limit)
	if err != nil {
		return nil, err
	}
	h.logger.Info("Root expanded", zap.Int("rootID", int(rootID)), zap.String("url", url))
	return commands.RootResult{RootID: rootID, URL: url, Presentation: presented}, nil
}
