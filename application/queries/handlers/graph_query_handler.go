package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Apanazar/WGE/application/queries"
	"github.com/Apanazar/WGE/application/queries/bus"
	"github.com/Apanazar/WGE/application/services"
	"github.com/Apanazar/WGE/domain/core/valueobjects"
)

// GraphQueryHandler answers read-only questions about the workspace
type GraphQueryHandler struct {
	ws          *services.Workspace
	persistence *services.PersistenceService
	logger      *zap.Logger
}

// NewGraphQueryHandler creates a new graph query handler
func NewGraphQueryHandler(ws *services.Workspace, persistence *services.PersistenceService, logger *zap.Logger) *GraphQueryHandler {
	return &GraphQueryHandler{ws: ws, persistence: persistence, logger: logger}
}

// Register binds every graph query to this handler
func (h *GraphQueryHandler) Register(b *bus.QueryBus) {
	for _, q := range []bus.Query{
		&queries.GetGraphQuery{},
		&queries.GetNodeQuery{},
		&queries.ResolveURLQuery{},
		&queries.ExportGraphQuery{},
		&queries.ListSnapshotsQuery{},
	} {
		b.MustRegister(q, h)
	}
}

// Handle executes a graph query
func (h *GraphQueryHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	switch q := query.(type) {
	case *queries.GetGraphQuery:
		return h.ws.Snapshot(), nil

	case *queries.GetNodeQuery:
		return h.ws.Node(q.NodeID)

	case *queries.ResolveURLQuery:
		key := valueobjects.NewSourceKey(q.URL)
		result := queries.ResolveURLResult{URL: key.String()}
		if id, ok := h.ws.Resolve(key.String()); ok {
			result.Found = true
			result.NodeID = &id
		}
		return result, nil

	case *queries.ExportGraphQuery:
		payload, name, _, err := h.persistence.Export(ctx)
		if err != nil {
			return nil, err
		}
		return queries.ExportGraphResult{FileName: name, Payload: payload}, nil

	case *queries.ListSnapshotsQuery:
		return h.persistence.ListSnapshots(ctx)

	default:
		return nil, fmt.Errorf("%w: %T", bus.ErrInvalidQuery, query)
	}
}
