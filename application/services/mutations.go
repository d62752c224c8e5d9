package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Apanazar/WGE/domain/core/entities"
	"github.com/Apanazar/WGE/domain/core/valueobjects"
	pkgerrors "github.com/Apanazar/WGE/pkg/errors"
)

// MutationOps implements the user-driven graph edits.
type MutationOps struct {
	ws     *Workspace
	logger *zap.Logger
}

// NewMutationOps creates a new mutation service
func NewMutationOps(ws *Workspace, logger *zap.Logger) *MutationOps {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MutationOps{ws: ws, logger: logger}
}

// DeleteNode removes a node together with its incident edges and its
// identity index entry.
func (m *MutationOps) DeleteNode(ctx context.Context, id valueobjects.NodeID) error {
	return m.ws.mutate(ctx, func(fx *effects) error {
		ws := m.ws
		if !ws.graph.HasNode(id) {
			return nodeNotFound(id)
		}

		removed := ws.graph.RemoveEdges(ws.graph.EdgesIncidentTo(id))
		if err := ws.graph.RemoveNode(id); err != nil {
			return err
		}
		ws.index.UnregisterByID(id)

		if ws.pending != nil && *ws.pending == id {
			ws.pending = nil
		}
		ws.unbindLocked(id, fx)
		ws.metrics.NodeDeleted()

		m.logger.Info("Node deleted", zap.Int("nodeID", int(id)), zap.Int("edgesRemoved", len(removed)))
		return nil
	})
}

// Detach suspends every edge of a node, keeping them on the node for
// Reattach. It reports false when the node was already detached.
func (m *MutationOps) Detach(ctx context.Context, id valueobjects.NodeID) (bool, error) {
	changed := false
	err := m.ws.mutate(ctx, func(fx *effects) error {
		ws := m.ws
		node, err := ws.graph.Node(id)
		if err != nil {
			return err
		}
		if node.IsDetached() {
			return nil
		}

		captured := ws.graph.RemoveEdges(ws.graph.EdgesIncidentTo(id))
		changed = true
		return ws.graph.UpdateNode(id, entities.NodeUpdate{
			Detachment: &entities.Detachment{Detached: true, Edges: captured},
			Attributes: colorAttributes(detachedSwatch),
		})
	})
	return changed, err
}

// Reattach restores the edges captured by Detach. Edges whose other endpoint
// was deleted meanwhile are dropped, as are edges whose node pair was
// connected again while detached. It returns the number of restored edges.
func (m *MutationOps) Reattach(ctx context.Context, id valueobjects.NodeID) (int, error) {
	restored := 0
	err := m.ws.mutate(ctx, func(fx *effects) error {
		ws := m.ws
		node, err := ws.graph.Node(id)
		if err != nil {
			return err
		}
		if !node.IsDetached() {
			return nil
		}

		for _, rec := range node.DetachedEdges() {
			other := rec.From
			if other == id {
				other = rec.To
			}
			if !ws.graph.HasNode(other) && ws.rules().DropDanglingEdges {
				m.logger.Debug("Dropping edge to deleted node",
					zap.Int("nodeID", int(id)),
					zap.Int("missing", int(other)),
				)
				continue
			}
			if ws.graph.EdgeExists(rec.From, rec.To) {
				continue
			}
			if _, err := ws.graph.InsertEdge(rec); err != nil {
				m.logger.Warn("Failed to restore edge", zap.String("edgeID", rec.ID.String()), zap.Error(err))
				continue
			}
			restored++
		}

		return ws.graph.UpdateNode(id, entities.NodeUpdate{
			Detachment: &entities.Detachment{Detached: false},
			Attributes: m.restingColor(node),
		})
	})
	return restored, err
}

// ToggleDetach detaches an attached node and reattaches a detached one.
// It reports the resulting detached state.
func (m *MutationOps) ToggleDetach(ctx context.Context, id valueobjects.NodeID) (bool, error) {
	node, err := m.ws.Node(id)
	if err != nil {
		return false, err
	}
	if node.Detached {
		_, err = m.Reattach(ctx, id)
		return false, err
	}
	_, err = m.Detach(ctx, id)
	return true, err
}

func (m *MutationOps) restingColor(node *entities.Node) map[string]json.RawMessage {
	if media, ok := node.Media(); ok && node.Type() == valueobjects.NodeTypeFile {
		return fileColor(media.Kind)
	}
	return typeColor(node.Type())
}

// EditTitle renames a node. Blank titles are ignored. Notice nodes also
// get the full title in their payload.
func (m *MutationOps) EditTitle(ctx context.Context, id valueobjects.NodeID, newTitle string) (bool, error) {
	changed := false
	err := m.ws.mutate(ctx, func(fx *effects) error {
		ws := m.ws
		node, err := ws.graph.Node(id)
		if err != nil {
			return err
		}

		title := strings.TrimSpace(newTitle)
		if title == "" {
			return nil
		}

		update := entities.NodeUpdate{
			Label: entities.StringPtr(valueobjects.TruncateLabel(title, ws.rules().LabelMaxLength, ws.rules().LabelEllipsis)),
			Title: entities.StringPtr(title),
		}
		if notice, ok := node.Notice(); ok {
			notice.Title = title
			notice.UpdatedAt = ws.now()
			update.Payload = notice
		}
		changed = true
		return ws.graph.UpdateNode(id, update)
	})
	return changed, err
}

// MoveNode records a position reported by the layout engine
func (m *MutationOps) MoveNode(ctx context.Context, id valueobjects.NodeID, pos valueobjects.Position) error {
	return m.ws.mutate(ctx, func(fx *effects) error {
		return m.ws.graph.UpdateNode(id, entities.NodeUpdate{Position: &pos})
	})
}

// ConnectOutcome describes what a click did to the pending selection
type ConnectOutcome string

const (
	// ConnectArmed means the node became the pending source
	ConnectArmed ConnectOutcome = "armed"
	// ConnectCreated means a new edge joins the two nodes
	ConnectCreated ConnectOutcome = "connected"
	// ConnectExisting means the pair was already connected
	ConnectExisting ConnectOutcome = "already_connected"
	// ConnectCleared means the pending selection was dropped
	ConnectCleared ConnectOutcome = "cleared"
)

// ConnectResult reports a connection step
type ConnectResult struct {
	Outcome ConnectOutcome       `json:"outcome"`
	From    *valueobjects.NodeID `json:"from,omitempty"`
	To      *valueobjects.NodeID `json:"to,omitempty"`
	EdgeID  valueobjects.EdgeID  `json:"edgeId,omitempty"`
}

// ClickForConnection advances the two-step manual edge selection. The first
// click arms the node; a click on another node connects the pair unless
// they are already connected; a second click on the same node cancels. The
// pending selection is cleared whenever a step resolves.
func (m *MutationOps) ClickForConnection(ctx context.Context, id valueobjects.NodeID) (ConnectResult, error) {
	var result ConnectResult
	err := m.ws.mutate(ctx, func(fx *effects) error {
		ws := m.ws
		if !ws.graph.HasNode(id) {
			ws.pending = nil
			return nodeNotFound(id)
		}

		if ws.pending == nil || !ws.graph.HasNode(*ws.pending) {
			armed := id
			ws.pending = &armed
			result = ConnectResult{Outcome: ConnectArmed, From: &armed}
			return nil
		}

		from := *ws.pending
		ws.pending = nil
		if from == id {
			result = ConnectResult{Outcome: ConnectCleared}
			return nil
		}

		to := id
		var err error
		result, err = m.connectLocked(from, to)
		return err
	})
	return result, err
}

// Connect joins a and b directly, dropping any pending selection.
func (m *MutationOps) Connect(ctx context.Context, a, b valueobjects.NodeID) (ConnectResult, error) {
	var result ConnectResult
	err := m.ws.mutate(ctx, func(fx *effects) error {
		m.ws.pending = nil
		if !m.ws.graph.HasNode(a) {
			return nodeNotFound(a)
		}
		if !m.ws.graph.HasNode(b) {
			return nodeNotFound(b)
		}
		if a == b && !m.ws.rules().AllowSelfConnections {
			result = ConnectResult{Outcome: ConnectCleared}
			return nil
		}
		var err error
		result, err = m.connectLocked(a, b)
		return err
	})
	return result, err
}

func (m *MutationOps) connectLocked(from, to valueobjects.NodeID) (ConnectResult, error) {
	result := ConnectResult{From: &from, To: &to}
	if m.ws.graph.EdgeExists(from, to) {
		result.Outcome = ConnectExisting
		return result, nil
	}

	edgeID, err := m.ws.graph.AddEdge(from, to)
	if err != nil {
		return ConnectResult{}, err
	}
	m.ws.metrics.EdgesAdded(1)
	result.Outcome = ConnectCreated
	result.EdgeID = edgeID
	return result, nil
}

// ClearSelection drops the pending connection source, e.g. on a canvas click.
func (m *MutationOps) ClearSelection(ctx context.Context) {
	_ = m.ws.mutate(ctx, func(fx *effects) error {
		m.ws.pending = nil
		return nil
	})
}

func nodeNotFound(id valueobjects.NodeID) error {
	return pkgerrors.NewNotFoundError(fmt.Sprintf("node %d", id))
}
