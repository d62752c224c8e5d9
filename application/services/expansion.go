package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/Apanazar/WGE/application/ports"
	"github.com/Apanazar/WGE/domain/core/entities"
	"github.com/Apanazar/WGE/domain/core/valueobjects"
	pkgerrors "github.com/Apanazar/WGE/pkg/errors"
	"github.com/Apanazar/WGE/pkg/observability"
)

// ExpansionController loads a node's content into the presentation surface.
// Per node: collapsed -> loading -> loaded | error. Re-activation always
// re-runs the path; there is no cache.
type ExpansionController struct {
	ws      *Workspace
	fetcher ports.ContentFetcher
	logger  *zap.Logger
}

// NewExpansionController creates a new expansion controller
func NewExpansionController(ws *Workspace, fetcher ports.ContentFetcher, logger *zap.Logger) *ExpansionController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpansionController{ws: ws, fetcher: fetcher, logger: logger}
}

// fetchTicket captures what a fetch was started for so its result can be
// checked against the graph when it returns.
type fetchTicket struct {
	token    uint64
	epoch    int
	nodeID   valueobjects.NodeID
	nodeType valueobjects.NodeType
	key      valueobjects.SourceKey
}

// Activate binds the surface to node id and loads its content. Fetch failures
// are recovered: the node enters the error state and a failure message is
// presented. The returned presentation is nil when the result went stale
// before it could be shown.
func (c *ExpansionController) Activate(ctx context.Context, id valueobjects.NodeID, limit int) (*ports.Presentation, error) {
	var (
		ticket *fetchTicket
		local  *ports.Presentation
	)

	err := c.ws.mutate(ctx, func(fx *effects) error {
		node, err := c.ws.graph.Node(id)
		if err != nil {
			return err
		}

		if !node.Type().HasSourceKey() {
			p := c.ws.presentLocalLocked(node, fx)
			local = &p
			c.ws.metrics.Expansion(node.Type().String(), "loaded")
			return nil
		}

		token := c.ws.bindLocked(id)
		if node.SourceKey().IsZero() {
			p := c.failLocked(node, token, "This node has no address to load", fx)
			local = &p
			return nil
		}

		if err := c.ws.graph.UpdateNode(id, entities.NodeUpdate{Expansion: entities.StatePtr(entities.ExpansionLoading)}); err != nil {
			return err
		}
		fx.present(ports.Presentation{
			Token:  token,
			NodeID: id,
			Kind:   ports.PresentLoading,
			Title:  "Loading...",
			URL:    node.SourceKey().String(),
		})
		ticket = &fetchTicket{
			token:    token,
			epoch:    c.ws.graph.Epoch(),
			nodeID:   id,
			nodeType: node.Type(),
			key:      node.SourceKey(),
		}
		return nil
	})
	if err != nil || ticket == nil {
		return local, err
	}

	result, fetchErr := c.fetch(ctx, ticket, limit)

	var presented *ports.Presentation
	err = c.ws.mutate(ctx, func(fx *effects) error {
		presented = c.applyLocked(ticket, result, fetchErr, limit, fx)
		return nil
	})
	return presented, err
}

func (c *ExpansionController) fetch(ctx context.Context, ticket *fetchTicket, limit int) (*ports.FetchResult, error) {
	if c.fetcher == nil {
		return nil, pkgerrors.NewFetchFailedError(ticket.key.String(), fmt.Errorf("no content fetcher configured"))
	}

	ctx, span := observability.StartSpan(ctx, "expansion", "ExpansionController.Fetch",
		attribute.Int("node.id", int(ticket.nodeID)),
		attribute.String("node.type", ticket.nodeType.String()),
		attribute.String("node.url", ticket.key.String()),
	)
	start := time.Now()
	result, err := c.fetcher.Fetch(ctx, ticket.key.String(), c.ws.rules().EffectiveLinkLimit(limit))
	if err == nil && result == nil {
		err = fmt.Errorf("empty response")
	}
	if err != nil && !pkgerrors.IsFetchFailed(err) {
		err = pkgerrors.NewFetchFailedError(ticket.key.String(), err)
	}
	c.ws.metrics.FetchCompleted(time.Since(start), err)
	observability.EndSpan(span, err)
	return result, err
}

// applyLocked merges a fetch outcome into the graph when it is still
// relevant and presents it when its binding is still current.
func (c *ExpansionController) applyLocked(ticket *fetchTicket, result *ports.FetchResult, fetchErr error, limit int, fx *effects) *ports.Presentation {
	ws := c.ws
	node, err := ws.graph.Node(ticket.nodeID)
	if err != nil || ws.graph.Epoch() != ticket.epoch || node.SourceKey() != ticket.key {
		ws.metrics.StaleResult()
		c.logger.Debug("Discarding stale expansion result",
			zap.Int("nodeID", int(ticket.nodeID)),
			zap.String("url", ticket.key.String()),
		)
		return nil
	}

	if fetchErr != nil {
		c.logger.Warn("Expansion failed",
			zap.Int("nodeID", int(ticket.nodeID)),
			zap.String("url", ticket.key.String()),
			zap.Error(fetchErr),
		)
		ws.metrics.Expansion(ticket.nodeType.String(), "error")
		p := c.failLocked(node, ticket.token, "Failed to load content: "+rootMessage(fetchErr), fx)
		if !ws.isCurrentLocked(ticket.token) {
			return nil
		}
		return &p
	}

	update := entities.NodeUpdate{Expansion: entities.StatePtr(entities.ExpansionLoaded)}
	title := strings.TrimSpace(result.Title)
	if title != "" && (ticket.nodeType == valueobjects.NodeTypeWikipedia || node.Label() == "" || node.Label() == placeholderLabel) {
		update.Label = entities.StringPtr(valueobjects.TruncateLabel(title, ws.rules().LabelMaxLength, ws.rules().LabelEllipsis))
		update.Title = entities.StringPtr(title)
	}
	if err := ws.graph.UpdateNode(ticket.nodeID, update); err != nil {
		c.logger.Error("Failed to apply expansion result", zap.Int("nodeID", int(ticket.nodeID)), zap.Error(err))
		return nil
	}

	added := c.mergeLinksLocked(ticket, result.Links, limit)
	ws.metrics.Expansion(ticket.nodeType.String(), "loaded")
	c.logger.Info("Node expanded",
		zap.Int("nodeID", int(ticket.nodeID)),
		zap.String("title", title),
		zap.Int("links", len(result.Links)),
		zap.Int("edgesAdded", added),
	)

	if !ws.isCurrentLocked(ticket.token) {
		return nil
	}
	shown := title
	if shown == "" {
		shown = node.Label()
	}
	p := ports.Presentation{
		Token:   ticket.token,
		NodeID:  ticket.nodeID,
		Kind:    ports.PresentArticle,
		Title:   shown,
		URL:     ticket.key.String(),
		Content: result.Content,
	}
	fx.present(p)
	return &p
}

// mergeLinksLocked adds a node per new link and an edge from the expanded
// node to every linked node not already connected to it.
func (c *ExpansionController) mergeLinksLocked(ticket *fetchTicket, links []ports.Link, limit int) int {
	ws := c.ws
	linkCap := ws.rules().EffectiveLinkLimit(limit)
	seen := make(map[valueobjects.SourceKey]bool, len(links))
	edgesAdded := 0

	for _, link := range links {
		if linkCap > 0 && len(seen) >= linkCap {
			break
		}
		key := valueobjects.NewSourceKey(link.URL)
		if key.IsZero() || key == ticket.key || seen[key] {
			continue
		}
		seen[key] = true

		targetID, ok := ws.index.Resolve(key)
		if !ok {
			label := strings.TrimSpace(link.Title)
			if label == "" {
				label = key.SuggestedTitle()
			}
			node, err := entities.NewURLNode(key, label, nil, ws.rules())
			if err != nil {
				continue
			}
			node.Apply(entities.NodeUpdate{Attributes: typeColor(node.Type())})
			targetID, err = ws.addNodeLocked(node)
			if err != nil {
				c.logger.Warn("Failed to add linked node", zap.String("url", key.String()), zap.Error(err))
				continue
			}
		}

		if targetID == ticket.nodeID || ws.graph.EdgeExists(ticket.nodeID, targetID) {
			continue
		}
		if _, err := ws.graph.AddEdge(ticket.nodeID, targetID); err != nil {
			c.logger.Warn("Failed to link nodes", zap.Int("from", int(ticket.nodeID)), zap.Int("to", int(targetID)), zap.Error(err))
			continue
		}
		edgesAdded++
	}

	ws.metrics.EdgesAdded(edgesAdded)
	return edgesAdded
}

func (c *ExpansionController) failLocked(node *entities.Node, token uint64, message string, fx *effects) ports.Presentation {
	_ = c.ws.graph.UpdateNode(node.ID(), entities.NodeUpdate{Expansion: entities.StatePtr(entities.ExpansionError)})

	title := node.Label()
	if title == "" || title == placeholderLabel {
		title = node.SourceKey().SuggestedTitle()
	}
	p := ports.Presentation{
		Token:   token,
		NodeID:  node.ID(),
		Kind:    ports.PresentFailure,
		Title:   title,
		URL:     node.SourceKey().String(),
		Message: message,
	}
	if c.ws.isCurrentLocked(token) {
		fx.present(p)
	}
	return p
}

// UpdateNotice merges an edit from the notice editor. Edits for a node that
// is no longer bound to the surface are ignored and reported as not applied.
func (c *ExpansionController) UpdateNotice(ctx context.Context, id valueobjects.NodeID, title, body string) (bool, error) {
	applied := false
	err := c.ws.mutate(ctx, func(fx *effects) error {
		ws := c.ws
		node, err := ws.graph.Node(id)
		if err != nil {
			return err
		}
		notice, ok := node.Notice()
		if !ok {
			return pkgerrors.NewValidationError(fmt.Sprintf("node %d is not a notice", id))
		}
		if ws.active == nil || ws.active.nodeID != id {
			c.logger.Debug("Ignoring notice update for inactive node", zap.Int("nodeID", int(id)))
			return nil
		}

		if t := strings.TrimSpace(title); t != "" {
			notice.Title = t
		}
		notice.Body = body
		notice.UpdatedAt = ws.now()

		applied = true
		return ws.graph.UpdateNode(id, entities.NodeUpdate{
			Payload: notice,
			Title:   entities.StringPtr(notice.Title),
			Label:   entities.StringPtr(valueobjects.TruncateLabel(notice.Title, ws.rules().LabelMaxLength, ws.rules().LabelEllipsis)),
		})
	})
	return applied, err
}

// Close unbinds the presentation surface. A fetch still in flight keeps
// running but its result will not be presented.
func (c *ExpansionController) Close(ctx context.Context) {
	_ = c.ws.mutate(ctx, func(fx *effects) error {
		c.ws.active = nil
		fx.clear = true
		return nil
	})
}

func rootMessage(err error) string {
	if appErr := pkgerrors.GetAppError(err); appErr != nil && appErr.Cause != nil {
		return appErr.Cause.Error()
	}
	return err.Error()
}
