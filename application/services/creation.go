package services

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/Apanazar/WGE/application/ports"
	"github.com/Apanazar/WGE/domain/core/entities"
	"github.com/Apanazar/WGE/domain/core/valueobjects"
	pkgerrors "github.com/Apanazar/WGE/pkg/errors"
)

// placeholderLabel marks a url node whose title is not known yet.
const placeholderLabel = "..."

const defaultNoticeTitle = "New notice"

// NodeCreator adds url and notice nodes and starts new graphs.
type NodeCreator struct {
	ws       *Workspace
	prompter ports.Prompter
	fetcher  ports.ContentFetcher
	logger   *zap.Logger
}

// NewNodeCreator creates a new node creator
func NewNodeCreator(ws *Workspace, prompter ports.Prompter, fetcher ports.ContentFetcher, logger *zap.Logger) *NodeCreator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NodeCreator{ws: ws, prompter: prompter, fetcher: fetcher, logger: logger}
}

// ValidateRootInput checks text typed into the address bar. Local paths are
// refused with a pointer to the upload flow.
func ValidateRootInput(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return pkgerrors.NewValidationError("Please enter a URL or file path")
	}
	if strings.HasPrefix(raw, "file://") || strings.Contains(raw, `\`) ||
		(strings.Contains(raw, "/") && !strings.Contains(raw, "://")) {
		return pkgerrors.NewValidationError(`For local files, please use the "Upload Files" button or drag and drop files directly onto the graph.`)
	}
	return validateURL(raw)
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || (u.Host == "" && u.Opaque == "") {
		return pkgerrors.NewValidationError("Please enter a valid URL")
	}
	return nil
}

// AddURLNode places a wikipedia or web node for rawURL. When the url is
// already in the graph the existing id is returned and created is false.
// Web nodes without a title ask the prompter for one; dismissing the prompt
// cancels the operation.
func (c *NodeCreator) AddURLNode(ctx context.Context, rawURL, title string, pos *valueobjects.Position) (valueobjects.NodeID, bool, error) {
	key := valueobjects.NewSourceKey(rawURL)
	if err := validateURL(key.String()); err != nil {
		return valueobjects.UnassignedNodeID, false, err
	}
	if id, ok := c.ws.Resolve(key.String()); ok {
		c.logger.Debug("Node already exists", zap.String("url", key.String()), zap.Int("nodeID", int(id)))
		return id, false, nil
	}

	nodeType := key.Classify()
	title = strings.TrimSpace(title)
	if nodeType == valueobjects.NodeTypeWeb && title == "" {
		answer, err := c.askTitle(ctx, key)
		if err != nil {
			return valueobjects.UnassignedNodeID, false, err
		}
		title = answer
	}
	if title == "" {
		title = key.SuggestedTitle()
	}

	var (
		id      valueobjects.NodeID
		created bool
	)
	err := c.ws.mutate(ctx, func(fx *effects) error {
		// The prompt ran unlocked; the url may have arrived meanwhile.
		if existing, ok := c.ws.index.Resolve(key); ok {
			id = existing
			return nil
		}
		node, err := entities.NewURLNode(key, title, pos, c.ws.rules())
		if err != nil {
			return err
		}
		node.Apply(entities.NodeUpdate{Attributes: typeColor(nodeType)})
		id, err = c.ws.addNodeLocked(node)
		if err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return valueobjects.UnassignedNodeID, false, err
	}
	if created {
		c.logger.Info("Node added",
			zap.Int("nodeID", int(id)),
			zap.String("type", nodeType.String()),
			zap.String("url", key.String()),
		)
	}
	return id, created, nil
}

// AddNoticeNode creates a notice and opens it in the editor.
func (c *NodeCreator) AddNoticeNode(ctx context.Context, title string, pos *valueobjects.Position) (valueobjects.NodeID, ports.Presentation, error) {
	if strings.TrimSpace(title) == "" {
		title = defaultNoticeTitle
	}

	var (
		id        valueobjects.NodeID
		presented ports.Presentation
	)
	err := c.ws.mutate(ctx, func(fx *effects) error {
		node, err := entities.NewNoticeNode(title, c.ws.now(), pos, c.ws.rules())
		if err != nil {
			return err
		}
		node.Apply(entities.NodeUpdate{Attributes: typeColor(valueobjects.NodeTypeNotice)})
		id, err = c.ws.addNodeLocked(node)
		if err != nil {
			return err
		}
		stored, err := c.ws.graph.Node(id)
		if err != nil {
			return err
		}
		presented = c.ws.presentLocalLocked(stored, fx)
		return nil
	})
	if err != nil {
		return valueobjects.UnassignedNodeID, ports.Presentation{}, err
	}
	c.logger.Info("Notice added", zap.Int("nodeID", int(id)))
	return id, presented, nil
}

// NewRoot discards the current graph and starts a new one at rawURL. The
// caller expands the returned root.
func (c *NodeCreator) NewRoot(ctx context.Context, rawURL, title string) (valueobjects.NodeID, error) {
	if err := ValidateRootInput(rawURL); err != nil {
		return valueobjects.UnassignedNodeID, err
	}
	key := valueobjects.NewSourceKey(rawURL)
	nodeType := key.Classify()

	title = strings.TrimSpace(title)
	if nodeType == valueobjects.NodeTypeWeb && title == "" {
		answer, err := c.askTitle(ctx, key)
		if err != nil {
			return valueobjects.UnassignedNodeID, err
		}
		title = answer
	}
	if nodeType == valueobjects.NodeTypeWikipedia || title == "" {
		title = placeholderLabel
	}

	swatch := rootSwatch
	if nodeType == valueobjects.NodeTypeWeb {
		swatch = typeSwatches[valueobjects.NodeTypeWeb]
	}
	return c.startGraph(ctx, key, title, swatch)
}

// RandomRoot starts a new graph at a random article in the current language.
func (c *NodeCreator) RandomRoot(ctx context.Context) (valueobjects.NodeID, string, error) {
	if c.fetcher == nil {
		return valueobjects.UnassignedNodeID, "", pkgerrors.NewUnavailableError("content fetcher")
	}
	randomURL, err := c.fetcher.RandomURL(ctx, c.ws.Language())
	if err != nil {
		return valueobjects.UnassignedNodeID, "", pkgerrors.NewFetchFailedError("random article", err)
	}
	key := valueobjects.NewSourceKey(randomURL)
	if err := validateURL(key.String()); err != nil {
		return valueobjects.UnassignedNodeID, "", err
	}

	id, err := c.startGraph(ctx, key, placeholderLabel, typeSwatches[valueobjects.NodeTypeWikipedia])
	return id, key.String(), err
}

func (c *NodeCreator) startGraph(ctx context.Context, key valueobjects.SourceKey, label string, s swatch) (valueobjects.NodeID, error) {
	var id valueobjects.NodeID
	err := c.ws.mutate(ctx, func(fx *effects) error {
		c.ws.resetLocked(fx)
		node, err := entities.NewURLNode(key, label, nil, c.ws.rules())
		if err != nil {
			return err
		}
		node.Apply(entities.NodeUpdate{Attributes: colorAttributes(s)})
		id, err = c.ws.addNodeLocked(node)
		return err
	})
	if err != nil {
		return valueobjects.UnassignedNodeID, err
	}
	c.logger.Info("New graph started", zap.Int("rootID", int(id)), zap.String("url", key.String()))
	return id, nil
}

// askTitle prompts for a web page title. A dismissed prompt cancels.
func (c *NodeCreator) askTitle(ctx context.Context, key valueobjects.SourceKey) (string, error) {
	suggested := key.SuggestedTitle()
	if c.prompter == nil {
		return suggested, nil
	}
	answer, ok, err := c.prompter.Prompt(ctx, ports.PromptRequest{
		Message: "Enter title for the web page",
		Default: suggested,
	})
	if err != nil {
		return "", err
	}
	if !ok {
		return "", pkgerrors.NewCancelledError("add web page")
	}
	return strings.TrimSpace(answer), nil
}
