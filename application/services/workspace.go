package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Apanazar/WGE/application/ports"
	"github.com/Apanazar/WGE/domain/config"
	"github.com/Apanazar/WGE/domain/core/aggregates"
	"github.com/Apanazar/WGE/domain/core/entities"
	"github.com/Apanazar/WGE/domain/core/valueobjects"
	"github.com/Apanazar/WGE/domain/events"
	pkgerrors "github.com/Apanazar/WGE/pkg/errors"
	"github.com/Apanazar/WGE/pkg/observability"
)

// binding ties the presentation surface to one activation of one node.
type binding struct {
	token  uint64
	nodeID valueobjects.NodeID
}

// Workspace owns the graph, its identity index and the interaction state
// around them. Every engine operation runs under mu; suspension points such
// as fetches and prompts happen with mu released. Events and presentations
// produced by an operation are delivered after it has fully completed, so
// no subscriber observes intermediate state.
//
// deliverMu is taken before mu is released and held until delivery ends,
// so subscribers see operations in commit order. Subscribers must not call
// back into the workspace.
type Workspace struct {
	mu        sync.Mutex
	deliverMu sync.Mutex

	graph *aggregates.Graph
	index *aggregates.IdentityIndex

	pending  *valueobjects.NodeID
	active   *binding
	tokenSeq uint64
	language string

	cfg       atomic.Pointer[config.DomainConfig]
	publisher ports.EventPublisher
	presenter ports.Presenter
	metrics   *observability.Collector
	logger    *zap.Logger
	now       func() time.Time
}

// NewWorkspace creates an empty workspace
func NewWorkspace(
	cfg *config.DomainConfig,
	publisher ports.EventPublisher,
	presenter ports.Presenter,
	metrics *observability.Collector,
	logger *zap.Logger,
) *Workspace {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Workspace{
		graph:     aggregates.NewGraph(),
		index:     aggregates.NewIdentityIndex(),
		language:  cfg.DefaultLanguage,
		publisher: publisher,
		presenter: presenter,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
	w.cfg.Store(cfg)
	return w
}

// WithClock overrides the time source
func (w *Workspace) WithClock(now func() time.Time) *Workspace {
	w.now = now
	w.graph.WithClock(now)
	return w
}

// Config returns the engine rules in use. The result must not be modified;
// use UpdateRules instead.
func (w *Workspace) Config() *config.DomainConfig {
	return w.rules()
}

func (w *Workspace) rules() *config.DomainConfig {
	return w.cfg.Load()
}

// UpdateRules applies fn to a copy of the current rules and swaps the copy
// in if it validates. Operations already running keep the rules they
// started with.
func (w *Workspace) UpdateRules(fn func(*config.DomainConfig)) error {
	current := w.rules()
	next := *current
	next.BlockedExtensions = append([]string(nil), current.BlockedExtensions...)
	fn(&next)
	if err := next.Validate(); err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	w.cfg.Store(&next)
	w.logger.Info("Engine rules updated",
		zap.Int("linkLimit", next.LinkLimit),
		zap.Int("labelMaxLength", next.LabelMaxLength),
		zap.Int("thumbnailMaxSize", next.ThumbnailMaxSize),
	)
	return nil
}

// effects collects what an operation wants delivered once it completes.
type effects struct {
	presentations []ports.Presentation
	clear         bool
}

func (fx *effects) present(p ports.Presentation) {
	fx.presentations = append(fx.presentations, p)
}

// mutate runs fn under the workspace lock and then delivers its events and
// presentations in commit order.
func (w *Workspace) mutate(ctx context.Context, fn func(fx *effects) error) error {
	fx := &effects{}

	w.mu.Lock()
	err := fn(fx)
	pending := w.graph.PullEvents()
	w.deliverMu.Lock()
	w.mu.Unlock()

	w.deliver(ctx, pending, fx)
	w.deliverMu.Unlock()
	return err
}

// deliver hands committed effects to subscribers. A cancelled request must
// not lose them, so cancellation is detached from ctx.
func (w *Workspace) deliver(ctx context.Context, pending []events.DomainEvent, fx *effects) {
	ctx = context.WithoutCancel(ctx)
	if len(pending) > 0 && w.publisher != nil {
		if err := w.publisher.Publish(ctx, pending); err != nil {
			w.logger.Warn("Failed to publish graph events",
				zap.Int("count", len(pending)),
				zap.Error(err),
			)
		}
	}
	if w.presenter == nil {
		return
	}
	if fx.clear {
		w.presenter.Clear(ctx)
	}
	for _, p := range fx.presentations {
		w.presenter.Present(ctx, p)
	}
}

// GraphView is a consistent copy of the workspace state
type GraphView struct {
	Nodes      []entities.NodeRecord `json:"nodes"`
	Edges      []entities.EdgeRecord `json:"edges"`
	NextID     valueobjects.NodeID   `json:"nextId"`
	Epoch      int                   `json:"epoch"`
	Language   string                `json:"language"`
	Selection  *valueobjects.NodeID  `json:"selection,omitempty"`
	ActiveNode *valueobjects.NodeID  `json:"activeNode,omitempty"`
}

// Snapshot returns a copy of the whole graph and interaction state
func (w *Workspace) Snapshot() GraphView {
	w.mu.Lock()
	defer w.mu.Unlock()

	nodes := w.graph.Nodes()
	view := GraphView{
		Nodes:    make([]entities.NodeRecord, len(nodes)),
		Edges:    w.graph.Edges(),
		NextID:   w.graph.NextID(),
		Epoch:    w.graph.Epoch(),
		Language: w.language,
	}
	for i, n := range nodes {
		view.Nodes[i] = n.Record()
	}
	if w.pending != nil {
		id := *w.pending
		view.Selection = &id
	}
	if w.active != nil {
		id := w.active.nodeID
		view.ActiveNode = &id
	}
	return view
}

// Node returns a copy of one node
func (w *Workspace) Node(id valueobjects.NodeID) (entities.NodeRecord, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	node, err := w.graph.Node(id)
	if err != nil {
		return entities.NodeRecord{}, err
	}
	return node.Record(), nil
}

// Resolve looks a URL up in the identity index
func (w *Workspace) Resolve(rawURL string) (valueobjects.NodeID, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.index.Resolve(valueobjects.NewSourceKey(rawURL))
}

// Language returns the content locale
func (w *Workspace) Language() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.language
}

// SetLanguage changes the content locale used for random roots and saves
func (w *Workspace) SetLanguage(language string) error {
	if language == "" {
		return pkgerrors.NewValidationError("language cannot be empty")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.language = language
	return nil
}

// Selection returns the pending connection source, if any
func (w *Workspace) Selection() (valueobjects.NodeID, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending == nil {
		return valueobjects.UnassignedNodeID, false
	}
	return *w.pending, true
}

// ActiveNode returns the node bound to the presentation surface, if any
func (w *Workspace) ActiveNode() (valueobjects.NodeID, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.active == nil {
		return valueobjects.UnassignedNodeID, false
	}
	return w.active.nodeID, true
}

// resetLocked clears the graph, index and interaction state.
func (w *Workspace) resetLocked(fx *effects) {
	w.graph.ClearAll()
	w.index.Clear()
	w.pending = nil
	if w.active != nil {
		w.active = nil
		fx.clear = true
	}
	w.metrics.GraphReset()
}

// bindLocked makes id the active node and returns the new binding token.
func (w *Workspace) bindLocked(id valueobjects.NodeID) uint64 {
	w.tokenSeq++
	w.active = &binding{token: w.tokenSeq, nodeID: id}
	return w.tokenSeq
}

func (w *Workspace) isCurrentLocked(token uint64) bool {
	return w.active != nil && w.active.token == token
}

// unbindLocked drops the binding if it points at id.
func (w *Workspace) unbindLocked(id valueobjects.NodeID, fx *effects) {
	if w.active != nil && w.active.nodeID == id {
		w.active = nil
		fx.clear = true
	}
}

// addNodeLocked stores node and indexes it when it carries a url.
func (w *Workspace) addNodeLocked(node *entities.Node) (valueobjects.NodeID, error) {
	if node.IsIndexed() {
		if bound, ok := w.index.Resolve(node.SourceKey()); ok {
			return valueobjects.UnassignedNodeID, pkgerrors.NewDuplicateKeyError(node.SourceKey().String(), int(bound))
		}
	}

	id, err := w.graph.AddNode(node)
	if err != nil {
		return valueobjects.UnassignedNodeID, err
	}
	if node.IsIndexed() {
		if err := w.index.Register(node.SourceKey(), id); err != nil {
			return valueobjects.UnassignedNodeID, err
		}
	}
	w.metrics.NodeCreated(node.Type().String())
	return id, nil
}

// presentLocalLocked binds the surface to a node that needs no fetch.
func (w *Workspace) presentLocalLocked(node *entities.Node, fx *effects) ports.Presentation {
	token := w.bindLocked(node.ID())
	p := ports.Presentation{
		Token:  token,
		NodeID: node.ID(),
		Title:  node.Title(),
	}

	switch node.Type() {
	case valueobjects.NodeTypeNotice:
		p.Kind = ports.PresentNotice
		p.Title = "Notice Editor"
		if notice, ok := node.Notice(); ok {
			p.Notice = &notice
		} else {
			now := w.now()
			p.Notice = &valueobjects.NoticePayload{Title: "New notice", CreatedAt: now, UpdatedAt: now}
		}
	case valueobjects.NodeTypeImage, valueobjects.NodeTypeVideo, valueobjects.NodeTypeFile:
		p.Kind = ports.PresentMedia
		if media, ok := node.Media(); ok {
			p.Media = &media
			if media.FileName != "" {
				p.Title = media.FileName
			}
		}
	default:
		p.Kind = ports.PresentFailure
		p.Message = "Unknown node type"
	}

	if p.Kind != ports.PresentFailure && node.Expansion() != entities.ExpansionLoaded {
		_ = w.graph.UpdateNode(node.ID(), entities.NodeUpdate{Expansion: entities.StatePtr(entities.ExpansionLoaded)})
	}
	fx.present(p)
	return p
}
