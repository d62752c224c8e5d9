package aggregates

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Apanazar/WGE/domain/core/entities"
	"github.com/Apanazar/WGE/domain/core/valueobjects"
	"github.com/Apanazar/WGE/domain/events"
	pkgerrors "github.com/Apanazar/WGE/pkg/errors"
)

// GraphID represents a unique graph identifier
type GraphID string

// NewGraphID creates a new random GraphID
func NewGraphID() GraphID {
	return GraphID(uuid.New().String())
}

// String returns the string representation
func (id GraphID) String() string {
	return string(id)
}

type edgeEntry struct {
	edge *entities.Edge
	seq  uint64
}

// Graph owns node and edge records and node id allocation.
// It performs no cascading: callers decide how removals propagate.
// Graph is not safe for concurrent use; the workspace serializes access.
type Graph struct {
	id      GraphID
	nodes   map[valueobjects.NodeID]*entities.Node
	edges   map[valueobjects.EdgeID]edgeEntry
	edgeSeq uint64
	nextID  valueobjects.NodeID

	// Bumped on every full reset so late async results can detect it.
	epoch int

	now    func() time.Time
	events []events.DomainEvent
}

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{
		id:    NewGraphID(),
		nodes: make(map[valueobjects.NodeID]*entities.Node),
		edges: make(map[valueobjects.EdgeID]edgeEntry),
		now:   time.Now,
	}
}

// WithClock overrides the event timestamp source
func (g *Graph) WithClock(now func() time.Time) *Graph {
	g.now = now
	return g
}

// ID returns the graph's identifier
func (g *Graph) ID() GraphID { return g.id }

// Epoch returns the reset generation
func (g *Graph) Epoch() int { return g.epoch }

// NextID returns the id the next added node will receive
func (g *Graph) NextID() valueobjects.NodeID { return g.nextID }

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges
func (g *Graph) EdgeCount() int { return len(g.edges) }

// AddNode stores node, assigning the next id when it has none.
// An existing id is never overwritten.
func (g *Graph) AddNode(node *entities.Node) (valueobjects.NodeID, error) {
	if node == nil {
		return valueobjects.UnassignedNodeID, pkgerrors.NewValidationError("node is required")
	}

	id := node.ID()
	if !id.IsAssigned() {
		id = g.nextID
		if err := node.AssignID(id); err != nil {
			return valueobjects.UnassignedNodeID, err
		}
	}
	if _, exists := g.nodes[id]; exists {
		return valueobjects.UnassignedNodeID, pkgerrors.NewConflictError("node " + id.String() + " already exists")
	}

	g.nodes[id] = node
	if id >= g.nextID {
		g.nextID = id + 1
	}

	g.addEvent(events.NewNodeAdded(g.id.String(), g.epoch, node.Record(), g.now()))
	return id, nil
}

// Node returns a copy of the node with the given id
func (g *Graph) Node(id valueobjects.NodeID) (*entities.Node, error) {
	node, ok := g.nodes[id]
	if !ok {
		return nil, nodeNotFound(id)
	}
	return node.Clone(), nil
}

// HasNode reports whether id is present
func (g *Graph) HasNode(id valueobjects.NodeID) bool {
	_, ok := g.nodes[id]
	return ok
}

// UpdateNode merges a partial update into an existing node
func (g *Graph) UpdateNode(id valueobjects.NodeID, update entities.NodeUpdate) error {
	node, ok := g.nodes[id]
	if !ok {
		return nodeNotFound(id)
	}
	if update.IsEmpty() {
		return nil
	}

	node.Apply(update)
	g.addEvent(events.NewNodeUpdated(g.id.String(), g.epoch, node.Record(), g.now()))
	return nil
}

// RemoveNode removes the node record. Incident edges are left in place.
func (g *Graph) RemoveNode(id valueobjects.NodeID) error {
	if _, ok := g.nodes[id]; !ok {
		return nodeNotFound(id)
	}
	delete(g.nodes, id)
	g.addEvent(events.NewNodeRemoved(g.id.String(), g.epoch, id, g.now()))
	return nil
}

// Nodes returns copies of all nodes ordered by id
func (g *Graph) Nodes() []*entities.Node {
	out := make([]*entities.Node, 0, len(g.nodes))
	for _, node := range g.nodes {
		out = append(out, node.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// AddEdge connects two existing nodes with a new edge
func (g *Graph) AddEdge(from, to valueobjects.NodeID) (valueobjects.EdgeID, error) {
	if !g.HasNode(from) {
		return "", nodeNotFound(from)
	}
	if !g.HasNode(to) {
		return "", nodeNotFound(to)
	}

	edge := entities.NewEdge(from, to)
	g.storeEdge(edge)
	return edge.ID(), nil
}

// InsertEdge re-inserts an edge record verbatim, keeping its id.
// Endpoints are not checked; saved and detached edges are trusted.
func (g *Graph) InsertEdge(rec entities.EdgeRecord) (valueobjects.EdgeID, error) {
	edge, err := entities.ReconstructEdge(rec)
	if err != nil {
		return "", err
	}
	if _, exists := g.edges[edge.ID()]; exists {
		return "", pkgerrors.NewConflictError("edge " + edge.ID().String() + " already exists")
	}
	g.storeEdge(edge)
	return edge.ID(), nil
}

func (g *Graph) storeEdge(edge *entities.Edge) {
	g.edgeSeq++
	g.edges[edge.ID()] = edgeEntry{edge: edge, seq: g.edgeSeq}
	g.addEvent(events.NewEdgeAdded(g.id.String(), g.epoch, edge.Record(), g.now()))
}

// RemoveEdges removes the given edges, ignoring unknown ids, and returns the
// records that were removed.
func (g *Graph) RemoveEdges(ids []valueobjects.EdgeID) []entities.EdgeRecord {
	removed := make([]entities.EdgeRecord, 0, len(ids))
	for _, id := range ids {
		entry, ok := g.edges[id]
		if !ok {
			continue
		}
		delete(g.edges, id)
		rec := entry.edge.Record()
		removed = append(removed, rec)
		g.addEvent(events.NewEdgeRemoved(g.id.String(), g.epoch, rec, g.now()))
	}
	return removed
}

// Edge returns the edge with the given id
func (g *Graph) Edge(id valueobjects.EdgeID) (entities.EdgeRecord, error) {
	entry, ok := g.edges[id]
	if !ok {
		return entities.EdgeRecord{}, pkgerrors.NewNotFoundError("edge " + id.String())
	}
	return entry.edge.Record(), nil
}

// EdgesIncidentTo returns the ids of edges touching id, in insertion order
func (g *Graph) EdgesIncidentTo(id valueobjects.NodeID) []valueobjects.EdgeID {
	var ids []valueobjects.EdgeID
	for _, entry := range g.sortedEdges() {
		if entry.edge.Touches(id) {
			ids = append(ids, entry.edge.ID())
		}
	}
	return ids
}

// EdgeExists reports whether an edge joins a and b in either direction
func (g *Graph) EdgeExists(a, b valueobjects.NodeID) bool {
	for _, entry := range g.edges {
		if entry.edge.Connects(a, b) {
			return true
		}
	}
	return false
}

// Edges returns all edge records in insertion order
func (g *Graph) Edges() []entities.EdgeRecord {
	sorted := g.sortedEdges()
	out := make([]entities.EdgeRecord, len(sorted))
	for i, entry := range sorted {
		out[i] = entry.edge.Record()
	}
	return out
}

func (g *Graph) sortedEdges() []edgeEntry {
	out := make([]edgeEntry, 0, len(g.edges))
	for _, entry := range g.edges {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// ClearAll empties the graph, resets the id counter and starts a new epoch
func (g *Graph) ClearAll() {
	g.nodes = make(map[valueobjects.NodeID]*entities.Node)
	g.edges = make(map[valueobjects.EdgeID]edgeEntry)
	g.edgeSeq = 0
	g.nextID = 0
	g.epoch++
	g.addEvent(events.NewGraphCleared(g.id.String(), g.epoch, g.now()))
}

// ReplaceWith clears the graph and takes over the contents of other.
// Events for the new contents are raised in id and insertion order.
func (g *Graph) ReplaceWith(other *Graph) {
	g.ClearAll()
	for _, node := range other.Nodes() {
		g.nodes[node.ID()] = node
		g.addEvent(events.NewNodeAdded(g.id.String(), g.epoch, node.Record(), g.now()))
	}
	for _, entry := range other.sortedEdges() {
		g.storeEdge(entry.edge)
	}
	g.nextID = other.nextID
}

// MarkLoaded records that the graph contents came from a saved document
func (g *Graph) MarkLoaded(language string) {
	g.addEvent(events.NewGraphLoaded(g.id.String(), g.epoch, len(g.nodes), len(g.edges), language, g.now()))
}

// PullEvents returns and clears the pending domain events
func (g *Graph) PullEvents() []events.DomainEvent {
	out := g.events
	g.events = nil
	return out
}

func (g *Graph) addEvent(event events.DomainEvent) {
	g.events = append(g.events, event)
}

func nodeNotFound(id valueobjects.NodeID) error {
	return pkgerrors.NewNotFoundError("node " + id.String())
}
