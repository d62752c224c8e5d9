package events

import (
	"time"

	"github.com/Apanazar/WGE/domain/core/entities"
	"github.com/Apanazar/WGE/domain/core/valueobjects"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// Event types
const (
	TypeNodeAdded    = "node.added"
	TypeNodeUpdated  = "node.updated"
	TypeNodeRemoved  = "node.removed"
	TypeEdgeAdded    = "edge.added"
	TypeEdgeRemoved  = "edge.removed"
	TypeGraphCleared = "graph.cleared"
	TypeGraphLoaded  = "graph.loaded"
)

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

func newBase(aggregateID, eventType string, epoch int, timestamp time.Time) BaseEvent {
	return BaseEvent{
		AggregateID: aggregateID,
		EventType:   eventType,
		Timestamp:   timestamp,
		Version:     epoch,
	}
}

// Node events

// NodeAdded is raised when a node enters the graph
type NodeAdded struct {
	BaseEvent
	Node entities.NodeRecord `json:"node"`
}

// NewNodeAdded creates a NodeAdded event
func NewNodeAdded(graphID string, epoch int, node entities.NodeRecord, timestamp time.Time) NodeAdded {
	return NodeAdded{BaseEvent: newBase(graphID, TypeNodeAdded, epoch, timestamp), Node: node}
}

// NodeUpdated carries the node state after an update
type NodeUpdated struct {
	BaseEvent
	Node entities.NodeRecord `json:"node"`
}

// NewNodeUpdated creates a NodeUpdated event
func NewNodeUpdated(graphID string, epoch int, node entities.NodeRecord, timestamp time.Time) NodeUpdated {
	return NodeUpdated{BaseEvent: newBase(graphID, TypeNodeUpdated, epoch, timestamp), Node: node}
}

// NodeRemoved is raised when a node leaves the graph
type NodeRemoved struct {
	BaseEvent
	NodeID valueobjects.NodeID `json:"node_id"`
}

// NewNodeRemoved creates a NodeRemoved event
func NewNodeRemoved(graphID string, epoch int, id valueobjects.NodeID, timestamp time.Time) NodeRemoved {
	return NodeRemoved{BaseEvent: newBase(graphID, TypeNodeRemoved, epoch, timestamp), NodeID: id}
}

// Edge events

// EdgeAdded is raised when an edge enters the graph
type EdgeAdded struct {
	BaseEvent
	Edge entities.EdgeRecord `json:"edge"`
}

// NewEdgeAdded creates an EdgeAdded event
func NewEdgeAdded(graphID string, epoch int, edge entities.EdgeRecord, timestamp time.Time) EdgeAdded {
	return EdgeAdded{BaseEvent: newBase(graphID, TypeEdgeAdded, epoch, timestamp), Edge: edge}
}

// EdgeRemoved is raised when an edge leaves the graph
type EdgeRemoved struct {
	BaseEvent
	EdgeID valueobjects.EdgeID `json:"edge_id"`
	From   valueobjects.NodeID `json:"from"`
	To     valueobjects.NodeID `json:"to"`
}

// NewEdgeRemoved creates an EdgeRemoved event
func NewEdgeRemoved(graphID string, epoch int, edge entities.EdgeRecord, timestamp time.Time) EdgeRemoved {
	return EdgeRemoved{
		BaseEvent: newBase(graphID, TypeEdgeRemoved, epoch, timestamp),
		EdgeID:    edge.ID,
		From:      edge.From,
		To:        edge.To,
	}
}

// Graph events

// GraphCleared is raised on a full reset; renderers drop everything.
type GraphCleared struct {
	BaseEvent
}

// NewGraphCleared creates a GraphCleared event
func NewGraphCleared(graphID string, epoch int, timestamp time.Time) GraphCleared {
	return GraphCleared{BaseEvent: newBase(graphID, TypeGraphCleared, epoch, timestamp)}
}

// GraphLoaded is raised after a saved graph replaced the current one.
type GraphLoaded struct {
	BaseEvent
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
	Language  string `json:"language,omitempty"`
}

// NewGraphLoaded creates a GraphLoaded event
func NewGraphLoaded(graphID string, epoch, nodeCount, edgeCount int, language string, timestamp time.Time) GraphLoaded {
	return GraphLoaded{
		BaseEvent: newBase(graphID, TypeGraphLoaded, epoch, timestamp),
		NodeCount: nodeCount,
		EdgeCount: edgeCount,
		Language:  language,
	}
}
