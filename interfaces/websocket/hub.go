// Package websocket streams graph deltas and side panel presentations to
// connected renderers.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Apanazar/WGE/application/ports"
	"github.com/Apanazar/WGE/domain/events"
)

// Outbound message types besides the domain event types
const (
	TypeConnected    = "connection.established"
	TypePanelPresent = "panel.present"
	TypePanelClear   = "panel.clear"
	TypeError        = "error"
	TypePing         = "ping"
)

// Message is the envelope of every frame sent to clients
type Message struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// directFrame is addressed to a single client
type directFrame struct {
	client *Client
	frame  []byte
}

// HubMetrics tracks WebSocket metrics
type HubMetrics struct {
	ActiveConnections int64 `json:"activeConnections"`
	MessagesSent      int64 `json:"messagesSent"`
	MessagesFailed    int64 `json:"messagesFailed"`
}

// Hub fans messages out to every connected client. It implements
// ports.EventPublisher and ports.Presenter; the last presentation is kept
// so late joiners and GET requests see the current panel.
type Hub struct {
	clients map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	direct     chan directFrame

	panel       *ports.Presentation
	newestToken uint64
	panelMu     sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
	now    func() time.Time

	activeConnections atomic.Int64
	messagesSent      atomic.Int64
	messagesFailed    atomic.Int64
}

// NewHub creates a new WebSocket hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 100),
		unregister: make(chan *Client, 100),
		broadcast:  make(chan []byte, 1000),
		direct:     make(chan directFrame, 100),
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger,
		now:        time.Now,
	}
}

// Run is the hub's event loop. It returns after Stop.
func (h *Hub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			h.logger.Info("Hub shutting down")
			h.closeAllConnections()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case frame := <-h.broadcast:
			h.broadcastFrame(frame)

		case d := <-h.direct:
			h.sendDirect(d)

		case <-ticker.C:
			h.broadcastFrame(h.mustFrame(TypePing, nil))
		}
	}
}

// Stop gracefully shuts down the hub
func (h *Hub) Stop() {
	h.logger.Info("Stopping WebSocket hub")
	h.cancel()
}

// Publish implements ports.EventPublisher. Events keep their order.
func (h *Hub) Publish(ctx context.Context, batch []events.DomainEvent) error {
	for _, event := range batch {
		frame, err := h.frame(event.GetEventType(), event)
		if err != nil {
			return err
		}
		if err := h.enqueue(frame); err != nil {
			return err
		}
	}
	return nil
}

// Present implements ports.Presenter. A presentation bound to an older
// activation than one already shown is dropped.
func (h *Hub) Present(ctx context.Context, p ports.Presentation) {
	h.panelMu.Lock()
	if p.Token < h.newestToken {
		h.panelMu.Unlock()
		h.logger.Debug("Dropping stale presentation",
			zap.Uint64("token", p.Token),
			zap.Uint64("newestToken", h.newestToken))
		return
	}
	h.newestToken = p.Token
	h.panel = &p
	h.panelMu.Unlock()

	frame, err := h.frame(TypePanelPresent, p)
	if err == nil {
		err = h.enqueue(frame)
	}
	if err != nil {
		h.logger.Warn("Failed to broadcast presentation",
			zap.Uint64("token", p.Token), zap.Error(err))
	}
}

// Clear implements ports.Presenter
func (h *Hub) Clear(ctx context.Context) {
	h.panelMu.Lock()
	h.panel = nil
	h.panelMu.Unlock()

	if err := h.enqueue(h.mustFrame(TypePanelClear, nil)); err != nil {
		h.logger.Warn("Failed to broadcast panel clear", zap.Error(err))
	}
}

// LastPresentation returns what the panel currently shows
func (h *Hub) LastPresentation() (ports.Presentation, bool) {
	h.panelMu.RLock()
	defer h.panelMu.RUnlock()
	if h.panel == nil {
		return ports.Presentation{}, false
	}
	return *h.panel, true
}

// GetMetrics returns current hub metrics
func (h *Hub) GetMetrics() HubMetrics {
	return HubMetrics{
		ActiveConnections: h.activeConnections.Load(),
		MessagesSent:      h.messagesSent.Load(),
		MessagesFailed:    h.messagesFailed.Load(),
	}
}

// ConnectionCount returns the number of connected clients
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// enqueue queues a committed frame. The caller's cancellation is ignored;
// only a stopped hub or a full buffer drops it.
func (h *Hub) enqueue(frame []byte) error {
	select {
	case h.broadcast <- frame:
		return nil
	case <-h.ctx.Done():
		return fmt.Errorf("hub stopped")
	case <-time.After(5 * time.Second):
		return fmt.Errorf("broadcast channel full, message dropped")
	}
}

func (h *Hub) frame(messageType string, data interface{}) ([]byte, error) {
	msg := Message{Type: messageType, Timestamp: h.now().UnixMilli()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", messageType, err)
		}
		msg.Data = raw
	}
	return json.Marshal(msg)
}

func (h *Hub) mustFrame(messageType string, data interface{}) []byte {
	frame, err := h.frame(messageType, data)
	if err != nil {
		panic(err)
	}
	return frame
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()
	h.activeConnections.Add(1)

	client.trySend(h.mustFrame(TypeConnected, map[string]string{"connectionId": client.id}))
	if p, ok := h.LastPresentation(); ok {
		if frame, err := h.frame(TypePanelPresent, p); err == nil {
			client.trySend(frame)
		}
	}

	h.logger.Info("Client registered",
		zap.String("connectionID", client.id),
		zap.Int("connections", count))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	h.activeConnections.Add(-1)

	h.logger.Info("Client unregistered",
		zap.String("connectionID", client.id),
		zap.Int("remainingConnections", len(h.clients)))
}

func (h *Hub) broadcastFrame(frame []byte) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if client.trySend(frame) {
			h.messagesSent.Add(1)
			continue
		}
		h.messagesFailed.Add(1)
		h.logger.Warn("Closing slow client", zap.String("connectionID", client.id))
		h.unregisterClient(client)
		client.conn.Close()
	}
}

func (h *Hub) sendDirect(d directFrame) {
	h.mu.RLock()
	_, ok := h.clients[d.client]
	h.mu.RUnlock()
	if ok && d.client.trySend(d.frame) {
		h.messagesSent.Add(1)
	}
}

func (h *Hub) closeAllConnections() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		client.conn.Close()
		delete(h.clients, client)
	}
	h.activeConnections.Store(0)
	h.logger.Info("All connections closed")
}
