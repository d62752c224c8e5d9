package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Apanazar/WGE/application/commands"
	commandbus "github.com/Apanazar/WGE/application/commands/bus"
	"github.com/Apanazar/WGE/application/mediator"
	"github.com/Apanazar/WGE/domain/core/valueobjects"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512 * 1024

	// Send buffer size
	sendBufferSize = 256

	// commandTimeout bounds a command sent by the renderer
	commandTimeout = 30 * time.Second
)

// Inbound message types sent by the renderer
const (
	InboundPong       = "pong"
	InboundNodeMove   = "node.move"
	InboundNodeClick  = "node.click"
	InboundNodeOpen   = "node.open"
	InboundCanvasTap  = "canvas.click"
	InboundPanelClose = "panel.close"
)

// inbound is a message from the renderer
type inbound struct {
	Type     string                 `json:"type"`
	NodeID   *valueobjects.NodeID   `json:"nodeId,omitempty"`
	Position *valueobjects.Position `json:"position,omitempty"`
}

// Client represents a WebSocket client connection
type Client struct {
	id       string
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	mediator mediator.IMediator
	logger   *zap.Logger
}

// NewClient creates a new WebSocket client. A nil mediator makes the
// connection receive-only.
func NewClient(hub *Hub, conn *websocket.Conn, m mediator.IMediator, logger *zap.Logger) *Client {
	id := uuid.New().String()
	return &Client{
		id:       id,
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		mediator: m,
		logger:   logger.With(zap.String("connectionID", id)),
	}
}

// Start registers the client and begins its read and write pumps
func (c *Client) Start() {
	c.hub.register <- c

	go c.writePump()
	go c.readPump()
}

// GetID returns the client's connection ID
func (c *Client) GetID() string {
	return c.id
}

// trySend queues a frame without blocking. Only the hub goroutine calls it.
func (c *Client) trySend(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// readPump pumps messages from the WebSocket connection to the mediator
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
		c.logger.Debug("Read pump stopped")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket read error", zap.Error(err))
			}
			return
		}

		switch messageType {
		case websocket.TextMessage:
			c.handleTextMessage(message)
		case websocket.BinaryMessage:
			c.logger.Warn("Binary messages not supported")
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.logger.Debug("Write pump stopped")
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

			// Flush whatever queued up meanwhile
			n := len(c.send)
			for i := 0; i < n; i++ {
				if err := c.conn.WriteMessage(websocket.TextMessage, <-c.send); err != nil {
					c.logger.Error("Failed to write batched message", zap.Error(err))
					return
				}
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Error("Failed to send ping", zap.Error(err))
				return
			}
		}
	}
}

// handleTextMessage turns renderer gestures into commands
func (c *Client) handleTextMessage(message []byte) {
	message = bytes.TrimSpace(message)

	var msg inbound
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Debug("Ignoring malformed message", zap.ByteString("message", message))
		return
	}

	cmd := c.commandFor(msg)
	if cmd == nil {
		if msg.Type != InboundPong {
			c.logger.Debug("Ignoring message", zap.String("type", msg.Type))
		}
		return
	}
	if c.mediator == nil {
		c.logger.Debug("Commands disabled on this connection", zap.String("type", msg.Type))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if _, err := c.mediator.Send(ctx, cmd); err != nil {
		c.reply(TypeError, map[string]string{"request": msg.Type, "message": err.Error()})
	}
}

func (c *Client) commandFor(msg inbound) commandbus.Command {
	switch msg.Type {
	case InboundNodeMove:
		if msg.NodeID == nil || msg.Position == nil {
			return nil
		}
		return &commands.MoveNodeCommand{NodeID: *msg.NodeID, Position: *msg.Position}
	case InboundNodeClick:
		if msg.NodeID == nil {
			return nil
		}
		return &commands.ClickNodeCommand{NodeID: *msg.NodeID}
	case InboundNodeOpen:
		if msg.NodeID == nil {
			return nil
		}
		return &commands.ActivateNodeCommand{NodeID: *msg.NodeID}
	case InboundCanvasTap:
		return &commands.ClearSelectionCommand{}
	case InboundPanelClose:
		return &commands.CloseSurfaceCommand{}
	default:
		return nil
	}
}

// reply answers only this client. It may drop the frame when the client
// is already gone.
func (c *Client) reply(messageType string, data interface{}) {
	frame, err := c.hub.frame(messageType, data)
	if err != nil {
		return
	}
	select {
	case c.hub.direct <- directFrame{client: c, frame: frame}:
	case <-c.hub.ctx.Done():
	}
}
