package websocket

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Apanazar/WGE/application/mediator"
)

// Server upgrades HTTP requests into hub clients
type Server struct {
	hub            *Hub
	mediator       mediator.IMediator
	upgrader       websocket.Upgrader
	maxConnections int
	logger         *zap.Logger
}

// ServerConfig holds WebSocket server configuration
type ServerConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	// AllowedOrigins empty or containing "*" accepts any origin
	AllowedOrigins []string
	MaxConnections int
}

// DefaultServerConfig returns default WebSocket server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		MaxConnections:  100,
	}
}

// NewServer creates a new WebSocket server
func NewServer(hub *Hub, m mediator.IMediator, config *ServerConfig, logger *zap.Logger) *Server {
	if config == nil {
		config = DefaultServerConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Server{
		hub:      hub,
		mediator: m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     originChecker(config.AllowedOrigins),
		},
		maxConnections: config.MaxConnections,
		logger:         logger,
	}
}

// HandleWebSocket handles WebSocket upgrade requests
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.maxConnections > 0 && s.hub.ConnectionCount() >= s.maxConnections {
		s.logger.Warn("Connection limit exceeded",
			zap.Int("currentConnections", s.hub.ConnectionCount()))
		http.Error(w, "Connection limit exceeded", http.StatusTooManyRequests)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Failed to upgrade connection",
			zap.Error(err),
			zap.String("remoteAddr", r.RemoteAddr))
		return
	}

	client := NewClient(s.hub, conn, s.mediator, s.logger)
	client.Start()

	s.logger.Info("New WebSocket connection established",
		zap.String("connectionID", client.GetID()),
		zap.String("remoteAddr", r.RemoteAddr))
}

// HandleMetrics reports hub counters
func (s *Server) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.hub.GetMetrics())
}

// GetHub returns the WebSocket hub
func (s *Server) GetHub() *Hub {
	return s.hub
}

func originChecker(allowed []string) func(r *http.Request) bool {
	hosts := make(map[string]bool, len(allowed))
	for _, origin := range allowed {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		if origin != "" {
			hosts[strings.ToLower(strings.TrimSuffix(origin, "/"))] = true
		}
	}
	if len(hosts) == 0 {
		return func(*http.Request) bool { return true }
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		if strings.EqualFold(u.Host, r.Host) {
			return true
		}
		return hosts[strings.ToLower(origin)]
	}
}
