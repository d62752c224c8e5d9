// Package di wires the application together.
package di

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Apanazar/WGE/application/mediator"
	"github.com/Apanazar/WGE/application/ports"
	"github.com/Apanazar/WGE/application/services"
	"github.com/Apanazar/WGE/infrastructure/config"
	"github.com/Apanazar/WGE/interfaces/websocket"
	"github.com/Apanazar/WGE/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config    *config.Config
	Logger    *zap.Logger
	Workspace *services.Workspace
	Mediator  mediator.IMediator
	Hub       *websocket.Hub
	Router    http.Handler
	Fetcher   ports.ContentFetcher
	Snapshots ports.SnapshotStore
	Metrics   *observability.Collector
	Tracer    *observability.TracerProvider
	Watcher   *config.Watcher
}
