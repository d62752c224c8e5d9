//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	commandhandlers "github.com/Apanazar/WGE/application/commands/handlers"
	queryhandlers "github.com/Apanazar/WGE/application/queries/handlers"
	"github.com/Apanazar/WGE/application/services"
	"github.com/Apanazar/WGE/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideDomainConfig,
	ProvideMetrics,
	ProvideTracing,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideContentFetcher,
	ProvideSnapshotStore,
	ProvideHub,
	ProvideEventPublisher,
	ProvidePresenter,
	ProvideWorkspace,
	ProvidePrompter,
	ProvideThumbnailer,
	ProvideBlobSink,
	ProvideCodec,
	services.NewNodeCreator,
	services.NewExpansionController,
	services.NewMutationOps,
	services.NewPersistenceService,
	services.NewUploadService,
	commandhandlers.NewGraphCommandHandler,
	commandhandlers.NewNodeCommandHandler,
	queryhandlers.NewGraphQueryHandler,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideMediator,
	ProvideWebSocketServer,
	ProvideRouter,
	ProvideConfigWatcher,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil
}
