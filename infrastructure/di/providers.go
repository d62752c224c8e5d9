package di

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	commandbus "github.com/Apanazar/WGE/application/commands/bus"
	commandhandlers "github.com/Apanazar/WGE/application/commands/handlers"
	"github.com/Apanazar/WGE/application/mediator"
	"github.com/Apanazar/WGE/application/ports"
	querybus "github.com/Apanazar/WGE/application/queries/bus"
	queryhandlers "github.com/Apanazar/WGE/application/queries/handlers"
	"github.com/Apanazar/WGE/application/services"
	domainconfig "github.com/Apanazar/WGE/domain/config"
	"github.com/Apanazar/WGE/infrastructure/config"
	"github.com/Apanazar/WGE/infrastructure/contentfetch"
	"github.com/Apanazar/WGE/infrastructure/media"
	"github.com/Apanazar/WGE/infrastructure/messaging"
	"github.com/Apanazar/WGE/infrastructure/messaging/eventbridge"
	"github.com/Apanazar/WGE/infrastructure/persistence/dynamodb"
	"github.com/Apanazar/WGE/infrastructure/persistence/filesystem"
	"github.com/Apanazar/WGE/infrastructure/persistence/schema"
	"github.com/Apanazar/WGE/infrastructure/persistence/sqlite"
	"github.com/Apanazar/WGE/infrastructure/prompt"
	"github.com/Apanazar/WGE/interfaces/http/rest"
	"github.com/Apanazar/WGE/interfaces/websocket"
	"github.com/Apanazar/WGE/pkg/observability"
)

// logFileName is truncated on every start
const logFileName = "wiki-explorer.log"

// snapshotWorkspace partitions DynamoDB snapshots; one process serves one
// workspace
const snapshotWorkspace = "default"

// ProvideLogger creates the application logger. Besides the console it
// writes JSON lines to the logs directory through a buffered syncer.
func ProvideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	zapCfg.Level = level

	var file *os.File
	var buffered *zapcore.BufferedWriteSyncer
	var opts []zap.Option
	if cfg.LogsDir != "" {
		if err := os.MkdirAll(cfg.LogsDir, 0o755); err == nil {
			file, err = os.OpenFile(filepath.Join(cfg.LogsDir, logFileName), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
			if err == nil {
				buffered = &zapcore.BufferedWriteSyncer{WS: zapcore.AddSync(file), FlushInterval: time.Second}
				fileCore := zapcore.NewCore(
					zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
					buffered,
					level,
				)
				opts = append(opts, zap.WrapCore(func(core zapcore.Core) zapcore.Core {
					return zapcore.NewTee(core, fileCore)
				}))
			}
		}
	}

	logger, err := zapCfg.Build(opts...)
	if err != nil {
		if file != nil {
			file.Close()
		}
		return nil, nil, err
	}
	if cfg.LogsDir != "" && file == nil {
		logger.Warn("File logging disabled", zap.String("logsDir", cfg.LogsDir))
	}

	cleanup := func() {
		logger.Sync()
		if buffered != nil {
			buffered.Stop()
		}
		if file != nil {
			file.Close()
		}
	}
	return logger, cleanup, nil
}

// ProvideDomainConfig returns the engine rules
func ProvideDomainConfig(cfg *config.Config) *domainconfig.DomainConfig {
	return cfg.DomainConfig()
}

// ProvideMetrics returns the Prometheus collector, or nil when disabled
func ProvideMetrics(cfg *config.Config) *observability.Collector {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewCollector("wikigraph")
}

// ProvideTracing installs the tracer provider when tracing is enabled
func ProvideTracing(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	if !cfg.EnableTracing {
		return nil, func() {}, nil
	}
	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName: "wikigraph",
		Environment: cfg.Environment,
		Endpoint:    cfg.TracingEndpoint,
		SampleRate:  cfg.TraceSampleRate,
		Insecure:    !cfg.IsProduction(),
	})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Failed to flush traces", zap.Error(err))
		}
	}
	return tp, cleanup, nil
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideContentFetcher creates the HTTP content fetcher
func ProvideContentFetcher(cfg *config.Config, logger *zap.Logger) ports.ContentFetcher {
	fetchCfg := contentfetch.DefaultConfig()
	if cfg.FetchTimeout > 0 {
		fetchCfg.Timeout = cfg.FetchTimeout
	}
	fetchCfg.UserAgent = cfg.UserAgent
	return contentfetch.NewClient(fetchCfg, &http.Client{Timeout: fetchCfg.Timeout}, logger)
}

// ProvideSnapshotStore selects the snapshot backend. The "none" backend
// returns a nil store, which disables named snapshots.
func ProvideSnapshotStore(cfg *config.Config, client *awsdynamodb.Client, logger *zap.Logger) (ports.SnapshotStore, func(), error) {
	switch cfg.SnapshotBackend {
	case config.SnapshotBackendDynamoDB:
		return dynamodb.NewSnapshotStore(client, cfg.DynamoDBTable, snapshotWorkspace, logger), func() {}, nil

	case config.SnapshotBackendSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("failed to create snapshot directory: %w", err)
			}
		}
		store, err := sqlite.NewSnapshotStore(cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Warn("Failed to close snapshot store", zap.Error(err))
			}
		}, nil

	default:
		logger.Info("Named snapshots disabled")
		return nil, func() {}, nil
	}
}

// ProvideHub creates and runs the WebSocket hub
func ProvideHub(logger *zap.Logger) (*websocket.Hub, func()) {
	hub := websocket.NewHub(logger)
	go hub.Run()
	return hub, hub.Stop
}

// ProvideEventPublisher fans graph deltas out to the renderers and, when
// enabled, to EventBridge
func ProvideEventPublisher(cfg *config.Config, hub *websocket.Hub, client *awseventbridge.Client, logger *zap.Logger) ports.EventPublisher {
	publishers := []ports.EventPublisher{hub}
	if cfg.EnableEventBridge {
		publishers = append(publishers, eventbridge.NewPublisher(client, cfg.EventBusName, logger))
	}
	return messaging.NewFanout(publishers...)
}

// ProvidePresenter binds the side panel to the hub
func ProvidePresenter(hub *websocket.Hub) ports.Presenter {
	return hub
}

// ProvideWorkspace creates the workspace
func ProvideWorkspace(
	rules *domainconfig.DomainConfig,
	publisher ports.EventPublisher,
	presenter ports.Presenter,
	metrics *observability.Collector,
	logger *zap.Logger,
) *services.Workspace {
	return services.NewWorkspace(rules, publisher, presenter, metrics, logger)
}

// ProvidePrompter answers prompts from the request context
func ProvidePrompter(logger *zap.Logger) ports.Prompter {
	return prompt.NewContextPrompter(logger)
}

// ProvideThumbnailer creates the image thumbnailer
func ProvideThumbnailer(logger *zap.Logger) ports.Thumbnailer {
	return media.NewThumbnailer(logger)
}

// ProvideBlobSink writes saves to the download directory
func ProvideBlobSink(cfg *config.Config, logger *zap.Logger) ports.BlobSink {
	return filesystem.NewBlobSink(cfg.DownloadDir, logger)
}

// ProvideCodec creates the saved document codec
func ProvideCodec(rules *domainconfig.DomainConfig, logger *zap.Logger) ports.GraphCodec {
	return schema.NewCodec(rules, logger)
}

// ProvideCommandBus registers every command handler
func ProvideCommandBus(
	graphHandler *commandhandlers.GraphCommandHandler,
	nodeHandler *commandhandlers.NodeCommandHandler,
	logger *zap.Logger,
) *commandbus.CommandBus {
	b := commandbus.NewCommandBus(commandbus.LoggingMiddleware(logger))
	graphHandler.Register(b)
	nodeHandler.Register(b)
	return b
}

// ProvideQueryBus registers every query handler
func ProvideQueryBus(handler *queryhandlers.GraphQueryHandler) *querybus.QueryBus {
	b := querybus.NewQueryBus()
	handler.Register(b)
	return b
}

// ProvideMediator builds the mediator with its behavior pipeline
func ProvideMediator(
	cfg *config.Config,
	commandBus *commandbus.CommandBus,
	queryBus *querybus.QueryBus,
	logger *zap.Logger,
) mediator.IMediator {
	m := mediator.NewMediator(commandBus, queryBus, logger)
	m.AddBehavior(mediator.NewLoggingBehavior(logger))
	m.AddBehavior(mediator.NewPerformanceBehavior(logger, cfg.FetchTimeout+5*time.Second, time.Second))
	if cfg.EnableTracing {
		m.AddBehavior(mediator.NewTracingBehavior())
	}
	return m
}

// ProvideWebSocketServer creates the WebSocket endpoint
func ProvideWebSocketServer(cfg *config.Config, hub *websocket.Hub, m mediator.IMediator, logger *zap.Logger) *websocket.Server {
	wsCfg := websocket.DefaultServerConfig()
	wsCfg.AllowedOrigins = cfg.AllowedOrigins
	return websocket.NewServer(hub, m, wsCfg, logger)
}

// ProvideRouter creates the HTTP handler
func ProvideRouter(
	cfg *config.Config,
	m mediator.IMediator,
	fetcher ports.ContentFetcher,
	hub *websocket.Hub,
	wsServer *websocket.Server,
	metrics *observability.Collector,
	rules *domainconfig.DomainConfig,
	logger *zap.Logger,
) http.Handler {
	router := rest.NewRouter(m, fetcher, hub, wsServer.HandleWebSocket, metrics, rest.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		LinkLimit:      rules.LinkLimit,
		Debug:          cfg.IsDevelopment(),
	}, logger)
	return router.Setup()
}

// ProvideConfigWatcher hot-reloads engine limits from the YAML overlay.
// Without an overlay file nothing is watched.
func ProvideConfigWatcher(cfg *config.Config, ws *services.Workspace, logger *zap.Logger) (*config.Watcher, func(), error) {
	if cfg.ConfigFile == "" {
		return nil, func() {}, nil
	}
	watcher, err := config.NewWatcher(cfg.ConfigFile, logger)
	if err != nil {
		return nil, nil, err
	}
	watcher.OnChange(func(limits config.Limits) {
		if err := ws.UpdateRules(limits.ApplyTo); err != nil {
			logger.Warn("Rejected reloaded limits", zap.Error(err))
		}
	})
	watcher.Start()
	return watcher, watcher.Stop, nil
}
