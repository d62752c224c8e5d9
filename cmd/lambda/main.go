// Command lambda serves the stateless content endpoints (/api/parse and
// /api/random) behind API Gateway. The stateful workspace runs only in
// the long-lived server.
package main

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"go.uber.org/zap"

	"github.com/Apanazar/WGE/infrastructure/config"
	"github.com/Apanazar/WGE/infrastructure/di"
	"github.com/Apanazar/WGE/interfaces/http/rest"
)

var (
	chiLambda *chiadapter.ChiLambdaV2
	logger    *zap.Logger

	coldStart     = true
	coldStartTime time.Time
)

func init() {
	coldStartTime = time.Now()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Lambda has no writable home directory; log to stdout only.
	cfg.LogsDir = ""
	logger, _, err = di.ProvideLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	fetcher := di.ProvideContentFetcher(cfg, logger)
	router := rest.NewContentRouter(fetcher, rest.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		LinkLimit:      cfg.Limits.LinkLimit,
	}, logger)
	chiLambda = chiadapter.NewV2(router)

	logger.Info("Lambda cold start completed", zap.Duration("duration", time.Since(coldStartTime)))
}

// Handler proxies an API Gateway HTTP request through the chi router
func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	resp, err := chiLambda.ProxyWithContextV2(ctx, req)
	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}

	if coldStart {
		resp.Headers["X-Cold-Start"] = "true"
		resp.Headers["X-Cold-Start-Duration"] = time.Since(coldStartTime).String()
		coldStart = false
	} else {
		resp.Headers["X-Cold-Start"] = "false"
	}
	if req.RequestContext.RequestID != "" {
		resp.Headers["X-Request-ID"] = req.RequestContext.RequestID
	}

	logger.Info("Lambda response",
		zap.String("method", req.RequestContext.HTTP.Method),
		zap.String("path", req.RequestContext.HTTP.Path),
		zap.String("request_id", req.RequestContext.RequestID),
		zap.Int("status_code", resp.StatusCode),
		zap.String("stage", req.RequestContext.Stage))
	if err != nil {
		logger.Error("Lambda proxy failed", zap.Error(err))
	}
	return resp, err
}

func main() {
	defer logger.Sync()
	lambda.Start(Handler)
}
