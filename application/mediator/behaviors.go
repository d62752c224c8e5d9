package mediator

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	commandbus "github.com/Apanazar/WGE/application/commands/bus"
	querybus "github.com/Apanazar/WGE/application/queries/bus"
	pkgerrors "github.com/Apanazar/WGE/pkg/errors"
)

// Behavior is a cross-cutting concern applied to every request
type Behavior interface {
	// PreProcess is called before command execution; an error aborts it
	PreProcess(ctx context.Context, command commandbus.Command) error

	// PostProcess is called after command execution
	PostProcess(ctx context.Context, command commandbus.Command, elapsed time.Duration, err error)

	// PreProcessQuery is called before query execution
	PreProcessQuery(ctx context.Context, query querybus.Query) error

	// PostProcessQuery is called after query execution
	PostProcessQuery(ctx context.Context, query querybus.Query, elapsed time.Duration, err error)
}

// LoggingBehavior logs all commands and queries
type LoggingBehavior struct {
	logger *zap.Logger
}

// NewLoggingBehavior creates a new logging behavior
func NewLoggingBehavior(logger *zap.Logger) *LoggingBehavior {
	return &LoggingBehavior{logger: logger}
}

func (b *LoggingBehavior) PreProcess(ctx context.Context, command commandbus.Command) error {
	b.logger.Debug("Executing command",
		zap.String("type", fmt.Sprintf("%T", command)),
		zap.Any("command", command))
	return nil
}

func (b *LoggingBehavior) PostProcess(ctx context.Context, command commandbus.Command, elapsed time.Duration, err error) {
	fields := []zap.Field{
		zap.String("type", fmt.Sprintf("%T", command)),
		zap.Duration("duration", elapsed),
	}
	switch {
	case err == nil:
		b.logger.Info("Command succeeded", fields...)
	case pkgerrors.IsCancelled(err):
		b.logger.Info("Command cancelled", fields...)
	case pkgerrors.HTTPStatusOf(err) < 500:
		b.logger.Warn("Command rejected", append(fields, zap.Error(err))...)
	default:
		b.logger.Error("Command failed", append(fields, zap.Error(err))...)
	}
}

func (b *LoggingBehavior) PreProcessQuery(ctx context.Context, query querybus.Query) error {
	b.logger.Debug("Executing query",
		zap.String("type", fmt.Sprintf("%T", query)),
		zap.Any("query", query))
	return nil
}

func (b *LoggingBehavior) PostProcessQuery(ctx context.Context, query querybus.Query, elapsed time.Duration, err error) {
	if err != nil {
		b.logger.Warn("Query failed",
			zap.String("type", fmt.Sprintf("%T", query)),
			zap.Error(err))
		return
	}
	b.logger.Debug("Query succeeded",
		zap.String("type", fmt.Sprintf("%T", query)),
		zap.Duration("duration", elapsed))
}

// PerformanceBehavior logs slow commands and queries. Expansions wait on the
// network, so the command threshold should sit above the fetch timeout.
type PerformanceBehavior struct {
	logger           *zap.Logger
	commandThreshold time.Duration
	queryThreshold   time.Duration
}

// NewPerformanceBehavior creates a new performance monitoring behavior
func NewPerformanceBehavior(logger *zap.Logger, commandThreshold, queryThreshold time.Duration) *PerformanceBehavior {
	return &PerformanceBehavior{
		logger:           logger,
		commandThreshold: commandThreshold,
		queryThreshold:   queryThreshold,
	}
}

func (b *PerformanceBehavior) PreProcess(ctx context.Context, command commandbus.Command) error {
	return nil
}

func (b *PerformanceBehavior) PostProcess(ctx context.Context, command commandbus.Command, elapsed time.Duration, err error) {
	if elapsed > b.commandThreshold {
		b.logger.Warn("Slow command detected",
			zap.String("type", fmt.Sprintf("%T", command)),
			zap.Duration("duration", elapsed),
			zap.Duration("threshold", b.commandThreshold))
	}
}

func (b *PerformanceBehavior) PreProcessQuery(ctx context.Context, query querybus.Query) error {
	return nil
}

func (b *PerformanceBehavior) PostProcessQuery(ctx context.Context, query querybus.Query, elapsed time.Duration, err error) {
	if elapsed > b.queryThreshold {
		b.logger.Warn("Slow query detected",
			zap.String("type", fmt.Sprintf("%T", query)),
			zap.Duration("duration", elapsed),
			zap.Duration("threshold", b.queryThreshold))
	}
}

// TracingBehavior annotates the active span with the request type
type TracingBehavior struct{}

// NewTracingBehavior creates a new tracing behavior
func NewTracingBehavior() *TracingBehavior {
	return &TracingBehavior{}
}

func (b *TracingBehavior) PreProcess(ctx context.Context, command commandbus.Command) error {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("wikigraph.command", fmt.Sprintf("%T", command)))
	return nil
}

func (b *TracingBehavior) PostProcess(ctx context.Context, command commandbus.Command, elapsed time.Duration, err error) {
	if err != nil {
		trace.SpanFromContext(ctx).RecordError(err)
	}
}

func (b *TracingBehavior) PreProcessQuery(ctx context.Context, query querybus.Query) error {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("wikigraph.query", fmt.Sprintf("%T", query)))
	return nil
}

func (b *TracingBehavior) PostProcessQuery(ctx context.Context, query querybus.Query, elapsed time.Duration, err error) {
	if err != nil {
		trace.SpanFromContext(ctx).RecordError(err)
	}
}
