package mediator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	commandbus "github.com/Apanazar/WGE/application/commands/bus"
	querybus "github.com/Apanazar/WGE/application/queries/bus"
)

// IMediator is the single entry point the transports use for commands and
// queries
type IMediator interface {
	// Send dispatches a command and returns its result
	Send(ctx context.Context, command commandbus.Command) (interface{}, error)

	// Query dispatches a query and returns the result
	Query(ctx context.Context, query querybus.Query) (interface{}, error)
}

// Mediator routes requests through the behavior pipeline to the buses
type Mediator struct {
	commandBus *commandbus.CommandBus
	queryBus   *querybus.QueryBus
	logger     *zap.Logger
	behaviors  []Behavior
}

// NewMediator creates a new mediator instance
func NewMediator(
	commandBus *commandbus.CommandBus,
	queryBus *querybus.QueryBus,
	logger *zap.Logger,
) *Mediator {
	return &Mediator{
		commandBus: commandBus,
		queryBus:   queryBus,
		logger:     logger,
		behaviors:  []Behavior{},
	}
}

// Send dispatches a command through the pipeline
func (m *Mediator) Send(ctx context.Context, command commandbus.Command) (interface{}, error) {
	startTime := time.Now()

	for _, behavior := range m.behaviors {
		if err := behavior.PreProcess(ctx, command); err != nil {
			return nil, err
		}
	}

	result, err := m.commandBus.Send(ctx, command)

	for _, behavior := range m.behaviors {
		behavior.PostProcess(ctx, command, time.Since(startTime), err)
	}
	return result, err
}

// Query dispatches a query through the pipeline
func (m *Mediator) Query(ctx context.Context, query querybus.Query) (interface{}, error) {
	startTime := time.Now()

	for _, behavior := range m.behaviors {
		if err := behavior.PreProcessQuery(ctx, query); err != nil {
			return nil, err
		}
	}

	result, err := m.queryBus.Ask(ctx, query)

	for _, behavior := range m.behaviors {
		behavior.PostProcessQuery(ctx, query, time.Since(startTime), err)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AddBehavior adds a behavior to the mediator pipeline
func (m *Mediator) AddBehavior(behavior Behavior) {
	m.behaviors = append(m.behaviors, behavior)
	m.logger.Debug("Added behavior to mediator pipeline",
		zap.String("behavior", fmt.Sprintf("%T", behavior)))
}

// GetBehaviors returns all registered behaviors
func (m *Mediator) GetBehaviors() []Behavior {
	return m.behaviors
}
