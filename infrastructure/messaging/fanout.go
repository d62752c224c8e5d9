// Package messaging combines event publishers.
package messaging

import (
	"context"
	"errors"

	"github.com/Apanazar/WGE/application/ports"
	"github.com/Apanazar/WGE/domain/events"
)

// Fanout delivers every batch to each publisher in order. A failing
// publisher does not stop the others.
type Fanout []ports.EventPublisher

// NewFanout drops nil publishers
func NewFanout(publishers ...ports.EventPublisher) Fanout {
	out := make(Fanout, 0, len(publishers))
	for _, p := range publishers {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

// Publish implements ports.EventPublisher
func (f Fanout) Publish(ctx context.Context, batch []events.DomainEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, batch); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
