package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apanazar/WGE/application/ports/mocks"
	"github.com/Apanazar/WGE/domain/events"
)

type failingPublisher struct{ calls int }

func (f *failingPublisher) Publish(context.Context, []events.DomainEvent) error {
	f.calls++
	return errors.New("bus unavailable")
}

func TestFanout_DeliversToEveryPublisher(t *testing.T) {
	// Arrange
	first := &mocks.RecordingPublisher{}
	broken := &failingPublisher{}
	last := &mocks.RecordingPublisher{}
	fanout := NewFanout(first, nil, broken, last)
	batch := []events.DomainEvent{events.NewGraphCleared("workspace", 1, time.Now())}

	// Act
	err := fanout.Publish(context.Background(), batch)

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bus unavailable")
	assert.Len(t, fanout, 3)
	assert.Equal(t, 1, broken.calls)
	assert.Len(t, first.Events(), 1)
	assert.Len(t, last.Events(), 1)
}

func TestFanout_Empty(t *testing.T) {
	assert.NoError(t, NewFanout().Publish(context.Background(), nil))
}
