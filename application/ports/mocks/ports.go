// Package mocks provides testify mocks of the application ports.
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Apanazar/WGE/application/ports"
	"github.com/Apanazar/WGE/domain/core/aggregates"
	"github.com/Apanazar/WGE/domain/events"
)

// MockContentFetcher mocks ports.ContentFetcher
type MockContentFetcher struct {
	mock.Mock
}

func (m *MockContentFetcher) Fetch(ctx context.Context, url string, limit int) (*ports.FetchResult, error) {
	args := m.Called(ctx, url, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.FetchResult), args.Error(1)
}

func (m *MockContentFetcher) RandomURL(ctx context.Context, language string) (string, error) {
	args := m.Called(ctx, language)
	return args.String(0), args.Error(1)
}

// MockPrompter mocks ports.Prompter
type MockPrompter struct {
	mock.Mock
}

func (m *MockPrompter) Prompt(ctx context.Context, req ports.PromptRequest) (string, bool, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Bool(1), args.Error(2)
}

// MockThumbnailer mocks ports.Thumbnailer
type MockThumbnailer struct {
	mock.Mock
}

func (m *MockThumbnailer) Thumbnail(ctx context.Context, data []byte, maxSize, quality int) (*ports.Thumbnail, error) {
	args := m.Called(ctx, data, maxSize, quality)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.Thumbnail), args.Error(1)
}

// MockBlobSink mocks ports.BlobSink
type MockBlobSink struct {
	mock.Mock
}

func (m *MockBlobSink) Write(ctx context.Context, suggestedName string, data []byte) (string, error) {
	args := m.Called(ctx, suggestedName, data)
	return args.String(0), args.Error(1)
}

// MockSnapshotStore mocks ports.SnapshotStore
type MockSnapshotStore struct {
	mock.Mock
}

func (m *MockSnapshotStore) Save(ctx context.Context, name string, payload []byte, info ports.SnapshotInfo) error {
	args := m.Called(ctx, name, payload, info)
	return args.Error(0)
}

func (m *MockSnapshotStore) Load(ctx context.Context, name string) ([]byte, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockSnapshotStore) List(ctx context.Context) ([]ports.SnapshotSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.SnapshotSummary), args.Error(1)
}

// MockGraphCodec mocks ports.GraphCodec
type MockGraphCodec struct {
	mock.Mock
}

func (m *MockGraphCodec) Encode(graph *aggregates.Graph, language string) ([]byte, ports.SnapshotInfo, error) {
	args := m.Called(graph, language)
	if args.Get(0) == nil {
		return nil, args.Get(1).(ports.SnapshotInfo), args.Error(2)
	}
	return args.Get(0).([]byte), args.Get(1).(ports.SnapshotInfo), args.Error(2)
}

func (m *MockGraphCodec) Decode(payload []byte) (*aggregates.Graph, ports.SnapshotInfo, error) {
	args := m.Called(payload)
	if args.Get(0) == nil {
		return nil, args.Get(1).(ports.SnapshotInfo), args.Error(2)
	}
	return args.Get(0).(*aggregates.Graph), args.Get(1).(ports.SnapshotInfo), args.Error(2)
}

func (m *MockGraphCodec) FileName(t time.Time) string {
	args := m.Called(t)
	return args.String(0)
}

// RecordingPresenter keeps every presentation it receives.
type RecordingPresenter struct {
	mu        sync.Mutex
	Presented []ports.Presentation
	Cleared   int
}

func (r *RecordingPresenter) Present(_ context.Context, p ports.Presentation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Presented = append(r.Presented, p)
}

func (r *RecordingPresenter) Clear(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Cleared++
}

// Last returns the most recent presentation, if any
func (r *RecordingPresenter) Last() (ports.Presentation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Presented) == 0 {
		return ports.Presentation{}, false
	}
	return r.Presented[len(r.Presented)-1], true
}

// RecordingPublisher keeps every published event.
type RecordingPublisher struct {
	mu      sync.Mutex
	Batches [][]events.DomainEvent
	Err     error
}

func (r *RecordingPublisher) Publish(_ context.Context, evts []events.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Batches = append(r.Batches, evts)
	return r.Err
}

// Events flattens all batches
func (r *RecordingPublisher) Events() []events.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.DomainEvent
	for _, b := range r.Batches {
		out = append(out, b...)
	}
	return out
}
