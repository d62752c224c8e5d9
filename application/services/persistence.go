package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Apanazar/WGE/application/ports"
	"github.com/Apanazar/WGE/domain/core/aggregates"
	pkgerrors "github.com/Apanazar/WGE/pkg/errors"
)

// PersistenceService saves and restores the whole workspace
type PersistenceService struct {
	ws     *Workspace
	codec  ports.GraphCodec
	sink   ports.BlobSink
	store  ports.SnapshotStore
	logger *zap.Logger
}

// NewPersistenceService creates a new persistence service. sink and store
// are optional.
func NewPersistenceService(ws *Workspace, codec ports.GraphCodec, sink ports.BlobSink, store ports.SnapshotStore, logger *zap.Logger) *PersistenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PersistenceService{ws: ws, codec: codec, sink: sink, store: store, logger: logger}
}

// Export serializes the graph and returns it with a suggested file name
func (s *PersistenceService) Export(ctx context.Context) ([]byte, string, ports.SnapshotInfo, error) {
	s.ws.mu.Lock()
	payload, info, err := s.codec.Encode(s.ws.graph, s.ws.language)
	s.ws.mu.Unlock()
	if err != nil {
		s.ws.metrics.SnapshotOperation("export", err)
		return nil, "", ports.SnapshotInfo{}, pkgerrors.Wrap(err, "failed to encode graph")
	}
	s.ws.metrics.SnapshotOperation("export", nil)
	return payload, s.codec.FileName(info.SavedAt), info, nil
}

// Import replaces the workspace with a saved document. The document is
// fully decoded before anything changes, so a malformed payload leaves the
// current graph untouched.
func (s *PersistenceService) Import(ctx context.Context, payload []byte) (ports.SnapshotInfo, error) {
	loaded, info, err := s.codec.Decode(payload)
	if err != nil {
		s.ws.metrics.SnapshotOperation("import", err)
		s.logger.Warn("Rejected graph document", zap.Error(err))
		return ports.SnapshotInfo{}, err
	}

	err = s.ws.mutate(ctx, func(fx *effects) error {
		s.replaceLocked(loaded, info, fx)
		return nil
	})
	s.ws.metrics.SnapshotOperation("import", err)
	if err != nil {
		return ports.SnapshotInfo{}, err
	}

	s.logger.Info("Graph loaded",
		zap.Int("nodes", info.NodeCount),
		zap.Int("edges", info.EdgeCount),
		zap.String("version", info.Version),
		zap.String("language", info.Language),
	)
	return info, nil
}

func (s *PersistenceService) replaceLocked(loaded *aggregates.Graph, info ports.SnapshotInfo, fx *effects) {
	ws := s.ws
	ws.graph.ReplaceWith(loaded)
	for _, key := range ws.index.Rebuild(ws.graph.Nodes()) {
		s.logger.Warn("Saved graph repeats a url; keeping the later node", zap.String("url", key.String()))
	}
	if lang := strings.TrimSpace(info.Language); lang != "" {
		ws.language = lang
	}
	ws.pending = nil
	if ws.active != nil {
		ws.active = nil
		fx.clear = true
	}
	ws.graph.MarkLoaded(ws.language)
}

// SaveToSink exports the graph and hands it to the configured blob sink
func (s *PersistenceService) SaveToSink(ctx context.Context) (string, error) {
	if s.sink == nil {
		return "", pkgerrors.NewUnavailableError("blob sink")
	}
	payload, name, _, err := s.Export(ctx)
	if err != nil {
		return "", err
	}
	location, err := s.sink.Write(ctx, name, payload)
	if err != nil {
		return "", pkgerrors.Wrap(err, "failed to write graph file")
	}
	s.logger.Info("Graph saved", zap.String("location", location), zap.Int("bytes", len(payload)))
	return location, nil
}

// SaveSnapshot stores the current graph under name. An empty name uses the
// dated file name.
func (s *PersistenceService) SaveSnapshot(ctx context.Context, name string) (ports.SnapshotSummary, error) {
	if s.store == nil {
		return ports.SnapshotSummary{}, pkgerrors.NewUnavailableError("snapshot store")
	}
	payload, fileName, info, err := s.Export(ctx)
	if err != nil {
		return ports.SnapshotSummary{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = fileName
	}
	err = s.store.Save(ctx, name, payload, info)
	s.ws.metrics.SnapshotOperation("save", err)
	if err != nil {
		return ports.SnapshotSummary{}, err
	}
	s.logger.Info("Snapshot saved", zap.String("name", name), zap.Int("nodes", info.NodeCount))
	return ports.SnapshotSummary{Name: name, SnapshotInfo: info}, nil
}

// LoadSnapshot replaces the workspace with a stored snapshot
func (s *PersistenceService) LoadSnapshot(ctx context.Context, name string) (ports.SnapshotInfo, error) {
	if s.store == nil {
		return ports.SnapshotInfo{}, pkgerrors.NewUnavailableError("snapshot store")
	}
	payload, err := s.store.Load(ctx, name)
	s.ws.metrics.SnapshotOperation("load", err)
	if err != nil {
		return ports.SnapshotInfo{}, err
	}
	return s.Import(ctx, payload)
}

// ListSnapshots returns the stored snapshots, newest first
func (s *PersistenceService) ListSnapshots(ctx context.Context) ([]ports.SnapshotSummary, error) {
	if s.store == nil {
		return nil, pkgerrors.NewUnavailableError("snapshot store")
	}
	return s.store.List(ctx)
}
