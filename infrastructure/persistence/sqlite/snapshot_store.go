// Package sqlite keeps saved graphs in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/Apanazar/WGE/application/ports"
	pkgerrors "github.com/Apanazar/WGE/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
    name       TEXT PRIMARY KEY,
    payload    BLOB NOT NULL,
    saved_at   INTEGER NOT NULL,
    version    TEXT NOT NULL,
    node_count INTEGER NOT NULL,
    edge_count INTEGER NOT NULL,
    language   TEXT NOT NULL DEFAULT '',
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_saved_at ON snapshots(saved_at);
`

// SnapshotStore implements ports.SnapshotStore on SQLite
type SnapshotStore struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewSnapshotStore opens (and creates if needed) the database at dsn.
// Use ":memory:" for a throwaway store.
func NewSnapshotStore(dsn string, logger *zap.Logger) (*SnapshotStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Info("Snapshot database ready", zap.String("dsn", dsn))
	return &SnapshotStore{db: db, logger: logger, now: time.Now}, nil
}

// Close closes the database connection
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// Save stores payload under name, replacing an existing snapshot
func (s *SnapshotStore) Save(ctx context.Context, name string, payload []byte, info ports.SnapshotInfo) error {
	if name == "" {
		return pkgerrors.NewValidationError("snapshot name is required")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (name, payload, saved_at, version, node_count, edge_count, language, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			payload = excluded.payload,
			saved_at = excluded.saved_at,
			version = excluded.version,
			node_count = excluded.node_count,
			edge_count = excluded.edge_count,
			language = excluded.language,
			updated_at = excluded.updated_at
	`, name, payload, info.SavedAt.UnixMilli(), info.Version, info.NodeCount, info.EdgeCount,
		info.Language, s.now().UnixMilli())
	if err != nil {
		s.logger.Error("Failed to save snapshot", zap.String("name", name), zap.Error(err))
		return pkgerrors.NewDatabaseError("save snapshot", err)
	}

	s.logger.Debug("Snapshot stored", zap.String("name", name), zap.Int("bytes", len(payload)))
	return nil
}

// Load returns the payload stored under name
func (s *SnapshotStore) Load(ctx context.Context, name string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM snapshots WHERE name = ?`, name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.NewNotFoundError("snapshot " + name)
	}
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("load snapshot", err)
	}
	return payload, nil
}

// List returns all snapshots, newest first
func (s *SnapshotStore) List(ctx context.Context) ([]ports.SnapshotSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, saved_at, version, node_count, edge_count, language
		FROM snapshots
		ORDER BY saved_at DESC, name
	`)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("list snapshots", err)
	}
	defer rows.Close()

	var out []ports.SnapshotSummary
	for rows.Next() {
		var (
			summary ports.SnapshotSummary
			savedAt int64
		)
		if err := rows.Scan(&summary.Name, &savedAt, &summary.Version,
			&summary.NodeCount, &summary.EdgeCount, &summary.Language); err != nil {
			return nil, pkgerrors.NewDatabaseError("list snapshots", err)
		}
		summary.SavedAt = time.UnixMilli(savedAt).UTC()
		out = append(out, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.NewDatabaseError("list snapshots", err)
	}
	return out, nil
}

