// Package filesystem writes exported graphs to a download directory.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	pkgerrors "github.com/Apanazar/WGE/pkg/errors"
)

// maxCopies bounds the "name (n).json" search.
const maxCopies = 1000

// BlobSink implements ports.BlobSink on a directory. Existing files are
// never overwritten; a numbered copy is written instead.
type BlobSink struct {
	dir    string
	logger *zap.Logger
}

// NewBlobSink creates a sink writing into dir
func NewBlobSink(dir string, logger *zap.Logger) *BlobSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlobSink{dir: dir, logger: logger}
}

// Write stores data under suggestedName and returns the full path
func (s *BlobSink) Write(ctx context.Context, suggestedName string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := filepath.Base(filepath.Clean("/" + strings.TrimSpace(suggestedName)))
	if name == "/" || name == "." || name == "" {
		return "", pkgerrors.NewValidationError("file name is required")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 0; i < maxCopies; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		path := filepath.Join(s.dir, candidate)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create %s: %w", path, err)
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(path)
			return "", fmt.Errorf("failed to write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("failed to close %s: %w", path, err)
		}

		s.logger.Info("Wrote file", zap.String("path", path), zap.Int("bytes", len(data)))
		return path, nil
	}
	return "", pkgerrors.NewConflictError("too many copies of " + name)
}
