package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/Apanazar/WGE/pkg/errors"
)

func TestBlobSink_Write(t *testing.T) {
	// Arrange
	dir := filepath.Join(t.TempDir(), "downloads")
	sink := NewBlobSink(dir, nil)
	ctx := context.Background()

	// Act
	first, err := sink.Write(ctx, "wiki-graph-2024-03-01.json", []byte("one"))
	require.NoError(t, err)
	second, err := sink.Write(ctx, "wiki-graph-2024-03-01.json", []byte("two"))
	require.NoError(t, err)

	// Assert
	assert.Equal(t, filepath.Join(dir, "wiki-graph-2024-03-01.json"), first)
	assert.Equal(t, filepath.Join(dir, "wiki-graph-2024-03-01 (1).json"), second)

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))
	data, err = os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestBlobSink_StaysInsideDirectory(t *testing.T) {
	dir := t.TempDir()
	sink := NewBlobSink(dir, nil)

	path, err := sink.Write(context.Background(), "../../etc/graph.json", []byte("x"))

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "graph.json"), path)
}

func TestBlobSink_RejectsEmptyName(t *testing.T) {
	sink := NewBlobSink(t.TempDir(), nil)

	_, err := sink.Write(context.Background(), "  ", []byte("x"))

	assert.True(t, pkgerrors.IsValidation(err))
}

func TestBlobSink_CancelledContext(t *testing.T) {
	sink := NewBlobSink(t.TempDir(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sink.Write(ctx, "a.json", []byte("x"))

	assert.ErrorIs(t, err, context.Canceled)
}
