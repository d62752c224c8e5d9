package aggregates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apanazar/WGE/domain/core/entities"
	"github.com/Apanazar/WGE/domain/core/valueobjects"
	pkgerrors "github.com/Apanazar/WGE/pkg/errors"
)

func TestIdentityIndex(t *testing.T) {
	key := valueobjects.NewSourceKey("https://en.wikipedia.org/wiki/Go")

	t.Run("register and resolve", func(t *testing.T) {
		ix := NewIdentityIndex()
		require.NoError(t, ix.Register(key, 1))

		id, ok := ix.Resolve(key)
		assert.True(t, ok)
		assert.Equal(t, valueobjects.NodeID(1), id)
		assert.Equal(t, 1, ix.Len())
	})

	t.Run("same binding twice is a no-op", func(t *testing.T) {
		ix := NewIdentityIndex()
		require.NoError(t, ix.Register(key, 1))
		require.NoError(t, ix.Register(key, 1))
		assert.Equal(t, 1, ix.Len())
	})

	t.Run("second node for a key fails", func(t *testing.T) {
		ix := NewIdentityIndex()
		require.NoError(t, ix.Register(key, 1))

		err := ix.Register(key, 2)
		assert.True(t, pkgerrors.IsDuplicateKey(err))

		id, _ := ix.Resolve(key)
		assert.Equal(t, valueobjects.NodeID(1), id)
	})

	t.Run("empty key rejected", func(t *testing.T) {
		ix := NewIdentityIndex()
		assert.Error(t, ix.Register("", 1))
	})

	t.Run("unregister both ways", func(t *testing.T) {
		ix := NewIdentityIndex()
		other := valueobjects.NewSourceKey("https://example.com")
		require.NoError(t, ix.Register(key, 1))
		require.NoError(t, ix.Register(other, 2))

		ix.Unregister(key)
		_, ok := ix.Resolve(key)
		assert.False(t, ok)

		ix.UnregisterByID(2)
		_, ok = ix.Resolve(other)
		assert.False(t, ok)

		ix.Unregister("absent")
		ix.UnregisterByID(77)
		assert.Equal(t, 0, ix.Len())
	})

	t.Run("clear", func(t *testing.T) {
		ix := NewIdentityIndex()
		require.NoError(t, ix.Register(key, 1))
		ix.Clear()
		assert.Equal(t, 0, ix.Len())
	})
}

func TestIdentityIndexRebuild(t *testing.T) {
	records := []entities.NodeRecord{
		{ID: 0, Type: valueobjects.NodeTypeWikipedia, SourceKey: "https://en.wikipedia.org/wiki/A"},
		{ID: 1, Type: valueobjects.NodeTypeNotice, Label: "note"},
		{ID: 2, Type: valueobjects.NodeTypeWeb, SourceKey: "https://example.com"},
		{ID: 3, Type: valueobjects.NodeTypeWikipedia, SourceKey: "https://en.wikipedia.org/wiki/A"},
		{ID: 4, Type: valueobjects.NodeTypeWeb},
	}
	nodes := make([]*entities.Node, 0, len(records))
	for _, rec := range records {
		node, err := entities.ReconstructNode(rec)
		require.NoError(t, err)
		nodes = append(nodes, node)
	}

	ix := NewIdentityIndex()
	require.NoError(t, ix.Register("https://stale.example", 9))

	duplicates := ix.Rebuild(nodes)

	assert.Equal(t, []valueobjects.SourceKey{"https://en.wikipedia.org/wiki/A"}, duplicates)
	assert.Equal(t, 2, ix.Len())

	id, ok := ix.Resolve("https://en.wikipedia.org/wiki/A")
	assert.True(t, ok)
	assert.Equal(t, valueobjects.NodeID(3), id, "last node wins")

	_, ok = ix.KeyOf(0)
	assert.False(t, ok)
	_, ok = ix.Resolve("https://stale.example")
	assert.False(t, ok)
}
