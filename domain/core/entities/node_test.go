package entities

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apanazar/WGE/domain/config"
	"github.com/Apanazar/WGE/domain/core/valueobjects"
	pkgerrors "github.com/Apanazar/WGE/pkg/errors"
)

func TestNewURLNode(t *testing.T) {
	cfg := config.DefaultDomainConfig()

	t.Run("wikipedia classification", func(t *testing.T) {
		node, err := NewURLNode(valueobjects.NewSourceKey("https://en.wikipedia.org/wiki/Go"), "", nil, cfg)
		require.NoError(t, err)
		assert.Equal(t, valueobjects.NodeTypeWikipedia, node.Type())
		assert.False(t, node.ID().IsAssigned())
		assert.Equal(t, "", node.Label())
		assert.Equal(t, ExpansionCollapsed, node.Expansion())
		assert.True(t, node.IsIndexed())
	})

	t.Run("web node keeps full title", func(t *testing.T) {
		long := "A very long title for a personal blog post about graphs"
		node, err := NewURLNode(valueobjects.NewSourceKey("https://example.com/post"), long, valueobjects.NewPosition(1, 2), cfg)
		require.NoError(t, err)
		assert.Equal(t, valueobjects.NodeTypeWeb, node.Type())
		assert.Equal(t, long, node.Title())
		assert.Equal(t, valueobjects.TruncateLabel(long, 30, "..."), node.Label())
		assert.Equal(t, &valueobjects.Position{X: 1, Y: 2}, node.Position())
	})

	t.Run("empty url rejected", func(t *testing.T) {
		_, err := NewURLNode("", "x", nil, cfg)
		assert.True(t, pkgerrors.IsValidation(err))
	})
}

func TestNewNoticeNode(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	node, err := NewNoticeNode("  Reading list  ", now, nil, nil)
	require.NoError(t, err)

	notice, ok := node.Notice()
	require.True(t, ok)
	assert.Equal(t, "Reading list", notice.Title)
	assert.Equal(t, now, notice.CreatedAt)
	assert.Equal(t, now, notice.UpdatedAt)
	assert.False(t, node.IsIndexed())

	_, err = NewNoticeNode("   ", now, nil, nil)
	assert.Error(t, err)
}

func TestNewMediaNode(t *testing.T) {
	tests := []struct {
		name     string
		media    valueobjects.MediaPayload
		nodeType valueobjects.NodeType
		label    string
		fileKind valueobjects.FileKind
	}{
		{
			name:     "image has empty label",
			media:    valueobjects.MediaPayload{Data: "data:image/png;base64,AA==", FileName: "cat.png", MediaType: "image/png"},
			nodeType: valueobjects.NodeTypeImage,
			label:    "",
		},
		{
			name:     "video label is file name",
			media:    valueobjects.MediaPayload{Data: "data:video/mp4;base64,AA==", FileName: "clip.mp4", MediaType: "video/mp4"},
			nodeType: valueobjects.NodeTypeVideo,
			label:    "clip.mp4",
		},
		{
			name:     "file label truncated at 25",
			media:    valueobjects.MediaPayload{Data: "data:application/pdf;base64,AA==", FileName: "a-really-long-report-name-2024.pdf", MediaType: "application/pdf"},
			nodeType: valueobjects.NodeTypeFile,
			label:    "a-really-long-report-name...",
			fileKind: valueobjects.FileKindPDF,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := NewMediaNode(tt.media, nil, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.nodeType, node.Type())
			assert.Equal(t, tt.label, node.Label())

			media, ok := node.Media()
			require.True(t, ok)
			assert.Equal(t, tt.fileKind, media.Kind)
		})
	}
}

func TestNodeApply(t *testing.T) {
	node, err := NewURLNode(valueobjects.NewSourceKey("https://en.wikipedia.org/wiki/Go"), "", nil, nil)
	require.NoError(t, err)
	require.NoError(t, node.AssignID(3))

	node.Apply(NodeUpdate{
		Label:     StringPtr("Go"),
		Expansion: StatePtr(ExpansionLoaded),
		Position:  valueobjects.NewPosition(5, 6),
		Attributes: map[string]json.RawMessage{
			"color": json.RawMessage(`{"background":"#fff"}`),
		},
	})
	assert.Equal(t, "Go", node.Label())
	assert.Equal(t, ExpansionLoaded, node.Expansion())
	assert.JSONEq(t, `{"background":"#fff"}`, string(node.Attributes()["color"]))

	edges := []EdgeRecord{{ID: "e1", From: 3, To: 4}}
	node.Apply(NodeUpdate{Detachment: &Detachment{Detached: true, Edges: edges}})
	assert.True(t, node.IsDetached())
	assert.Equal(t, edges, node.DetachedEdges())

	node.Apply(NodeUpdate{Detachment: &Detachment{Detached: false}})
	assert.False(t, node.IsDetached())
	assert.Empty(t, node.DetachedEdges())

	assert.True(t, NodeUpdate{}.IsEmpty())
	assert.Error(t, node.AssignID(4))
}

func TestReconstructNodeRoundTrip(t *testing.T) {
	rec := NodeRecord{
		ID:        7,
		Type:      valueobjects.ParseNodeType("hologram"),
		Label:     "Future",
		SourceKey: "https://example.com/x",
		Detached:  true,
		DetachedEdges: []EdgeRecord{
			{ID: "e", From: 7, To: 1},
		},
		Attributes: map[string]json.RawMessage{"shape": json.RawMessage(`"box"`)},
	}

	node, err := ReconstructNode(rec)
	require.NoError(t, err)
	assert.False(t, node.IsIndexed(), "unknown types are never indexed")

	out := node.Record()
	assert.Equal(t, rec.ID, out.ID)
	assert.Equal(t, rec.Type, out.Type)
	assert.Equal(t, "Future", out.Title)
	assert.Equal(t, rec.DetachedEdges, out.DetachedEdges)
	assert.Equal(t, rec.Attributes, out.Attributes)

	_, err = ReconstructNode(NodeRecord{ID: -3})
	assert.Error(t, err)
}

func TestEdge(t *testing.T) {
	edge := NewEdge(1, 2)
	assert.False(t, edge.ID().IsZero())
	assert.True(t, edge.Connects(2, 1))
	assert.True(t, edge.Touches(2))
	assert.False(t, edge.Touches(3))
	assert.Equal(t, valueobjects.NodeID(1), edge.Other(2))

	rebuilt, err := ReconstructEdge(EdgeRecord{From: 4, To: 5})
	require.NoError(t, err)
	assert.False(t, rebuilt.ID().IsZero(), "missing ids are replaced")

	_, err = ReconstructEdge(EdgeRecord{From: -1, To: 5})
	assert.Error(t, err)
}
