package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Apanazar/WGE/application/ports"
	"github.com/Apanazar/WGE/domain/core/entities"
	"github.com/Apanazar/WGE/domain/core/valueobjects"
	pkgerrors "github.com/Apanazar/WGE/pkg/errors"
)

func TestActivate_MainPageScenario(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	ctx := context.Background()
	root := env.addWiki(t, "Main_Page")
	require.Equal(t, valueobjects.NodeID(0), root)

	env.fetcher.On("Fetch", mock.Anything, wikiURL("Main_Page"), 10).Return(&ports.FetchResult{
		Title:   "Main Page",
		Content: "<h1>Main Page</h1>",
		Links: []ports.Link{
			{URL: wikiURL("Alpha"), Title: "Alpha"},
			{URL: wikiURL("Beta"), Title: "Beta"},
			{URL: wikiURL("Alpha"), Title: "Alpha again"},
			{URL: wikiURL("Gamma"), Title: "Gamma"},
		},
	}, nil)

	// Act
	presented, err := env.expansion.Activate(ctx, root, 0)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, presented)
	assert.Equal(t, ports.PresentArticle, presented.Kind)
	assert.Equal(t, "Main Page", presented.Title)
	assert.Equal(t, "<h1>Main Page</h1>", presented.Content)

	view := env.ws.Snapshot()
	require.Len(t, view.Nodes, 4)
	for i, n := range view.Nodes {
		assert.Equal(t, valueobjects.NodeID(i), n.ID)
	}
	assert.Equal(t, []string{"Main Page", "Alpha", "Beta", "Gamma"},
		[]string{view.Nodes[0].Label, view.Nodes[1].Label, view.Nodes[2].Label, view.Nodes[3].Label})
	assert.Equal(t, map[[2]valueobjects.NodeID]int{{0, 1}: 1, {0, 2}: 1, {0, 3}: 1}, pairs(view))
	assert.Equal(t, entities.ExpansionLoaded, view.Nodes[0].Expansion)

	kinds := make([]ports.PresentationKind, 0, len(env.presenter.Presented))
	for _, p := range env.presenter.Presented {
		kinds = append(kinds, p.Kind)
	}
	assert.Equal(t, []ports.PresentationKind{ports.PresentLoading, ports.PresentArticle}, kinds)
	env.fetcher.AssertExpectations(t)
}

func TestActivate_ReexpansionAddsNoDuplicates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	root := env.addWiki(t, "Root")

	env.fetcher.On("Fetch", mock.Anything, wikiURL("Root"), 5).Return(&ports.FetchResult{
		Title: "Root",
		Links: []ports.Link{{URL: wikiURL("Root")}, {URL: wikiURL("Leaf")}},
	}, nil).Twice()

	_, err := env.expansion.Activate(ctx, root, 5)
	require.NoError(t, err)
	_, err = env.expansion.Activate(ctx, root, 5)
	require.NoError(t, err)

	view := env.ws.Snapshot()
	assert.Len(t, view.Nodes, 2)
	assert.Len(t, view.Edges, 1)
	assert.Equal(t, "Leaf", view.Nodes[1].Label)
	env.fetcher.AssertExpectations(t)
}

func TestActivate_RespectsLinkLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	root := env.addWiki(t, "Root")

	env.fetcher.On("Fetch", mock.Anything, wikiURL("Root"), 2).Return(&ports.FetchResult{
		Title: "Root",
		Links: []ports.Link{{URL: wikiURL("A")}, {URL: wikiURL("B")}, {URL: wikiURL("C")}},
	}, nil)

	_, err := env.expansion.Activate(ctx, root, 2)

	require.NoError(t, err)
	assert.Len(t, env.ws.Snapshot().Nodes, 3)
}

func TestActivate_FetchFailure(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	ctx := context.Background()
	root := env.addWiki(t, "Broken")
	env.fetcher.On("Fetch", mock.Anything, wikiURL("Broken"), 10).Return(nil, errors.New("HTTP 500"))

	// Act
	presented, err := env.expansion.Activate(ctx, root, 0)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, presented)
	assert.Equal(t, ports.PresentFailure, presented.Kind)
	assert.Equal(t, "Failed to load content: HTTP 500", presented.Message)

	node, err := env.ws.Node(root)
	require.NoError(t, err)
	assert.Equal(t, entities.ExpansionError, node.Expansion)
	assert.Len(t, env.ws.Snapshot().Nodes, 1)
}

func TestActivate_StaleAfterNewRoot(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	ctx := context.Background()
	root := env.addWiki(t, "Old")

	env.fetcher.On("Fetch", mock.Anything, wikiURL("Old"), 10).
		Run(func(mock.Arguments) {
			// The user starts a new graph while the fetch is in flight.
			_, err := env.creator.NewRoot(ctx, wikiURL("New"), "")
			require.NoError(t, err)
		}).
		Return(&ports.FetchResult{
			Title: "Old article",
			Links: []ports.Link{{URL: wikiURL("Child")}},
		}, nil)

	// Act
	presented, err := env.expansion.Activate(ctx, root, 0)

	// Assert
	require.NoError(t, err)
	assert.Nil(t, presented)

	view := env.ws.Snapshot()
	require.Len(t, view.Nodes, 1)
	assert.Equal(t, placeholderLabel, view.Nodes[0].Label)
	assert.Equal(t, valueobjects.SourceKey(wikiURL("New")), view.Nodes[0].SourceKey)
	assert.Empty(t, view.Edges)

	last, ok := env.presenter.Last()
	require.True(t, ok)
	assert.Equal(t, ports.PresentLoading, last.Kind)
}

func TestActivate_SupersededBindingMergesWithoutPresenting(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	root := env.addWiki(t, "First")

	var noticeID valueobjects.NodeID
	env.fetcher.On("Fetch", mock.Anything, wikiURL("First"), 10).
		Run(func(mock.Arguments) {
			var err error
			noticeID, _, err = env.creator.AddNoticeNode(ctx, "Meanwhile", nil)
			require.NoError(t, err)
		}).
		Return(&ports.FetchResult{Title: "First article", Links: []ports.Link{{URL: wikiURL("Second")}}}, nil)

	presented, err := env.expansion.Activate(ctx, root, 0)

	require.NoError(t, err)
	assert.Nil(t, presented)

	node, err := env.ws.Node(root)
	require.NoError(t, err)
	assert.Equal(t, "First article", node.Label)
	assert.Len(t, env.ws.Snapshot().Edges, 1)

	active, ok := env.ws.ActiveNode()
	require.True(t, ok)
	assert.Equal(t, noticeID, active)
	last, _ := env.presenter.Last()
	assert.Equal(t, ports.PresentNotice, last.Kind)
}

func TestActivate_WebLabelIsKept(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id, _, err := env.creator.AddURLNode(ctx, "https://example.com/docs", "My docs", nil)
	require.NoError(t, err)

	env.fetcher.On("Fetch", mock.Anything, "https://example.com/docs", 10).
		Return(&ports.FetchResult{Title: "Example Domain Documentation"}, nil)

	_, err = env.expansion.Activate(ctx, id, 0)
	require.NoError(t, err)

	node, err := env.ws.Node(id)
	require.NoError(t, err)
	assert.Equal(t, "My docs", node.Label)
}

func TestActivate_LocalNodesNeedNoFetch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id, _, err := env.creator.AddNoticeNode(ctx, "Plan", nil)
	require.NoError(t, err)
	env.expansion.Close(ctx)

	presented, err := env.expansion.Activate(ctx, id, 0)

	require.NoError(t, err)
	require.NotNil(t, presented)
	assert.Equal(t, ports.PresentNotice, presented.Kind)
	require.NotNil(t, presented.Notice)
	assert.Equal(t, "Plan", presented.Notice.Title)
	env.fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything, mock.Anything)
}

func TestActivate_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.expansion.Activate(context.Background(), 3, 0)

	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestUpdateNotice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id, _, err := env.creator.AddNoticeNode(ctx, "Plan", nil)
	require.NoError(t, err)

	applied, err := env.expansion.UpdateNotice(ctx, id, "  ", "first draft")
	require.NoError(t, err)
	assert.True(t, applied)

	node, err := env.ws.Node(id)
	require.NoError(t, err)
	require.NotNil(t, node.Notice)
	assert.Equal(t, "Plan", node.Notice.Title)
	assert.Equal(t, "first draft", node.Notice.Body)

	applied, err = env.expansion.UpdateNotice(ctx, id, "Renamed", "second draft")
	require.NoError(t, err)
	assert.True(t, applied)
	node, err = env.ws.Node(id)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", node.Label)
}

func TestUpdateNotice_IgnoredWhenInactive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id, _, err := env.creator.AddNoticeNode(ctx, "Plan", nil)
	require.NoError(t, err)
	env.expansion.Close(ctx)

	applied, err := env.expansion.UpdateNotice(ctx, id, "Late", "late body")

	require.NoError(t, err)
	assert.False(t, applied)
	node, err := env.ws.Node(id)
	require.NoError(t, err)
	assert.Equal(t, "Plan", node.Label)
}

func TestUpdateNotice_RejectsOtherTypes(t *testing.T) {
	env := newTestEnv(t)
	id := env.addWiki(t, "Page")

	_, err := env.expansion.UpdateNotice(context.Background(), id, "x", "y")

	assert.True(t, pkgerrors.IsValidation(err))
}

func TestClose_ClearsSurface(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, _, err := env.creator.AddNoticeNode(ctx, "", nil)
	require.NoError(t, err)

	env.expansion.Close(ctx)

	_, ok := env.ws.ActiveNode()
	assert.False(t, ok)
	assert.Equal(t, 1, env.presenter.Cleared)
}
