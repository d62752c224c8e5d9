package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Apanazar/WGE/application/ports"
	"github.com/Apanazar/WGE/application/ports/mocks"
	"github.com/Apanazar/WGE/domain/core/valueobjects"
	pkgerrors "github.com/Apanazar/WGE/pkg/errors"
)

func newUploadService(env *testEnv) (*UploadService, *mocks.MockThumbnailer) {
	thumbnailer := new(mocks.MockThumbnailer)
	return NewUploadService(env.ws, thumbnailer, nil), thumbnailer
}

func TestUploadAsNode_RejectsExecutables(t *testing.T) {
	for _, name := range []string{"malware.exe", "SETUP.MSI", "run.sh", "tool.jar"} {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t)
			uploads, thumbnailer := newUploadService(env)

			id, err := uploads.UploadAsNode(context.Background(), ports.UploadedFile{
				Name:      name,
				MediaType: "application/octet-stream",
				Data:      []byte("MZ"),
			}, nil)

			require.Error(t, err)
			assert.True(t, pkgerrors.IsRejectedUpload(err))
			assert.Equal(t, valueobjects.UnassignedNodeID, id)
			assert.Empty(t, env.ws.Snapshot().Nodes)
			assert.Empty(t, env.publisher.Events())
			thumbnailer.AssertNotCalled(t, "Thumbnail", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestUploadAsNode_Image(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	uploads, thumbnailer := newUploadService(env)
	data := []byte("fake png bytes")
	thumbnailer.On("Thumbnail", mock.Anything, data, 200, 80).Return(&ports.Thumbnail{
		DataURL: "data:image/jpeg;base64,AAAA",
		Width:   200,
		Height:  100,
	}, nil)

	// Act
	id, err := uploads.UploadAsNode(context.Background(), ports.UploadedFile{
		Name:      "holiday.png",
		MediaType: "image/png",
		Data:      data,
	}, valueobjects.NewPosition(10, 20))

	// Assert
	require.NoError(t, err)
	node, err := env.ws.Node(id)
	require.NoError(t, err)
	assert.Equal(t, valueobjects.NodeTypeImage, node.Type)
	assert.Equal(t, "", node.Label)
	require.NotNil(t, node.Media)
	assert.Equal(t, "data:image/jpeg;base64,AAAA", node.Media.Thumbnail)
	assert.True(t, strings.HasPrefix(node.Media.Data, "data:image/png;base64,"))
	assert.Equal(t, "holiday.png", node.Media.FileName)

	assert.JSONEq(t, `"image"`, string(node.Attributes["shape"]))
	assert.JSONEq(t, `"data:image/jpeg;base64,AAAA"`, string(node.Attributes["image"]))
	assert.JSONEq(t, `60`, string(node.Attributes["size"]))
	assert.Equal(t, valueobjects.Position{X: 10, Y: 20}, *node.Position)
	thumbnailer.AssertExpectations(t)
}

func TestUploadAsNode_UndecodableImage(t *testing.T) {
	env := newTestEnv(t)
	uploads, thumbnailer := newUploadService(env)
	thumbnailer.On("Thumbnail", mock.Anything, mock.Anything, 200, 80).Return(nil, errors.New("image: unknown format"))

	_, err := uploads.UploadAsNode(context.Background(), ports.UploadedFile{
		Name:      "broken.png",
		MediaType: "image/png",
		Data:      []byte("garbage"),
	}, nil)

	assert.True(t, pkgerrors.IsValidation(err))
	assert.Empty(t, env.ws.Snapshot().Nodes)
}

func TestUploadAsNode_Video(t *testing.T) {
	env := newTestEnv(t)
	uploads, _ := newUploadService(env)

	id, err := uploads.UploadAsNode(context.Background(), ports.UploadedFile{
		Name:      "a-very-long-holiday-video-name.mp4",
		MediaType: "video/mp4",
		Data:      []byte("....ftypmp42"),
	}, nil)

	require.NoError(t, err)
	node, err := env.ws.Node(id)
	require.NoError(t, err)
	assert.Equal(t, valueobjects.NodeTypeVideo, node.Type)
	assert.Equal(t, "a-very-long-holiday-video...", node.Label)
	assert.JSONEq(t, `"icon"`, string(node.Attributes["shape"]))

	var icon map[string]interface{}
	require.NoError(t, json.Unmarshal(node.Attributes["icon"], &icon))
	assert.Equal(t, videoIconColor, icon["color"])
}

func TestUploadAsNode_FileKinds(t *testing.T) {
	tests := []struct {
		name      string
		mediaType string
		kind      valueobjects.FileKind
	}{
		{name: "report.pdf", mediaType: "application/pdf", kind: valueobjects.FileKindPDF},
		{name: "notes.md", mediaType: "text/markdown", kind: valueobjects.FileKindText},
		{name: "budget.xlsx", mediaType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", kind: valueobjects.FileKindSpreadsheet},
		{name: "deck.pptx", mediaType: "application/vnd.openxmlformats-officedocument.presentationml.presentation", kind: valueobjects.FileKindPresentation},
		{name: "archive.zip", mediaType: "application/zip", kind: valueobjects.FileKindOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			uploads, _ := newUploadService(env)

			id, err := uploads.UploadAsNode(context.Background(), ports.UploadedFile{
				Name:      tt.name,
				MediaType: tt.mediaType,
				Data:      []byte("content"),
			}, nil)

			require.NoError(t, err)
			node, err := env.ws.Node(id)
			require.NoError(t, err)
			assert.Equal(t, valueobjects.NodeTypeFile, node.Type)
			assert.Equal(t, tt.name, node.Label)
			require.NotNil(t, node.Media)
			assert.Equal(t, tt.kind, node.Media.Kind)
			assert.JSONEq(t, string(fileColor(tt.kind)[attrColor]), string(node.Attributes[attrColor]))
		})
	}
}

func TestUploadAsNode_SniffsMissingMediaType(t *testing.T) {
	env := newTestEnv(t)
	uploads, _ := newUploadService(env)

	id, err := uploads.UploadAsNode(context.Background(), ports.UploadedFile{
		Name: "readme",
		Data: []byte("just some plain text"),
	}, nil)

	require.NoError(t, err)
	node, err := env.ws.Node(id)
	require.NoError(t, err)
	require.NotNil(t, node.Media)
	assert.Equal(t, "text/plain", node.Media.MediaType)
	assert.Equal(t, valueobjects.FileKindText, node.Media.Kind)
}

func TestUploadAsNode_EmptyFile(t *testing.T) {
	env := newTestEnv(t)
	uploads, _ := newUploadService(env)

	_, err := uploads.UploadAsNode(context.Background(), ports.UploadedFile{Name: "empty.txt"}, nil)

	assert.True(t, pkgerrors.IsValidation(err))
}

func TestUploadMany_OffsetsAndContinuesPastRejections(t *testing.T) {
	env := newTestEnv(t)
	uploads, _ := newUploadService(env)

	outcomes := uploads.UploadMany(context.Background(), []ports.UploadedFile{
		{Name: "a.txt", MediaType: "text/plain", Data: []byte("a")},
		{Name: "bad.bat", MediaType: "text/plain", Data: []byte("b")},
		{Name: "c.txt", MediaType: "text/plain", Data: []byte("c")},
	}, valueobjects.Position{X: 100, Y: 100})

	require.Len(t, outcomes, 3)
	assert.Empty(t, outcomes[0].Error)
	assert.Equal(t, RejectedUploadMessage, outcomes[1].Error)
	assert.Empty(t, outcomes[2].Error)

	first, err := env.ws.Node(outcomes[0].NodeID)
	require.NoError(t, err)
	third, err := env.ws.Node(outcomes[2].NodeID)
	require.NoError(t, err)
	assert.Equal(t, valueobjects.Position{X: 100, Y: 100}, *first.Position)
	assert.Equal(t, valueobjects.Position{X: 160, Y: 160}, *third.Position)
	assert.Len(t, env.ws.Snapshot().Nodes, 2)
}
