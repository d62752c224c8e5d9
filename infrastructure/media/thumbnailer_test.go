package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/Apanazar/WGE/pkg/errors"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.NRGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeDataURL(t *testing.T, dataURL string) image.Image {
	t.Helper()
	const prefix = "data:image/jpeg;base64,"
	require.True(t, strings.HasPrefix(dataURL, prefix))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, prefix))
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return img
}

func TestThumbnail_Bounds(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantW, wantH  int
	}{
		{name: "wide", width: 400, height: 200, wantW: 200, wantH: 100},
		{name: "tall", width: 100, height: 300, wantW: 66, wantH: 200},
		{name: "square", width: 1000, height: 1000, wantW: 200, wantH: 200},
		{name: "small stays", width: 120, height: 40, wantW: 120, wantH: 40},
		{name: "thin line", width: 2000, height: 1, wantW: 200, wantH: 1},
	}

	thumbnailer := NewThumbnailer(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			thumb, err := thumbnailer.Thumbnail(context.Background(), encodePNG(t, tt.width, tt.height), 200, 80)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, tt.wantW, thumb.Width)
			assert.Equal(t, tt.wantH, thumb.Height)
			decoded := decodeDataURL(t, thumb.DataURL)
			assert.Equal(t, tt.wantW, decoded.Bounds().Dx())
			assert.Equal(t, tt.wantH, decoded.Bounds().Dy())
		})
	}
}

func TestThumbnail_GIF(t *testing.T) {
	palette := color.Palette{color.White, color.Black}
	img := image.NewPaletted(image.Rect(0, 0, 300, 150), palette)
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, img, nil))

	thumb, err := NewThumbnailer(nil).Thumbnail(context.Background(), buf.Bytes(), 200, 80)

	require.NoError(t, err)
	assert.Equal(t, 200, thumb.Width)
	assert.Equal(t, 100, thumb.Height)
}

func TestThumbnail_TransparentBecomesWhite(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	thumb, err := NewThumbnailer(nil).Thumbnail(context.Background(), buf.Bytes(), 200, 90)

	require.NoError(t, err)
	r, g, b, _ := decodeDataURL(t, thumb.DataURL).At(5, 5).RGBA()
	assert.Greater(t, r, uint32(0xf000))
	assert.Greater(t, g, uint32(0xf000))
	assert.Greater(t, b, uint32(0xf000))
}

func TestThumbnail_Errors(t *testing.T) {
	thumbnailer := NewThumbnailer(nil)

	_, err := thumbnailer.Thumbnail(context.Background(), []byte("definitely not an image"), 200, 80)
	assert.Error(t, err)

	_, err = thumbnailer.Thumbnail(context.Background(), encodePNG(t, 10, 10), 0, 80)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = thumbnailer.Thumbnail(ctx, encodePNG(t, 10, 10), 200, 80)
	assert.ErrorIs(t, err, context.Canceled)
}

// withDeclaredSize rewrites the IHDR dimensions of a PNG and fixes its CRC.
func withDeclaredSize(data []byte, w, h uint32) []byte {
	out := append([]byte(nil), data...)
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestThumbnail_RejectsOversizedDimensions(t *testing.T) {
	// Arrange
	thumbnailer := NewThumbnailer(nil)
	data := withDeclaredSize(encodePNG(t, 1, 1), 60000, 60000)

	// Act
	thumb, err := thumbnailer.Thumbnail(context.Background(), data, 200, 80)

	// Assert
	assert.Nil(t, thumb)
	assert.True(t, pkgerrors.IsValidation(err), "got %v", err)
}

func TestFitWithin(t *testing.T) {
	w, h := fitWithin(0, 0, 200)
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)

	w, h = fitWithin(201, 3, 200)
	assert.Equal(t, 200, w)
	assert.Equal(t, 2, h)
}
