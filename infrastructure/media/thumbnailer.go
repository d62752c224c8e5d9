// Package media produces previews for uploaded images.
package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"go.uber.org/zap"

	"github.com/Apanazar/WGE/application/ports"
	pkgerrors "github.com/Apanazar/WGE/pkg/errors"
)

// maxSourcePixels bounds the decoded size of an upload. Headers are checked
// before any pixel data is allocated.
const maxSourcePixels = 50_000_000

// Thumbnailer implements ports.Thumbnailer. Any format registered with the
// image package decodes; the preview is always a JPEG.
type Thumbnailer struct {
	scaler draw.Scaler
	logger *zap.Logger
}

// NewThumbnailer creates a thumbnailer using Catmull-Rom resampling
func NewThumbnailer(logger *zap.Logger) *Thumbnailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Thumbnailer{scaler: draw.CatmullRom, logger: logger}
}

// Thumbnail decodes data and scales it so neither side exceeds maxSize.
// Smaller images keep their size. quality is the JPEG quality (1..100).
func (t *Thumbnailer) Thumbnail(ctx context.Context, data []byte, maxSize, quality int) (*ports.Thumbnail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if maxSize <= 0 {
		return nil, fmt.Errorf("invalid thumbnail size %d", maxSize)
	}

	header, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if header.Width <= 0 || header.Height <= 0 || int64(header.Width)*int64(header.Height) > maxSourcePixels {
		return nil, pkgerrors.NewValidationError(
			fmt.Sprintf("image is %dx%d pixels, above the %d pixel limit", header.Width, header.Height, maxSourcePixels))
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := src.Bounds()
	width, height := fitWithin(bounds.Dx(), bounds.Dy(), maxSize)

	// JPEG has no alpha, so transparent pixels land on white.
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	t.scaler.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: clampQuality(quality)}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	t.logger.Debug("Thumbnail created",
		zap.String("format", format),
		zap.Int("sourceWidth", bounds.Dx()),
		zap.Int("sourceHeight", bounds.Dy()),
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Int("bytes", buf.Len()),
	)

	return &ports.Thumbnail{
		DataURL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		Width:   width,
		Height:  height,
	}, nil
}

// fitWithin scales w x h down to fit a maxSize square, keeping the aspect
// ratio. Neither side drops below one pixel.
func fitWithin(w, h, maxSize int) (int, int) {
	if w <= maxSize && h <= maxSize {
		return max(w, 1), max(h, 1)
	}
	if w >= h {
		return maxSize, max(h*maxSize/w, 1)
	}
	return max(w*maxSize/h, 1), maxSize
}

func clampQuality(q int) int {
	switch {
	case q < 1:
		return jpeg.DefaultQuality
	case q > 100:
		return 100
	default:
		return q
	}
}
