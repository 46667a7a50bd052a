// Package imaging normalizes uploaded photos before they are sent to the
// remote synthesis service.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	_ "image/gif"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// The remote service rejects inputs below ~512px and wastes bandwidth
	// above ~1200px, so every prepared image lands inside these bounds where
	// the aspect ratio allows.
	MinDimension = 512
	MaxDimension = 1200

	jpegQuality = 90
)

// ErrUnsupportedImage indicates bytes that could not be decoded as an image.
var ErrUnsupportedImage = errors.New("imaging: unsupported image data")

// PrepareJPEG decodes raw image bytes, rescales them into the service bounds
// and re-encodes the result as a quality-90 JPEG.
func PrepareJPEG(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return nil, ErrUnsupportedImage
	}
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, ErrUnsupportedImage
	}

	newWidth, newHeight := targetSize(width, height)
	out := src
	if newWidth != width || newHeight != height {
		dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
		out = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("imaging: encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// targetSize picks a single scale factor honoring both bounds. When they
// conflict (a very elongated image), the minimum-size constraint wins so the
// short edge never drops below MinDimension.
func targetSize(width, height int) (int, int) {
	long := width
	short := height
	if height > width {
		long, short = height, width
	}

	ratio := 1.0
	if long > MaxDimension {
		ratio = float64(MaxDimension) / float64(long)
	}
	if float64(short)*ratio < MinDimension {
		ratio = float64(MinDimension) / float64(short)
	}

	newWidth := int(math.Round(float64(width) * ratio))
	newHeight := int(math.Round(float64(height) * ratio))
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}
	return newWidth, newHeight
}
