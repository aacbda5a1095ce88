// Package imaging decodes uploaded photos and prepares them for model input.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var (
	// ErrUnsupported indicates the bytes are not an image in a registered format.
	ErrUnsupported = errors.New("unsupported image format")
	// ErrTooLarge indicates the declared dimensions exceed the pixel budget.
	ErrTooLarge = errors.New("image dimensions too large")
)

// Decode reads a JPEG, PNG, GIF, or WebP image and reports its format name.
// The header is checked first, and images with more than maxPixels pixels
// are rejected before any pixel data is allocated. A maxPixels of zero or
// less disables the check.
func Decode(data []byte, maxPixels int) (image.Image, string, error) {
	if maxPixels > 0 {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, "", decodeError(err)
		}
		if cfg.Height > 0 && cfg.Width > maxPixels/cfg.Height {
			return nil, "", fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooLarge, cfg.Width, cfg.Height, maxPixels)
		}
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", decodeError(err)
	}
	return img, format, nil
}

func decodeError(err error) error {
	if errors.Is(err, image.ErrFormat) {
		return ErrUnsupported
	}
	return fmt.Errorf("decode image: %w", err)
}

// Square scales img to size x size with Catmull-Rom resampling. Aspect
// ratio is not preserved, matching the input a square-input image model
// expects.
func Square(img image.Image, size int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// EncodePNG returns img encoded as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
