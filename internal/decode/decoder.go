package decode

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"photosweep/internal/models"
)

// Decoder turns encoded image bytes into a pixel grid. Fingerprinting and
// sharpness scoring are pure functions of the decoded pixels, so how the
// decoding happens (stdlib codecs, GPU, external tool) is swappable.
type Decoder interface {
	Decode(data []byte) (image.Image, string, error)
}

// StdDecoder decodes via the registered stdlib and x/image codecs
// (jpeg, png, gif, webp).
type StdDecoder struct{}

// NewStdDecoder creates a new StdDecoder
func NewStdDecoder() *StdDecoder {
	return &StdDecoder{}
}

// Decode decodes image bytes and returns the image and its format name.
// Undecodable input is reported as ErrDecodeFailure.
func (d *StdDecoder) Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", models.ErrDecodeFailure, err)
	}
	return img, strings.ToLower(format), nil
}

// DecodeFile reads and decodes an image file.
func DecodeFile(d Decoder, path string) (image.Image, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return d.Decode(data)
}

// Resize scales src to exactly width x height using bilinear interpolation.
// The scaler is deterministic: identical input always yields identical output.
func Resize(src image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// Shrink scales src down so its longest side is at most maxDim, preserving
// aspect ratio. Images already within bounds are returned unchanged.
func Shrink(src image.Image, maxDim int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return src
	}

	if w >= h {
		h = h * maxDim / w
		w = maxDim
	} else {
		w = w * maxDim / h
		h = maxDim
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
