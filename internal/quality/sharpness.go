// Package quality estimates photo quality: a gradient-based sharpness score
// for blur detection, plus an optional best-effort eye-state signal.
package quality

import (
	"image"
	"math"

	"photosweep/internal/decode"
)

// Default scoring parameters. Both are configuration, not algorithm
// constants: callers may override via options.
const (
	DefaultMaxDim = 800
	DefaultStride = 4
)

// Scorer computes a scalar sharpness estimate from decoded pixels.
// Higher means sharper; a perfectly flat image scores exactly 0.
type Scorer struct {
	maxDim int
	stride int
}

// ScorerOption configures a Scorer
type ScorerOption func(*Scorer)

// WithMaxDim bounds the working resolution (longest side) the image is
// downsampled to before scoring.
func WithMaxDim(n int) ScorerOption {
	return func(s *Scorer) {
		if n > 0 {
			s.maxDim = n
		}
	}
}

// WithStride sets the sampling stride in both axes.
func WithStride(n int) ScorerOption {
	return func(s *Scorer) {
		if n > 0 {
			s.stride = n
		}
	}
}

// NewScorer creates a new Scorer
func NewScorer(opts ...ScorerOption) *Scorer {
	s := &Scorer{
		maxDim: DefaultMaxDim,
		stride: DefaultStride,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score returns the root-mean-square gradient magnitude of the luminance
// plane, sampled every stride pixels with a 1-pixel border skipped.
func (s *Scorer) Score(img image.Image) float64 {
	img = decode.Shrink(img, s.maxDim)
	lum, w, h := luminancePlane(img)
	if w < 3 || h < 3 {
		return 0
	}

	var sum float64
	var count int
	for y := 1; y < h-1; y += s.stride {
		for x := 1; x < w-1; x += s.stride {
			c := lum[y*w+x]
			dx := lum[y*w+x+1] - c
			dy := lum[(y+1)*w+x] - c
			sum += dx*dx + dy*dy
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(count))
}

// IsBlurry compares a score against a caller-supplied threshold.
func (s *Scorer) IsBlurry(score, threshold float64) bool {
	return score < threshold
}

// luminancePlane converts an image to a flat row-major luma slice.
func luminancePlane(img image.Image) ([]float64, int, int) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	lum := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			lum[y*w+x] = 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(bl>>8)
		}
	}
	return lum, w, h
}
