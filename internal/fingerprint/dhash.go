// Package fingerprint computes 64-bit perceptual fingerprints for photos.
// The default algorithm is a difference hash over a 9x8 luminance grid: it
// captures relative gradient direction rather than absolute values, so it
// tolerates exposure and compression differences but not rotation or crop.
package fingerprint

import (
	"crypto/sha256"
	"encoding/binary"
	"image"
	"math"

	"photosweep/internal/decode"
	"photosweep/internal/models"
)

// dHash grid: 9 columns produce 8 horizontal comparisons per row.
const (
	dhashCols = 9
	dhashRows = 8
)

// DHash computes the 64-bit difference hash of a decoded image.
// Deterministic: byte-identical input always yields the same hash.
func DHash(img image.Image) uint64 {
	small := decode.Resize(img, dhashCols, dhashRows)

	var lum [dhashRows][dhashCols]uint8
	for y := 0; y < dhashRows; y++ {
		for x := 0; x < dhashCols; x++ {
			r, g, b, _ := small.At(x, y).RGBA()
			lum[y][x] = luminance(uint8(r>>8), uint8(g>>8), uint8(b>>8))
		}
	}

	// Row-major: bit is 1 iff luminance strictly increases left to right.
	var hash uint64
	for y := 0; y < dhashRows; y++ {
		for x := 0; x < dhashCols-1; x++ {
			hash <<= 1
			if lum[y][x] < lum[y][x+1] {
				hash |= 1
			}
		}
	}
	return hash
}

// luminance converts an RGB sample to rounded ITU-R BT.601 luma.
func luminance(r, g, b uint8) uint8 {
	y := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
	return uint8(math.Round(y))
}

// Checksum derives a last-resort 64-bit fingerprint from raw file bytes.
// Used only when the image cannot be decoded; two such fingerprints compare
// equal exactly when the files are byte-identical, nothing more.
func Checksum(data []byte) uint64 {
	sum := sha256.Sum256(data)
	return binary.BigEndian.Uint64(sum[:8])
}

// HammingDistance counts differing bits between two 64-bit fingerprints.
func HammingDistance(a, b uint64) int {
	xor := a ^ b
	count := 0
	for xor != 0 {
		count++
		xor &= xor - 1
	}
	return count
}

// Similarity maps a fingerprint pair to a percentage: 100 for identical
// hashes, decreasing strictly as Hamming distance grows.
func Similarity(a, b uint64) float64 {
	d := HammingDistance(a, b)
	return 100 * float64(models.HashBits-d) / float64(models.HashBits)
}
