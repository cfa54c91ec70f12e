package fingerprint

import (
	"fmt"
	"image"

	"github.com/corona10/goimagehash"

	"photosweep/internal/models"
)

// Algorithm names a fingerprinting strategy.
type Algorithm string

const (
	// AlgorithmDHash is the default difference hash.
	AlgorithmDHash Algorithm = "dhash"
	// AlgorithmPHash is a DCT-based perception hash. Slower, somewhat more
	// robust against re-encoding artifacts.
	AlgorithmPHash Algorithm = "phash"
)

// ParseAlgorithm validates an algorithm name from configuration.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(name) {
	case AlgorithmDHash, AlgorithmPHash:
		return Algorithm(name), nil
	default:
		return "", fmt.Errorf("unknown fingerprint algorithm %q (want dhash or phash)", name)
	}
}

// Compute fingerprints a decoded image with the given algorithm.
func Compute(alg Algorithm, img image.Image) (uint64, error) {
	switch alg {
	case AlgorithmPHash:
		h, err := goimagehash.PerceptionHash(img)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", models.ErrDecodeFailure, err)
		}
		return h.GetHash(), nil
	default:
		return DHash(img), nil
	}
}
