// Package preview extracts embedded compressed preview images out of
// proprietary RAW camera containers. The container is treated as an opaque
// byte stream: no sensor data is ever decoded, only the standard preview
// images most manufacturers embed alongside it.
package preview

import (
	"bytes"
	"fmt"
	"os"

	"photosweep/internal/models"
)

// MinPreviewSize is the smallest marker-delimited span accepted as a
// preview candidate. Anything smaller is a decorative metadata thumbnail.
const MinPreviewSize = 1024

var (
	soiMarker = []byte{0xFF, 0xD8} // start of image
	eoiMarker = []byte{0xFF, 0xD9} // end of image
)

// ExtractBestPreview scans buf for marker-delimited compressed image spans
// and returns the largest one above MinPreviewSize. Cameras typically embed
// a small EXIF thumbnail plus a larger full-resolution preview; the largest
// span best approximates full-resolution quality.
//
// The returned bytes are not validated: the caller must attempt to decode
// them and treat a decode failure the same as ErrPreviewNotFound.
func ExtractBestPreview(buf []byte) (*models.ExtractedPreview, error) {
	var best *models.ExtractedPreview

	for start := 0; start < len(buf); {
		i := bytes.Index(buf[start:], soiMarker)
		if i < 0 {
			break
		}
		i += start

		j := bytes.Index(buf[i+2:], eoiMarker)
		if j < 0 {
			break
		}
		end := i + 2 + j + 2

		if length := end - i; length > MinPreviewSize && (best == nil || length > best.Length) {
			best = &models.ExtractedPreview{
				Data:   buf[i:end],
				Length: length,
				Start:  i,
				End:    end,
			}
		}

		start = i + 2
	}

	if best == nil {
		return nil, models.ErrPreviewNotFound
	}
	return best, nil
}

// ExtractFromFile reads a RAW container from disk and extracts its best
// embedded preview.
func ExtractFromFile(path string) (*models.ExtractedPreview, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ExtractBestPreview(data)
}
