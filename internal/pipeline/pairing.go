package pipeline

import (
	"path/filepath"
	"strings"

	"photosweep/internal/models"
)

// pairRawWithJpeg links RAW files to a JPEG sibling sharing the same base
// name in the same directory. The RAW side gets the sibling's path and a
// decorated display filename; its fingerprint is later copied from the
// JPEG instead of being computed independently.
func pairRawWithJpeg(records []*models.PhotoRecord) {
	jpegByBase := make(map[string]*models.PhotoRecord)
	for _, rec := range records {
		if rec.IsRaw {
			continue
		}
		if rec.Format == "jpeg" {
			jpegByBase[baseKey(rec.Path)] = rec
		}
	}

	for _, rec := range records {
		if !rec.IsRaw {
			continue
		}
		if jpg, ok := jpegByBase[baseKey(rec.Path)]; ok {
			rec.PairedPath = jpg.Path
			rec.Filename = filepath.Base(rec.Path) + models.PairTag
		}
	}
}

// baseKey is the case-insensitive pairing key: directory plus filename
// without extension.
func baseKey(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(path), strings.ToLower(base))
}
