package pipeline

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"photosweep/internal/preview"
	"photosweep/internal/trash"
)

// photoExts are the directly decodable photo extensions.
var photoExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// IsSupportedPhoto reports whether the path is a decodable photo or a
// known RAW container.
func IsSupportedPhoto(path string) bool {
	if photoExts[strings.ToLower(filepath.Ext(path))] {
		return true
	}
	return preview.IsRawFile(path)
}

// WalkEnumerator is the default Enumerator: a recursive directory walk
// filtered to supported photo types. Per-entry walk errors are skipped so
// one unreadable subtree never aborts enumeration.
type WalkEnumerator struct{}

// Enumerate lists supported photo paths under root. The project's own
// trash and thumbnail directories are excluded.
func (w *WalkEnumerator) Enumerate(ctx context.Context, root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			switch d.Name() {
			case trash.DirName, ThumbDirName:
				return filepath.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if IsSupportedPhoto(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}
