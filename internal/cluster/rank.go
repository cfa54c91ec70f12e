package cluster

import (
	"sort"

	"photosweep/internal/models"
)

// KeepScore rates how worth keeping a photo is relative to its duplicates.
// Resolution dominates; format and metadata nudge the ranking between
// photos of the same size.
func KeepScore(rec *models.PhotoRecord) float64 {
	resolution := float64(rec.Width * rec.Height)
	return resolution * formatMultiplier(rec) * metadataMultiplier(rec.HasExif)
}

func formatMultiplier(rec *models.PhotoRecord) float64 {
	if rec.IsRaw {
		// The camera original carries the most information.
		return 1.3
	}
	switch rec.Format {
	case "png", "tiff", "bmp":
		return 1.2
	case "webp":
		return 1.1
	case "gif":
		return 0.9
	default:
		return 1.0
	}
}

func metadataMultiplier(hasExif bool) float64 {
	if hasExif {
		return 1.1
	}
	return 1.0
}

// Rank orders a group's photos best-first and records the winner's id.
// Ties fall through to file size, then modification time, then path, so
// the ordering is total and stable across runs.
func Rank(group *models.DuplicateGroup) {
	if group == nil || len(group.Photos) == 0 {
		return
	}

	sort.Slice(group.Photos, func(i, j int) bool {
		a, b := group.Photos[i], group.Photos[j]
		as, bs := KeepScore(a), KeepScore(b)
		if as != bs {
			return as > bs
		}
		if a.FileSize != b.FileSize {
			return a.FileSize > b.FileSize
		}
		if !a.ModTime.Equal(b.ModTime) {
			return a.ModTime.After(b.ModTime)
		}
		return a.Path < b.Path
	})

	group.KeepID = group.Photos[0].ID
	group.PhotoIDs = group.PhotoIDs[:0]
	for _, rec := range group.Photos {
		group.PhotoIDs = append(group.PhotoIDs, rec.ID)
	}
}
