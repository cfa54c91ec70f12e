package cluster

import (
	"testing"
	"time"

	"photosweep/internal/models"
)

func TestKeepScore(t *testing.T) {
	tests := []struct {
		name string
		rec  *models.PhotoRecord
		want float64
	}{
		{
			name: "plain jpeg",
			rec:  &models.PhotoRecord{Width: 100, Height: 100, Format: "jpeg"},
			want: 10000,
		},
		{
			name: "png scores above jpeg at equal resolution",
			rec:  &models.PhotoRecord{Width: 100, Height: 100, Format: "png"},
			want: 12000,
		},
		{
			name: "exif adds weight",
			rec:  &models.PhotoRecord{Width: 100, Height: 100, Format: "jpeg", HasExif: true},
			want: 11000,
		},
		{
			name: "raw outranks every compressed format",
			rec:  &models.PhotoRecord{Width: 100, Height: 100, Format: "nef", IsRaw: true},
			want: 13000,
		},
		{
			name: "zero dimensions",
			rec:  &models.PhotoRecord{Format: "jpeg"},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KeepScore(tt.rec); got != tt.want {
				t.Errorf("KeepScore() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestRank_BestFirst(t *testing.T) {
	big := &models.PhotoRecord{ID: "big", Path: "/p/big.jpg", Format: "jpeg", Width: 4000, Height: 3000}
	small := &models.PhotoRecord{ID: "small", Path: "/p/small.jpg", Format: "jpeg", Width: 800, Height: 600}

	group := &models.DuplicateGroup{
		ID:       1,
		PhotoIDs: []string{"small", "big"},
		Photos:   []*models.PhotoRecord{small, big},
	}
	Rank(group)

	if group.KeepID != "big" {
		t.Errorf("KeepID = %q, want big", group.KeepID)
	}
	if group.Photos[0].ID != "big" {
		t.Errorf("photos[0] = %q, want big", group.Photos[0].ID)
	}
	if len(group.PhotoIDs) != 2 || group.PhotoIDs[0] != "big" || group.PhotoIDs[1] != "small" {
		t.Errorf("PhotoIDs = %v, want [big small]", group.PhotoIDs)
	}
}

func TestRank_TieBreaks(t *testing.T) {
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	// Same score: larger file wins.
	a := &models.PhotoRecord{ID: "a", Path: "/p/a.jpg", Format: "jpeg", Width: 100, Height: 100, FileSize: 2000, ModTime: base}
	b := &models.PhotoRecord{ID: "b", Path: "/p/b.jpg", Format: "jpeg", Width: 100, Height: 100, FileSize: 1000, ModTime: base}
	group := &models.DuplicateGroup{Photos: []*models.PhotoRecord{b, a}}
	Rank(group)
	if group.KeepID != "a" {
		t.Errorf("size tie-break: KeepID = %q, want a", group.KeepID)
	}

	// Same score and size: newer file wins.
	c := &models.PhotoRecord{ID: "c", Path: "/p/c.jpg", Format: "jpeg", Width: 100, Height: 100, FileSize: 1000, ModTime: base.Add(time.Hour)}
	d := &models.PhotoRecord{ID: "d", Path: "/p/d.jpg", Format: "jpeg", Width: 100, Height: 100, FileSize: 1000, ModTime: base}
	group = &models.DuplicateGroup{Photos: []*models.PhotoRecord{d, c}}
	Rank(group)
	if group.KeepID != "c" {
		t.Errorf("mtime tie-break: KeepID = %q, want c", group.KeepID)
	}

	// Everything equal: path order decides, so the result is stable.
	e := &models.PhotoRecord{ID: "e", Path: "/p/1.jpg", Format: "jpeg", Width: 100, Height: 100, FileSize: 1000, ModTime: base}
	f := &models.PhotoRecord{ID: "f", Path: "/p/2.jpg", Format: "jpeg", Width: 100, Height: 100, FileSize: 1000, ModTime: base}
	group = &models.DuplicateGroup{Photos: []*models.PhotoRecord{f, e}}
	Rank(group)
	if group.KeepID != "e" {
		t.Errorf("path tie-break: KeepID = %q, want e", group.KeepID)
	}
}

func TestRank_EmptyGroup(t *testing.T) {
	Rank(nil)
	Rank(&models.DuplicateGroup{})
}
