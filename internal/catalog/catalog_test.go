package catalog

import (
	"path/filepath"
	"testing"
	"time"

	"photosweep/internal/models"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func testRecord(id, path string) *models.PhotoRecord {
	return &models.PhotoRecord{
		ID:        id,
		Path:      path,
		Filename:  filepath.Base(path),
		FileSize:  1234,
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		ModTime:   time.Date(2026, 1, 2, 3, 4, 6, 0, time.UTC),
		Format:    "jpeg",
		Width:     1920,
		Height:    1080,
		Hash:      0xDEADBEEFCAFEF00D,
		HashHex:   "deadbeefcafef00d",
		HashFrom:  models.HashSourcePixels,
		Sharpness: 14.5,
	}
}

func TestSaveAndLoadPhotos(t *testing.T) {
	c := testCatalog(t)

	rec := testRecord("p1", "/photos/a.jpg")
	rec.IsRaw = false
	rec.Blurry = true
	if err := c.SavePhotos([]*models.PhotoRecord{rec}); err != nil {
		t.Fatalf("SavePhotos failed: %v", err)
	}

	records, err := c.AllPhotos()
	if err != nil {
		t.Fatalf("AllPhotos failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	got := records[0]
	if got.ID != rec.ID || got.Path != rec.Path {
		t.Errorf("identity mismatch: %+v", got)
	}
	if got.Hash != rec.Hash {
		t.Errorf("hash = %016x, want %016x", got.Hash, rec.Hash)
	}
	if got.HashHex != rec.HashHex {
		t.Errorf("hash hex = %q, want %q", got.HashHex, rec.HashHex)
	}
	if got.HashFrom != models.HashSourcePixels {
		t.Errorf("hash source = %q, want pixels", got.HashFrom)
	}
	if !got.Blurry {
		t.Error("blurry flag lost")
	}
	if got.Sharpness != rec.Sharpness {
		t.Errorf("sharpness = %f, want %f", got.Sharpness, rec.Sharpness)
	}
	if !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Errorf("created = %v, want %v", got.CreatedAt, rec.CreatedAt)
	}
}

func TestSavePhotos_UpsertByPath(t *testing.T) {
	c := testCatalog(t)

	rec := testRecord("p1", "/photos/a.jpg")
	if err := c.SavePhotos([]*models.PhotoRecord{rec}); err != nil {
		t.Fatalf("SavePhotos failed: %v", err)
	}

	// Re-saving the same path replaces the row.
	rec.Sharpness = 99
	if err := c.SavePhotos([]*models.PhotoRecord{rec}); err != nil {
		t.Fatalf("SavePhotos failed: %v", err)
	}

	records, err := c.AllPhotos()
	if err != nil {
		t.Fatalf("AllPhotos failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records after upsert, want 1", len(records))
	}
	if records[0].Sharpness != 99 {
		t.Errorf("sharpness = %f, want 99", records[0].Sharpness)
	}
}

func TestUpdateGroups_ReplacesAssignments(t *testing.T) {
	c := testCatalog(t)

	a := testRecord("a", "/photos/a.jpg")
	b := testRecord("b", "/photos/b.jpg")
	x := testRecord("x", "/photos/x.jpg")
	if err := c.SavePhotos([]*models.PhotoRecord{a, b, x}); err != nil {
		t.Fatalf("SavePhotos failed: %v", err)
	}

	groups := []*models.DuplicateGroup{{ID: 1, PhotoIDs: []string{"a", "b"}}}
	if err := c.UpdateGroups(groups); err != nil {
		t.Fatalf("UpdateGroups failed: %v", err)
	}

	loaded, err := c.DuplicateGroups()
	if err != nil {
		t.Fatalf("DuplicateGroups failed: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("got %d groups, want 1", len(loaded))
	}
	if len(loaded[0].Photos) != 2 {
		t.Errorf("group size %d, want 2", len(loaded[0].Photos))
	}

	// A new clustering with no groups clears everything.
	if err := c.UpdateGroups(nil); err != nil {
		t.Fatalf("UpdateGroups(nil) failed: %v", err)
	}
	loaded, err = c.DuplicateGroups()
	if err != nil {
		t.Fatalf("DuplicateGroups failed: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("got %d groups after reset, want 0", len(loaded))
	}
}

func TestPhotoByID(t *testing.T) {
	c := testCatalog(t)

	rec := testRecord("p1", "/photos/a.jpg")
	if err := c.SavePhotos([]*models.PhotoRecord{rec}); err != nil {
		t.Fatalf("SavePhotos failed: %v", err)
	}

	got, err := c.PhotoByID("p1")
	if err != nil {
		t.Fatalf("PhotoByID failed: %v", err)
	}
	if got == nil || got.Path != rec.Path {
		t.Errorf("PhotoByID = %+v, want %s", got, rec.Path)
	}

	got, err = c.PhotoByID("missing")
	if err != nil {
		t.Fatalf("PhotoByID failed: %v", err)
	}
	if got != nil {
		t.Errorf("PhotoByID(missing) = %+v, want nil", got)
	}
}

func TestDeletePhoto(t *testing.T) {
	c := testCatalog(t)

	if err := c.SavePhotos([]*models.PhotoRecord{testRecord("p1", "/photos/a.jpg")}); err != nil {
		t.Fatalf("SavePhotos failed: %v", err)
	}
	if err := c.DeletePhoto("p1"); err != nil {
		t.Fatalf("DeletePhoto failed: %v", err)
	}

	records, err := c.AllPhotos()
	if err != nil {
		t.Fatalf("AllPhotos failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records after delete, want 0", len(records))
	}
}

func TestRecordScan(t *testing.T) {
	c := testCatalog(t)

	result := &models.ScanResult{
		Root:            "/photos",
		TotalScanned:    10,
		TotalGroups:     2,
		TotalDuplicates: 3,
		TotalBlurry:     1,
	}
	if err := c.RecordScan("/photos", result, 90); err != nil {
		t.Fatalf("RecordScan failed: %v", err)
	}
}

func TestOpen_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "catalog.db")

	c, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := c.SavePhotos([]*models.PhotoRecord{testRecord("p1", "/photos/a.jpg")}); err != nil {
		t.Fatalf("SavePhotos failed: %v", err)
	}
	c.Close()

	// Reopening runs migrations idempotently and keeps the data.
	c2, err := Open(dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer c2.Close()

	records, err := c2.AllPhotos()
	if err != nil {
		t.Fatalf("AllPhotos failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("got %d records after reopen, want 1", len(records))
	}
}
