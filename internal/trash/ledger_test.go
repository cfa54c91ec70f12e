package trash

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"photosweep/internal/models"
)

func testClock() func() time.Time {
	t := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	return func() time.Time { return t }
}

func newTestLedger(t *testing.T, fs afero.Fs) *Ledger {
	t.Helper()
	ledger, err := NewLedger(fs, "/project", WithClock(testClock()))
	if err != nil {
		t.Fatalf("NewLedger failed: %v", err)
	}
	return ledger
}

func writePhoto(t *testing.T, fs afero.Fs, path, content string) *models.PhotoRecord {
	t.Helper()
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	return &models.PhotoRecord{
		ID:       "id-" + filepath.Base(path),
		Path:     path,
		Filename: filepath.Base(path),
		FileSize: int64(len(content)),
	}
}

func TestMoveToTrash_WritesSidecarAfterMove(t *testing.T) {
	fs := afero.NewMemMapFs()
	ledger := newTestLedger(t, fs)
	rec := writePhoto(t, fs, "/project/photos/a.jpg", "jpeg bytes")

	entries := ledger.MoveToTrash([]*models.PhotoRecord{rec})
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	entry := entries[0]

	// Source is gone, temp file exists.
	if _, err := fs.Stat(rec.Path); err == nil {
		t.Error("source file still exists after trash move")
	}
	if _, err := fs.Stat(entry.TempPath); err != nil {
		t.Errorf("temp file missing: %v", err)
	}

	// Temp name is timestamp-prefixed.
	base := filepath.Base(entry.TempPath)
	wantPrefix := "1773500966000_" // 2026-03-14T15:09:26Z in epoch millis
	if !strings.HasPrefix(base, wantPrefix) {
		t.Errorf("temp name %q lacks epoch millis prefix %q", base, wantPrefix)
	}

	// Sidecar exists and round-trips the entry.
	sidecar := entry.TempPath + SidecarSuffix
	data, err := afero.ReadFile(fs, sidecar)
	if err != nil {
		t.Fatalf("sidecar missing: %v", err)
	}
	var decoded models.TrashEntry
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sidecar not valid JSON: %v", err)
	}
	if decoded.ID != rec.ID || decoded.OriginalPath != rec.Path {
		t.Errorf("sidecar content mismatch: %+v", decoded)
	}
	if decoded.Size != int64(len("jpeg bytes")) {
		t.Errorf("sidecar size = %d, want %d", decoded.Size, len("jpeg bytes"))
	}
	if decoded.DeletedAt.IsZero() {
		t.Error("sidecar deletedAt is zero")
	}
}

func TestMoveToTrash_StripsPairTag(t *testing.T) {
	fs := afero.NewMemMapFs()
	ledger := newTestLedger(t, fs)
	rec := writePhoto(t, fs, "/project/photos/shot.nef", "raw bytes")
	rec.Filename = "shot.nef" + models.PairTag

	entries := ledger.MoveToTrash([]*models.PhotoRecord{rec})
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Filename != "shot.nef" {
		t.Errorf("entry filename = %q, want pair tag stripped", entries[0].Filename)
	}
	if strings.Contains(entries[0].TempPath, models.PairTag) {
		t.Errorf("temp path %q contains pair tag", entries[0].TempPath)
	}
}

func TestMoveToTrash_PartialFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	ledger := newTestLedger(t, fs)
	existing := writePhoto(t, fs, "/project/photos/real.jpg", "data")
	missing := &models.PhotoRecord{
		ID:       "id-missing",
		Path:     "/project/photos/gone.jpg",
		Filename: "gone.jpg",
	}

	entries := ledger.MoveToTrash([]*models.PhotoRecord{existing, missing})

	if len(entries) != 1 {
		t.Fatalf("got %d entries, want exactly 1", len(entries))
	}
	if entries[0].ID != existing.ID {
		t.Errorf("entry id = %q, want %q", entries[0].ID, existing.ID)
	}
}

func TestMoveToTrash_NameCollision(t *testing.T) {
	fs := afero.NewMemMapFs()
	ledger := newTestLedger(t, fs)
	// Same filename in two directories; fixed clock forces a collision.
	a := writePhoto(t, fs, "/project/one/dup.jpg", "aaa")
	b := writePhoto(t, fs, "/project/two/dup.jpg", "bbb")

	entries := ledger.MoveToTrash([]*models.PhotoRecord{a, b})
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].TempPath == entries[1].TempPath {
		t.Errorf("colliding temp paths: %q", entries[0].TempPath)
	}
}

func TestRestore_RoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	ledger := newTestLedger(t, fs)
	rec := writePhoto(t, fs, "/project/photos/a.jpg", "jpeg bytes")

	entries := ledger.MoveToTrash([]*models.PhotoRecord{rec})
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}

	restored, err := ledger.Restore([]string{rec.ID})
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if restored != 1 {
		t.Errorf("restored = %d, want 1", restored)
	}

	// File is back at the original path with the original content.
	data, err := afero.ReadFile(fs, rec.Path)
	if err != nil {
		t.Fatalf("restored file missing: %v", err)
	}
	if string(data) != "jpeg bytes" {
		t.Errorf("restored content = %q", data)
	}

	// No temp file, no sidecar left behind.
	if _, err := fs.Stat(entries[0].TempPath); err == nil {
		t.Error("temp file still present after restore")
	}
	status, err := ledger.Status()
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if len(status.Entries) != 0 {
		t.Errorf("trash still holds %d entries after restore", len(status.Entries))
	}
	if len(status.Warnings) != 0 {
		t.Errorf("unexpected warnings after clean restore: %v", status.Warnings)
	}
}

func TestRestore_UnknownIDIsNoOp(t *testing.T) {
	fs := afero.NewMemMapFs()
	ledger := newTestLedger(t, fs)
	rec := writePhoto(t, fs, "/project/photos/a.jpg", "data")
	ledger.MoveToTrash([]*models.PhotoRecord{rec})

	restored, err := ledger.Restore([]string{"no-such-id", rec.ID})
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if restored != 1 {
		t.Errorf("restored = %d, want 1", restored)
	}
}

func TestEmpty_CountsOrphanedSidecar(t *testing.T) {
	fs := afero.NewMemMapFs()
	ledger := newTestLedger(t, fs)

	// Two real entries.
	a := writePhoto(t, fs, "/project/photos/a.jpg", "aaa")
	b := writePhoto(t, fs, "/project/photos/b.jpg", "bbb")
	ledger.MoveToTrash([]*models.PhotoRecord{a, b})

	// One orphaned sidecar with no backing file.
	orphan := models.TrashEntry{
		ID:           "orphan",
		OriginalPath: "/project/photos/c.jpg",
		Filename:     "c.jpg",
		TempPath:     filepath.Join(ledger.Dir(), "999_c.jpg"),
	}
	data, _ := json.Marshal(orphan)
	sidecar := filepath.Join(ledger.Dir(), "999_c.jpg"+SidecarSuffix)
	if err := afero.WriteFile(fs, sidecar, data, 0644); err != nil {
		t.Fatalf("failed to plant orphan sidecar: %v", err)
	}

	result, err := ledger.Empty()
	if err != nil {
		t.Fatalf("Empty failed: %v", err)
	}

	if result.Deleted != 2 {
		t.Errorf("Deleted = %d, want 2", result.Deleted)
	}
	if result.Failed != 1 {
		t.Errorf("Failed = %d, want 1", result.Failed)
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "sidecar without backing file") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings %v missing orphan report", result.Warnings)
	}

	// Trash directory is fully drained.
	status, err := ledger.Status()
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if len(status.Entries) != 0 || status.TotalSize != 0 {
		t.Errorf("trash not empty after Empty: %+v", status)
	}
}

func TestStatus_ReportsFileWithoutSidecar(t *testing.T) {
	fs := afero.NewMemMapFs()
	ledger := newTestLedger(t, fs)

	// A stray file in the trash dir with no sidecar violates the pairing
	// invariant and must be surfaced, not silently accepted.
	stray := filepath.Join(ledger.Dir(), "123_stray.jpg")
	if err := afero.WriteFile(fs, stray, []byte("x"), 0644); err != nil {
		t.Fatalf("failed to plant stray file: %v", err)
	}

	status, err := ledger.Status()
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if len(status.Warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", status.Warnings)
	}
	if !strings.Contains(status.Warnings[0], "without sidecar") {
		t.Errorf("warning %q does not name the missing sidecar", status.Warnings[0])
	}
}

func TestStatus_ReadsDirectoryFresh(t *testing.T) {
	fs := afero.NewMemMapFs()
	ledger := newTestLedger(t, fs)
	rec := writePhoto(t, fs, "/project/photos/a.jpg", "12345")
	ledger.MoveToTrash([]*models.PhotoRecord{rec})

	// A second ledger over the same directory sees the same state: the
	// sidecars on disk are the source of truth, not any in-memory list.
	other := newTestLedger(t, fs)
	status, err := other.Status()
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if len(status.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(status.Entries))
	}
	if status.TotalSize != 5 {
		t.Errorf("TotalSize = %d, want 5", status.TotalSize)
	}
	if status.Entries[0].ID != rec.ID {
		t.Errorf("entry id = %q, want %q", status.Entries[0].ID, rec.ID)
	}
}
