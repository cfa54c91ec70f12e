// Package trash manages the reversible deletion lifecycle for a project:
// Active -> Trashed -> Restored or Purged. Every trashed file gets a JSON
// sidecar in the project trash directory; the sidecars are the only durable
// state, and every operation re-reads them rather than trusting a cache, so
// restarts and concurrent process instances see a consistent view.
package trash

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"

	"photosweep/internal/models"
)

// DirName is the trash directory created beside the scanned project root.
const DirName = ".photosweep-trash"

// SidecarSuffix marks sidecar metadata files inside the trash directory.
const SidecarSuffix = ".metadata.json"

// Ledger moves files into and out of a project trash directory. The
// filesystem is injected so tests can run against an in-memory fs.
type Ledger struct {
	fs     afero.Fs
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Ledger
type Option func(*Ledger)

// WithLogger sets the logger used for per-item failures.
func WithLogger(l *slog.Logger) Option {
	return func(t *Ledger) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithClock overrides the timestamp source, for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Ledger) {
		if now != nil {
			t.now = now
		}
	}
}

// NewLedger creates a Ledger rooted at projectRoot. The trash directory is
// created on demand; failure to create it is a structural error.
func NewLedger(fs afero.Fs, projectRoot string, opts ...Option) (*Ledger, error) {
	dir := filepath.Join(projectRoot, DirName)
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create trash directory: %w", err)
	}

	t := &Ledger{
		fs:     fs,
		dir:    dir,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Dir returns the trash directory path.
func (t *Ledger) Dir() string {
	return t.dir
}

// MoveToTrash moves each record's file into the trash directory and writes
// its sidecar. Records are handled independently: a missing source or a
// failed move is logged and excluded from the result, never batch-fatal.
// The sidecar is written only after the move succeeded.
func (t *Ledger) MoveToTrash(records []*models.PhotoRecord) []*models.TrashEntry {
	var entries []*models.TrashEntry

	for _, rec := range records {
		entry, err := t.moveOne(rec)
		if err != nil {
			t.logger.Warn("skipping trash move", "path", rec.Path, "error", err)
			continue
		}
		entries = append(entries, entry)
	}

	return entries
}

func (t *Ledger) moveOne(rec *models.PhotoRecord) (*models.TrashEntry, error) {
	src, err := filepath.Abs(rec.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := t.fs.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrSourceMissing, src)
	}

	name := models.StripPairTag(rec.Filename)
	if name == "" {
		name = filepath.Base(src)
	}

	deletedAt := t.now()
	destName := t.uniqueName(fmt.Sprintf("%d_%s", deletedAt.UnixMilli(), name))
	tempPath := filepath.Join(t.dir, destName)

	if err := t.move(src, tempPath); err != nil {
		return nil, fmt.Errorf("failed to move to trash: %w", err)
	}

	entry := &models.TrashEntry{
		ID:           rec.ID,
		OriginalPath: src,
		Filename:     name,
		Size:         info.Size(),
		DeletedAt:    deletedAt,
		TempPath:     tempPath,
		TrashDir:     t.dir,
	}

	if err := t.writeSidecar(destName, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// uniqueName appends a counter before the extension until the name is free
// in both the file and sidecar namespaces.
func (t *Ledger) uniqueName(name string) string {
	candidate := name
	for counter := 1; ; counter++ {
		_, err1 := t.fs.Stat(filepath.Join(t.dir, candidate))
		_, err2 := t.fs.Stat(filepath.Join(t.dir, candidate+SidecarSuffix))
		if err1 != nil && err2 != nil {
			return candidate
		}
		ext := filepath.Ext(name)
		candidate = fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), counter, ext)
	}
}

// move renames the file, falling back to copy+delete for filesystems that
// reject cross-device renames.
func (t *Ledger) move(src, dest string) error {
	if err := t.fs.Rename(src, dest); err == nil {
		return nil
	}

	data, err := afero.ReadFile(t.fs, src)
	if err != nil {
		return err
	}
	if err := afero.WriteFile(t.fs, dest, data, 0644); err != nil {
		return err
	}
	return t.fs.Remove(src)
}

func (t *Ledger) writeSidecar(destName string, entry *models.TrashEntry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode sidecar: %w", err)
	}
	path := filepath.Join(t.dir, destName+SidecarSuffix)
	if err := afero.WriteFile(t.fs, path, data, 0644); err != nil {
		return fmt.Errorf("failed to write sidecar: %w", err)
	}
	return nil
}

// Restore moves trashed files back to their recorded original paths and
// removes their sidecars. An id with no matching sidecar is a no-op for
// that id. Returns the number of files actually restored.
func (t *Ledger) Restore(ids []string) (int, error) {
	entries, _, err := t.readEntries()
	if err != nil {
		return 0, err
	}

	byID := make(map[string]*models.TrashEntry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}

	restored := 0
	for _, id := range ids {
		entry, ok := byID[id]
		if !ok {
			continue
		}

		if err := t.fs.MkdirAll(filepath.Dir(entry.OriginalPath), 0755); err != nil {
			t.logger.Warn("restore failed", "id", id, "error", err)
			continue
		}
		if err := t.move(entry.TempPath, entry.OriginalPath); err != nil {
			t.logger.Warn("restore failed", "id", id, "error", err)
			continue
		}
		if err := t.fs.Remove(t.sidecarPath(entry)); err != nil {
			t.logger.Warn("failed to remove sidecar after restore", "id", id, "error", err)
		}
		restored++
	}

	return restored, nil
}

// EmptyResult summarizes a purge pass.
type EmptyResult struct {
	Deleted  int      `json:"deleted"`
	Failed   int      `json:"failed"`
	Warnings []string `json:"warnings,omitempty"`
}

// Empty permanently deletes every trashed file and its sidecar. Per-entry
// failures (including orphaned sidecars with no backing file) are logged
// and counted; they never stop the remaining deletions.
func (t *Ledger) Empty() (*EmptyResult, error) {
	entries, warnings, err := t.readEntries()
	if err != nil {
		return nil, err
	}

	result := &EmptyResult{Warnings: warnings}
	for _, entry := range entries {
		if err := t.fs.Remove(entry.TempPath); err != nil {
			// Orphaned sidecars are already reported via readEntries warnings.
			t.logger.Warn("trash inconsistency", "entry", entry.ID, "error", err)
			result.Failed++
		} else {
			result.Deleted++
		}
		if err := t.fs.Remove(t.sidecarPath(entry)); err != nil {
			t.logger.Warn("failed to remove sidecar", "entry", entry.ID, "error", err)
		}
	}

	return result, nil
}

// Status re-derives the entry list and aggregate size by reading the trash
// directory fresh. Pairing violations (file without sidecar, sidecar whose
// file is gone) are surfaced as warnings, never as a failure.
func (t *Ledger) Status() (*models.TrashStatus, error) {
	entries, warnings, err := t.readEntries()
	if err != nil {
		return nil, err
	}

	status := &models.TrashStatus{Entries: entries, Warnings: warnings}
	for _, e := range entries {
		status.TotalSize += e.Size
	}
	return status, nil
}

// readEntries lists the trash directory and decodes every sidecar. It also
// checks the pairing invariant in both directions and reports violations
// as warnings.
func (t *Ledger) readEntries() ([]*models.TrashEntry, []string, error) {
	infos, err := afero.ReadDir(t.fs, t.dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read trash directory: %w", err)
	}

	var entries []*models.TrashEntry
	var warnings []string
	files := make(map[string]bool)
	sidecars := make(map[string]bool)

	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		name := info.Name()
		if !strings.HasSuffix(name, SidecarSuffix) {
			files[name] = true
			continue
		}
		sidecars[strings.TrimSuffix(name, SidecarSuffix)] = true

		entry, err := t.readSidecar(filepath.Join(t.dir, name))
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("unreadable sidecar %s: %v", name, err))
			continue
		}
		entry.TrashDir = t.dir
		entries = append(entries, entry)
	}

	for name := range files {
		if !sidecars[name] {
			warnings = append(warnings, fmt.Sprintf("trashed file without sidecar: %s", name))
		}
	}
	for name := range sidecars {
		if !files[name] {
			warnings = append(warnings, fmt.Sprintf("sidecar without backing file: %s", name))
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].DeletedAt.Before(entries[j].DeletedAt)
	})

	return entries, warnings, nil
}

func (t *Ledger) readSidecar(path string) (*models.TrashEntry, error) {
	data, err := afero.ReadFile(t.fs, path)
	if err != nil {
		return nil, err
	}
	var entry models.TrashEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (t *Ledger) sidecarPath(entry *models.TrashEntry) string {
	return filepath.Join(t.dir, filepath.Base(entry.TempPath)+SidecarSuffix)
}
