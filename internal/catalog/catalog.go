// Package catalog persists scan results between runs: photo records,
// fingerprints, duplicate group assignments and scan history, in a single
// sqlite database.
package catalog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"photosweep/internal/models"
)

// Catalog handles persistence of photo records and duplicate groups
type Catalog struct {
	db     *sql.DB
	dbPath string
}

// Open creates or opens a catalog database, running migrations as needed.
func Open(dbPath string) (*Catalog, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	c := &Catalog{db: db, dbPath: dbPath}
	if err := c.init(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// migrations defines all schema migrations.
// Each migration should be idempotent (safe to run multiple times).
var migrations = []struct {
	version     int
	description string
	up          string
}{
	{
		version:     1,
		description: "Initial schema",
		up:          "", // Handled by base schema creation
	},
	{
		version:     2,
		description: "Add hash_source column for checksum/paired provenance",
		up: `
			ALTER TABLE photos ADD COLUMN hash_source TEXT DEFAULT '';
		`,
	},
}

func (c *Catalog) init() error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS photos (
		id TEXT PRIMARY KEY,
		path TEXT UNIQUE NOT NULL,
		filename TEXT NOT NULL,
		file_size INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		mod_time TEXT NOT NULL,
		format TEXT NOT NULL,
		is_raw INTEGER DEFAULT 0,
		paired_path TEXT DEFAULT '',
		has_exif INTEGER DEFAULT 0,
		width INTEGER DEFAULT 0,
		height INTEGER DEFAULT 0,
		hash TEXT DEFAULT '',
		sharpness REAL DEFAULT 0,
		blurry INTEGER DEFAULT 0,
		group_id INTEGER DEFAULT 0,
		stored_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_photos_hash ON photos(hash);
	CREATE INDEX IF NOT EXISTS idx_photos_group_id ON photos(group_id);
	CREATE INDEX IF NOT EXISTS idx_photos_path ON photos(path);

	CREATE TABLE IF NOT EXISTS scan_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		root TEXT NOT NULL,
		scanned_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		total_photos INTEGER NOT NULL,
		total_groups INTEGER NOT NULL,
		total_duplicates INTEGER NOT NULL,
		total_blurry INTEGER NOT NULL,
		threshold REAL NOT NULL
	);
	`

	if _, err = c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	if err := c.migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (c *Catalog) migrate() error {
	currentVersion := c.schemaVersion()

	for _, m := range migrations {
		if m.version <= currentVersion || m.up == "" {
			continue
		}

		// The column may already exist when the base schema was created fresh.
		if m.version == 2 && c.columnExists("photos", "hash_source") {
			c.setSchemaVersion(m.version)
			continue
		}

		if _, err := c.db.Exec(m.up); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.description, err)
		}
		c.setSchemaVersion(m.version)
	}
	return nil
}

func (c *Catalog) schemaVersion() int {
	var version int
	err := c.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err != nil {
		return 0
	}
	return version
}

func (c *Catalog) setSchemaVersion(version int) {
	c.db.Exec(`INSERT OR REPLACE INTO schema_version (version) VALUES (?)`, version)
}

func (c *Catalog) columnExists(table, column string) bool {
	var count int
	err := c.db.QueryRow(`
		SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?
	`, table, column).Scan(&count)
	if err != nil {
		return false
	}
	return count > 0
}

// Close closes the database connection
func (c *Catalog) Close() error {
	return c.db.Close()
}

const timeLayout = time.RFC3339Nano

// SavePhotos saves or updates multiple photo records.
func (c *Catalog) SavePhotos(records []*models.PhotoRecord) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO photos
		(id, path, filename, file_size, created_at, mod_time, format, is_raw,
		 paired_path, has_exif, width, height, hash, hash_source, sharpness, blurry, group_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		_, err := stmt.Exec(
			rec.ID,
			rec.Path,
			rec.Filename,
			rec.FileSize,
			rec.CreatedAt.Format(timeLayout),
			rec.ModTime.Format(timeLayout),
			rec.Format,
			boolInt(rec.IsRaw),
			rec.PairedPath,
			boolInt(rec.HasExif),
			rec.Width,
			rec.Height,
			rec.HashHex,
			string(rec.HashFrom),
			rec.Sharpness,
			boolInt(rec.Blurry),
			rec.GroupID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert photo %s: %w", rec.Path, err)
		}
	}

	return tx.Commit()
}

const photoColumns = `id, path, filename, file_size, created_at, mod_time, format, is_raw,
	paired_path, has_exif, width, height, hash, hash_source, sharpness, blurry, group_id`

// AllPhotos returns all stored photo records in path order.
func (c *Catalog) AllPhotos() ([]*models.PhotoRecord, error) {
	return c.queryPhotos(`SELECT `+photoColumns+` FROM photos ORDER BY path`, nil)
}

// PhotosByGroup returns the photos of one duplicate group.
func (c *Catalog) PhotosByGroup(groupID int) ([]*models.PhotoRecord, error) {
	return c.queryPhotos(`SELECT `+photoColumns+` FROM photos WHERE group_id = ? ORDER BY path`, []any{groupID})
}

func (c *Catalog) queryPhotos(query string, args []any) ([]*models.PhotoRecord, error) {
	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query photos: %w", err)
	}
	defer rows.Close()

	var records []*models.PhotoRecord
	for rows.Next() {
		rec := &models.PhotoRecord{}
		var createdAt, modTime, hashSource string
		var isRaw, hasExif, blurry int
		err := rows.Scan(
			&rec.ID,
			&rec.Path,
			&rec.Filename,
			&rec.FileSize,
			&createdAt,
			&modTime,
			&rec.Format,
			&isRaw,
			&rec.PairedPath,
			&hasExif,
			&rec.Width,
			&rec.Height,
			&rec.HashHex,
			&hashSource,
			&rec.Sharpness,
			&blurry,
			&rec.GroupID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		rec.IsRaw = isRaw == 1
		rec.HasExif = hasExif == 1
		rec.Blurry = blurry == 1
		rec.HashFrom = models.HashSource(hashSource)
		rec.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		rec.ModTime, _ = time.Parse(timeLayout, modTime)
		if rec.HashHex != "" {
			rec.Hash, _ = strconv.ParseUint(rec.HashHex, 16, 64)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// UpdateGroups replaces all group assignments with the given set. Prior
// assignments are always cleared first: groups are recomputed, not patched.
func (c *Catalog) UpdateGroups(groups []*models.DuplicateGroup) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err = tx.Exec("UPDATE photos SET group_id = 0"); err != nil {
		return fmt.Errorf("failed to reset groups: %w", err)
	}

	stmt, err := tx.Prepare("UPDATE photos SET group_id = ? WHERE id = ?")
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, group := range groups {
		for _, id := range group.PhotoIDs {
			if _, err := stmt.Exec(group.ID, id); err != nil {
				return fmt.Errorf("failed to update group for %s: %w", id, err)
			}
		}
	}

	return tx.Commit()
}

// DuplicateGroups returns all persisted duplicate groups with their photos.
func (c *Catalog) DuplicateGroups() ([]*models.DuplicateGroup, error) {
	rows, err := c.db.Query("SELECT DISTINCT group_id FROM photos WHERE group_id > 0 ORDER BY group_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groupIDs []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		groupIDs = append(groupIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var groups []*models.DuplicateGroup
	for _, id := range groupIDs {
		photos, err := c.PhotosByGroup(id)
		if err != nil {
			return nil, err
		}
		if len(photos) < 2 {
			continue
		}

		group := &models.DuplicateGroup{ID: id, Photos: photos}
		for _, p := range photos {
			group.PhotoIDs = append(group.PhotoIDs, p.ID)
		}
		groups = append(groups, group)
	}

	return groups, nil
}

// PhotoByID returns one photo record, or nil when unknown.
func (c *Catalog) PhotoByID(id string) (*models.PhotoRecord, error) {
	records, err := c.queryPhotos(`SELECT `+photoColumns+` FROM photos WHERE id = ?`, []any{id})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// DeletePhoto removes a photo record by id.
func (c *Catalog) DeletePhoto(id string) error {
	_, err := c.db.Exec("DELETE FROM photos WHERE id = ?", id)
	return err
}

// RecordScan appends one scan to the history.
func (c *Catalog) RecordScan(root string, result *models.ScanResult, threshold float64) error {
	_, err := c.db.Exec(`
		INSERT INTO scan_history (root, total_photos, total_groups, total_duplicates, total_blurry, threshold)
		VALUES (?, ?, ?, ?, ?, ?)
	`, root, result.TotalScanned, result.TotalGroups, result.TotalDuplicates, result.TotalBlurry, threshold)
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
