package models

import (
	"fmt"
	"strings"
	"time"
)

// HashBits is the length of a perceptual fingerprint in bits.
const HashBits = 64

// PairTag is appended to the display filename of a RAW photo whose
// fingerprint is borrowed from its JPEG sibling.
const PairTag = " (+jpeg)"

// StripPairTag removes the pairing decoration from a display filename.
func StripPairTag(name string) string {
	return strings.TrimSuffix(name, PairTag)
}

// HashSource records how a photo's fingerprint was obtained.
type HashSource string

const (
	// HashSourcePixels means the fingerprint was computed from decoded pixels.
	HashSourcePixels HashSource = "pixels"
	// HashSourcePaired means the fingerprint was copied from a paired JPEG sibling.
	HashSourcePaired HashSource = "paired"
	// HashSourceChecksum means decoding failed and a raw-bytes checksum was
	// used as a last-resort fingerprint.
	HashSourceChecksum HashSource = "checksum"
)

// PhotoRecord holds metadata and analysis results for one photo
type PhotoRecord struct {
	ID         string     `json:"id"`
	Path       string     `json:"path"`
	Filename   string     `json:"filename"`
	FileSize   int64      `json:"file_size"`
	CreatedAt  time.Time  `json:"created_at"`
	ModTime    time.Time  `json:"mod_time"`
	Format     string     `json:"format"`
	IsRaw      bool       `json:"is_raw"`
	PairedPath string     `json:"paired_path,omitempty"`
	HasExif    bool       `json:"has_exif"`
	Width      int        `json:"width"`
	Height     int        `json:"height"`
	Hash       uint64     `json:"-"`
	HashHex    string     `json:"hash,omitempty"`
	HashFrom   HashSource `json:"hash_source,omitempty"`
	Sharpness  float64    `json:"sharpness"`
	Blurry     bool       `json:"blurry"`
	EyeState   string     `json:"eye_state,omitempty"`
	GroupID    int        `json:"group_id,omitempty"`
}

// HexHash renders a 64-bit fingerprint as 16 lowercase hex characters.
func HexHash(hash uint64) string {
	return fmt.Sprintf("%016x", hash)
}

// DuplicateGroup represents a set of visually identical photos.
// Groups are a pure function of (fingerprint set, threshold) and are
// rebuilt from scratch whenever the threshold changes.
type DuplicateGroup struct {
	ID        int            `json:"id"`
	PhotoIDs  []string       `json:"photo_ids"`
	Photos    []*PhotoRecord `json:"photos,omitempty"`
	Threshold float64        `json:"threshold"`
	KeepID    string         `json:"keep_id,omitempty"`
}

// ExtractedPreview is a compressed image span lifted out of a RAW container.
// It is transient: decoded immediately by the caller, never persisted.
type ExtractedPreview struct {
	Data   []byte
	Length int
	Start  int
	End    int
}

// TrashEntry describes one file parked in a project trash directory.
// The JSON sidecar written next to the moved file is the durable source
// of truth; in-memory copies are always re-derived from disk.
type TrashEntry struct {
	ID           string    `json:"id"`
	OriginalPath string    `json:"originalPath"`
	Filename     string    `json:"filename"`
	Size         int64     `json:"size"`
	DeletedAt    time.Time `json:"deletedAt"`
	TempPath     string    `json:"tempPath"`
	TrashDir     string    `json:"-"`
}

// TrashStatus is a fresh view over the trash directory.
type TrashStatus struct {
	Entries   []*TrashEntry `json:"entries"`
	TotalSize int64         `json:"total_size"`
	Warnings  []string      `json:"warnings,omitempty"`
}

// AnalysisResult is the outcome of one full analysis pass.
type AnalysisResult struct {
	Fingerprints map[string]string `json:"fingerprints"`
	Groups       []*DuplicateGroup `json:"groups"`
	Threshold    float64           `json:"threshold"`
	Analyzed     int               `json:"analyzed"`
	Skipped      int               `json:"skipped"`
}

// ScanResult summarizes a completed directory scan.
type ScanResult struct {
	Root            string         `json:"root"`
	TotalScanned    int            `json:"total_scanned"`
	TotalGroups     int            `json:"total_groups"`
	TotalDuplicates int            `json:"total_duplicates"`
	TotalBlurry     int            `json:"total_blurry"`
	Records         []*PhotoRecord `json:"records,omitempty"`
}

// ProgressSnapshot reports how far a running scan has advanced.
type ProgressSnapshot struct {
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
	Current   string `json:"current,omitempty"`
	Active    bool   `json:"active"`
}
