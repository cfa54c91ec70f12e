package preview

import (
	"path/filepath"
	"strings"

	"photosweep/internal/models"
)

// Format describes a supported RAW container variant.
type Format struct {
	Extension    string
	Name         string
	Manufacturer string
}

// rawFormats maps file extensions to RAW container variants. Dispatch is
// routing only: every variant currently uses the same generic marker scan.
// Per-manufacturer TIFF IFD walking is an extension point, not implemented.
var rawFormats = map[string]Format{
	".cr2": {Extension: ".cr2", Name: "CR2", Manufacturer: "Canon"},
	".cr3": {Extension: ".cr3", Name: "CR3", Manufacturer: "Canon"},
	".nef": {Extension: ".nef", Name: "NEF", Manufacturer: "Nikon"},
	".nrw": {Extension: ".nrw", Name: "NRW", Manufacturer: "Nikon"},
	".arw": {Extension: ".arw", Name: "ARW", Manufacturer: "Sony"},
	".orf": {Extension: ".orf", Name: "ORF", Manufacturer: "Olympus"},
	".rw2": {Extension: ".rw2", Name: "RW2", Manufacturer: "Panasonic"},
	".raf": {Extension: ".raf", Name: "RAF", Manufacturer: "Fujifilm"},
	".pef": {Extension: ".pef", Name: "PEF", Manufacturer: "Pentax"},
	".srw": {Extension: ".srw", Name: "SRW", Manufacturer: "Samsung"},
	".x3f": {Extension: ".x3f", Name: "X3F", Manufacturer: "Sigma"},
	".dng": {Extension: ".dng", Name: "DNG", Manufacturer: "Adobe"},
}

// DetectFormat reports the RAW container variant for a path, if any.
func DetectFormat(path string) (Format, bool) {
	f, ok := rawFormats[strings.ToLower(filepath.Ext(path))]
	return f, ok
}

// IsRawFile reports whether the path has a known RAW container extension.
func IsRawFile(path string) bool {
	_, ok := DetectFormat(path)
	return ok
}

// Extract routes a RAW buffer to the scanner for its container variant.
// All variants share the generic marker scan today; the Format parameter
// keeps the dispatch point explicit for format-specific parsers later.
func Extract(f Format, buf []byte) (*models.ExtractedPreview, error) {
	return ExtractBestPreview(buf)
}
