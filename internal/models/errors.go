package models

import "errors"

// Error taxonomy for the analysis and trash pipelines. Per-item errors are
// caught at the item boundary and reported as skip counts; only structural
// failures propagate to the caller.
var (
	// ErrDecodeFailure means image bytes could not be decoded. The file is
	// skipped (or fingerprinted via checksum fallback), never batch-fatal.
	ErrDecodeFailure = errors.New("image decode failure")

	// ErrPreviewNotFound means no embedded preview above the size floor was
	// found in a RAW container. Callers fall back to a placeholder image.
	ErrPreviewNotFound = errors.New("no embedded preview found")

	// ErrSourceMissing means a file vanished between enumeration and a
	// trash move. The record is skipped and logged.
	ErrSourceMissing = errors.New("source file missing")

	// ErrScanInProgress is returned when a second scan is started while one
	// is already running. The running scan is unaffected.
	ErrScanInProgress = errors.New("a scan is already in progress")
)
