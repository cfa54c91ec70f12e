// Package pipeline orchestrates the scan: enumerate photos, decode pixels
// (directly or through RAW preview extraction), fingerprint and score each
// file, then cluster the complete fingerprint set once.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rwcarlsen/goexif/exif"

	"photosweep/internal/cluster"
	"photosweep/internal/decode"
	"photosweep/internal/fingerprint"
	"photosweep/internal/models"
	"photosweep/internal/preview"
	"photosweep/internal/quality"
)

// ThumbDirName is the thumbnail directory created beside the scanned root.
const ThumbDirName = "thumbnails"

// DefaultBlurThreshold flags photos whose sharpness score falls below it.
const DefaultBlurThreshold = 10.0

const thumbMaxDim = 320

// Enumerator lists candidate photo paths under a root. Directory traversal
// and file-type filtering live behind this interface so the pipeline never
// walks the filesystem itself.
type Enumerator interface {
	Enumerate(ctx context.Context, root string) ([]string, error)
}

// Pipeline runs photo analysis over a directory tree. Only one scan may be
// in flight at a time; a second Scan fails fast with ErrScanInProgress.
type Pipeline struct {
	enumerator    Enumerator
	decoder       decode.Decoder
	scorer        *quality.Scorer
	eyes          quality.EyeRegionFinder
	algorithm     fingerprint.Algorithm
	blurThreshold float64
	workers       int
	thumbnails    bool
	logger        *slog.Logger
	progressFn    func(processed, total int, current string)

	scanning  atomic.Bool
	processed atomic.Int64
	total     atomic.Int64
	current   atomic.Value // string
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithWorkers sets the number of parallel analysis workers.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithEnumerator replaces the default directory walker.
func WithEnumerator(e Enumerator) Option {
	return func(p *Pipeline) {
		if e != nil {
			p.enumerator = e
		}
	}
}

// WithDecoder replaces the default image decoder.
func WithDecoder(d decode.Decoder) Option {
	return func(p *Pipeline) {
		if d != nil {
			p.decoder = d
		}
	}
}

// WithAlgorithm selects the fingerprint algorithm.
func WithAlgorithm(a fingerprint.Algorithm) Option {
	return func(p *Pipeline) {
		p.algorithm = a
	}
}

// WithBlurThreshold sets the sharpness score below which a photo is
// flagged blurry.
func WithBlurThreshold(t float64) Option {
	return func(p *Pipeline) {
		if t >= 0 {
			p.blurThreshold = t
		}
	}
}

// WithEyeFinder supplies the optional eye-landmark capability.
func WithEyeFinder(f quality.EyeRegionFinder) Option {
	return func(p *Pipeline) {
		p.eyes = f
	}
}

// WithProgress sets a progress callback invoked after each analyzed file.
func WithProgress(fn func(processed, total int, current string)) Option {
	return func(p *Pipeline) {
		p.progressFn = fn
	}
}

// WithThumbnails enables writing bounded JPEG thumbnails beside the root.
func WithThumbnails(enabled bool) Option {
	return func(p *Pipeline) {
		p.thumbnails = enabled
	}
}

// WithLogger sets the logger for per-file skip reporting.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a new Pipeline
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		enumerator:    &WalkEnumerator{},
		decoder:       decode.NewStdDecoder(),
		scorer:        quality.NewScorer(),
		algorithm:     fingerprint.AlgorithmDHash,
		blurThreshold: DefaultBlurThreshold,
		workers:       8,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Progress returns a snapshot of the running (or last) scan.
func (p *Pipeline) Progress() models.ProgressSnapshot {
	current, _ := p.current.Load().(string)
	return models.ProgressSnapshot{
		Processed: int(p.processed.Load()),
		Total:     int(p.total.Load()),
		Current:   current,
		Active:    p.scanning.Load(),
	}
}

// Scan enumerates photos under root, pairs RAW files with their JPEG
// siblings, and analyzes every photo (decode, fingerprint, sharpness).
// Per-file analysis runs on a worker pool; each file is independent.
// Records are returned in stable path order.
func (p *Pipeline) Scan(ctx context.Context, root string) ([]*models.PhotoRecord, error) {
	if !p.scanning.CompareAndSwap(false, true) {
		return nil, models.ErrScanInProgress
	}
	defer p.scanning.Store(false)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}

	paths, err := p.enumerator.Enumerate(ctx, absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate %s: %w", absRoot, err)
	}

	records := p.buildRecords(paths)
	pairRawWithJpeg(records)

	var thumbDir string
	if p.thumbnails {
		thumbDir = filepath.Join(absRoot, ThumbDirName)
		if err := os.MkdirAll(thumbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create thumbnail directory: %w", err)
		}
	}

	// Paired RAWs reuse their sibling's fingerprint and skip analysis.
	var work []*models.PhotoRecord
	for _, rec := range records {
		if rec.IsRaw && rec.PairedPath != "" {
			continue
		}
		work = append(work, rec)
	}

	p.processed.Store(0)
	p.total.Store(int64(len(work)))
	p.current.Store("")

	queue := make(chan *models.PhotoRecord, len(work))
	for _, rec := range work {
		queue <- rec
	}
	close(queue)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range queue {
				if ctx.Err() != nil {
					return
				}
				p.analyzeOne(rec, thumbDir)
				n := p.processed.Add(1)
				p.current.Store(rec.Path)
				if p.progressFn != nil {
					p.progressFn(int(n), len(work), rec.Path)
				}
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Propagate fingerprints to paired RAW records.
	byPath := make(map[string]*models.PhotoRecord, len(records))
	for _, rec := range records {
		byPath[rec.Path] = rec
	}
	for _, rec := range records {
		if !rec.IsRaw || rec.PairedPath == "" {
			continue
		}
		if jpg, ok := byPath[rec.PairedPath]; ok && jpg.HashHex != "" {
			rec.Hash = jpg.Hash
			rec.HashHex = jpg.HashHex
			rec.HashFrom = models.HashSourcePaired
		}
	}

	return records, nil
}

// buildRecords stats every enumerated path and fills in file metadata.
// Files that vanished since enumeration are skipped.
func (p *Pipeline) buildRecords(paths []string) []*models.PhotoRecord {
	var records []*models.PhotoRecord
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			p.logger.Warn("skipping vanished file", "path", path, "error", err)
			continue
		}

		rec := &models.PhotoRecord{
			ID:       uuid.NewString(),
			Path:     path,
			Filename: filepath.Base(path),
			FileSize: info.Size(),
			ModTime:  info.ModTime(),
		}

		if f, ok := preview.DetectFormat(path); ok {
			rec.IsRaw = true
			rec.Format = strings.ToLower(f.Name)
		} else {
			rec.Format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
			if rec.Format == "jpg" {
				rec.Format = "jpeg"
			}
		}

		if taken, ok := exifTime(path); ok {
			rec.CreatedAt = taken
			rec.HasExif = true
		} else {
			rec.CreatedAt = info.ModTime()
		}

		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Path < records[j].Path
	})
	return records
}

// analyzeOne decodes one photo and fills in dimensions, fingerprint and
// sharpness. Decode failures fall back to a raw-bytes checksum fingerprint
// so the file still participates in exact-duplicate detection.
func (p *Pipeline) analyzeOne(rec *models.PhotoRecord, thumbDir string) {
	data, err := os.ReadFile(rec.Path)
	if err != nil {
		p.logger.Warn("skipping unreadable file", "path", rec.Path, "error", err)
		return
	}

	img, err := p.decodePixels(rec, data)
	if err != nil {
		p.logger.Warn("decode failed, falling back to checksum fingerprint",
			"path", rec.Path, "error", err)
		rec.Hash = fingerprint.Checksum(data)
		rec.HashHex = models.HexHash(rec.Hash)
		rec.HashFrom = models.HashSourceChecksum
		if thumbDir != "" {
			p.writePlaceholderThumb(rec, thumbDir)
		}
		return
	}

	b := img.Bounds()
	rec.Width = b.Dx()
	rec.Height = b.Dy()

	hash, err := fingerprint.Compute(p.algorithm, img)
	if err != nil {
		p.logger.Warn("fingerprint failed, falling back to checksum",
			"path", rec.Path, "error", err)
		hash = fingerprint.Checksum(data)
		rec.HashFrom = models.HashSourceChecksum
	} else {
		rec.HashFrom = models.HashSourcePixels
	}
	rec.Hash = hash
	rec.HashHex = models.HexHash(hash)

	rec.Sharpness = p.scorer.Score(img)
	rec.Blurry = p.scorer.IsBlurry(rec.Sharpness, p.blurThreshold)
	if p.eyes != nil {
		rec.EyeState = string(quality.CheckEyes(p.eyes, img))
	}

	if thumbDir != "" {
		p.writeThumb(rec, img, thumbDir)
	}
}

// decodePixels obtains decodable pixels for a record: RAW containers go
// through embedded preview extraction, everything else decodes directly.
func (p *Pipeline) decodePixels(rec *models.PhotoRecord, data []byte) (image.Image, error) {
	if !rec.IsRaw {
		img, _, err := p.decoder.Decode(data)
		return img, err
	}

	f, _ := preview.DetectFormat(rec.Path)
	pv, err := preview.Extract(f, data)
	if err != nil {
		return nil, err
	}

	// An unvalidated span that fails to decode counts as no preview found.
	img, _, err := p.decoder.Decode(pv.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: extracted span undecodable", models.ErrPreviewNotFound)
	}
	return img, nil
}

func (p *Pipeline) writeThumb(rec *models.PhotoRecord, img image.Image, thumbDir string) {
	p.encodeThumb(rec, decode.Shrink(img, thumbMaxDim), thumbDir)
}

// writePlaceholderThumb keeps the browsing UI unblocked for files with no
// decodable pixels by rendering a labelled placeholder card.
func (p *Pipeline) writePlaceholderThumb(rec *models.PhotoRecord, thumbDir string) {
	labels := []string{strings.ToUpper(rec.Format), "no preview"}
	if f, ok := preview.DetectFormat(rec.Path); ok {
		labels = []string{f.Manufacturer + " " + f.Name, "no preview"}
	}
	p.encodeThumb(rec, decode.Placeholder(thumbMaxDim, thumbMaxDim*3/4, labels...), thumbDir)
}

func (p *Pipeline) encodeThumb(rec *models.PhotoRecord, img image.Image, thumbDir string) {
	out, err := os.Create(ThumbPath(thumbDir, rec.ID))
	if err != nil {
		p.logger.Warn("failed to write thumbnail", "path", rec.Path, "error", err)
		return
	}
	defer out.Close()
	if err := jpeg.Encode(out, img, &jpeg.Options{Quality: 80}); err != nil {
		p.logger.Warn("failed to encode thumbnail", "path", rec.Path, "error", err)
	}
}

// ThumbPath returns the thumbnail path for a photo id.
func ThumbPath(thumbDir, id string) string {
	return filepath.Join(thumbDir, id+".jpg")
}

// Analyze clusters the complete fingerprint set at the given similarity
// threshold. It always recomputes from scratch: previous group assignments
// are discarded, never patched. Paired RAW records share their sibling's
// fingerprint so they are excluded from clustering (the pair is deliberate,
// not a duplicate).
func (p *Pipeline) Analyze(records []*models.PhotoRecord, thresholdPercent float64) *models.AnalysisResult {
	result := &models.AnalysisResult{
		Fingerprints: make(map[string]string),
		Threshold:    thresholdPercent,
	}

	byID := make(map[string]*models.PhotoRecord, len(records))
	var candidates []cluster.Candidate
	for _, rec := range records {
		rec.GroupID = 0
		byID[rec.ID] = rec

		if rec.HashHex == "" {
			result.Skipped++
			continue
		}
		result.Fingerprints[rec.ID] = rec.HashHex
		if rec.HashFrom == models.HashSourcePaired {
			continue
		}
		result.Analyzed++
		candidates = append(candidates, cluster.Candidate{ID: rec.ID, Hash: rec.Hash})
	}

	groups := cluster.NewClusterer(thresholdPercent).Cluster(candidates)
	for _, g := range groups {
		for _, id := range g.PhotoIDs {
			rec := byID[id]
			rec.GroupID = g.ID
			g.Photos = append(g.Photos, rec)
		}
	}
	result.Groups = groups

	return result
}

// exifTime extracts the capture timestamp from EXIF metadata, if present.
func exifTime(path string) (time.Time, bool) {
	file, err := os.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer file.Close()

	ex, err := exif.Decode(file)
	if err != nil {
		return time.Time{}, false
	}
	taken, err := ex.DateTime()
	if err != nil {
		return time.Time{}, false
	}
	return taken, true
}
