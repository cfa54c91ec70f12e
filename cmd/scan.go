package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"photosweep/internal/catalog"
	"photosweep/internal/fingerprint"
	"photosweep/internal/models"
	"photosweep/internal/pipeline"
)

var scanThumbnails bool

var scanCmd = &cobra.Command{
	Use:   "scan <folder>",
	Short: "Scan a folder for duplicate and blurry photos",
	Long: `Scan a folder recursively, fingerprint every photo and group duplicates.

The scan will:
1. Find all supported photos (jpg, png, gif, webp and common RAW formats)
2. Extract embedded previews from RAW containers
3. Compute perceptual fingerprints and sharpness scores
4. Cluster visually identical photos at the similarity threshold
5. Store everything in the catalog for later use

Example:
  photosweep scan ./photos
  photosweep scan /path/to/photos --threshold 95 --algorithm phash`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&scanThumbnails, "thumbnails", true, "Write preview thumbnails beside the scanned folder")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	root := args[0]

	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("folder not found: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", root)
	}

	alg, err := fingerprint.ParseAlgorithm(algorithm)
	if err != nil {
		return err
	}

	store, err := catalog.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer store.Close()

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Analyzing"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionThrottle(200*time.Millisecond),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)

	p := pipeline.New(
		pipeline.WithWorkers(workers),
		pipeline.WithAlgorithm(alg),
		pipeline.WithBlurThreshold(blurThreshold),
		pipeline.WithThumbnails(scanThumbnails),
		pipeline.WithProgress(func(processed, total int, current string) {
			bar.ChangeMax(total)
			bar.Set(processed)
		}),
	)

	fmt.Printf("Scanning: %s\n", root)
	fmt.Printf("Threshold: %.0f%% similarity, algorithm: %s\n\n", threshold, alg)

	records, err := p.Scan(cmd.Context(), root)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	bar.Finish()

	if len(records) == 0 {
		fmt.Println("No photos found.")
		return nil
	}

	analysis := p.Analyze(records, threshold)

	if err := store.SavePhotos(records); err != nil {
		return fmt.Errorf("failed to save photos: %w", err)
	}
	if err := store.UpdateGroups(analysis.Groups); err != nil {
		return fmt.Errorf("failed to update groups: %w", err)
	}

	result := &models.ScanResult{Root: root, TotalScanned: len(records), TotalGroups: len(analysis.Groups)}
	var totalSize int64
	for _, g := range analysis.Groups {
		result.TotalDuplicates += len(g.PhotoIDs) - 1
		for _, rec := range g.Photos[1:] {
			totalSize += rec.FileSize
		}
	}
	for _, rec := range records {
		if rec.Blurry {
			result.TotalBlurry++
		}
	}
	store.RecordScan(root, result, threshold)

	fmt.Println("=== Scan Complete ===")
	fmt.Printf("Total photos:     %d (%d skipped)\n", len(records), analysis.Skipped)
	fmt.Printf("Duplicate groups: %d\n", result.TotalGroups)
	fmt.Printf("Duplicates found: %d (%s reclaimable)\n", result.TotalDuplicates, humanize.Bytes(uint64(totalSize)))
	fmt.Printf("Blurry photos:    %d\n", result.TotalBlurry)

	if result.TotalGroups > 0 {
		fmt.Println()
		fmt.Println("Run 'photosweep list' to see duplicate groups")
		fmt.Println("Run 'photosweep serve' to review them in the browser")
	}

	return nil
}
