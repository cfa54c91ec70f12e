package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	dbPath        string
	threshold     float64
	workers       int
	algorithm     string
	blurThreshold float64
	verbose       bool
)

var rootCmd = &cobra.Command{
	Use:   "photosweep",
	Short: "Find duplicate and blurry photos, with a reversible trash",
	Long: `photosweep scans a photo directory tree, fingerprints every photo with a
perceptual hash, clusters visually identical shots, and flags likely-blurry
ones. RAW camera files are handled by extracting their embedded preview; a
RAW file paired with a JPEG of the same name reuses the JPEG's fingerprint.

Removed photos go to a per-project trash with JSON sidecar metadata, so a
deletion can always be undone until the trash is emptied.

Example usage:
  photosweep scan ./photos              # Scan a folder for duplicates
  photosweep list                       # List duplicate groups
  photosweep trash status ./photos      # Inspect the project trash
  photosweep serve ./photos             # Browse and clean in the web UI`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	homeDir, _ := os.UserHomeDir()
	defaultDB := filepath.Join(homeDir, ".photosweep", "catalog.db")

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "Path to SQLite catalog")
	rootCmd.PersistentFlags().Float64Var(&threshold, "threshold", 90, "Similarity threshold percent (1-100, higher = stricter)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 8, "Number of parallel analysis workers")
	rootCmd.PersistentFlags().StringVar(&algorithm, "algorithm", "dhash", "Fingerprint algorithm (dhash or phash)")
	rootCmd.PersistentFlags().Float64Var(&blurThreshold, "blur-threshold", 10, "Sharpness score below which a photo is flagged blurry")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
}
