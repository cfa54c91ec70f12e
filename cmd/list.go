package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"photosweep/internal/catalog"
	"photosweep/internal/cluster"
	"photosweep/internal/models"
)

var (
	listJSON   bool
	listBlurry bool
	listLimit  int
	listOffset int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List duplicate groups and blurry photos",
	Long: `Display detected duplicate groups with their photos.

Example:
  photosweep list              # Show first 10 groups (default)
  photosweep list -n 0         # Show all groups
  photosweep list --blurry     # Show blurry photos instead of groups
  photosweep list --offset 10  # Groups 11-20`,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().BoolVar(&listBlurry, "blurry", false, "List blurry photos instead of duplicate groups")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 10, "Limit number of groups to display (0 = all)")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "Skip first N groups (for pagination)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	store, err := catalog.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer store.Close()

	if listBlurry {
		return listBlurryPhotos(store)
	}

	groups, err := store.DuplicateGroups()
	if err != nil {
		return fmt.Errorf("failed to get groups: %w", err)
	}

	if len(groups) == 0 {
		fmt.Println("No duplicate groups found.")
		fmt.Println("Run 'photosweep scan <folder>' to scan for duplicates.")
		return nil
	}

	for _, group := range groups {
		cluster.Rank(group)
	}

	if listJSON {
		return json.NewEncoder(os.Stdout).Encode(groups)
	}

	totalDuplicates := 0
	var totalSavings int64
	for _, group := range groups {
		totalDuplicates += len(group.Photos) - 1
		for _, rec := range group.Photos[1:] {
			totalSavings += rec.FileSize
		}
	}

	fmt.Printf("Found %d duplicate groups (%d duplicates, %s reclaimable)\n\n",
		len(groups), totalDuplicates, humanize.Bytes(uint64(totalSavings)))

	totalGroups := len(groups)
	startIdx := listOffset
	if startIdx > len(groups) {
		startIdx = len(groups)
	}
	groups = groups[startIdx:]
	if listLimit > 0 && listLimit < len(groups) {
		groups = groups[:listLimit]
	}

	for _, group := range groups {
		printGroup(group)
	}

	endIdx := startIdx + len(groups)
	if len(groups) > 0 {
		fmt.Printf("Showing groups %d-%d of %d\n", startIdx+1, endIdx, totalGroups)
		if endIdx < totalGroups {
			fmt.Printf("Next page: photosweep list -n %d --offset %d\n", listLimit, endIdx)
		}
	}

	return nil
}

func printGroup(group *models.DuplicateGroup) {
	fmt.Printf("Group #%d (%d photos)\n", group.ID, len(group.Photos))
	fmt.Println(strings.Repeat("-", 60))

	for _, rec := range group.Photos {
		flags := ""
		if rec.ID == group.KeepID {
			flags += " [keep]"
		}
		if rec.Blurry {
			flags += " [blurry]"
		}
		if rec.IsRaw {
			flags += " [raw]"
		}
		fmt.Printf("  %-44s  %dx%d  %8s%s\n",
			shortenPath(rec.Path, 44), rec.Width, rec.Height,
			humanize.Bytes(uint64(rec.FileSize)), flags)
	}
	fmt.Println()
}

func listBlurryPhotos(store *catalog.Catalog) error {
	records, err := store.AllPhotos()
	if err != nil {
		return fmt.Errorf("failed to get photos: %w", err)
	}

	var blurry []*models.PhotoRecord
	for _, rec := range records {
		if rec.Blurry {
			blurry = append(blurry, rec)
		}
	}

	if listJSON {
		return json.NewEncoder(os.Stdout).Encode(blurry)
	}

	if len(blurry) == 0 {
		fmt.Println("No blurry photos found.")
		return nil
	}

	fmt.Printf("Found %d blurry photos\n\n", len(blurry))
	for _, rec := range blurry {
		fmt.Printf("  %-44s  sharpness %.1f  %8s\n",
			shortenPath(rec.Path, 44), rec.Sharpness, humanize.Bytes(uint64(rec.FileSize)))
	}
	return nil
}

func shortenPath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}

	dir, file := filepath.Split(path)
	if len(file) >= maxLen-3 {
		return "..." + file[len(file)-(maxLen-3):]
	}

	remaining := maxLen - len(file) - 4
	if remaining > 0 && len(dir) > remaining {
		dir = dir[len(dir)-remaining:]
	}
	return "..." + dir + file
}
