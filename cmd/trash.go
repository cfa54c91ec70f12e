package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"photosweep/internal/trash"
)

var trashCmd = &cobra.Command{
	Use:   "trash",
	Short: "Inspect and manage the per-project trash",
	Long: `Trashed photos live in a ` + trash.DirName + ` directory beside the scanned
folder, each with a JSON sidecar recording where it came from. Until the
trash is emptied, any photo can be restored to its original path.

Example:
  photosweep trash status ./photos
  photosweep trash restore ./photos <id>...
  photosweep trash empty ./photos`,
}

var trashStatusCmd = &cobra.Command{
	Use:   "status <folder>",
	Short: "Show trash contents and total size",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrashStatus,
}

var trashRestoreCmd = &cobra.Command{
	Use:   "restore <folder> <id>...",
	Short: "Restore trashed photos to their original paths",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runTrashRestore,
}

var trashEmptyCmd = &cobra.Command{
	Use:   "empty <folder>",
	Short: "Permanently delete everything in the trash",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrashEmpty,
}

func init() {
	trashCmd.AddCommand(trashStatusCmd)
	trashCmd.AddCommand(trashRestoreCmd)
	trashCmd.AddCommand(trashEmptyCmd)
	rootCmd.AddCommand(trashCmd)
}

func openLedger(root string) (*trash.Ledger, error) {
	return trash.NewLedger(afero.NewOsFs(), root)
}

func runTrashStatus(cmd *cobra.Command, args []string) error {
	ledger, err := openLedger(args[0])
	if err != nil {
		return err
	}

	status, err := ledger.Status()
	if err != nil {
		return err
	}

	if len(status.Entries) == 0 {
		fmt.Println("Trash is empty.")
	} else {
		fmt.Printf("%d trashed photos (%s)\n\n", len(status.Entries), humanize.Bytes(uint64(status.TotalSize)))
		for _, e := range status.Entries {
			fmt.Printf("  %s  %s  %8s  deleted %s\n",
				e.ID, e.Filename, humanize.Bytes(uint64(e.Size)),
				humanize.Time(e.DeletedAt))
		}
	}

	for _, w := range status.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	return nil
}

func runTrashRestore(cmd *cobra.Command, args []string) error {
	ledger, err := openLedger(args[0])
	if err != nil {
		return err
	}

	ids := args[1:]
	restored, err := ledger.Restore(ids)
	if err != nil {
		return err
	}

	fmt.Printf("Restored %d of %d photos\n", restored, len(ids))
	return nil
}

func runTrashEmpty(cmd *cobra.Command, args []string) error {
	ledger, err := openLedger(args[0])
	if err != nil {
		return err
	}

	result, err := ledger.Empty()
	if err != nil {
		return err
	}

	fmt.Printf("Permanently deleted %d files\n", result.Deleted)
	if result.Failed > 0 {
		fmt.Printf("Failed: %d entries\n", result.Failed)
	}
	for _, w := range result.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	return nil
}
