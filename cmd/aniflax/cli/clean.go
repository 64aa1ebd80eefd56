package cli

import (
	"fmt"
	"time"

	"github.com/majorcontext/aniflax/internal/system"
	"github.com/majorcontext/aniflax/internal/ui"
	"github.com/spf13/cobra"
)

var (
	cleanMinAge time.Duration
	cleanDryRun bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove orphaned backup archives",
	Long: `Scan the temp directory for backup archives (` + system.ArchivePattern + `)
left behind when the bot stopped between archiving and upload, and remove
those older than --min-age.`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().DurationVar(&cleanMinAge, "min-age", time.Hour,
		"Minimum age of archives to remove (e.g., 1h, 24h)")
	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false,
		"Show what would be removed without removing anything")
}

func runClean(cmd *cobra.Command, args []string) error {
	orphaned, err := system.FindOrphanedArchives(cleanMinAge)
	if err != nil {
		return fmt.Errorf("scanning for orphaned archives: %w", err)
	}
	if len(orphaned) == 0 {
		ui.Info("No orphaned backup archives found.")
		return nil
	}

	var total uint64
	rows := make([][]string, 0, len(orphaned))
	for _, a := range orphaned {
		total += uint64(a.Size)
		rows = append(rows, []string{
			a.Path,
			time.Since(a.ModTime).Truncate(time.Second).String(),
			system.NaturalSize(uint64(a.Size)),
		})
	}
	ui.Printf("Found %d orphaned archive%s:\n\n", len(orphaned), plural(len(orphaned), "", "s"))
	ui.Table([]string{"PATH", "AGE", "SIZE"}, rows)
	ui.Printf("\nTotal size: %s\n", system.NaturalSize(total))

	if cleanDryRun {
		ui.Info("Dry run mode - nothing was removed.")
		return nil
	}

	skipped, err := system.CleanOrphanedArchives(orphaned, cleanMinAge)
	for _, path := range skipped {
		ui.Warnf("skipped %s: modified since scan", path)
	}
	if err != nil {
		return err
	}
	removed := len(orphaned) - len(skipped)
	ui.Printf("%s Removed %d archive%s.\n", ui.OKTag(), removed, plural(removed, "", "s"))
	return nil
}
