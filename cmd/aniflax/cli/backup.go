package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/majorcontext/aniflax/internal/backup"
	"github.com/majorcontext/aniflax/internal/config"
	"github.com/majorcontext/aniflax/internal/system"
	"github.com/majorcontext/aniflax/internal/ui"
	"github.com/spf13/cobra"
)

var backupOutput string

var backupCmd = &cobra.Command{
	Use:   "backup [dir]",
	Short: "Write a source archive locally",
	Long: `Write the same zip archive the "backup" subcommand sends to Discord.

Files are selected by backup.extensions, .git is always skipped, and
.gitignore patterns apply when backup.use_gitignore is set. The directory
defaults to backup.root from the config.

Examples:
  aniflax backup
  aniflax backup ./bot -o bot-src.zip`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBackup,
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.Flags().StringVarP(&backupOutput, "output", "o", "backup.zip", "archive file to write")
}

func runBackup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	root := cfg.Backup.Root
	if len(args) == 1 {
		root = args[0]
	}
	opts := backupOptions(cfg)

	f, err := os.Create(backupOutput)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	res, err := backup.Create(cmd.Context(), root, f, opts)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(backupOutput)
		return fmt.Errorf("archiving %s: %w", root, err)
	}

	if jsonOut {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
			"path":  backupOutput,
			"files": res.Files,
			"bytes": res.Bytes,
		})
	}

	ui.Printf("%s Wrote %s\n", ui.OKTag(), ui.Bold(backupOutput))
	ui.Fields(
		[2]string{"Source", root},
		[2]string{"Extensions", joinOr(opts.Extensions, "all files")},
		[2]string{"Files", fmt.Sprintf("%d file%s", res.Files, plural(res.Files, "", "s"))},
		[2]string{"Size", system.NaturalSize(uint64(res.Bytes))},
	)
	return nil
}
