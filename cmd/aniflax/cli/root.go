// Package cli implements the aniflax command-line interface using Cobra:
// running the bot and the local maintenance commands around it.
package cli

import (
	"github.com/majorcontext/aniflax/internal/config"
	"github.com/majorcontext/aniflax/internal/log"
	"github.com/majorcontext/aniflax/internal/ui"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	jsonOut    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "aniflax",
	Short: "aniflax - a debugging and admin bot for Discord",
	Long: `aniflax runs a Discord bot whose owners can inspect and administer it
through the "aniflax" command group (alias "ani"): status and runtime stats,
task listing and cancellation, leaving servers, and source backups.

The local subcommands manage the pieces around the bot: the bot token,
the audit trail of administrative actions, and leftover backup archives.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		retention := config.Default().Debug.RetentionDays
		if cfg, err := config.Load(configPath); err == nil {
			retention = cfg.Debug.RetentionDays
		}

		if err := log.Init(log.Options{
			Verbose:       verbose,
			JSONFormat:    jsonOut,
			DebugDir:      config.DebugDir(),
			RetentionDays: retention,
		}); err != nil {
			// Non-fatal: the default logger still writes to stderr.
			ui.Warnf("failed to initialize debug logging: %v", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.Close()
	},
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		ui.Error(err.Error())
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ~/.aniflax/config.yaml)")
}
