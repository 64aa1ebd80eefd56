package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/majorcontext/aniflax/internal/audit"
	"github.com/majorcontext/aniflax/internal/config"
	"github.com/majorcontext/aniflax/internal/ui"
	"github.com/spf13/cobra"
)

var (
	auditLimit  int
	auditVerify bool
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show or verify the audit trail of administrative actions",
	Long: `Show the most recent administrative actions taken through the bot
(hide, show, cancel, leave, backup), or verify the trail's hash chain.

Each entry's hash covers its sequence, timestamp, type, data and the previous
entry's hash, so an edited or deleted row breaks verification.

Examples:
  aniflax audit
  aniflax audit --limit 50
  aniflax audit --verify`,
	Args: cobra.NoArgs,
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().IntVarP(&auditLimit, "limit", "n", 20, "number of recent entries to show")
	auditCmd.Flags().BoolVar(&auditVerify, "verify", false, "verify the hash chain instead of listing entries")
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	path := cfg.AuditPath()
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		return fmt.Errorf("no audit trail at %s", path)
	}

	store, err := audit.OpenStore(path)
	if err != nil {
		return fmt.Errorf("opening audit trail: %w", err)
	}
	defer store.Close()

	if auditVerify {
		return verifyAudit(cmd, store)
	}

	entries, err := store.Recent(auditLimit)
	if err != nil {
		return err
	}
	if jsonOut {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(entries)
	}
	if len(entries) == 0 {
		ui.Info("No administrative actions recorded.")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		data, _ := json.Marshal(e.Data)
		rows = append(rows, []string{
			strconv.FormatUint(e.Sequence, 10),
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			string(e.Type),
			shortHash(e.Hash),
			string(data),
		})
	}
	ui.Table([]string{"SEQ", "TIME", "TYPE", "HASH", "DATA"}, rows)
	return nil
}

func verifyAudit(cmd *cobra.Command, store *audit.Store) error {
	result, err := store.VerifyChain()
	if err != nil {
		return fmt.Errorf("verification error: %w", err)
	}
	if jsonOut {
		if err := json.NewEncoder(cmd.OutOrStdout()).Encode(result); err != nil {
			return err
		}
	} else if result.Valid {
		ui.Printf("%s Hash chain: %d entr%s, no gaps, all hashes valid\n",
			ui.OKTag(), result.EntryCount, plural(int(result.EntryCount), "y", "ies"))
	} else {
		ui.Printf("%s Hash chain broken at entry %d: %s\n", ui.FailTag(), result.BrokenAt, result.Error)
	}
	if !result.Valid {
		return fmt.Errorf("audit trail failed verification")
	}
	return nil
}
