package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/majorcontext/aniflax/internal/config"
	"github.com/majorcontext/aniflax/internal/introspect"
	"github.com/majorcontext/aniflax/internal/system"
	"github.com/majorcontext/aniflax/internal/ui"
	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Show what process introspection reports on this host",
	Long: `Read this process through the same introspection backend the bot uses
for its status and stats replies. Fields the backend cannot read are shown
as unavailable; the bot omits them from its replies.`,
	Args: cobra.NoArgs,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

// probeReport is the --json shape. Nil fields could not be read.
type probeReport struct {
	Backend    string     `json:"backend"`
	Available  bool       `json:"available"`
	PID        *int       `json:"pid,omitempty"`
	Memory     *uint64    `json:"memory_bytes,omitempty"`
	StartTime  *time.Time `json:"start_time,omitempty"`
	CPUPercent *float64   `json:"cpu_percent,omitempty"`
}

func runProbe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	probe := introspect.NewProcfs(cfg.Introspect.ProcMount)
	report := readProbe(cmd.Context(), probe)

	if jsonOut {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(report)
	}

	unavailable := ui.Dim("unavailable")
	pid, mem, started, cpu := unavailable, unavailable, unavailable, unavailable
	if report.PID != nil {
		pid = strconv.Itoa(*report.PID)
	}
	if report.Memory != nil {
		mem = system.NaturalSize(*report.Memory)
	}
	if report.StartTime != nil {
		started = report.StartTime.Local().Format(time.RFC3339)
	}
	if report.CPUPercent != nil {
		cpu = fmt.Sprintf("%.1f%%", *report.CPUPercent)
	}
	tag := ui.OKTag()
	if !report.Available {
		tag = ui.WarnTag()
	}

	ui.Section("Process introspection")
	ui.Fields(
		[2]string{"Backend", tag + " " + report.Backend},
		[2]string{"PID", pid},
		[2]string{"Memory", mem},
		[2]string{"Started", started},
		[2]string{"CPU", cpu},
	)
	return nil
}

func readProbe(ctx context.Context, probe introspect.Probe) probeReport {
	report := probeReport{Backend: probe.Name(), Available: probe.Available()}
	if pid, err := probe.PID(); err == nil {
		report.PID = &pid
	}
	if mem, err := probe.Memory(); err == nil {
		report.Memory = &mem
	}
	if start, err := probe.StartTime(); err == nil {
		report.StartTime = &start
	}
	if cpu, err := probe.CPUPercent(ctx, time.Second); err == nil {
		report.CPUPercent = &cpu
	}
	return report
}
