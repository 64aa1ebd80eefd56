package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"text/tabwriter"

	"github.com/bwmarrin/discordgo"
	"github.com/majorcontext/aniflax/internal/audit"
	"github.com/majorcontext/aniflax/internal/config"
	"github.com/majorcontext/aniflax/internal/doctor"
	"github.com/majorcontext/aniflax/internal/introspect"
	"github.com/majorcontext/aniflax/internal/secrets"
	"github.com/majorcontext/aniflax/internal/ui"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the bot is ready to run",
	Long: `Check the pieces 'aniflax run' depends on: the configuration, the bot
token and its secret backend, process introspection and the audit trail.

The token is resolved but never printed.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	reg := doctor.NewRegistry()
	reg.Register(
		&versionSection{},
		&configSection{cfg: cfg},
		&tokenSection{cfg: cfg},
		&introspectSection{cfg: cfg},
		&auditSection{cfg: cfg},
	)

	ui.Printf("%s\n\n", ui.Bold("aniflax doctor"))
	results := reg.Run(cmd.Context())
	for _, res := range results {
		ui.Section(res.Name)
		ui.Printf("%s", res.Output)
		if res.Err != nil {
			ui.Printf("%s %v\n", ui.FailTag(), res.Err)
		}
		ui.Printf("\n")
	}
	ui.Info(doctor.Summary(results))
	if doctor.Failed(results) > 0 {
		return errors.New("doctor found problems")
	}
	return nil
}

type versionSection struct{}

func (s *versionSection) Name() string { return "Version" }

func (s *versionSection) Print(_ context.Context, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "aniflax:\t%s\n", Version())
	fmt.Fprintf(tw, "discordgo:\t%s\n", discordgo.VERSION)
	fmt.Fprintf(tw, "Go:\t%s\n", runtime.Version())
	fmt.Fprintf(tw, "Platform:\t%s/%s\n", runtime.GOOS, runtime.GOARCH)
	return tw.Flush()
}

type configSection struct {
	cfg *config.Config
}

func (s *configSection) Name() string { return "Configuration" }

func (s *configSection) Print(_ context.Context, w io.Writer) error {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	state := "present"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		state = "missing, using defaults"
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "File:\t%s (%s)\n", path, state)
	fmt.Fprintf(tw, "Command:\t%s%s (aliases: %s)\n", s.cfg.Prefix, s.cfg.Command.Name, joinOr(s.cfg.Command.Aliases, "none"))
	fmt.Fprintf(tw, "Owners:\t%d\n", len(s.cfg.Owners))
	fmt.Fprintf(tw, "Shards:\t%d\n", s.cfg.Shards)
	fmt.Fprintf(tw, "Metrics:\t%s\n", orDefault(s.cfg.Metrics.Addr, "disabled"))
	if err := tw.Flush(); err != nil {
		return err
	}
	return s.cfg.Validate()
}

type tokenSection struct {
	cfg *config.Config
}

func (s *tokenSection) Name() string { return "Token" }

func (s *tokenSection) Print(ctx context.Context, w io.Writer) error {
	if s.cfg.Token == "" {
		return errors.New("no token configured")
	}
	source := "plain value"
	if secrets.IsReference(s.cfg.Token) {
		source = strings.SplitN(s.cfg.Token, "://", 2)[0] + "://"
	}
	fmt.Fprintf(w, "Source:  %s\n", source)

	token, err := secrets.Value(ctx, s.cfg.Token)
	if err != nil {
		return err
	}
	if token == "" {
		return errors.New("token resolved to an empty value")
	}
	fmt.Fprintf(w, "Resolve: %s %d characters\n", ui.OKTag(), len(token))
	return nil
}

type introspectSection struct {
	cfg *config.Config
}

func (s *introspectSection) Name() string { return "Introspection" }

func (s *introspectSection) Print(ctx context.Context, w io.Writer) error {
	probe := introspect.NewProcfs(s.cfg.Introspect.ProcMount)
	if !probe.Available() {
		// Degraded, not broken: the bot omits what it cannot read.
		fmt.Fprintf(w, "%s %s unavailable at %s, status and stats will be limited\n",
			ui.WarnTag(), probe.Name(), s.cfg.Introspect.ProcMount)
		return nil
	}
	fmt.Fprintf(w, "%s %s at %s\n", ui.OKTag(), probe.Name(), s.cfg.Introspect.ProcMount)
	return nil
}

type auditSection struct {
	cfg *config.Config
}

func (s *auditSection) Name() string { return "Audit Trail" }

func (s *auditSection) Print(_ context.Context, w io.Writer) error {
	if !s.cfg.Audit.Enabled {
		fmt.Fprintln(w, "Disabled")
		return nil
	}
	path := s.cfg.AuditPath()
	fmt.Fprintf(w, "Path:    %s\n", path)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintln(w, "Entries: none yet")
		return nil
	}

	store, err := audit.OpenStore(path)
	if err != nil {
		return err
	}
	defer store.Close()
	result, err := store.VerifyChain()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Entries: %d\n", result.EntryCount)
	if !result.Valid {
		return fmt.Errorf("hash chain broken at entry %d: %s", result.BrokenAt, result.Error)
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
