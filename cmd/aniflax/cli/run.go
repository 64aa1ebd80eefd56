package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/majorcontext/aniflax/internal/audit"
	"github.com/majorcontext/aniflax/internal/command"
	"github.com/majorcontext/aniflax/internal/config"
	"github.com/majorcontext/aniflax/internal/debug"
	"github.com/majorcontext/aniflax/internal/gateway"
	"github.com/majorcontext/aniflax/internal/introspect"
	"github.com/majorcontext/aniflax/internal/log"
	"github.com/majorcontext/aniflax/internal/metrics"
	"github.com/majorcontext/aniflax/internal/secrets"
	"github.com/majorcontext/aniflax/internal/task"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to Discord and serve the aniflax commands",
	Long: `Connect to Discord and serve the aniflax command group until interrupted.

The token may be a plain value or a secret reference:
  env://VAR              environment variable
  file:///path           file contents
  op://vault/item/field  1Password CLI
  awssm://[region/]name  AWS Secrets Manager (name#key selects a JSON field)
  keyring://[user]       OS keyring (see 'aniflax token set')

When metrics.addr is set, Prometheus metrics are served on /metrics.`,
	Args: cobra.NoArgs,
	RunE: runBot,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// bot is the wired application. Fields are exposed for the run loop only.
type bot struct {
	gateway *gateway.Gateway
	metrics *metrics.Collector
	audit   *audit.Store
	addr    string
}

func runBot(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	token, err := secrets.Value(ctx, cfg.Token)
	if err != nil {
		return fmt.Errorf("resolving bot token: %w", err)
	}

	b, err := newBot(cfg, token, time.Now())
	if err != nil {
		return err
	}
	defer b.close()

	return b.run(ctx)
}

// newBot wires every component from cfg. loadTime is reported by the status
// brief as the process start.
func newBot(cfg *config.Config, token string, loadTime time.Time) (*bot, error) {
	b := &bot{addr: cfg.Metrics.Addr}

	var recorder debug.Recorder
	if cfg.Audit.Enabled {
		store, err := audit.OpenStore(cfg.AuditPath())
		if err != nil {
			return nil, fmt.Errorf("opening audit trail: %w", err)
		}
		b.audit = store
		recorder = store
	}

	probe := introspect.NewProcfs(cfg.Introspect.ProcMount)
	if !probe.Available() {
		log.Warn("process introspection unavailable, stats will be limited", "backend", probe.Name())
	}

	tasks := task.NewRegistry()
	b.metrics = metrics.New(tasks.Len)
	router := command.NewRouter(cfg.Prefix, cfg.Owners, command.WithObserver(b.metrics))

	// The gateway is the host the feature reads from, and the feature is
	// what the gateway reports READY to; ready closes over the feature.
	var feature *debug.Feature
	gw, err := gateway.New(gateway.Options{
		Token:   token,
		Shards:  cfg.Shards,
		Intents: hostIntents(cfg),
		Router:  router,
		OnReady: func(t time.Time) { feature.MarkReady(t) },
	})
	if err != nil {
		b.close()
		return nil, err
	}
	b.gateway = gw

	feature = debug.New(debug.Options{
		Name:       cfg.Command.Name,
		Aliases:    cfg.Command.Aliases,
		Version:    Version(),
		Host:       gw,
		Probe:      probe,
		Tasks:      tasks,
		Audit:      recorder,
		BackupRoot: cfg.Backup.Root,
		Backup:     backupOptions(cfg),
		Visible:    cfg.Command.Visible,
		LoadTime:   loadTime,
	})
	router.Register(feature.Group())
	return b, nil
}

func (b *bot) run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.gateway.Run(ctx)
	})
	if b.addr != "" {
		g.Go(func() error {
			return b.metrics.Serve(ctx, b.addr)
		})
	}

	log.Info("bot starting", "metrics_addr", b.addr, "audit", b.audit != nil)
	err := g.Wait()
	log.Info("bot stopped")
	return err
}

func (b *bot) close() {
	if b.audit == nil {
		return
	}
	if err := b.audit.Close(); err != nil {
		log.Warn("closing audit trail", "error", err)
	}
}
