// Package debug is the aniflax command group: a status brief plus
// subcommands to inspect and administer the running bot.
//
// All mutable state (the visibility flag, the task registry and the
// load/ready times) lives on a Feature, which handlers receive by
// reference.
package debug

import (
	"context"
	"sync"
	"time"

	"github.com/majorcontext/aniflax/internal/audit"
	"github.com/majorcontext/aniflax/internal/backup"
	"github.com/majorcontext/aniflax/internal/command"
	"github.com/majorcontext/aniflax/internal/host"
	"github.com/majorcontext/aniflax/internal/introspect"
	"github.com/majorcontext/aniflax/internal/task"
)

// Recorder appends administrative actions to an audit trail.
// *audit.Store satisfies it.
type Recorder interface {
	Append(entryType audit.EntryType, data any) (*audit.Entry, error)
}

// Options configures a Feature. Host is required; everything else has a
// usable zero value.
type Options struct {
	// Name and Aliases of the root command. Defaults: "aniflax", ["ani"].
	Name    string
	Aliases []string
	// Version is reported in the status brief.
	Version string

	Host  host.Host
	Probe introspect.Probe
	Tasks *task.Registry
	Audit Recorder

	// BackupRoot is the tree archived by the backup subcommand. Default ".".
	BackupRoot string
	Backup     backup.Options

	// Visible starts the group shown in help. The group starts hidden.
	Visible bool
	// LoadTime is when the feature was loaded. Default: now.
	LoadTime time.Time
	// StatsInterval is the CPU sampling window. Default: one second.
	StatsInterval time.Duration
	// Now is the clock. Default: time.Now.
	Now func() time.Time
}

// Feature owns the state behind the aniflax command group.
type Feature struct {
	name     string
	aliases  []string
	version  string
	host     host.Host
	probe    introspect.Probe
	tasks    *task.Registry
	audit    Recorder
	root     string
	backup   backup.Options
	interval time.Duration
	now      func() time.Time
	loadTime time.Time

	mu        sync.Mutex
	hidden    bool
	readyTime time.Time
}

// New creates a Feature.
func New(opts Options) *Feature {
	f := &Feature{
		name:     opts.Name,
		aliases:  opts.Aliases,
		version:  opts.Version,
		host:     opts.Host,
		probe:    opts.Probe,
		tasks:    opts.Tasks,
		audit:    opts.Audit,
		root:     opts.BackupRoot,
		backup:   opts.Backup,
		interval: opts.StatsInterval,
		now:      opts.Now,
		loadTime: opts.LoadTime,
		hidden:   !opts.Visible,
	}
	if f.name == "" {
		f.name = "aniflax"
		if f.aliases == nil {
			f.aliases = []string{"ani"}
		}
	}
	if f.version == "" {
		f.version = "dev"
	}
	if f.probe == nil {
		f.probe = introspect.Pending{}
	}
	if f.tasks == nil {
		f.tasks = task.NewRegistry()
	}
	if f.root == "" {
		f.root = "."
	}
	if f.interval <= 0 {
		f.interval = time.Second
	}
	if f.now == nil {
		f.now = time.Now
	}
	if f.loadTime.IsZero() {
		f.loadTime = f.now()
	}
	return f
}

// Tasks returns the feature's task registry.
func (f *Feature) Tasks() *task.Registry {
	return f.tasks
}

// MarkReady records when the bot finished connecting.
func (f *Feature) MarkReady(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readyTime = t
}

func (f *Feature) ready() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readyTime
}

// Hidden reports whether the group is left out of help.
func (f *Feature) Hidden() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hidden
}

// setHidden sets the flag and reports whether it changed.
func (f *Feature) setHidden(hidden bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hidden == hidden {
		return false
	}
	f.hidden = hidden
	return true
}

// Group builds the command group for registration on a router.
func (f *Feature) Group() *command.Group {
	g := &command.Group{
		Name:    f.name,
		Aliases: f.aliases,
		Short:   "Status brief of the running bot",
		Run:     f.Status,
		Hidden:  f.Hidden,
	}
	g.Add(
		&command.Command{Name: "stats", Aliases: []string{"runtime_stats"}, Short: "Detailed runtime stats", Run: f.Stats},
		&command.Command{Name: "hide", Short: "Hide this group from help", Run: f.Hide},
		&command.Command{Name: "show", Short: "Show this group in help", Run: f.Show},
		&command.Command{Name: "tasks", Short: "List running tasks", Run: f.ListTasks},
		&command.Command{Name: "cancel", Usage: "<index>", Short: "Cancel a task by index, -1 for the latest or ~ for all", Run: f.Cancel},
		&command.Command{Name: "leave", Usage: "<server_id>", Short: "Leave a server", Run: f.Leave},
		&command.Command{Name: "backup", Short: "Send the source tree as a zip", Run: f.Backup},
	)
	return g
}

func actor(c *command.Context) audit.Actor {
	return audit.Actor{
		UserID:    c.Author.ID,
		UserName:  c.Author.Name,
		MessageID: c.Message.ID,
	}
}

// record appends to the audit trail. Failures are logged and otherwise
// ignored; the action has already happened.
func (f *Feature) record(c *command.Context, entryType audit.EntryType, data any) {
	if f.audit == nil {
		return
	}
	if _, err := f.audit.Append(entryType, data); err != nil {
		c.Logger.Warn("failed to append audit entry", "type", entryType, "error", err)
	}
}

// submit runs fn as a registered task for the invocation.
func (f *Feature) submit(ctx context.Context, c *command.Context, fn func(ctx context.Context) error) error {
	return f.tasks.Submit(ctx, c.Invocation, fn)
}
