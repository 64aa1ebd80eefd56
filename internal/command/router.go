package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/majorcontext/aniflax/internal/log"
)

// Command is a subcommand of a Group.
type Command struct {
	Name    string
	Aliases []string
	Usage   string
	Short   string
	Run     HandlerFunc
}

// Group is a root command with optional subcommands. Run handles the group
// invoked without a subcommand.
type Group struct {
	Name    string
	Aliases []string
	Short   string
	Run     HandlerFunc
	// Hidden reports whether the group is left out of help. Nil means visible.
	Hidden func() bool

	commands []*Command
}

// Add registers subcommands.
func (g *Group) Add(cmds ...*Command) {
	g.commands = append(g.commands, cmds...)
}

// Commands returns the registered subcommands.
func (g *Group) Commands() []*Command {
	return g.commands
}

func (g *Group) isHidden() bool {
	return g.Hidden != nil && g.Hidden()
}

func (g *Group) lookup(name string) *Command {
	for _, c := range g.commands {
		if matches(name, c.Name, c.Aliases) {
			return c
		}
	}
	return nil
}

func matches(name, canonical string, aliases []string) bool {
	if name == canonical {
		return true
	}
	for _, a := range aliases {
		if name == a {
			return true
		}
	}
	return false
}

// Observer receives one observation per dispatched command.
type Observer interface {
	ObserveCommand(command, outcome string, elapsed time.Duration)
}

// Outcomes reported to the Observer.
const (
	OutcomeOK           = "ok"
	OutcomeUserError    = "user_error"
	OutcomeCheckFailure = "check_failure"
	OutcomeError        = "error"
)

// Router parses prefixed messages and dispatches them to groups.
type Router struct {
	prefix   string
	owners   map[string]bool
	groups   []*Group
	observer Observer
}

// Option configures a Router.
type Option func(*Router)

// WithObserver attaches a dispatch observer.
func WithObserver(o Observer) Option {
	return func(r *Router) { r.observer = o }
}

// NewRouter creates a router for prefix. Only users in owners may run
// commands; an empty owner list locks every command.
func NewRouter(prefix string, owners []string, opts ...Option) *Router {
	r := &Router{
		prefix: prefix,
		owners: make(map[string]bool, len(owners)),
	}
	for _, id := range owners {
		r.owners[id] = true
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a group.
func (r *Router) Register(g *Group) {
	r.groups = append(r.groups, g)
}

// Prefix returns the command prefix.
func (r *Router) Prefix() string {
	return r.prefix
}

// Dispatch handles one message. It returns false when the message is not a
// command for this router. Handler errors are reported to the invoker here;
// the returned error only reflects a failure to deliver that report.
func (r *Router) Dispatch(ctx context.Context, author User, msg Message, reply Replier) (bool, error) {
	if !strings.HasPrefix(msg.Content, r.prefix) {
		return false, nil
	}
	fields := strings.Fields(strings.TrimPrefix(msg.Content, r.prefix))
	if len(fields) == 0 {
		return false, nil
	}

	if fields[0] == "help" {
		return true, reply.Send(ctx, r.help())
	}

	var group *Group
	for _, g := range r.groups {
		if matches(fields[0], g.Name, g.Aliases) {
			group = g
			break
		}
	}
	if group == nil {
		return false, nil
	}

	name := group.Name
	run := group.Run
	args := fields[1:]
	usage := ""
	if len(args) > 0 {
		if sub := group.lookup(args[0]); sub != nil {
			name = group.Name + " " + sub.Name
			run = sub.Run
			usage = sub.Usage
			args = args[1:]
		} else {
			run = func(context.Context, *Context) error {
				return &TooManyArgumentsError{Extra: args}
			}
		}
	}

	c := &Context{
		Invocation: Invocation{
			Author:  author,
			Message: msg,
			Command: &Ref{QualifiedName: name},
		},
		Args:   args,
		Reply:  reply,
		Logger: log.ForCommand(name, author.ID, msg.ID),
	}

	start := time.Now()
	var err error
	switch {
	case !r.owners[author.ID]:
		err = &CheckFailure{Reason: "invoker is not an owner"}
	case run == nil:
		err = &TooManyArgumentsError{Extra: args}
	default:
		err = run(ctx, c)
	}
	outcome, sendErr := r.report(ctx, c, usage, err)
	if r.observer != nil {
		r.observer.ObserveCommand(name, outcome, time.Since(start))
	}
	return true, sendErr
}

func (r *Router) report(ctx context.Context, c *Context, usage string, err error) (string, error) {
	if err == nil {
		return OutcomeOK, nil
	}

	var (
		bad     *BadArgumentError
		missing *MissingArgumentError
		extra   *TooManyArgumentsError
		check   *CheckFailure
	)
	switch {
	case errors.As(err, &check):
		c.Logger.Debug("command check failed", "reason", check.Reason)
		return OutcomeCheckFailure, nil
	case errors.As(err, &bad):
		return OutcomeUserError, c.Reply.Send(ctx, "Bad argument: "+bad.Error())
	case errors.As(err, &missing):
		msg := missing.Error()
		if usage != "" {
			msg += fmt.Sprintf("\nUsage: `%s%s %s`", r.prefix, c.CommandName(), usage)
		}
		return OutcomeUserError, c.Reply.Send(ctx, msg)
	case errors.As(err, &extra):
		return OutcomeUserError, c.Reply.Send(ctx, extra.Error())
	case errors.Is(err, context.Canceled):
		c.Logger.Info("command cancelled")
		return OutcomeError, nil
	default:
		c.Logger.Error("command failed", "error", err)
		return OutcomeError, c.Reply.Send(ctx, fmt.Sprintf("Command raised an exception: %v", err))
	}
}

func (r *Router) help() string {
	var lines []string
	for _, g := range r.groups {
		if g.isHidden() {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s%s - %s", r.prefix, g.Name, g.Short))
		subs := append([]*Command(nil), g.commands...)
		sort.Slice(subs, func(i, j int) bool { return subs[i].Name < subs[j].Name })
		for _, sub := range subs {
			lines = append(lines, fmt.Sprintf("  %s %s - %s", g.Name, sub.Name, sub.Short))
		}
	}
	if len(lines) == 0 {
		return "No commands available."
	}
	return "```\n" + strings.Join(lines, "\n") + "\n```"
}
