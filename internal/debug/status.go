package debug

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/majorcontext/aniflax/internal/command"
	"github.com/majorcontext/aniflax/internal/system"
)

func relative(t time.Time) string {
	return fmt.Sprintf("<t:%d:R>", t.Unix())
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func millis(d time.Duration) int64 {
	return d.Round(time.Millisecond).Milliseconds()
}

// Status sends the status brief. Process metrics the probe cannot read are
// left out.
func (f *Feature) Status(ctx context.Context, c *command.Context) error {
	lines := []string{
		fmt.Sprintf("Aniflax v%s, discordgo `%s`, `Go %s` on `%s`",
			f.version, f.host.LibraryVersion(), strings.TrimPrefix(runtime.Version(), "go"), runtime.GOOS),
	}
	if ready := f.ready(); ready.IsZero() {
		lines = append(lines, fmt.Sprintf("Process started at %s, bot is not ready yet.", relative(f.loadTime)))
	} else {
		lines = append(lines, fmt.Sprintf("Process started at %s, bot was ready at %s.", relative(f.loadTime), relative(ready)))
	}
	lines = append(lines, "")

	var proc []string
	if mem, err := f.probe.Memory(); err == nil {
		proc = append(proc, fmt.Sprintf("Using %s at this process.", system.NaturalSize(mem)))
	}
	if pid, err := f.probe.PID(); err == nil {
		proc = append(proc, fmt.Sprintf("Running on PID %d", pid))
	}
	if len(proc) > 0 {
		lines = append(lines, proc...)
		lines = append(lines, "")
	}

	guilds := plural(len(f.host.Guilds()), "guild")
	users := plural(f.host.UserCount(), "user")
	if shards := f.host.ShardCount(); shards > 1 {
		lines = append(lines, fmt.Sprintf("This bot is sharded across %d shards and can see %s and %s.", shards, guilds, users))
	} else {
		lines = append(lines, fmt.Sprintf("This bot is not sharded and can see %s and %s.", guilds, users))
	}

	for _, in := range f.host.Intents().Named() {
		lines = append(lines, fmt.Sprintf("`%s` intent is %s", in.Name, in.State()))
	}
	lines = append(lines, fmt.Sprintf("Average websocket latency: %dms", millis(f.host.Latency())))

	return c.Reply.Send(ctx, strings.Join(lines, "\n"))
}

// formatUptime renders d as "Xd Xh Xm Xs".
func formatUptime(d time.Duration) string {
	secs := int64(d / time.Second)
	if secs < 0 {
		secs = 0
	}
	days := secs / 86400
	secs %= 86400
	hours := secs / 3600
	secs %= 3600
	return fmt.Sprintf("%dd %dh %dm %ds", days, hours, secs/60, secs%60)
}

// Stats sends detailed runtime stats. Sampling CPU blocks for the stats
// interval, so the work is registered as a task and can be cancelled.
func (f *Feature) Stats(ctx context.Context, c *command.Context) error {
	if !f.probe.Available() {
		return c.Reply.Send(ctx, fmt.Sprintf("`%s` introspection is not available, cannot retrieve runtime stats.", f.probe.Name()))
	}

	return f.submit(ctx, c, func(ctx context.Context) error {
		var b strings.Builder
		b.WriteString("**Runtime Stats**\n\n")

		cpu, err := f.probe.CPUPercent(ctx, f.interval)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			fmt.Fprintf(&b, "**CPU Usage**: %.1f%%\n", cpu)
		} else {
			c.Logger.Debug("cpu sample failed", "error", err)
		}
		if mem, err := f.probe.Memory(); err == nil {
			fmt.Fprintf(&b, "**Memory Usage**: %s\n", system.NaturalSize(mem))
		}
		if start, err := f.probe.StartTime(); err == nil {
			fmt.Fprintf(&b, "**Uptime**: %s\n", formatUptime(f.now().Sub(start)))
		}

		if f.host.ShardCount() > 1 {
			var shards []string
			for _, s := range f.host.ShardLatencies() {
				shards = append(shards, fmt.Sprintf("Shard %d: %dms", s.Shard, millis(s.Latency)))
			}
			fmt.Fprintf(&b, "**Latency**: %s\n\n", strings.Join(shards, "\n"))
		} else {
			fmt.Fprintf(&b, "**Latency**: %dms\n\n", millis(f.host.Latency()))
		}

		b.WriteString("**Intent Usage**:")
		for _, in := range f.host.Intents().Named() {
			fmt.Fprintf(&b, "\n%s: %s", in.Name, in.State())
		}
		return c.Reply.Send(ctx, b.String())
	})
}
