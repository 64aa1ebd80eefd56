package debug

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/majorcontext/aniflax/internal/audit"
	"github.com/majorcontext/aniflax/internal/command"
	"github.com/majorcontext/aniflax/internal/command/commandtest"
	"github.com/majorcontext/aniflax/internal/host"
	"github.com/majorcontext/aniflax/internal/introspect"
)

type fakeHost struct {
	guilds   []host.Guild
	users    int
	shards   []host.ShardLatency
	intents  host.Intents
	leaveErr error

	mu     sync.Mutex
	leaves []string
}

func (h *fakeHost) Guilds() []host.Guild { return h.guilds }

func (h *fakeHost) Guild(id string) (host.Guild, bool) {
	for _, g := range h.guilds {
		if g.ID == id {
			return g, true
		}
	}
	return host.Guild{}, false
}

func (h *fakeHost) UserCount() int                      { return h.users }
func (h *fakeHost) Latency() time.Duration              { return host.AverageLatency(h.shards) }
func (h *fakeHost) ShardLatencies() []host.ShardLatency { return h.shards }
func (h *fakeHost) ShardCount() int                     { return len(h.shards) }
func (h *fakeHost) Intents() host.Intents               { return h.intents }
func (h *fakeHost) LibraryVersion() string              { return "v0.28.1" }

func (h *fakeHost) LeaveGuild(_ context.Context, id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaves = append(h.leaves, id)
	return h.leaveErr
}

func (h *fakeHost) leaveCalls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.leaves...)
}

// fakeProbe reports fixed values. With block set, CPUPercent waits for the
// context instead of sampling.
type fakeProbe struct {
	pid   int
	mem   uint64
	start time.Time
	cpu   float64
	block bool
}

func (p *fakeProbe) Name() string                  { return "procfs" }
func (p *fakeProbe) Available() bool               { return true }
func (p *fakeProbe) PID() (int, error)             { return p.pid, nil }
func (p *fakeProbe) Memory() (uint64, error)       { return p.mem, nil }
func (p *fakeProbe) StartTime() (time.Time, error) { return p.start, nil }

func (p *fakeProbe) CPUPercent(ctx context.Context, _ time.Duration) (float64, error) {
	if p.block {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	return p.cpu, nil
}

var _ introspect.Probe = (*fakeProbe)(nil)

type auditCall struct {
	typ  audit.EntryType
	data any
}

type fakeAudit struct {
	mu    sync.Mutex
	calls []auditCall
	err   error
}

func (a *fakeAudit) Append(t audit.EntryType, data any) (*audit.Entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, auditCall{t, data})
	if a.err != nil {
		return nil, a.err
	}
	return &audit.Entry{Type: t, Data: data}, nil
}

var (
	testNow   = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	testOwner = command.User{ID: "100", Name: "owner"}
)

func newTestContext(args ...string) (*command.Context, *commandtest.Recorder) {
	rec := &commandtest.Recorder{}
	return &command.Context{
		Invocation: command.Invocation{
			Author:  testOwner,
			Message: command.Message{ID: "m1", ChannelID: "c1", CreatedAt: testNow},
			Command: &command.Ref{QualifiedName: "aniflax test"},
		},
		Args:   args,
		Reply:  rec,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, rec
}

func inv(name string, at time.Time) command.Invocation {
	i := command.Invocation{Author: testOwner, Message: command.Message{ID: "x", CreatedAt: at}}
	if name != "" {
		i.Command = &command.Ref{QualifiedName: name}
	}
	return i
}
