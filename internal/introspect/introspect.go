// Package introspect reads metrics about the bot's own process. The
// capability is optional: where /proc is missing or unreadable, NewProcfs
// hands back Pending and callers drop whatever they meant to show.
package introspect

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned by every read on a Pending probe.
var ErrUnavailable = errors.New("process introspection unavailable")

// Probe reads metrics for the current process. Every read may fail on its
// own; a failed read says nothing about the others.
type Probe interface {
	// Name identifies the backend in user-facing messages.
	Name() string
	// Available reports whether the backend was usable when created.
	Available() bool
	PID() (int, error)
	// Memory returns resident set size in bytes.
	Memory() (uint64, error)
	StartTime() (time.Time, error)
	// CPUPercent samples CPU usage over interval. It blocks for interval
	// unless ctx ends first. Values above 100 mean more than one core.
	CPUPercent(ctx context.Context, interval time.Duration) (float64, error)
}

// Pending stands in for a backend that could not be loaded.
type Pending struct {
	Backend string
	Reason  error
}

var _ Probe = Pending{}

func (p Pending) Name() string {
	if p.Backend == "" {
		return "procfs"
	}
	return p.Backend
}

func (Pending) Available() bool               { return false }
func (Pending) PID() (int, error)             { return 0, ErrUnavailable }
func (Pending) Memory() (uint64, error)       { return 0, ErrUnavailable }
func (Pending) StartTime() (time.Time, error) { return time.Time{}, ErrUnavailable }
func (Pending) CPUPercent(context.Context, time.Duration) (float64, error) {
	return 0, ErrUnavailable
}
