package introspect

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/procfs"
)

// Procfs reads the current process from a proc filesystem.
type Procfs struct {
	fs procfs.FS
}

var _ Probe = (*Procfs)(nil)

// NewProcfs opens the proc filesystem at mount (procfs.DefaultMountPoint when
// empty). It returns Pending if the filesystem or the process entry cannot be
// read.
func NewProcfs(mount string) Probe {
	if mount == "" {
		mount = procfs.DefaultMountPoint
	}
	fs, err := procfs.NewFS(mount)
	if err != nil {
		return Pending{Backend: "procfs", Reason: err}
	}
	if _, err := fs.Self(); err != nil {
		return Pending{Backend: "procfs", Reason: err}
	}
	return &Procfs{fs: fs}
}

func (p *Procfs) Name() string    { return "procfs" }
func (p *Procfs) Available() bool { return true }

func (p *Procfs) stat() (procfs.ProcStat, error) {
	proc, err := p.fs.Self()
	if err != nil {
		return procfs.ProcStat{}, fmt.Errorf("reading self: %w", err)
	}
	st, err := proc.Stat()
	if err != nil {
		return procfs.ProcStat{}, fmt.Errorf("reading stat: %w", err)
	}
	return st, nil
}

func (p *Procfs) PID() (int, error) {
	proc, err := p.fs.Self()
	if err != nil {
		return 0, fmt.Errorf("reading self: %w", err)
	}
	return proc.PID, nil
}

func (p *Procfs) Memory() (uint64, error) {
	st, err := p.stat()
	if err != nil {
		return 0, err
	}
	rss := st.ResidentMemory()
	if rss < 0 {
		return 0, fmt.Errorf("negative resident memory %d", rss)
	}
	return uint64(rss), nil
}

func (p *Procfs) StartTime() (time.Time, error) {
	st, err := p.stat()
	if err != nil {
		return time.Time{}, err
	}
	secs, err := st.StartTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("reading start time: %w", err)
	}
	return time.Unix(0, int64(secs*float64(time.Second))), nil
}

func (p *Procfs) CPUPercent(ctx context.Context, interval time.Duration) (float64, error) {
	before, err := p.stat()
	if err != nil {
		return 0, err
	}
	start := time.Now()

	timer := time.NewTimer(interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-timer.C:
	}

	after, err := p.stat()
	if err != nil {
		return 0, err
	}
	wall := time.Since(start).Seconds()
	if wall <= 0 {
		return 0, nil
	}
	return (after.CPUTime() - before.CPUTime()) / wall * 100, nil
}
