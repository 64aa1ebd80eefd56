package debug

import (
	"context"
	"fmt"
	"strconv"

	"github.com/majorcontext/aniflax/internal/audit"
	"github.com/majorcontext/aniflax/internal/command"
	"github.com/majorcontext/aniflax/internal/paginate"
	"github.com/majorcontext/aniflax/internal/task"
)

const cancelAll = "~"

// ListTasks sends the task registry, paginated.
func (f *Feature) ListTasks(ctx context.Context, c *command.Context) error {
	records := f.tasks.List()
	if len(records) == 0 {
		return c.Reply.Send(ctx, "No currently running tasks.")
	}

	p := paginate.New()
	for _, rec := range records {
		p.AddLine(taskLine(rec))
	}
	return c.Reply.SendPages(ctx, c.Author.ID, p.Pages())
}

func taskLine(rec task.Record) string {
	invoked := rec.Invocation.Message.CreatedAt.UTC().Format("2006-01-02 15:04:05")
	if rec.Invocation.Command == nil {
		return fmt.Sprintf("%d: unknown, invoked at %s UTC", rec.Index, invoked)
	}
	return fmt.Sprintf("%d: `%s`, invoked at %s UTC", rec.Index, rec.Invocation.CommandName(), invoked)
}

// Cancel cancels a task by index, the latest task with -1, or every task
// with ~.
func (f *Feature) Cancel(ctx context.Context, c *command.Context) error {
	arg, err := c.Rest(0, "index")
	if err != nil {
		return err
	}
	if f.tasks.Len() == 0 {
		return c.Reply.Send(ctx, "No tasks to cancel.")
	}

	if arg == cancelAll {
		n := f.tasks.CancelAll()
		c.Logger.Info("cancelled all tasks", "count", n)
		f.record(c, audit.EntryCancel, audit.CancelData{Actor: actor(c), Cancelled: n})
		return c.Reply.Send(ctx, fmt.Sprintf("Cancelled %d tasks.", n))
	}

	index, err := strconv.Atoi(arg)
	if err != nil {
		return &command.BadArgumentError{Param: "index", Value: arg, Reason: `Literal for "index" not recognized.`}
	}

	var (
		rec task.Record
		ok  bool
	)
	if index == -1 {
		rec, ok = f.tasks.CancelLatest()
	} else {
		rec, ok = f.tasks.Cancel(index)
	}
	if !ok {
		return c.Reply.Send(ctx, "Unknown task.")
	}

	name := "unknown"
	if rec.Invocation.Command != nil {
		name = "`" + rec.Invocation.CommandName() + "`"
	}
	c.Logger.Info("cancelled task", "index", rec.Index, "task_command", rec.Invocation.CommandName())
	f.record(c, audit.EntryCancel, audit.CancelData{
		Actor:     actor(c),
		Index:     index,
		Cancelled: 1,
		Command:   rec.Invocation.CommandName(),
	})
	return c.Reply.Send(ctx, fmt.Sprintf("Cancelled task %d: %s, invoked %s", rec.Index, name, relative(rec.Invocation.Message.CreatedAt)))
}
