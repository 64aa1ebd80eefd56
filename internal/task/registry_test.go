package task

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/majorcontext/aniflax/internal/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inv(name string) command.Invocation {
	i := command.Invocation{
		Author:  command.User{ID: "1"},
		Message: command.Message{ID: "m", CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
	}
	if name != "" {
		i.Command = &command.Ref{QualifiedName: name}
	}
	return i
}

// handle returns a cancel func and a pointer reporting whether it ran.
func handle() (context.CancelFunc, *bool) {
	called := new(bool)
	return func() { *called = true }, called
}

func TestAdd_AssignsMonotonicIndexes(t *testing.T) {
	r := NewRegistry()

	a := r.Add(inv("aniflax backup"), nil)
	b := r.Add(inv("aniflax stats"), nil)
	r.Remove(b.Index)
	c := r.Add(inv(""), nil)

	assert.Equal(t, 1, a.Index)
	assert.Equal(t, 2, b.Index)
	assert.Equal(t, 3, c.Index, "indexes are never reused")

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, 1, list[0].Index)
	assert.Equal(t, 3, list[1].Index)
	assert.Equal(t, "unknown", list[1].Invocation.CommandName())
}

func TestCancelAll(t *testing.T) {
	for _, n := range []int{0, 1, 5} {
		r := NewRegistry()
		var called []*bool
		for i := 0; i < n; i++ {
			h, c := handle()
			called = append(called, c)
			r.Add(inv("aniflax backup"), h)
		}
		// A record without a handle must not break cancellation.
		if n > 0 {
			r.Add(inv("aniflax backup"), nil)
			n++
		}

		assert.Equal(t, n, r.CancelAll())
		assert.Zero(t, r.Len())
		for _, c := range called {
			assert.True(t, *c)
		}
	}
}

func TestCancelLatest(t *testing.T) {
	r := NewRegistry()
	h1, c1 := handle()
	h2, c2 := handle()
	r.Add(inv("aniflax backup"), h1)
	r.Add(inv("aniflax stats"), h2)

	rec, ok := r.CancelLatest()
	require.True(t, ok)
	assert.Equal(t, 2, rec.Index)
	assert.True(t, *c2)
	assert.False(t, *c1)
	assert.Equal(t, 1, r.Len())

	r.CancelLatest()
	_, ok = r.CancelLatest()
	assert.False(t, ok)
}

func TestCancel_UnknownIndexLeavesRegistryUnchanged(t *testing.T) {
	r := NewRegistry()
	h, called := handle()
	r.Add(inv("aniflax backup"), h)

	_, ok := r.Cancel(42)
	assert.False(t, ok)
	list := r.List()
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].Index)
	assert.False(t, *called)
}

func TestCancel_ByIndex(t *testing.T) {
	r := NewRegistry()
	r.Add(inv("aniflax backup"), nil)
	h, called := handle()
	r.Add(inv("aniflax stats"), h)
	r.Add(inv("aniflax backup"), nil)

	rec, ok := r.Cancel(2)
	require.True(t, ok)
	assert.Equal(t, "aniflax stats", rec.Invocation.CommandName())
	assert.True(t, *called)

	var indexes []int
	for _, rec := range r.List() {
		indexes = append(indexes, rec.Index)
	}
	assert.Equal(t, []int{1, 3}, indexes)
}

func TestSubmit_RemovesRecordOnCompletion(t *testing.T) {
	r := NewRegistry()

	err := r.Submit(context.Background(), inv("aniflax stats"), func(ctx context.Context) error {
		assert.Equal(t, 1, r.Len())
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, r.Len())

	boom := errors.New("boom")
	err = r.Submit(context.Background(), inv("aniflax stats"), func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, r.Len())
}

func TestSubmit_CancelStopsWork(t *testing.T) {
	r := NewRegistry()
	started := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	var err error
	go func() {
		defer wg.Done()
		err = r.Submit(context.Background(), inv("aniflax backup"), func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		})
	}()

	<-started
	rec, ok := r.CancelLatest()
	require.True(t, ok)
	assert.Equal(t, "aniflax backup", rec.Invocation.CommandName())

	wg.Wait()
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, r.Len())
}
