package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveCommand(t *testing.T) {
	c := New(nil)

	c.ObserveCommand("aniflax cancel", "ok", 10*time.Millisecond)
	c.ObserveCommand("aniflax cancel", "ok", 20*time.Millisecond)
	c.ObserveCommand("aniflax cancel", "user_error", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.commands.WithLabelValues("aniflax cancel", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.commands.WithLabelValues("aniflax cancel", "user_error")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.duration))
}

func TestObserveCommand_NilCollector(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() { c.ObserveCommand("aniflax", "ok", time.Second) })
}

func TestTasksGauge(t *testing.T) {
	n := 3
	c := New(func() int { return n })

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "aniflax_tasks_registered 3")

	n = 0
	rec = httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "aniflax_tasks_registered 0")
}

func TestServe_StopsOnCancel(t *testing.T) {
	c := New(nil)
	c.ObserveCommand("aniflax", "ok", time.Millisecond)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.True(t, strings.Contains(string(body), `aniflax_commands_total{command="aniflax",outcome="ok"} 1`))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}
