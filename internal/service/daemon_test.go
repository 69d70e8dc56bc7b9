package service

import (
	"context"
	"io"
	"net/http"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/scicalc/internal/config"
	"github.com/ternarybob/scicalc/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Discard()
	os.Exit(m.Run())
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Service.DataDir = t.TempDir()
	cfg.Service.Port = 0
	return cfg
}

func TestDaemon_StartServeStop(t *testing.T) {
	cfg := testConfig(t)
	d := NewDaemon(cfg)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "pong")
	})
	require.NoError(t, d.Start(handler))

	pid, err := os.ReadFile(cfg.PIDPath())
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(pid))

	running, got := IsRunning(cfg)
	assert.True(t, running)
	assert.Equal(t, os.Getpid(), got)

	resp, err := http.Get("http://" + d.Addr() + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	done := make(chan struct{})
	go func() {
		d.Wait(context.Background())
		close(done)
	}()

	d.Stop()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Wait did not return after Stop")
	}

	_, err = os.Stat(cfg.PIDPath())
	assert.True(t, os.IsNotExist(err), "PID file should be removed")
}

func TestDaemon_WaitHonoursContext(t *testing.T) {
	cfg := testConfig(t)
	d := NewDaemon(cfg)
	require.NoError(t, d.Start(http.NotFoundHandler()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Wait(ctx)

	// A second Stop after shutdown is a no-op.
	d.Stop()
}

func TestDaemon_StartTwice(t *testing.T) {
	cfg := testConfig(t)
	d := NewDaemon(cfg)
	require.NoError(t, d.Start(http.NotFoundHandler()))
	t.Cleanup(func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		d.Wait(ctx)
	})

	assert.Error(t, d.Start(http.NotFoundHandler()))
}

func TestIsRunning_StalePID(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, cfg.EnsureDirectories())
	require.NoError(t, os.WriteFile(cfg.PIDPath(), []byte("not-a-pid"), 0644))

	running, pid := IsRunning(cfg)
	assert.False(t, running)
	assert.Zero(t, pid)

	assert.Error(t, StopRunning(cfg))
}
