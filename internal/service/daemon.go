// Package service provides the core service lifecycle management.
package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scicalc/internal/config"
	"github.com/ternarybob/scicalc/internal/logger"
)

const shutdownTimeout = 10 * time.Second

// Daemon manages the service lifecycle.
type Daemon struct {
	cfg      *config.Config
	server   *http.Server
	listener net.Listener
	logger   arbor.ILogger

	stopCh    chan struct{}
	stoppedCh chan struct{}
	stopOnce  sync.Once

	mu      sync.Mutex
	running bool
}

// NewDaemon creates a new daemon instance.
func NewDaemon(cfg *config.Config) *Daemon {
	return &Daemon{
		cfg:       cfg,
		logger:    logger.GetLogger(),
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Start binds the configured address and serves handler in the background.
// A bind failure is returned directly rather than logged from the goroutine.
func (d *Daemon) Start(handler http.Handler) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return fmt.Errorf("daemon already running")
	}

	if err := d.cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	ln, err := net.Listen("tcp", d.cfg.Address())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", d.cfg.Address(), err)
	}
	d.listener = ln

	if err := d.writePID(); err != nil {
		ln.Close()
		return fmt.Errorf("write PID: %w", err)
	}

	d.server = &http.Server{
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // the MCP stream is long-lived; API routes carry their own timeout
		IdleTimeout:  120 * time.Second,
	}
	d.running = true

	go func() {
		d.logger.Info().Str("address", ln.Addr().String()).Msg("Starting server")
		if err := d.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.logger.Error().Err(err).Msg("Server error")
		}
	}()

	return nil
}

// Addr returns the bound listen address, or "" before Start.
func (d *Daemon) Addr() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.listener == nil {
		return ""
	}
	return d.listener.Addr().String()
}

// Wait blocks until a signal arrives, Stop is called, or ctx is done, then
// shuts the server down.
func (d *Daemon) Wait(ctx context.Context) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		d.logger.Info().Str("signal", sig.String()).Msg("Received signal, shutting down")
	case <-d.stopCh:
		d.logger.Info().Msg("Stop requested, shutting down")
	case <-ctx.Done():
		d.logger.Info().Msg("Context cancelled, shutting down")
	}

	d.shutdown()
}

// Stop signals the daemon to stop and waits for Wait to finish shutting down.
func (d *Daemon) Stop() {
	d.mu.Lock()
	running := d.running
	d.mu.Unlock()
	if !running {
		return
	}

	d.stopOnce.Do(func() { close(d.stopCh) })
	<-d.stoppedCh
}

func (d *Daemon) shutdown() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if d.server != nil {
		if err := d.server.Shutdown(ctx); err != nil {
			d.logger.Warn().Err(err).Msg("Server shutdown error")
		}
	}

	d.removePID()

	d.running = false
	close(d.stoppedCh)
}

func (d *Daemon) writePID() error {
	pidPath := d.cfg.PIDPath()
	if err := os.MkdirAll(filepath.Dir(pidPath), 0755); err != nil {
		return fmt.Errorf("create PID directory: %w", err)
	}
	return os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0644)
}

func (d *Daemon) removePID() {
	_ = os.Remove(d.cfg.PIDPath())
}

// IsRunning checks if a daemon is already running.
func IsRunning(cfg *config.Config) (bool, int) {
	pidPath := cfg.PIDPath()

	data, err := os.ReadFile(pidPath)
	if err != nil {
		return false, 0
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return false, 0
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false, 0
	}

	// Signal 0 probes for existence
	if err := process.Signal(syscall.Signal(0)); err != nil {
		_ = os.Remove(pidPath)
		return false, 0
	}

	return true, pid
}

// StopRunning stops a running daemon.
func StopRunning(cfg *config.Config) error {
	running, pid := IsRunning(cfg)
	if !running {
		return fmt.Errorf("daemon not running")
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process: %w", err)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("send signal: %w", err)
	}

	for i := 0; i < 30; i++ {
		time.Sleep(100 * time.Millisecond)
		if running, _ := IsRunning(cfg); !running {
			return nil
		}
	}

	if err := process.Kill(); err != nil {
		return fmt.Errorf("kill process: %w", err)
	}

	_ = os.Remove(cfg.PIDPath())

	return nil
}
