// Package main provides the entry point for scicalc-service.
//
// scicalc-service hosts scientific calculator sessions and serves:
// - REST API for driving sessions by input or key name
// - Web UI (the browser calculator)
// - MCP server for tool-driven evaluation
//
// Usage:
//
//	scicalc-service                    Start the service (default)
//	scicalc-service serve              Start the service
//	scicalc-service version            Show version
//	scicalc-service status             Show service status
//	scicalc-service stop               Stop the running service
//	scicalc-service mcp                Start MCP server (stdio mode)
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/ternarybob/scicalc/internal/api"
	"github.com/ternarybob/scicalc/internal/config"
	"github.com/ternarybob/scicalc/internal/keymap"
	"github.com/ternarybob/scicalc/internal/logger"
	"github.com/ternarybob/scicalc/internal/mcp"
	"github.com/ternarybob/scicalc/internal/service"
	"github.com/ternarybob/scicalc/internal/session"
)

// version is set via -ldflags at build time
var version = "dev"

func main() {
	api.SetVersion(version)

	command := "serve"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	var err error
	switch command {
	case "serve", "start":
		err = cmdServe()
	case "version", "-v", "--version":
		cmdVersion()
	case "status":
		err = cmdStatus()
	case "stop":
		err = cmdStop()
	case "mcp", "mcp-server":
		err = cmdMCP()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`scicalc-service - Scientific calculator service

Usage:
  scicalc-service [command]

Commands:
  serve         Start the service (default)
  version       Show version information
  status        Show service status
  stop          Stop the running service
  mcp           Start MCP server (stdio mode)
  help          Show this help

Configuration:
  Config file: ~/.scicalc-service/config.yaml (or $APPDATA/scicalc-service on Windows)
  Keymap file: calculator.keymap_path (TOML, reloaded on change)

Examples:
  scicalc-service                          Start the service
  curl localhost:8421/health               Check service health
  curl -X POST localhost:8421/sessions     Start a calculator session`)
}

func cmdVersion() {
	fmt.Printf("scicalc-service version %s\n", version)
}

// loadKeymap loads the configured keymap and, when enabled, starts a watcher
// that reloads it in place. The returned stop func is always safe to call.
func loadKeymap(cfg *config.Config) (*keymap.Keymap, func(), error) {
	km, err := keymap.Load(cfg.Calculator.KeymapPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load keymap: %w", err)
	}

	stop := func() {}
	if cfg.Calculator.KeymapPath == "" || !cfg.Calculator.WatchKeymap {
		return km, stop, nil
	}

	watcher, err := keymap.NewWatcher(km, cfg.Calculator.KeymapPath)
	if err != nil {
		logger.GetLogger().Warn().Err(err).Msg("Keymap watcher unavailable")
		return km, stop, nil
	}
	if err := watcher.Start(); err != nil {
		logger.GetLogger().Warn().Err(err).Msg("Keymap watcher failed to start")
		return km, stop, nil
	}

	return km, func() { _ = watcher.Stop() }, nil
}

func cmdServe() error {
	cfg, err := config.Load(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if running, pid := service.IsRunning(cfg); running {
		return fmt.Errorf("service already running (PID %d)", pid)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	log := logger.SetupLogger(cfg)
	defer logger.Stop()

	km, stopWatcher, err := loadKeymap(cfg)
	if err != nil {
		return err
	}
	defer stopWatcher()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions := session.NewManager(session.OptionsFromConfig(cfg))
	defer sessions.Close()
	go sessions.Run(ctx)

	var mcpHandler http.Handler
	if cfg.MCP.Enabled {
		mcpHandler = mcp.NewServer(sessions, km, version).HTTPHandler()
	}

	apiServer := api.NewServer(cfg, sessions, km, mcpHandler)

	daemon := service.NewDaemon(cfg)
	if err := daemon.Start(apiServer.Handler()); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	log.Info().
		Str("version", version).
		Str("address", daemon.Addr()).
		Msg("scicalc-service started")

	fmt.Printf("scicalc-service v%s started on %s\n", version, daemon.Addr())
	fmt.Printf("Web UI: http://%s/\n", daemon.Addr())
	fmt.Printf("API: http://%s/sessions\n", daemon.Addr())

	daemon.Wait(ctx)

	return nil
}

func cmdStatus() error {
	cfg, err := config.Load(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	running, pid := service.IsRunning(cfg)
	if running {
		fmt.Printf("scicalc-service: running (PID %d)\n", pid)
		fmt.Printf("Address: %s\n", cfg.Address())
	} else {
		fmt.Println("scicalc-service: stopped")
	}

	return nil
}

func cmdStop() error {
	cfg, err := config.Load(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	running, pid := service.IsRunning(cfg)
	if !running {
		fmt.Println("scicalc-service is not running")
		return nil
	}

	fmt.Printf("Stopping scicalc-service (PID %d)...\n", pid)
	if err := service.StopRunning(cfg); err != nil {
		return err
	}

	fmt.Println("scicalc-service stopped")
	return nil
}

func cmdMCP() error {
	cfg, err := config.Load(config.DefaultConfigPath())
	if err != nil {
		cfg = config.DefaultConfig()
	}

	// stdout carries the protocol
	logger.SetupFileLogger(cfg)
	defer logger.Stop()

	km, stopWatcher, err := loadKeymap(cfg)
	if err != nil {
		return err
	}
	defer stopWatcher()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions := session.NewManager(session.OptionsFromConfig(cfg))
	defer sessions.Close()
	go sessions.Run(ctx)

	return mcp.NewServer(sessions, km, version).ServeStdio()
}
