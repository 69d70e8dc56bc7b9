// Package logger holds the process-wide arbor logger.
//
// The service logs to the console and, optionally, to a rotating file under
// the data directory. The terminal calculator and the stdio MCP server own
// stdout, so they log to the file only.
package logger

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/ternarybob/arbor"
	arborcommon "github.com/ternarybob/arbor/common"
	"github.com/ternarybob/arbor/models"
	"github.com/ternarybob/scicalc/internal/config"
)

const (
	defaultTimeFormat = "15:04:05.000"
	defaultMaxSizeMB  = 100
	defaultMaxBackups = 5
)

var (
	current arbor.ILogger
	mu      sync.RWMutex
)

// GetLogger returns the process logger. Before any Setup call it installs a
// console logger and warns once.
func GetLogger() arbor.ILogger {
	mu.RLock()
	l := current
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if current == nil {
		current = arbor.NewLogger().WithConsoleWriter(writerConfig(nil, models.LogWriterTypeConsole, ""))
		current.Warn().Msg("Logger used before setup, writing to console")
	}
	return current
}

func install(l arbor.ILogger) arbor.ILogger {
	mu.Lock()
	current = l
	mu.Unlock()
	return l
}

// sinks reports which writers cfg.Logging.Output asks for.
func sinks(cfg *config.Config) (file, console bool) {
	for _, out := range cfg.Logging.Output {
		switch out {
		case "file":
			file = true
		case "stdout", "console":
			console = true
		case "both":
			file, console = true, true
		}
	}
	return file, console
}

// SetupLogger builds the service logger from cfg and installs it.
// With no usable output configured it falls back to the console.
func SetupLogger(cfg *config.Config) arbor.ILogger {
	file, console := sinks(cfg)

	l := arbor.NewLogger()
	var fileErr error
	if file {
		l, fileErr = withFile(l, cfg)
	}
	if console || fileErr != nil || !file {
		l = l.WithConsoleWriter(writerConfig(cfg, models.LogWriterTypeConsole, ""))
	}
	l = l.WithLevelFromString(cfg.Logging.Level)

	switch {
	case fileErr != nil:
		l.Warn().Err(fileErr).Str("path", cfg.LogPath()).Msg("File logging unavailable, using console")
	case !file && !console:
		l.Warn().Strs("configured_outputs", cfg.Logging.Output).Msg("No log outputs configured, using console")
	}

	return install(l)
}

// SetupFileLogger installs a logger that writes only to the log file, for
// commands whose stdout is not free. If the file cannot be opened the logger
// discards instead of falling back to stdout.
func SetupFileLogger(cfg *config.Config) arbor.ILogger {
	l, err := withFile(arbor.NewLogger(), cfg)
	if err != nil {
		return Discard()
	}
	return install(l.WithLevelFromString(cfg.Logging.Level))
}

// Discard installs a logger that keeps entries in memory only. Tests use it
// to stay quiet.
func Discard() arbor.ILogger {
	return install(arbor.NewLogger().WithMemoryWriter(writerConfig(nil, models.LogWriterTypeMemory, "")))
}

func withFile(l arbor.ILogger, cfg *config.Config) (arbor.ILogger, error) {
	path := cfg.LogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return l, err
	}
	return l.WithFileWriter(writerConfig(cfg, models.LogWriterTypeFile, path)), nil
}

func writerConfig(cfg *config.Config, writerType models.LogWriterType, filename string) models.WriterConfiguration {
	wc := models.WriterConfiguration{
		Type:       writerType,
		FileName:   filename,
		TimeFormat: defaultTimeFormat,
		OutputType: models.OutputFormatJSON,
		MaxSize:    defaultMaxSizeMB * 1024 * 1024,
		MaxBackups: defaultMaxBackups,
	}
	if cfg == nil {
		return wc
	}

	if cfg.Logging.TimeFormat != "" {
		wc.TimeFormat = cfg.Logging.TimeFormat
	}
	if cfg.Logging.Format == "text" {
		wc.OutputType = models.OutputFormatLogfmt
	}
	if cfg.Logging.MaxSizeMB > 0 {
		wc.MaxSize = int64(cfg.Logging.MaxSizeMB) * 1024 * 1024
	}
	if cfg.Logging.MaxBackups > 0 {
		wc.MaxBackups = cfg.Logging.MaxBackups
	}
	return wc
}

// Stop flushes buffered entries. Safe to call more than once.
func Stop() {
	arborcommon.Stop()
}
