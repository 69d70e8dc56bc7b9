// Package config provides configuration management for scicalc-service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the service configuration.
type Config struct {
	Service    ServiceConfig    `yaml:"service"`
	API        APIConfig        `yaml:"api"`
	MCP        MCPConfig        `yaml:"mcp"`
	Logging    LoggingConfig    `yaml:"logging"`
	Calculator CalculatorConfig `yaml:"calculator"`
}

// ServiceConfig contains service-level settings.
type ServiceConfig struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	DataDir string `yaml:"data_dir"`
}

// APIConfig contains API settings.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
}

// MCPConfig contains MCP server settings.
type MCPConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig contains log output settings.
type LoggingConfig struct {
	Level      string   `yaml:"level"`
	Format     string   `yaml:"format"` // "json" or "text"
	Output     []string `yaml:"output"` // "console", "stdout", "file", "both"
	TimeFormat string   `yaml:"time_format"`
	MaxSizeMB  int      `yaml:"max_size_mb"`
	MaxBackups int      `yaml:"max_backups"`
}

// CalculatorConfig contains calculator session settings.
type CalculatorConfig struct {
	// ErrorDisplay is how long the Error sentinel stays on screen before the
	// session clears itself.
	ErrorDisplay time.Duration `yaml:"error_display"`

	// SessionTTL drops sessions idle for longer than this. Zero keeps them forever.
	SessionTTL time.Duration `yaml:"session_ttl"`

	// KeymapPath points at an optional TOML file overriding key bindings.
	KeymapPath string `yaml:"keymap_path"`

	// WatchKeymap reloads the keymap file when it changes.
	WatchKeymap bool `yaml:"watch_keymap"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Host:    "127.0.0.1",
			Port:    8421,
			DataDir: DefaultDataDir(),
		},
		API: APIConfig{
			Enabled: true,
			APIKey:  "", // Empty = no auth for localhost
		},
		MCP: MCPConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"console"},
		},
		Calculator: CalculatorConfig{
			ErrorDisplay: 2 * time.Second,
			SessionTTL:   30 * time.Minute,
			WatchKeymap:  true,
		},
	}
}

// DefaultDataDir returns the default data directory based on OS.
func DefaultDataDir() string {
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "scicalc-service")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "AppData", "Roaming", "scicalc-service")
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "scicalc-service")
	default: // linux and others
		xdgData := os.Getenv("XDG_DATA_HOME")
		if xdgData != "" {
			return filepath.Join(xdgData, "scicalc-service")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".scicalc-service")
	}
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultDataDir(), "config.yaml")
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if no config file exists
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand environment variables in the config
	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.Service.DataDir = expandHome(cfg.Service.DataDir)
	cfg.Calculator.KeymapPath = expandHome(cfg.Calculator.KeymapPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	if c.Service.Port < 0 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid service port %d", c.Service.Port)
	}
	if c.Calculator.ErrorDisplay < 0 {
		return fmt.Errorf("invalid calculator error_display %s", c.Calculator.ErrorDisplay)
	}
	if c.Calculator.SessionTTL < 0 {
		return fmt.Errorf("invalid calculator session_ttl %s", c.Calculator.SessionTTL)
	}
	return nil
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// Save saves the configuration to a file.
func (c *Config) Save(path string) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Address returns the full address string for the HTTP server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Service.Host, c.Service.Port)
}

// LogPath returns the path to the service log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.Service.DataDir, "logs", "scicalc-service.log")
}

// PIDPath returns the path to the service PID file.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Service.DataDir, "scicalc-service.pid")
}

// EnsureDirectories creates all necessary directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Service.DataDir,
		filepath.Dir(c.LogPath()),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}
