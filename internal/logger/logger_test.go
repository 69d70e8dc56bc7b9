package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/scicalc/internal/config"
)

func TestSetupLogger_FileOutput(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Service.DataDir = t.TempDir()
	cfg.Logging.Output = []string{"file"}
	cfg.Logging.Level = "debug"

	log := SetupLogger(cfg)
	require.NotNil(t, log)
	assert.NotNil(t, GetLogger())

	info, err := os.Stat(filepath.Dir(cfg.LogPath()))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	log.Info().Str("component", "test").Msg("file logger ready")
}

func TestSetupLogger_NoOutputsFallsBackToConsole(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Service.DataDir = t.TempDir()
	cfg.Logging.Output = nil

	log := SetupLogger(cfg)
	require.NotNil(t, log)
	assert.NotNil(t, GetLogger())

	_, err := os.Stat(filepath.Dir(cfg.LogPath()))
	assert.True(t, os.IsNotExist(err), "no log directory without file output")
}

func TestSetupFileLogger(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Service.DataDir = t.TempDir()
	cfg.Logging.Output = []string{"console"}

	log := SetupFileLogger(cfg)
	require.NotNil(t, log)
	log.Info().Msg("file only")

	info, err := os.Stat(filepath.Dir(cfg.LogPath()))
	require.NoError(t, err, "the file logger ignores the configured outputs")
	assert.True(t, info.IsDir())
}

func TestSetupFileLogger_UnwritableDirDiscards(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	cfg := config.DefaultConfig()
	cfg.Service.DataDir = blocker

	assert.NotNil(t, SetupFileLogger(cfg))
	GetLogger().Info().Msg("dropped")
}

func TestSinks(t *testing.T) {
	tests := []struct {
		outputs       []string
		file, console bool
	}{
		{outputs: []string{"file"}, file: true},
		{outputs: []string{"stdout"}, console: true},
		{outputs: []string{"console", "file"}, file: true, console: true},
		{outputs: []string{"both"}, file: true, console: true},
		{outputs: nil},
	}

	for _, tt := range tests {
		cfg := config.DefaultConfig()
		cfg.Logging.Output = tt.outputs
		file, console := sinks(cfg)
		assert.Equal(t, tt.file, file, "%v", tt.outputs)
		assert.Equal(t, tt.console, console, "%v", tt.outputs)
	}
}

func TestDiscard(t *testing.T) {
	log := Discard()
	assert.NotNil(t, GetLogger())
	log.Debug().Msg("quiet")
}
