package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "downloads", cfg.Downloads.Dir)
	assert.Equal(t, 4, cfg.Downloads.MaxConcurrent)
	assert.Equal(t, 100, cfg.Downloads.QueueSize)
	assert.Equal(t, 10, cfg.Downloads.MaxURLsPerRequest)
	assert.True(t, cfg.Transcription.Enabled)
	assert.Equal(t, "base", cfg.Transcription.Model)
	assert.Equal(t, "tasks.json", cfg.Snapshot.Path)
	assert.Equal(t, 24, cfg.Snapshot.MaxAgeHours)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("YTDL_SERVER_PORT", "9000")
	t.Setenv("YTDL_SERVER_LOG_LEVEL", "debug")
	t.Setenv("YTDL_DOWNLOADS_MAX_CONCURRENT", "8")
	t.Setenv("YTDL_TRANSCRIPTION_ENABLED", "false")
	t.Setenv("YTDL_SNAPSHOT_PATH", "/var/lib/ytdl/tasks.json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 8, cfg.Downloads.MaxConcurrent)
	assert.False(t, cfg.Transcription.Enabled)
	assert.Equal(t, "/var/lib/ytdl/tasks.json", cfg.Snapshot.Path)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Run("port out of range", func(t *testing.T) {
		t.Setenv("YTDL_SERVER_PORT", "70000")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})

	t.Run("unknown log level", func(t *testing.T) {
		t.Setenv("YTDL_SERVER_LOG_LEVEL", "loud")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})

	t.Run("non-positive worker count", func(t *testing.T) {
		t.Setenv("YTDL_DOWNLOADS_MAX_CONCURRENT", "0")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})
}
