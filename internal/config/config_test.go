package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, time.Second, cfg.TickInterval)
	assert.Equal(t, 10*time.Minute, cfg.NarrationCacheTTL)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("HTTP_ADDR", ":9999")
	os.Unsetenv("API_KEY")
	os.Unsetenv("GEMINI_API_KEY")
	t.Cleanup(func() {
		os.Unsetenv("API_KEY")
		os.Unsetenv("LOG_LEVEL")
	})

	env := "API_KEY=legacy\nLOG_LEVEL=DEBUG\nHTTP_ADDR=:7000\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.HTTPAddr, "real environment wins over .env")
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "legacy", cfg.GeminiKey())
}

func TestLoadRejectsBadTick(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TICK_INTERVAL", "0s")

	_, err := Load()
	assert.Error(t, err, "zero tick interval")
}
