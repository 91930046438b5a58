package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FRUITSHOP_AUTH_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.AuthSecret)
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Address())
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, 320*time.Millisecond, cfg.Latency)
	assert.Equal(t, 10*time.Second, cfg.RemoteTimeout)
	assert.Equal(t, uint64(20251101), cfg.FakerSeed)
	assert.Empty(t, cfg.RemoteBaseURL)
	assert.False(t, cfg.IsProduction())
}

func TestLoadReadsEnvironmentAndFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(
		"port: \"9000\"\nstorage:\n  driver: sqlite\n  redis:\n    prefix: shop:\n"), 0o600))
	t.Setenv("FRUITSHOP_PORT", "9100")
	t.Setenv("FRUITSHOP_REMOTE_BASE_URL", " http://erp.local/api ")
	t.Setenv("FRUITSHOP_LATENCY", "0s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Port)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "shop:", cfg.Storage.RedisPrefix)
	assert.Equal(t, "http://erp.local/api", cfg.RemoteBaseURL)
	assert.Zero(t, cfg.Latency)
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("FRUITSHOP_STORAGE_DRIVER=redis\n"), 0o600))
	t.Setenv("FRUITSHOP_STORAGE_DRIVER", "")
	os.Unsetenv("FRUITSHOP_STORAGE_DRIVER")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Storage.Driver)
	os.Unsetenv("FRUITSHOP_STORAGE_DRIVER")
}
