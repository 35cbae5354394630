package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	content := "SERVER_ADDRESS=127.0.0.1:9000\nPOSTGRES_CONN=postgres://u:p@localhost:5432/market\nNOTIFY_WORKERS=8\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte(content), 0o600))
	t.Setenv("BOOST_DURATION", "2h")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.ServerAddress)
	assert.Equal(t, 8, cfg.NotifyWorkers)
	assert.Equal(t, 256, cfg.NotifyQueueSize)
	assert.Equal(t, 2*time.Hour, cfg.BoostDuration)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "@every 5m", cfg.BoostSweepSpec)
	assert.Equal(t, StoragePostgres, cfg.StorageDriver)
}

func TestLoadConfigWithoutFiles(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", StorageMemory)

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, "unlisted-market", cfg.ServiceName)
	assert.Equal(t, uint(3), cfg.NotifyMaxRetries)
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "mongo")

	_, err := LoadConfig(t.TempDir())
	require.Error(t, err)
}

func TestLoadConfigRequiresPostgresConn(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", StoragePostgres)
	t.Setenv("POSTGRES_CONN", "")

	_, err := LoadConfig(t.TempDir())
	require.Error(t, err)
}
