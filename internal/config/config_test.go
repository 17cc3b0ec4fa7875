package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("PORT", "8088")
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("TIMEZONE", "Asia/Jakarta")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("METRICS_EXPORTER", "none")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8088", cfg.Port)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "Asia/Jakarta", cfg.Location().String())
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shop.yaml")
	require.NoError(t, os.WriteFile(path, []byte("PORT: \"9000\"\nSTORE_DRIVER: memory\nMETRICS_EXPORTER: none\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
}

func TestLoad_RejectsUnknownValues(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")
	_, err := Load("")
	assert.Error(t, err)

	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("TIMEZONE", "Mars/Olympus")
	_, err = Load("")
	assert.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	cfg := Default()
	cfg.DBHost, cfg.DBUser, cfg.DBName, cfg.DBPort = "db", "shop", "shopdb", "5433"
	assert.Contains(t, cfg.PostgresDSN(), "host=db user=shop")
	assert.Contains(t, cfg.PostgresDSN(), "port=5433")

	cfg.DatabaseURL = "postgres://u:p@h/db"
	assert.Equal(t, "postgres://u:p@h/db", cfg.PostgresDSN())
}
