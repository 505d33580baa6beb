package commons

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_OverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
database:
  driver: mysql
  connMaxLifetime: 90s
redis:
  enabled: true
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 90*time.Second, cfg.Database.ConnMaxLifetime)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "stub", cfg.Payment.Provider)
}

func TestLoadConfig_ShippedFileIsValid(t *testing.T) {
	cfg, err := LoadConfig("../config/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "E-1", cfg.Registry.CanonicalCategory)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading config file")

	_, err = LoadConfig(writeConfig(t, "server: [unterminated"))
	assert.ErrorContains(t, err, "parsing config file")

	_, err = LoadConfig(writeConfig(t, "payment:\n  provider: paypal\n"))
	assert.ErrorContains(t, err, "invalid config file")
}
