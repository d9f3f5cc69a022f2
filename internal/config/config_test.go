package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvConfigPath, "DATABASE_URL", "APP_PORT", "APP_ENV", "LOG_LEVEL",
		"LOG_FILE", "JWT_SECRET", "ACCESS_CSV", "DB_MAX_CONNS", "ACCESS_TOKEN_TTL"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 10*1024, cfg.Audit.CompressThreshold)
	assert.True(t, cfg.IsDevelopment())
	assert.Error(t, cfg.Validate())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "physio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  env: production
  port: "9000"
database:
  url: postgres://file/physio
log:
  level: debug
auth:
  jwt_secret: from-file
  access_token_ttl: 1h
`), 0o600))

	clearEnv(t)
	t.Setenv(EnvConfigPath, path)
	t.Setenv("DATABASE_URL", "postgres://env/physio")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://env/physio", cfg.Database.URL)
	assert.Equal(t, "9000", cfg.App.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, time.Hour, cfg.Auth.AccessTokenTTL)
	assert.False(t, cfg.IsDevelopment())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_BadEnvValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("ACCESS_TOKEN_TTL", "soon")

	_, err := Load()
	assert.ErrorContains(t, err, "ACCESS_TOKEN_TTL")
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvConfigPath, filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate_ProductionNeedsSecret(t *testing.T) {
	cfg := Default()
	cfg.App.Env = "production"
	cfg.Database.URL = "postgres://x"
	assert.ErrorContains(t, cfg.Validate(), "jwt_secret")
}
