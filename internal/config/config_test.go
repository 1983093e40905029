package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"studentperf/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DB_DRIVER", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 0.3, cfg.Training.TestFraction)
	assert.Equal(t, int64(12), cfg.Training.Seed)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  driver: sqlite
  url: file:students.db
models:
  dir: /var/lib/models
training:
  seed: 7
cache:
  size: 4
  ttl: 5m
log:
  level: debug
`), 0o644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("MODELS_DIR", "/srv/models")
	t.Setenv("LOG_LEVEL", "WARN")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file:students.db", cfg.Database.URL)
	assert.Equal(t, "/srv/models", cfg.Models.Dir, "environment wins over the file")
	assert.Equal(t, int64(7), cfg.Training.Seed)
	assert.Equal(t, 0.3, cfg.Training.TestFraction, "unset keys keep defaults")
	assert.Equal(t, 4, cfg.Cache.Size)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DB_DRIVER", "oracle")
	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))

	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("TEST_FRACTION", "1.5")
	_, err = Load()
	assert.Error(t, err)
}
