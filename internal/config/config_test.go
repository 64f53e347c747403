package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "pyre", cfg.Server.Binary)
	assert.Equal(t, 120*time.Second, cfg.GetTimeout())
	assert.Equal(t, 0, cfg.Query.BatchSize)
	assert.False(t, cfg.Logging.Verbose)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typequery.yaml")
	contents := `
server:
  binary: /opt/analysis/bin/server
  args: ["--noninteractive"]
  timeout: 30s
query:
  batch_size: 50
logging:
  verbose: true
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/opt/analysis/bin/server", cfg.Server.Binary)
	assert.Equal(t, []string{"--noninteractive"}, cfg.Server.Args)
	assert.Equal(t, 30*time.Second, cfg.GetTimeout())
	assert.Equal(t, 50, cfg.Query.BatchSize)
	assert.True(t, cfg.Logging.Verbose)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("binary and timeout", func(t *testing.T) {
		t.Setenv("TYPEQUERY_SERVER_BINARY", "/usr/local/bin/pyre")
		t.Setenv("TYPEQUERY_TIMEOUT", "5s")

		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)

		assert.Equal(t, "/usr/local/bin/pyre", cfg.Server.Binary)
		assert.Equal(t, 5*time.Second, cfg.GetTimeout())
	})

	t.Run("batch size", func(t *testing.T) {
		t.Setenv("TYPEQUERY_BATCH_SIZE", "25")

		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		assert.Equal(t, 25, cfg.Query.BatchSize)
	})

	t.Run("env overrides file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "typequery.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  binary: from-file\n"), 0o644))
		t.Setenv("TYPEQUERY_SERVER_BINARY", "from-env")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.Server.Binary)
	})

	t.Run("verbose flag", func(t *testing.T) {
		t.Setenv("TYPEQUERY_VERBOSE", "true")

		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		assert.True(t, cfg.Logging.Verbose)
	})
}

func TestValidate(t *testing.T) {
	t.Run("negative batch size rejected", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Query.BatchSize = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad timeout rejected", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Server.Timeout = "soon"
		assert.Error(t, cfg.Validate())
	})

	t.Run("empty binary rejected", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Server.Binary = ""
		assert.Error(t, cfg.Validate())
	})
}
