package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docshelf.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
addr: ":9000"
data_dir: /var/lib/docshelf
pool_size: 4
max_upload_mb: 100
reader:
  host: http://llm.internal:8000/v1
  timeout: 5m
  max_text_chars: 60000
  identities:
    - name: claude
      model: claude-sonnet-4-5
    - name: codex
      model: gpt-5-codex
      host: http://other.internal:8000/v1
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "/var/lib/docshelf", cfg.DataDir)
	assert.Equal(t, 4, cfg.PoolSize)
	assert.Equal(t, int64(100<<20), cfg.MaxUploadBytes())

	rc := cfg.ReaderConfig()
	assert.Equal(t, "http://llm.internal:8000/v1", rc.Host)
	assert.Equal(t, 5*time.Minute, rc.Timeout)
	assert.Equal(t, 60000, rc.MaxTextChars)
	require.Len(t, rc.Identities, 2)
	assert.Equal(t, "claude", rc.Identities[0].Name)
	assert.Equal(t, "http://other.internal:8000/v1", rc.Identities[1].Host)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "data_dir: /tmp/lib\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, int64(50<<20), cfg.MaxUploadBytes())
	assert.Equal(t, 0, cfg.PoolSize)

	rc := cfg.ReaderConfig()
	assert.Equal(t, 10*time.Minute, rc.Timeout)
	require.Len(t, rc.Identities, 2, "stock identities when none configured")
	assert.Equal(t, "claude", rc.Identities[0].Name)
	assert.Equal(t, "codex", rc.Identities[1].Name)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeConfig(t, "data_dir: [unclosed\n")
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("missing data_dir", func(t *testing.T) {
		path := writeConfig(t, "addr: \":9000\"\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "data_dir")
	})
}
