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
	t.Setenv("ZORK_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "test-key", cfg.GeminiAPIKey)
	assert.Equal(t, ".zork/world.db", cfg.DBPath)
	assert.Equal(t, 4*time.Second, cfg.AutoPlayInterval)
	assert.Equal(t, 800*time.Millisecond, cfg.PaceDelay)
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("ZORK_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("GEMINI_API_KEY", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zork.yaml")
	content := "gemini_api_key: from-file\ndb_path: /tmp/file.db\npace_delay: 100ms\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("ZORK_CONFIG", path)
	t.Setenv("GEMINI_API_KEY", "from-env")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.GeminiAPIKey, "env wins over file")
	assert.Equal(t, "/tmp/file.db", cfg.DBPath)
	assert.Equal(t, 100*time.Millisecond, cfg.PaceDelay)
	assert.Equal(t, 4*time.Second, cfg.AutoPlayInterval, "unset fields keep defaults")
}
