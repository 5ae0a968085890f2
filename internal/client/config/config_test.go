package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()
	assert.Equal(t, "http://127.0.0.1:8080", c.ServerURL)
	assert.Equal(t, "wordbook.db", c.SessionDB)
	assert.Equal(t, 30*time.Second, c.Timeout)
}

func TestLoadConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cli.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server_url":"http://file:1","timeout":"5s"}`), 0o600))

	t.Setenv("WORDBOOK_CLI_SERVER_URL", "http://env:2")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(&Config{
		ServerURL: "http://env:2",
		SessionDB: "wordbook.db",
		Timeout:   5 * time.Second,
	}, cfg))
}

func TestLoadConfig_NoFile(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "wordbook.db", cfg.SessionDB)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{ nope`), 0o600))
	_, err = LoadConfig(bad)
	require.ErrorContains(t, err, "parse config")
}
