package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, 40, cfg.GetUndoLimit())
	assert.Equal(t, "@every 10s", cfg.GetAutosave())
	assert.False(t, cfg.Publish.Enabled())

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultDataDir(), cfg.DataDir)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: /srv/builder
catalog: components.yaml
autosave: "@every 30s"
undo_limit: 100
publish:
  driver: postgres
  host: db.internal
  database: site
  username: cms
  password_env: PB_TEST_PW
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/builder", cfg.DataDir)
	assert.Equal(t, filepath.Join("/srv/builder", "components.yaml"), cfg.CatalogPath())
	assert.Equal(t, "/srv/builder/pagebuilder.db", filepath.ToSlash(cfg.DBPath()))
	assert.Equal(t, "@every 30s", cfg.GetAutosave())
	assert.Equal(t, 100, cfg.GetUndoLimit())
	assert.Equal(t, 2*time.Second, cfg.GetPollInterval(), "unset keys keep defaults")

	require.True(t, cfg.Publish.Enabled())
	assert.Equal(t, "postgres", cfg.Publish.GetName())
	t.Setenv("PB_TEST_PW", "hunter2")
	assert.Equal(t, "hunter2", cfg.Publish.Password())
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("undo_limit: [oops"), 0644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestGetters(t *testing.T) {
	cfg := &Config{UndoLimit: -1, PollInterval: "soon"}
	assert.Equal(t, 40, cfg.GetUndoLimit())
	assert.Equal(t, 2*time.Second, cfg.GetPollInterval())
	cfg.PollInterval = "500ms"
	assert.Equal(t, 500*time.Millisecond, cfg.GetPollInterval())

	cfg.Catalog = "/abs/components.yaml"
	assert.Equal(t, "/abs/components.yaml", cfg.CatalogPath())
	cfg.Catalog = ""
	assert.Empty(t, cfg.CatalogPath())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)
	cfg := DefaultConfig()
	cfg.DataDir = "/tmp/pb"
	cfg.Publish = PublishConfig{Driver: "sqlite", Host: "/tmp/site.db", Table: "site"}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
