package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/todosoa/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	c, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "todos-hypermedia", c.Store.Name)
	assert.Equal(t, config.BackendFile, c.Store.Backend)
	assert.Equal(t, "todo", c.Host.Domain)
	assert.Equal(t, 5*time.Second, c.Host.Timeout)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, ":8080", c.Admin.Addr)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "todosoa.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  backend: sqlite
  path: /tmp/todos.db
host:
  timeout: 250ms
redis:
  db: 3
`), 0644))

	t.Setenv("TODOSOA_STORE_NAME", "groceries")
	t.Setenv("TODOSOA_LOG_LEVEL", "debug")

	c, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, config.BackendSQLite, c.Store.Backend)
	assert.Equal(t, "/tmp/todos.db", c.Store.Path)
	assert.Equal(t, 250*time.Millisecond, c.Host.Timeout)
	assert.Equal(t, 3, c.Redis.DB)
	assert.Equal(t, "groceries", c.Store.Name, "env overrides file and defaults")
	assert.Equal(t, "debug", c.Log.Level)
}

func TestLoad_WorkingDirectoryFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "todosoa.yaml"), []byte("store:\n  backend: memory\n"), 0644))
	chdir(t, dir)

	c, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.BackendMemory, c.Store.Backend)
}

func TestLoad_Invalid(t *testing.T) {
	chdir(t, t.TempDir())

	t.Setenv("TODOSOA_STORE_BACKEND", "floppy")
	_, err := config.Load("")
	assert.ErrorContains(t, err, "floppy")

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
