package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	env := newTestEnv(t)

	out := env.run("init")
	env.contains(out, "Created")
	assert.FileExists(t, filepath.Join(env.dir, ".dock", "config.yaml"))

	// Reads and writes now go to the local config.
	out = env.run("config", "search.max_results", "9")
	env.contains(out, "(local)")
}

func TestInit_AlreadyInitialised(t *testing.T) {
	env := newTestEnv(t)
	env.run("init")

	out, err := env.runErr("init")
	assert.Error(t, err)
	env.contains(out, "already exists")
}

func TestInit_Force(t *testing.T) {
	env := newTestEnv(t)
	env.run("init")
	env.run("config", "search.max_results", "9")

	env.run("init", "--force")

	out := env.run("config", "search.max_results")
	env.equals(out, "10")
}

func TestInit_CopiesGlobal(t *testing.T) {
	env := newTestEnv(t)
	env.run("config", "search.debounce", "250ms")

	env.run("init")

	data, err := os.ReadFile(filepath.Join(env.dir, ".dock", "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "250ms")
}

func TestInit_RecordsDir(t *testing.T) {
	env := newTestEnv(t)
	store := filepath.Join(env.dir, "store")

	env.run("init", "--dir", store)

	out := env.run("config", "storage.dir")
	env.equals(out, store)
}
