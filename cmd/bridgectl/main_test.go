package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-bridge/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigCommandPrintsDefaults(t *testing.T) {
	out, err := execute(t, "config")
	require.NoError(t, err)
	cfg, err := config.Parse([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, config.Default().Runtime, cfg.Runtime)
}

func TestConfigCommandValidatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.toml")
	require.NoError(t, os.WriteFile(path, []byte("[runtime]\nflavor = \"current_thread\"\n"), 0o600))
	out, err := execute(t, "config", "--config", path, "--validate")
	require.NoError(t, err)
	assert.Equal(t, "config ok\n", out)

	require.NoError(t, os.WriteFile(path, []byte("[runtime]\nqueue_capacity = 0\n"), 0o600))
	_, err = execute(t, "config", "--config", path)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestRunCommand(t *testing.T) {
	out, err := execute(t, "run", "--flavor", "current_thread", "--tasks", "3", "--delay", "1ms", "--log-level", "off")
	require.NoError(t, err)
	assert.Contains(t, out, "block_on: 49\n")
	assert.Contains(t, out, "into_coroutine: 3 tasks, sum of squares 14\n")
	assert.Contains(t, out, "bridge.spawned = 4\n")

	_, err = execute(t, "run", "--tasks", "0")
	assert.Error(t, err)
}
