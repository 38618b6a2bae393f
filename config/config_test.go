package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-bridge/executor"
	"github.com/momentics/hioload-bridge/internal/concurrency"
	"github.com/momentics/hioload-bridge/internal/logging"
)

func TestDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	want := File{Runtime: Runtime{
		Flavor:        "multi_thread",
		WorkerThreads: concurrency.NumCPUs(),
		QueueCapacity: 1024,
		ThreadName:    "hioload-bridge-worker",
	}}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "current_thread.toml"))
	require.NoError(t, err)

	want := Runtime{
		Flavor:        "current_thread",
		WorkerThreads: concurrency.NumCPUs(),
		QueueCapacity: 256,
		ThreadName:    "bridge-local",
	}
	if diff := cmp.Diff(want, cfg.Runtime); diff != "" {
		t.Fatalf("runtime mismatch (-want +got):\n%s", diff)
	}

	lc := logging.Config{Level: zerolog.InfoLevel}
	cfg.Logging.Overlay(&lc)
	assert.Equal(t, zerolog.DebugLevel, lc.Level)
	assert.True(t, lc.JSON)
	assert.False(t, lc.NoColor)

	b, err := cfg.Runtime.Builder()
	require.NoError(t, err)
	assert.Equal(t, executor.CurrentThread, b.Flavor())
}

func TestValidation(t *testing.T) {
	cases := map[string]string{
		"flavor":    "[runtime]\nflavor = \"green\"\n",
		"workers":   "[runtime]\nworker_threads = 0\n",
		"queue":     "[runtime]\nqueue_capacity = -1\n",
		"name":      "[runtime]\nthread_name = \"  \"\n",
		"pin":       "[runtime]\npin_workers = [-1]\n",
		"log level": "[logging]\nlevel = \"loud\"\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestUnknownKeysRejected(t *testing.T) {
	_, err := Parse([]byte("[runtime]\nworkers = 4\n"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEncodeRoundTripsThroughParse(t *testing.T) {
	in := Default()
	in.Runtime.PinWorkers = []int{0}
	data, err := Encode(in)
	require.NoError(t, err)
	out, err := Parse(data)
	require.NoError(t, err)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRuntimeMap(t *testing.T) {
	m := Default().Runtime.Map()
	assert.Equal(t, "multi_thread", m["runtime.flavor"])
	assert.NotContains(t, m, "runtime.pin_workers")
}
