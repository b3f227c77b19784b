package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "127.0.0.1:58046", c.BrokerAddress())
	assert.Equal(t, "127.0.0.1:59046", c.StorageAddress())
	assert.Equal(t, ".", c.FilesDir)
	assert.Equal(t, 15*time.Second, c.Timeout)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"user"}

	cfg := LoadConfig()

	var want Config
	want.LoadDefaults()
	assert.Empty(t, cmp.Diff(&want, cfg))
}

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"user", "-n", "10.0.0.1", "-p", "6000", "-m", "10.0.0.3", "-q", "6003", "-f", "/tmp/files", "-t", "20", "-v"},
			expected: &Config{
				BrokerHost:  "10.0.0.1",
				BrokerPort:  "6000",
				StorageHost: "10.0.0.3",
				StoragePort: "6003",
				FilesDir:    "/tmp/files",
				Timeout:     20 * time.Second,
				Verbose:     true,
			},
		},
		{name: "timeout not a number", args: []string{"user", "-t", "abc"}, expectPanic: true},
		{name: "zero timeout", args: []string{"user", "-t", "0"}, expectPanic: true},
		{name: "bad storage ip", args: []string{"user", "-m", "storage.local"}, expectPanic: true},
		{name: "bad broker port", args: []string{"user", "-p", "0"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			c := &Config{}
			c.LoadDefaults()

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(c) })
				return
			}
			require.NotPanics(t, func() { parseFlags(c) })
			assert.Empty(t, cmp.Diff(tt.expected, c))
		})
	}
}

func Test_parseJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("overlays present fields", func(t *testing.T) {
		path := writeTempJSON(t, map[string]any{
			"storage_host": "192.168.1.7",
			"files_dir":    "vault",
			"timeout":      "30s",
		})
		os.Args = []string{"user", "-config", path}

		c := &Config{}
		c.LoadDefaults()
		parseJson(c)

		assert.Equal(t, "192.168.1.7", c.StorageHost)
		assert.Equal(t, "vault", c.FilesDir)
		assert.Equal(t, 30*time.Second, c.Timeout)
		assert.Equal(t, "127.0.0.1", c.BrokerHost)
	})

	t.Run("no config flag leaves config untouched", func(t *testing.T) {
		os.Args = []string{"user"}
		c := &Config{BrokerHost: "10.1.1.1"}
		parseJson(c)
		assert.Equal(t, "10.1.1.1", c.BrokerHost)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ not json`), 0o600))
		os.Args = []string{"user", "-c", bad}
		require.Panics(t, func() { parseJson(&Config{}) })
	})
}
