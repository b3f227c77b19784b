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

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "59046", c.Port)
	assert.Equal(t, "127.0.0.1:58046", c.BrokerAddress)
	assert.Equal(t, BackendDisk, c.Backend)
	assert.Equal(t, 5*time.Second, c.ValidateTimeout)
	assert.Equal(t, ":59046", c.Address())
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"storage"}

	c := LoadConfig()

	var want Config
	want.LoadDefaults()
	assert.Empty(t, cmp.Diff(&want, c))
}

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"storage", "-p", "7000", "-a", "10.0.0.1:58046", "-b", "s3", "-bucket", "files", "-t", "2", "-v", "-c", "ignored.json"}
	c := &Config{}
	c.LoadDefaults()
	require.NotPanics(t, func() { parseFlags(c) })

	assert.Equal(t, "7000", c.Port)
	assert.Equal(t, "10.0.0.1:58046", c.BrokerAddress)
	assert.Equal(t, BackendS3, c.Backend)
	assert.Equal(t, "files", c.S3Bucket)
	assert.Equal(t, 2*time.Second, c.ValidateTimeout)
	assert.True(t, c.Verbose)

	os.Args = []string{"storage", "-t", "later"}
	require.Panics(t, func() { parseFlags(&Config{}) })
}

func Test_parseJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(map[string]any{
		"backend":          "s3",
		"s3_root_user":     "minio",
		"s3_root_password": "minio123",
		"validate_timeout": "750ms",
		"idle_timeout":     30000000000,
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	os.Args = []string{"storage", "-config", path}

	c := &Config{}
	c.LoadDefaults()
	parseJson(c)

	assert.Equal(t, BackendS3, c.Backend)
	assert.Equal(t, "minio", c.S3RootUser)
	assert.Equal(t, "minio123", c.S3RootPassword)
	assert.Equal(t, 750*time.Millisecond, c.ValidateTimeout)
	assert.Equal(t, 30*time.Second, c.IdleTimeout)
	assert.Equal(t, "vault", c.S3Bucket, "absent field keeps default")
}
