package config

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultChunkSize, cfg.ChunkSize)
	assert.Equal(t, runtime.GOMAXPROCS(0), cfg.Workers)
	assert.Equal(t, 5*time.Minute, cfg.HTTP.Timeout)
	assert.Empty(t, cfg.DuckDB.DSN)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("FRAMEBRIDGE_LOG_LEVEL", "debug")
	t.Setenv("FRAMEBRIDGE_WORKERS", "3")
	t.Setenv("FRAMEBRIDGE_CHUNK_SIZE", "128")
	t.Setenv("FRAMEBRIDGE_S3__REGION", "eu-west-1")
	t.Setenv("FRAMEBRIDGE_S3__ACCESS_KEY", "key")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 128, cfg.ChunkSize)
	assert.Equal(t, "eu-west-1", cfg.S3.Region)
	assert.Equal(t, "key", cfg.S3.AccessKey)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "framebridge.yaml")
	content := "log_format: json\nchunk_size: 10\ns3:\n  endpoint: http://localhost:9000\nhttp:\n  timeout: 30s\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("FRAMEBRIDGE_CHUNK_SIZE", "20")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 20, cfg.ChunkSize, "env overrides file")
	assert.Equal(t, "http://localhost:9000", cfg.S3.Endpoint)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("FRAMEBRIDGE_CHUNK_SIZE", "-1")
	_, err := Load("")
	assert.Error(t, err)

	t.Setenv("FRAMEBRIDGE_CHUNK_SIZE", "10")
	t.Setenv("FRAMEBRIDGE_LOG_LEVEL", "loud")
	_, err = Load("")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.LogLevel = "info"
	cfg.NewLogger(&buf).Info("hello", "k", 1)
	assert.Contains(t, buf.String(), "msg=hello")

	buf.Reset()
	cfg.LogLevel = "off"
	cfg.NewLogger(&buf).Error("hidden")
	assert.Empty(t, buf.String())

	cfg.LogLevel = "debug"
	cfg.LogFormat = "json"
	cfg.NewLogger(&buf).Debug("structured")
	assert.Contains(t, buf.String(), `"msg":"structured"`)
}
