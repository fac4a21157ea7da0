package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbconsole/dbconsole/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestNewJSONToWriter(t *testing.T) {
	var buf bytes.Buffer
	logger, closer := New(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	defer closer.Close()

	logger.Debug("hidden")
	logger.Info("backend call", "op", "roles.list")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "backend call", rec["msg"])
	assert.Equal(t, "roles.list", rec["op"])
}

func TestNewRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dbconsole.log")
	logger, closer := New(config.LoggingConfig{Level: "debug", Format: "text", File: path, MaxSizeMB: 1}, os.Stderr)

	logger.Debug("written to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}
