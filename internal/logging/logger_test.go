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

	"github.com/scrypster/coref/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}

func TestNew_TextFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "warn", Output: &buf})
	defer l.Close()

	l.Info("hidden")
	l.Warn("shown", "document", "doc-1")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "document=doc-1")
	assert.Contains(t, out, "service=coref")
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "info", Format: "json", Output: &buf})
	l.Info("resolved", "chains", 2)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "resolved", rec["msg"])
	assert.Equal(t, 2.0, rec["chains"])
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coref.log")
	var buf bytes.Buffer
	l := New(Options{Level: "debug", File: path, MaxSizeMB: 1, Output: &buf})

	l.Debug("to both")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to both")
	assert.Contains(t, buf.String(), "to both")
}

func TestFromConfig(t *testing.T) {
	opts := FromConfig(config.Defaults().Logging)
	assert.Equal(t, "info", opts.Level)
	assert.Equal(t, 50, opts.MaxSizeMB)
	assert.Nil(t, opts.Output)
}
