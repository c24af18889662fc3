package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(Config{Level: "info", Format: "json"}, &buf)

	l.Debug("hidden")
	l.Info("cart saved", "items", 2)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "cart saved", rec["msg"])
	assert.Equal(t, float64(2), rec["items"])
}

func TestNewWithWriter_Text(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(Config{Level: "debug", Format: "text"}, &buf)
	l.Debug("lookup dropped")
	assert.Contains(t, buf.String(), "msg=\"lookup dropped\"")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "storefront.log")
	l, err := New(Config{Output: "file", FilePath: path, MaxSize: 1})
	require.NoError(t, err)
	l.Info("hello")
	assert.FileExists(t, path)
}

func TestNew_UnknownOutput(t *testing.T) {
	_, err := New(Config{Output: "syslog"})
	assert.Error(t, err)
}
