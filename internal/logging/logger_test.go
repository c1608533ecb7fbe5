package logging

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel(" DEBUG "))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
	assert.Equal(t, LevelInfo, ParseLevel(""))
}

func TestLoggerFiltersBelowMinLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, LevelInfo)

	logger.Debugf("hidden %d", 1)
	logger.Infof("shown %d", 2)
	logger.Errorf("failed %s", "request")
	require.NoError(t, logger.Close())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "shown 2")
	assert.Contains(t, out, "ERROR")
	assert.Contains(t, out, "failed request")
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "client.log")
	logger, err := New(path, LevelDebug)
	require.NoError(t, err)

	logger.Debugf("storefront client starting")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "storefront client starting")
}

func TestNewRejectsEmptyPath(t *testing.T) {
	_, err := New("", LevelInfo)
	require.Error(t, err)
}

func TestNilLoggerIsSafe(t *testing.T) {
	var logger *Logger
	logger.Infof("ignored")
	assert.Equal(t, LevelInfo, logger.Level())
	assert.NoError(t, logger.Close())
}

func TestContextCarriesLogger(t *testing.T) {
	logger := NewNop()
	ctx := WithContext(context.Background(), logger)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, logger, got)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}
