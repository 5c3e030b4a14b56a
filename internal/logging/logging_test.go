package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConsole(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log, err := New(&buf, Options{Level: "info"})
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("parsed module")
	require.NoError(t, log.Sync())

	out := buf.String()
	assert.Contains(t, out, "parsed module")
	assert.NotContains(t, out, "hidden")
}

func TestNewDefaultLevelIsWarn(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log, err := New(&buf, Options{})
	require.NoError(t, err)

	log.Info("quiet")
	log.Warn("cyclic class heritage")

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "cyclic class heritage")
}

func TestNewFile(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "litmodel.log")
	log, err := New(&buf, Options{Level: "debug", File: path})
	require.NoError(t, err)

	log.Debug("unresolved superclass")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"unresolved superclass"`)
}

func TestNewUnknownLevel(t *testing.T) {
	t.Parallel()
	_, err := New(&bytes.Buffer{}, Options{Level: "loud"})
	require.Error(t, err)
}
