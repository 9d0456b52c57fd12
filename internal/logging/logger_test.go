package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meeting-agent/chatwidget/internal/config"
)

func TestNewHonoursLevel(t *testing.T) {
	logger, err := New(config.LogConfig{Level: "warn"})
	require.NoError(t, err)

	assert.False(t, logger.Core().Enabled(-1), "debug should be disabled")
	assert.True(t, logger.Core().Enabled(1), "warn should be enabled")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(config.LogConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestToFileWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.log")
	logger, err := ToFile(config.LogConfig{Level: "info"}, path)
	require.NoError(t, err)

	logger.Info("submission settled")
	_ = logger.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"msg":"submission settled"`)
}
