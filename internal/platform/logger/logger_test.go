package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"murmur/internal/platform/logger"
)

func TestParseLevelDefaultsToInfo(t *testing.T) {
	t.Parallel()
	assert.Equal(t, logger.LevelDebug, logger.ParseLevel(" DEBUG "))
	assert.Equal(t, logger.LevelWarn, logger.ParseLevel("warn"))
	assert.Equal(t, logger.LevelInfo, logger.ParseLevel("verbose"))
	assert.Equal(t, logger.LevelInfo, logger.ParseLevel(""))
}

func TestConfigureWritesComponentField(t *testing.T) {
	var buf bytes.Buffer
	logger.Configure(logger.LevelInfo, false, &buf)

	l := logger.With("dispatch")
	l.Info().Str("session_id", "s-1").Msg("reply appended")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "dispatch", entry["component"])
	assert.Equal(t, "s-1", entry["session_id"])
	assert.Equal(t, "reply appended", entry["message"])
}
