package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger("planner", &buf, DEBUG)

	logger.Trace("не попадёт")
	logger.Debug("откат %d", 3)
	logger.Warn("исчерпание")

	out := buf.String()
	assert.NotContains(t, out, "не попадёт")
	assert.Contains(t, out, "[DEBUG] [planner] откат 3")
	assert.Contains(t, out, "[WARN] [planner] исчерпание")
	assert.False(t, logger.Enabled(TRACE))
	assert.True(t, logger.Enabled(ERROR))
}

func TestInitDefaultLogger_WritesFile(t *testing.T) {
	dir := t.TempDir()
	SetLogDir(dir)
	defer SetLogDir("logs")

	require.NoError(t, InitDefaultLogger("botsim"))
	Debug("отладочное сообщение")
	CloseDefaultLogger()

	files, err := filepath.Glob(filepath.Join(dir, "botsim_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "отладочное сообщение")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, INFO, ParseLevel("что-то"))
}

func TestManager_Register(t *testing.T) {
	var buf bytes.Buffer
	GetLoggerManager().Register("test-component", NewWriterLogger("test-component", &buf, TRACE))
	GetComponentLogger("test-component").Trace("привет")
	assert.Contains(t, buf.String(), "привет")
}
