package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, selectLevel(true, false, zerolog.WarnLevel))
	assert.Equal(t, zerolog.ErrorLevel, selectLevel(false, true, zerolog.WarnLevel))
	assert.Equal(t, zerolog.WarnLevel, selectLevel(false, false, zerolog.WarnLevel))
	assert.Equal(t, zerolog.DebugLevel, selectLevel(true, true, zerolog.InfoLevel), "verbose wins")
}

func TestNew_ConsoleIsJSONWhenNotATerminal(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(Options{Console: &buf})
	require.NoError(t, err)
	defer closer.Close()

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "shown", entry["message"])
	assert.NotEmpty(t, entry["run_id"])
	assert.EqualValues(t, os.Getpid(), entry["pid"])
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "awake.log")

	logger, closer, err := New(Options{File: path})
	require.NoError(t, err)
	logger.Info().Msg("assertions held")
	logger.Debug().Msg("not at info")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "assertions held")
	assert.NotContains(t, string(data), "not at info")
}

func TestNew_RunIDsDiffer(t *testing.T) {
	var a, b bytes.Buffer
	la, _, err := New(Options{Console: &a})
	require.NoError(t, err)
	lb, _, err := New(Options{Console: &b})
	require.NoError(t, err)

	la.Warn().Msg("x")
	lb.Warn().Msg("x")

	var ea, eb map[string]any
	require.NoError(t, json.Unmarshal(a.Bytes(), &ea))
	require.NoError(t, json.Unmarshal(b.Bytes(), &eb))
	assert.NotEqual(t, ea["run_id"], eb["run_id"])
}
