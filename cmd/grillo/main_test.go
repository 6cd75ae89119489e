package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreLogging(t *testing.T) {
	t.Helper()
	level := zerolog.GlobalLevel()
	logger := log.Logger
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(level)
		log.Logger = logger
	})
}

func TestInitLoggerLevels(t *testing.T) {
	restoreLogging(t)

	require.NoError(t, InitLogger(&logConfig{Level: "trace", LogFormat: "json"}))
	assert.Equal(t, zerolog.TraceLevel, zerolog.GlobalLevel())

	require.NoError(t, InitLogger(&logConfig{LogFormat: "json"}))
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	require.Error(t, InitLogger(&logConfig{Level: "loud"}))
}

func TestInitLoggerWritesLogFile(t *testing.T) {
	restoreLogging(t)
	path := filepath.Join(t.TempDir(), "grillo.log")

	require.NoError(t, InitLogger(&logConfig{Level: "info", LogFormat: "json", LogFile: path}))
	log.Info().Str("sender_id", "alice").Msg("written to file")
	log.Debug().Msg("filtered out")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "written to file")
	assert.Contains(t, string(b), "sender_id=alice")
	assert.NotContains(t, string(b), "filtered out")
}
