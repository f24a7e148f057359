package logger

import (
	"os"
	"path/filepath"
	"testing"

	"tatte-go/config"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestInitWritesToFile(t *testing.T) {
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	path := filepath.Join(t.TempDir(), "logs", "tatte.log")
	require.NoError(t, Init(config.LogConfig{Level: "debug", File: path}))
	require.Equal(t, log.DebugLevel, log.GetLevel())

	log.Info("hello from test")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "hello from test")
}

func TestInitInvalidLevelFallsBack(t *testing.T) {
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	require.NoError(t, Init(config.LogConfig{Level: "chatty", Format: "json"}))
	require.Equal(t, log.InfoLevel, log.GetLevel())
	require.IsType(t, &log.JSONFormatter{}, log.StandardLogger().Formatter)
}

func TestInitRotatedFile(t *testing.T) {
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	path := filepath.Join(t.TempDir(), "tatte.log")
	require.NoError(t, Init(config.LogConfig{Level: "info", File: path, MaxAgeDays: 3}))
	log.Info("rotated entry")

	matches, err := filepath.Glob(path + ".*")
	require.NoError(t, err)
	require.NotEmpty(t, matches)
}
