package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")

	_, sync, err := Init(Config{Level: "info", File: path, MaxSizeMB: 1})
	require.NoError(t, err)
	t.Cleanup(func() { InfoLogger, FatalLogger = nil, nil })

	old := SetServiceName("grid_test")
	defer SetServiceName(old)

	Debug("hidden %d", 1)
	Info("[TEST] price=%.2f", 101.5)
	sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"[TEST] price=101.50"`)
	assert.Contains(t, string(data), `"service":"grid_test"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestInit_BadLevel(t *testing.T) {
	_, _, err := Init(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNopBeforeInit(t *testing.T) {
	InfoLogger = nil
	assert.NotPanics(t, func() { Info("x"); Error("y") })
}
