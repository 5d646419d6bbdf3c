package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig_FillsServerDefaults(t *testing.T) {
	config := NewDefaultConfig(ServerProcess)

	assert.Equal(t, BaseDataDir, config.LogDir)
	assert.Equal(t, ServerProcess, config.ProcessName)
	assert.True(t, config.IsDevelopment)
}

func TestInitServiceLogger_InitializesOnce(t *testing.T) {
	config := NewDefaultConfig(ServerProcess)
	config.LogDir = t.TempDir()

	require.NoError(t, InitServiceLogger(config))

	first := GetServiceLogger()
	require.NotNil(t, first)

	// A second init is a no-op; the logger instance is unchanged.
	other := NewDefaultConfig(ServerProcess)
	other.LogDir = t.TempDir()
	require.NoError(t, InitServiceLogger(other))
	assert.Same(t, first, GetServiceLogger())

	first.Info("service logger smoke entry", "key", "value")
	Shutdown()
}
